package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/tour-backoffice/internal/persistence"
)

// HotelRepository implements persistence.HotelDirectory using SQLite.
type HotelRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	now    func() time.Time
}

// NewHotelRepository creates a new SQLite hotel repository.
func NewHotelRepository(pool *ConnectionPool, now func() time.Time) *HotelRepository {
	if now == nil {
		now = time.Now
	}
	return &HotelRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		now:    now,
	}
}

// CreateHotel inserts a new hotel into the directory.
func (r *HotelRepository) CreateHotel(ctx context.Context, hotel persistence.Hotel) error {
	if hotel.ID == "" || hotel.Name == "" || hotel.City == "" {
		return persistence.ErrConstraintViolation
	}

	stamp := r.now().UTC()
	hotel.CreatedAt = stamp
	hotel.UpdatedAt = stamp

	query := `
		INSERT INTO hotels (id, name, city, local_currency, local_threshold, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		hotel.ID,
		hotel.Name,
		hotel.City,
		hotel.LocalCurrency,
		hotel.LocalThreshold,
		hotel.CreatedAt.Format(time.RFC3339),
		hotel.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// UpdateHotel updates an existing directory entry.
func (r *HotelRepository) UpdateHotel(ctx context.Context, hotel persistence.Hotel) error {
	if hotel.ID == "" || hotel.Name == "" || hotel.City == "" {
		return persistence.ErrConstraintViolation
	}

	hotel.UpdatedAt = r.now().UTC()

	query := `
		UPDATE hotels
		SET name = ?, city = ?, local_currency = ?, local_threshold = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		hotel.Name,
		hotel.City,
		hotel.LocalCurrency,
		hotel.LocalThreshold,
		hotel.UpdatedAt.Format(time.RFC3339),
		hotel.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// GetHotel retrieves a hotel by ID.
func (r *HotelRepository) GetHotel(ctx context.Context, id string) (persistence.Hotel, error) {
	if id == "" {
		return persistence.Hotel{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, name, city, local_currency, local_threshold, created_at, updated_at
		FROM hotels
		WHERE id = ?
	`

	hotel, err := scanHotel(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Hotel{}, persistence.ErrNotFound
		}
		return persistence.Hotel{}, r.mapper.MapError(err)
	}

	return hotel, nil
}

// ListHotels returns the full directory ordered by city, name, then id.
func (r *HotelRepository) ListHotels(ctx context.Context) ([]persistence.Hotel, error) {
	query := `
		SELECT id, name, city, local_currency, local_threshold, created_at, updated_at
		FROM hotels
		ORDER BY city ASC, name ASC, id ASC
	`
	return r.listHotels(ctx, query)
}

// ListHotelsByCity returns the directory entries of one city ordered by name.
func (r *HotelRepository) ListHotelsByCity(ctx context.Context, city string) ([]persistence.Hotel, error) {
	query := `
		SELECT id, name, city, local_currency, local_threshold, created_at, updated_at
		FROM hotels
		WHERE city = ?
		ORDER BY name ASC, id ASC
	`
	return r.listHotels(ctx, query, city)
}

// DeleteHotel removes a hotel and clears override rows pointing at it.
func (r *HotelRepository) DeleteHotel(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(tx, "DELETE FROM hotel_assignments WHERE hotel_id = ?", id); err != nil {
			return r.mapper.MapError(err)
		}
		if _, err := r.helper.ExecTx(tx, "DELETE FROM extra_hotels WHERE hotel_id = ?", id); err != nil {
			return r.mapper.MapError(err)
		}

		result, err := r.helper.ExecTx(tx, "DELETE FROM hotels WHERE id = ?", id)
		if err != nil {
			return r.mapper.MapError(err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return persistence.ErrNotFound
		}

		return nil
	})
}

func (r *HotelRepository) listHotels(ctx context.Context, query string, args ...any) ([]persistence.Hotel, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var hotels []persistence.Hotel
	for rows.Next() {
		hotel, err := scanHotel(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		hotels = append(hotels, hotel)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return hotels, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHotel(row rowScanner) (persistence.Hotel, error) {
	var hotel persistence.Hotel
	var createdAtStr, updatedAtStr string

	if err := row.Scan(
		&hotel.ID,
		&hotel.Name,
		&hotel.City,
		&hotel.LocalCurrency,
		&hotel.LocalThreshold,
		&createdAtStr,
		&updatedAtStr,
	); err != nil {
		return persistence.Hotel{}, err
	}

	var err error
	if hotel.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Hotel{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if hotel.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Hotel{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return hotel, nil
}
