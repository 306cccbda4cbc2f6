package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/tour-backoffice/internal/assignment"
	"github.com/example/tour-backoffice/internal/persistence"
)

// OverrideRepository implements persistence.OverrideRepository using SQLite.
// The override state is persisted as one snapshot: SaveOverrides replaces the
// previous snapshot wholesale, matching the last-write-wins contract of the
// write-behind store.
type OverrideRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewOverrideRepository creates a new SQLite override repository.
func NewOverrideRepository(pool *ConnectionPool) *OverrideRepository {
	return &OverrideRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

// LoadOverrides reads the persisted override snapshot. An empty database
// yields an empty state, not an error.
func (r *OverrideRepository) LoadOverrides(ctx context.Context) (assignment.OverrideState, error) {
	state := assignment.NewOverrideState()

	rows, err := r.helper.Query(ctx, "SELECT city, hotel_id FROM extra_hotels ORDER BY city ASC, position ASC")
	if err != nil {
		return assignment.OverrideState{}, r.mapper.MapError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var city, hotelID string
		if err := rows.Scan(&city, &hotelID); err != nil {
			return assignment.OverrideState{}, r.mapper.MapError(err)
		}
		state.ExtraHotels[city] = append(state.ExtraHotels[city], hotelID)
	}
	if err := rows.Err(); err != nil {
		return assignment.OverrideState{}, r.mapper.MapError(err)
	}

	assignRows, err := r.helper.Query(ctx, "SELECT city, booking_id, check_in_date, hotel_id FROM hotel_assignments")
	if err != nil {
		return assignment.OverrideState{}, r.mapper.MapError(err)
	}
	defer assignRows.Close()
	for assignRows.Next() {
		var key assignment.StayKey
		var hotelID string
		if err := assignRows.Scan(&key.City, &key.BookingID, &key.CheckInDate, &hotelID); err != nil {
			return assignment.OverrideState{}, r.mapper.MapError(err)
		}
		state.HotelAssignments[key] = hotelID
	}
	if err := assignRows.Err(); err != nil {
		return assignment.OverrideState{}, r.mapper.MapError(err)
	}

	statusRows, err := r.helper.Query(ctx, "SELECT hotel_id, booking_id, check_in_date, status FROM row_statuses")
	if err != nil {
		return assignment.OverrideState{}, r.mapper.MapError(err)
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var key assignment.StatusKey
		var status string
		if err := statusRows.Scan(&key.HotelID, &key.BookingID, &key.CheckInDate, &status); err != nil {
			return assignment.OverrideState{}, r.mapper.MapError(err)
		}
		state.RowStatuses[key] = assignment.ConfirmationStatus(status)
	}
	if err := statusRows.Err(); err != nil {
		return assignment.OverrideState{}, r.mapper.MapError(err)
	}

	return state, nil
}

// SaveOverrides replaces the persisted snapshot with the given state. The
// whole replacement runs in one transaction and retries on transient lock
// errors, since the flush timer may fire while a reload holds the database.
func (r *OverrideRepository) SaveOverrides(ctx context.Context, state assignment.OverrideState) error {
	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, table := range []string{"extra_hotels", "hotel_assignments", "row_statuses"} {
				if _, err := r.helper.ExecTx(tx, "DELETE FROM "+table); err != nil {
					return r.mapper.MapError(err)
				}
			}

			for city, hotelIDs := range state.ExtraHotels {
				for position, hotelID := range hotelIDs {
					if _, err := r.helper.ExecTx(tx,
						"INSERT INTO extra_hotels (city, hotel_id, position) VALUES (?, ?, ?)",
						city, hotelID, position,
					); err != nil {
						return r.mapper.MapError(err)
					}
				}
			}

			for key, hotelID := range state.HotelAssignments {
				if _, err := r.helper.ExecTx(tx,
					"INSERT INTO hotel_assignments (city, booking_id, check_in_date, hotel_id) VALUES (?, ?, ?, ?)",
					key.City, key.BookingID, key.CheckInDate, hotelID,
				); err != nil {
					return r.mapper.MapError(err)
				}
			}

			for key, status := range state.RowStatuses {
				if _, err := r.helper.ExecTx(tx,
					"INSERT INTO row_statuses (hotel_id, booking_id, check_in_date, status) VALUES (?, ?, ?, ?)",
					key.HotelID, key.BookingID, key.CheckInDate, string(status),
				); err != nil {
					return r.mapper.MapError(err)
				}
			}

			return nil
		})
	})
}

var _ persistence.OverrideRepository = (*OverrideRepository)(nil)
