package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/tour-backoffice/internal/assignment"
	"github.com/example/tour-backoffice/internal/persistence"
)

// AssignmentService resolves a city's effective hotel list and applies the
// operator's reassignment operations through the write-behind store.
type AssignmentService struct {
	accommodations persistence.AccommodationRepository
	hotels         persistence.HotelDirectory
	overrides      *OverrideStore
	logger         *slog.Logger
}

// NewAssignmentService wires dependencies for hotel-assignment operations.
func NewAssignmentService(accommodations persistence.AccommodationRepository, hotels persistence.HotelDirectory, overrides *OverrideStore, logger *slog.Logger) *AssignmentService {
	return &AssignmentService{
		accommodations: accommodations,
		hotels:         hotels,
		overrides:      overrides,
		logger:         defaultLogger(logger),
	}
}

// ResolveCityHotels computes which hotels the city renders and which bookings
// sit under each. A city without data yields an empty assignment.
func (s *AssignmentService) ResolveCityHotels(ctx context.Context, city string) (assignment.CityAssignment, error) {
	if s == nil {
		return assignment.CityAssignment{}, fmt.Errorf("AssignmentService is nil")
	}
	if strings.TrimSpace(city) == "" {
		return assignment.CityAssignment{}, nil
	}

	canonical, err := s.accommodations.CityStays(ctx, city)
	if err != nil {
		return assignment.CityAssignment{}, err
	}

	directory, err := s.hotelDirectory(ctx)
	if err != nil {
		return assignment.CityAssignment{}, err
	}

	state := s.overrides.Snapshot()
	return assignment.ResolveCityHotels(city, canonical, state, directory), nil
}

// AssignBookingToHotel records a single manual reassignment and returns the
// updated override state. Reassigning to a hotel outside the city's working
// set is not rejected here; the resolver falls back to the originating hotel
// until the target appears.
func (s *AssignmentService) AssignBookingToHotel(ctx context.Context, params AssignBookingParams) (assignment.OverrideState, error) {
	vErr := &ValidationError{}
	if strings.TrimSpace(params.City) == "" {
		vErr.add("city", "city is required")
	}
	if strings.TrimSpace(params.BookingID) == "" {
		vErr.add("booking_id", "booking id is required")
	}
	if strings.TrimSpace(params.HotelID) == "" {
		vErr.add("hotel_id", "hotel id is required")
	}
	if params.CheckIn.IsZero() {
		vErr.add("check_in", "check-in date is required")
	}
	if vErr.HasErrors() {
		return assignment.OverrideState{}, vErr
	}

	key := assignment.StayKey{
		City:        params.City,
		BookingID:   params.BookingID,
		CheckInDate: assignment.DateKey(params.CheckIn),
	}

	state := s.overrides.Update(func(state assignment.OverrideState) assignment.OverrideState {
		return assignment.AssignStay(state, key, params.HotelID)
	})

	serviceLogger(ctx, s.logger, "assignment", "assign_booking", "city", params.City, "booking", params.BookingID).
		Info("booking reassigned", "hotel", params.HotelID)
	return state, nil
}

// ClearBookingAssignment removes a manual reassignment, restoring the stay to
// its originating hotel.
func (s *AssignmentService) ClearBookingAssignment(ctx context.Context, key assignment.StayKey) (assignment.OverrideState, error) {
	state := s.overrides.Update(func(state assignment.OverrideState) assignment.OverrideState {
		return assignment.ClearAssignment(state, key)
	})
	return state, nil
}

// AddExtraHotel registers an operator-added hotel for the city. With
// BulkReassign set, every stay of the city's existing hotels whose local
// status is not CONFIRMED moves to the new hotel in the same edit.
func (s *AssignmentService) AddExtraHotel(ctx context.Context, params AddExtraHotelParams) (assignment.OverrideState, error) {
	vErr := &ValidationError{}
	if strings.TrimSpace(params.City) == "" {
		vErr.add("city", "city is required")
	}
	if strings.TrimSpace(params.HotelID) == "" {
		vErr.add("hotel_id", "hotel id is required")
	}
	if vErr.HasErrors() {
		return assignment.OverrideState{}, vErr
	}

	if _, err := s.hotels.GetHotel(ctx, params.HotelID); err != nil {
		return assignment.OverrideState{}, mapRepoError(err)
	}

	var resolved assignment.CityAssignment
	if params.BulkReassign {
		var err error
		resolved, err = s.ResolveCityHotels(ctx, params.City)
		if err != nil {
			return assignment.OverrideState{}, err
		}
	}

	state := s.overrides.Update(func(state assignment.OverrideState) assignment.OverrideState {
		state = assignment.AddExtraHotel(state, params.City, params.HotelID)
		if params.BulkReassign {
			for _, group := range resolved.Hotels {
				if group.Hotel.ID == params.HotelID {
					continue
				}
				state = assignment.BulkReassign(state, params.City, group.Stays, params.HotelID, state.RowStatuses)
			}
		}
		return state
	})

	serviceLogger(ctx, s.logger, "assignment", "add_extra_hotel", "city", params.City).
		Info("extra hotel added", "hotel", params.HotelID, "bulk", params.BulkReassign)
	return state, nil
}

// ReplaceHotel migrates every stay currently rendered under one hotel to
// another and adjusts extra-hotel membership accordingly.
func (s *AssignmentService) ReplaceHotel(ctx context.Context, params ReplaceHotelParams) (assignment.OverrideState, error) {
	vErr := &ValidationError{}
	if strings.TrimSpace(params.City) == "" {
		vErr.add("city", "city is required")
	}
	if strings.TrimSpace(params.FromHotelID) == "" {
		vErr.add("from_hotel_id", "source hotel id is required")
	}
	if strings.TrimSpace(params.ToHotelID) == "" {
		vErr.add("to_hotel_id", "target hotel id is required")
	}
	if params.FromHotelID != "" && params.FromHotelID == params.ToHotelID {
		vErr.add("to_hotel_id", "target hotel must differ from source")
	}
	if vErr.HasErrors() {
		return assignment.OverrideState{}, vErr
	}

	if _, err := s.hotels.GetHotel(ctx, params.ToHotelID); err != nil {
		return assignment.OverrideState{}, mapRepoError(err)
	}

	resolved, err := s.ResolveCityHotels(ctx, params.City)
	if err != nil {
		return assignment.OverrideState{}, err
	}

	canonical, err := s.accommodations.CityStays(ctx, params.City)
	if err != nil {
		return assignment.OverrideState{}, err
	}
	canonicalIDs := make(map[string]struct{}, len(canonical))
	for _, hs := range canonical {
		canonicalIDs[hs.Hotel.ID] = struct{}{}
	}

	state := s.overrides.Update(func(state assignment.OverrideState) assignment.OverrideState {
		return assignment.ReplaceHotel(state, params.City, params.FromHotelID, params.ToHotelID, resolved, canonicalIDs)
	})

	serviceLogger(ctx, s.logger, "assignment", "replace_hotel", "city", params.City).
		Info("hotel replaced", "from", params.FromHotelID, "to", params.ToHotelID)
	return state, nil
}

// RemoveHotel drops a hotel from the city's working set. Overrides pointing at
// it are cleared, so affected stays return to their originating hotels.
func (s *AssignmentService) RemoveHotel(ctx context.Context, city, hotelID string) (assignment.OverrideState, error) {
	vErr := &ValidationError{}
	if strings.TrimSpace(city) == "" {
		vErr.add("city", "city is required")
	}
	if strings.TrimSpace(hotelID) == "" {
		vErr.add("hotel_id", "hotel id is required")
	}
	if vErr.HasErrors() {
		return assignment.OverrideState{}, vErr
	}

	state := s.overrides.Update(func(state assignment.OverrideState) assignment.OverrideState {
		return assignment.RemoveHotel(state, city, hotelID)
	})

	serviceLogger(ctx, s.logger, "assignment", "remove_hotel", "city", city).
		Info("hotel removed", "hotel", hotelID)
	return state, nil
}

func (s *AssignmentService) hotelDirectory(ctx context.Context) (map[string]assignment.Hotel, error) {
	hotels, err := s.hotels.ListHotels(ctx)
	if err != nil {
		return nil, err
	}
	directory := make(map[string]assignment.Hotel, len(hotels))
	for _, hotel := range hotels {
		directory[hotel.ID] = assignment.Hotel{ID: hotel.ID, Name: hotel.Name, City: hotel.City}
	}
	return directory, nil
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
