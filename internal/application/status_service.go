package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/tour-backoffice/internal/assignment"
	"github.com/example/tour-backoffice/internal/persistence"
	"github.com/example/tour-backoffice/internal/reconcile"
)

// CityResolver yields the effective hotel/stay grouping the status rows key
// off. AssignmentService satisfies it.
type CityResolver interface {
	ResolveCityHotels(ctx context.Context, city string) (assignment.CityAssignment, error)
}

// StatusService merges the locally edited confirmation statuses with the
// remote plan records and records local row edits.
type StatusService struct {
	resolver  CityResolver
	plans     persistence.PlanRepository
	overrides *OverrideStore
	logger    *slog.Logger
}

// NewStatusService wires dependencies for status reconciliation.
func NewStatusService(resolver CityResolver, plans persistence.PlanRepository, overrides *OverrideStore, logger *slog.Logger) *StatusService {
	return &StatusService{
		resolver:  resolver,
		plans:     plans,
		overrides: overrides,
		logger:    defaultLogger(logger),
	}
}

// ReconcileStatuses computes the effective confirmation status for every row
// of the city's current assignment. Rows matched against a remote plan entry
// adopt its status; unmatched rows keep their local value or stay absent.
func (s *StatusService) ReconcileStatuses(ctx context.Context, city string) (map[assignment.StatusKey]assignment.ConfirmationStatus, error) {
	if s == nil {
		return nil, fmt.Errorf("StatusService is nil")
	}

	resolved, err := s.resolver.ResolveCityHotels(ctx, city)
	if err != nil {
		return nil, err
	}

	hotelIDs := make([]string, 0, len(resolved.Hotels))
	rows := make([]reconcile.HotelRows, 0, len(resolved.Hotels))
	for _, group := range resolved.Hotels {
		hotelIDs = append(hotelIDs, group.Hotel.ID)
		stays := make([]assignment.Stay, 0, len(group.Stays))
		for _, stay := range group.Stays {
			// Rows live at the effective hotel: ordinals must rank stays
			// where they currently render, not where they originated.
			effective := stay.Stay
			effective.HotelID = group.Hotel.ID
			stays = append(stays, effective)
		}
		rows = append(rows, reconcile.HotelRows{HotelID: group.Hotel.ID, Stays: stays})
	}

	plans, err := s.plans.PlansForHotels(ctx, hotelIDs)
	if err != nil {
		return nil, err
	}

	local := s.overrides.Snapshot().RowStatuses
	return reconcile.Merge(local, plans, rows), nil
}

// SetRowStatus records a local status edit through the write-behind store and
// returns the updated override state.
func (s *StatusService) SetRowStatus(ctx context.Context, params SetRowStatusParams) (assignment.OverrideState, error) {
	vErr := &ValidationError{}
	if strings.TrimSpace(params.Key.HotelID) == "" {
		vErr.add("hotel_id", "hotel id is required")
	}
	if strings.TrimSpace(params.Key.BookingID) == "" {
		vErr.add("booking_id", "booking id is required")
	}
	switch params.Status {
	case assignment.StatusPending, assignment.StatusConfirmed, assignment.StatusWaiting, assignment.StatusRejected:
	default:
		vErr.add("status", "unknown confirmation status")
	}
	if vErr.HasErrors() {
		return assignment.OverrideState{}, vErr
	}

	state := s.overrides.Update(func(state assignment.OverrideState) assignment.OverrideState {
		out := state.Clone()
		out.RowStatuses[params.Key] = params.Status
		return out
	})

	serviceLogger(ctx, s.logger, "status", "set_row_status", "hotel", params.Key.HotelID, "booking", params.Key.BookingID).
		Info("row status updated", "status", string(params.Status))
	return state, nil
}
