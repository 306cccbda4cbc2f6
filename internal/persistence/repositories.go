package persistence

import (
	"context"

	"github.com/example/tour-backoffice/internal/allocation"
	"github.com/example/tour-backoffice/internal/assignment"
	"github.com/example/tour-backoffice/internal/reconcile"
)

// HotelDirectory exposes the hotel catalog.
type HotelDirectory interface {
	CreateHotel(ctx context.Context, hotel Hotel) error
	UpdateHotel(ctx context.Context, hotel Hotel) error
	GetHotel(ctx context.Context, id string) (Hotel, error)
	ListHotels(ctx context.Context) ([]Hotel, error)
	ListHotelsByCity(ctx context.Context, city string) ([]Hotel, error)
	DeleteHotel(ctx context.Context, id string) error
}

// AccommodationRepository serves the read-only accommodation snapshot: hotel
// blocks per booking and the canonical per-city stay grouping the resolver
// starts from.
type AccommodationRepository interface {
	ListBlocksByCity(ctx context.Context, city string) ([]allocation.AccommodationBlock, error)
	ListBlocksByBooking(ctx context.Context, bookingID string) ([]allocation.AccommodationBlock, error)
	CityStays(ctx context.Context, city string) ([]assignment.HotelStays, error)
}

// RosterRepository serves the read-only tourist roster snapshot.
type RosterRepository interface {
	ListStaysForBlock(ctx context.Context, blockID string) ([]allocation.TouristStay, error)
	GeneralRoster(ctx context.Context) ([]allocation.RosterEntry, error)
}

// OverrideRepository persists the operator's override state as one opaque
// snapshot. Save replaces the previously persisted snapshot wholesale;
// concurrent sessions are last-write-wins by design.
type OverrideRepository interface {
	LoadOverrides(ctx context.Context) (assignment.OverrideState, error)
	SaveOverrides(ctx context.Context, state assignment.OverrideState) error
}

// PlanRepository serves the remote confirmation-plan records per hotel.
type PlanRepository interface {
	PlansForHotels(ctx context.Context, hotelIDs []string) (map[string]reconcile.PlanRecord, error)
}

// BookingRepository exposes booking groups for expense aggregation.
type BookingRepository interface {
	GetBooking(ctx context.Context, id string) (BookingGroup, error)
	ListBookings(ctx context.Context) ([]BookingGroup, error)
}
