package persistence

import "time"

// Hotel is a hotel-directory entry. LocalCurrency and LocalThreshold feed the
// allocator's currency-classification rule for room lines without an explicit
// currency.
type Hotel struct {
	ID             string
	Name           string
	City           string
	LocalCurrency  string
	LocalThreshold float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BookingGroup is a tour booking as persisted by the booking subsystem.
type BookingGroup struct {
	ID        string
	Code      string
	TourType  string
	Cancelled bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
