// Package testfixtures provides deterministic clocks, identifier generators,
// and domain fixtures shared across the test suites.
package testfixtures

import (
	"sync"
	"time"

	"github.com/example/tour-backoffice/internal/allocation"
	"github.com/example/tour-backoffice/internal/assignment"
	"github.com/example/tour-backoffice/internal/persistence"
)

// ReferenceTime returns the shared anchor instant fixtures build dates from:
// a season-opening Monday morning.
func ReferenceTime() time.Time {
	return time.Date(2024, time.April, 1, 9, 0, 0, 0, time.UTC)
}

// Day returns the reference date shifted by the given number of days, at
// midnight UTC, matching how check-in dates arrive from upstream.
func Day(offset int) time.Time {
	anchor := ReferenceTime()
	return time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

// Hotel builds a directory entry with the given identity in the given city.
func Hotel(id, name, city string) persistence.Hotel {
	return persistence.Hotel{
		ID:            id,
		Name:          name,
		City:          city,
		LocalCurrency: "UZS",
		CreatedAt:     ReferenceTime(),
		UpdatedAt:     ReferenceTime(),
	}
}

// Block builds an accommodation block spanning [checkInDay, checkOutDay) in
// reference-day offsets.
func Block(id, bookingID, hotelID string, checkInDay, checkOutDay int, rooms ...allocation.RoomLine) allocation.AccommodationBlock {
	return allocation.AccommodationBlock{
		ID:        id,
		BookingID: bookingID,
		HotelID:   hotelID,
		CheckIn:   Day(checkInDay),
		CheckOut:  Day(checkOutDay),
		Rooms:     rooms,
	}
}

// TouristStay builds a tourist's occupancy of a block with the given room
// preference.
func TouristStay(touristID, blockID, pref string, checkInDay, checkOutDay int) allocation.TouristStay {
	return allocation.TouristStay{
		TouristID:      touristID,
		BlockID:        blockID,
		CheckIn:        Day(checkInDay),
		CheckOut:       Day(checkOutDay),
		RoomPreference: pref,
	}
}

// Stay builds an assignment stay for resolver and reconciler tests.
func Stay(city, bookingID, hotelID string, checkInDay, checkOutDay int) assignment.Stay {
	return assignment.Stay{
		City:      city,
		BookingID: bookingID,
		HotelID:   hotelID,
		CheckIn:   Day(checkInDay),
		CheckOut:  Day(checkOutDay),
	}
}

// ManualScheduler implements the write-behind store's timer injection point.
// Armed callbacks are held until Fire is called, so tests control exactly when
// a flush happens without real timers.
type ManualScheduler struct {
	mu         sync.Mutex
	pending    func()
	pendingSeq int
	armed      int
	cancelled  int
}

// NewManualScheduler returns an empty scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Schedule records the callback and returns a cancel function, replacing any
// previously armed callback the way a re-armed timer would. Cancelling an
// already superseded callback is a no-op.
func (m *ManualScheduler) Schedule(d time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed++
	seq := m.armed
	m.pending = fn
	m.pendingSeq = seq
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.pendingSeq == seq && m.pending != nil {
			m.pending = nil
			m.cancelled++
		}
	}
}

// Fire runs the armed callback, if any, and reports whether one ran.
func (m *ManualScheduler) Fire() bool {
	m.mu.Lock()
	fn := m.pending
	m.pending = nil
	m.mu.Unlock()

	if fn == nil {
		return false
	}
	fn()
	return true
}

// ArmedCount reports how many times a callback was scheduled.
func (m *ManualScheduler) ArmedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.armed
}

// CancelledCount reports how many armed callbacks were cancelled before firing.
func (m *ManualScheduler) CancelledCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelled
}
