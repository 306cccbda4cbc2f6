package assignment

import (
	"time"

	"github.com/jinzhu/now"
)

// DateKey renders the civil date of t as the date component of composite keys.
// Times are normalized to the beginning of the day first so that key equality
// survives time-of-day noise in upstream records.
func DateKey(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return now.New(t).BeginningOfDay().Format(time.DateOnly)
}

// StayKey identifies one stay of one booking within a city. One booking can
// hold multiple stays in the same city (outbound and return legs), so the
// check-in date participates in identity.
type StayKey struct {
	City        string
	BookingID   string
	CheckInDate string
}

// StatusKey identifies one confirmation-status row: a booking's stay at a
// specific hotel on a specific check-in date.
type StatusKey struct {
	HotelID     string
	BookingID   string
	CheckInDate string
}

// ConfirmationStatus is the row-level confirmation state of a stay.
type ConfirmationStatus string

const (
	// StatusPending means no decision has been recorded yet.
	StatusPending ConfirmationStatus = "PENDING"
	// StatusConfirmed means the hotel confirmed the stay.
	StatusConfirmed ConfirmationStatus = "CONFIRMED"
	// StatusWaiting means the hotel placed the stay on a waiting list.
	StatusWaiting ConfirmationStatus = "WAITING"
	// StatusRejected means the hotel rejected or the operator cancelled the stay.
	StatusRejected ConfirmationStatus = "REJECTED"
)

// Stay is one booking's stay at one hotel, as loaded from the accommodation
// snapshot. HotelID is the originating hotel before any operator reassignment.
type Stay struct {
	City        string
	BookingID   string
	BookingCode string
	HotelID     string
	CheckIn     time.Time
	CheckOut    time.Time
}

// Key returns the stay's composite identity within its city.
func (s Stay) Key() StayKey {
	return StayKey{City: s.City, BookingID: s.BookingID, CheckInDate: DateKey(s.CheckIn)}
}

// StatusKeyAt returns the confirmation-status key for this stay at the given
// hotel, which may differ from the originating hotel after reassignment.
func (s Stay) StatusKeyAt(hotelID string) StatusKey {
	return StatusKey{HotelID: hotelID, BookingID: s.BookingID, CheckInDate: DateKey(s.CheckIn)}
}
