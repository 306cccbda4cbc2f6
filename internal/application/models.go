package application

import (
	"time"

	"github.com/example/tour-backoffice/internal/assignment"
)

// AssignBookingParams identifies one stay and the hotel it should move to.
type AssignBookingParams struct {
	City      string
	BookingID string
	CheckIn   time.Time
	HotelID   string
}

// AddExtraHotelParams registers an operator-added hotel for a city.
// BulkReassign additionally moves every non-confirmed stay of the city's
// existing hotels to the new hotel.
type AddExtraHotelParams struct {
	City         string
	HotelID      string
	BulkReassign bool
}

// ReplaceHotelParams migrates all stays rendered under FromHotelID to
// ToHotelID within a city.
type ReplaceHotelParams struct {
	City        string
	FromHotelID string
	ToHotelID   string
}

// SetRowStatusParams records a local confirmation-status edit for one row.
type SetRowStatusParams struct {
	Key    assignment.StatusKey
	Status assignment.ConfirmationStatus
}
