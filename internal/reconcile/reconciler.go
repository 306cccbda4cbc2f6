// Package reconcile merges the two independently persisted confirmation-status
// stores into one effective value per stay row.
//
// The local store is keyed by (hotel, booking, check-in date) and is written by
// the operator's row edits. The remote "plan" store is keyed by (hotel,
// booking, visit ordinal) and is written by the hotel-coordination workflow at
// a different time. Exact date strings can diverge after a reschedule, so the
// merge matches by date first and falls back to ordinal position. When both
// phases miss reality (a stay inserted or removed between the two writes shifts
// ordinals), the merge adopts the wrong status; that is an inherited limitation
// of the dual-store design, not something this package papers over.
package reconcile

import (
	"sort"
	"time"

	"github.com/example/tour-backoffice/internal/assignment"
)

// PlanEntry is one remote confirmation record for a booking's stay. CheckIn is
// a date string as the remote workflow recorded it; Ordinal is the stay's rank
// at the time of the remote write.
type PlanEntry struct {
	Ordinal int
	CheckIn string
	Status  assignment.ConfirmationStatus
}

// PlanRecord holds the remote entries of one hotel, per booking. Pending
// entries are never carried over from the remote store.
type PlanRecord map[string][]PlanEntry

// HotelRows is the row key-space of one hotel: the stays currently rendered
// under it.
type HotelRows struct {
	HotelID string
	Stays   []assignment.Stay
}

// Merge reconciles the local status map with the remote plans across the given
// hotels. The result lives in the local key-space: rows matched against a
// remote entry adopt its status, unmatched rows keep their local value, and
// local entries for stays outside the current snapshot pass through untouched.
func Merge(local map[assignment.StatusKey]assignment.ConfirmationStatus, plans map[string]PlanRecord, hotels []HotelRows) map[assignment.StatusKey]assignment.ConfirmationStatus {
	merged := make(map[assignment.StatusKey]assignment.ConfirmationStatus, len(local))
	for key, status := range local {
		merged[key] = status
	}

	for _, hotel := range hotels {
		record := plans[hotel.HotelID]
		if len(record) == 0 {
			continue
		}
		ordinals := assignment.Ordinals(hotel.Stays)
		for i, stay := range hotel.Stays {
			key := stay.StatusKeyAt(hotel.HotelID)
			status, ok := matchRow(key, ordinals[i], record[stay.BookingID])
			if ok {
				merged[key] = status
			}
		}
	}

	return merged
}

// matchRow applies the two-phase strategy for one row: exact date match wins
// over ordinal position.
func matchRow(key assignment.StatusKey, ordinal int, entries []PlanEntry) (assignment.ConfirmationStatus, bool) {
	for _, entry := range entries {
		if entry.Status == assignment.StatusPending {
			continue
		}
		if normalizeDate(entry.CheckIn) == key.CheckInDate && key.CheckInDate != "" {
			return entry.Status, true
		}
	}

	ranked := rankByCheckIn(entries)
	if ordinal >= 0 && ordinal < len(ranked) {
		entry := ranked[ordinal]
		if entry.Status != assignment.StatusPending {
			return entry.Status, true
		}
	}

	return "", false
}

// rankByCheckIn orders remote entries by their own check-in date so that
// ordinal positions computed independently on both sides line up. Entries
// without a parseable date keep their relative order at the end.
func rankByCheckIn(entries []PlanEntry) []PlanEntry {
	ranked := make([]PlanEntry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return lessByDate(ranked[i], ranked[j])
	})
	return ranked
}

func lessByDate(a, b PlanEntry) bool {
	ta, okA := parseDate(a.CheckIn)
	tb, okB := parseDate(b.CheckIn)
	if !okA || !okB {
		return okA && !okB
	}
	return ta.Before(tb)
}

// dateLayouts covers the formats the remote workflow has been observed to
// write.
var dateLayouts = []string{time.DateOnly, time.RFC3339, "02.01.2006"}

func parseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func normalizeDate(value string) string {
	t, ok := parseDate(value)
	if !ok {
		return value
	}
	return assignment.DateKey(t)
}
