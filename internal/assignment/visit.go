package assignment

import "sort"

// VisitKey groups stays that share a booking and a hotel for ordinal
// assignment.
type VisitKey struct {
	BookingID string
	HotelID   string
}

// Ordinals assigns each stay its visit ordinal: the zero-based rank of its
// check-in date among all stays of the same booking at the same hotel. The
// result is parallel to the input. Ranking sorts by check-in date with a
// stable sort, so the mapping from stay to ordinal depends only on the dates
// and not on storage order; ties keep input order. Duplicate check-in dates
// at one hotel do not occur in valid data.
func Ordinals(stays []Stay) []int {
	groups := make(map[VisitKey][]int)
	for i, stay := range stays {
		key := VisitKey{BookingID: stay.BookingID, HotelID: stay.HotelID}
		groups[key] = append(groups[key], i)
	}

	ordinals := make([]int, len(stays))
	for _, indices := range groups {
		ranked := make([]int, len(indices))
		copy(ranked, indices)
		sort.SliceStable(ranked, func(a, b int) bool {
			return stays[ranked[a]].CheckIn.Before(stays[ranked[b]].CheckIn)
		})
		for rank, idx := range ranked {
			ordinals[idx] = rank
		}
	}
	return ordinals
}

// OrdinalOf computes the visit ordinal of the stay at position target within
// stays. It exists for callers that hold a single row and need its rank
// without retaining the full parallel slice.
func OrdinalOf(stays []Stay, target int) int {
	if target < 0 || target >= len(stays) {
		return -1
	}
	return Ordinals(stays)[target]
}
