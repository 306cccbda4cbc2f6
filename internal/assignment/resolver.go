package assignment

import "sort"

// Hotel is the directory entry the resolver needs to materialize a hotel in a
// city's working set.
type Hotel struct {
	ID   string
	Name string
	City string
}

// HotelStays pairs a canonical hotel with the stays originating at it.
type HotelStays struct {
	Hotel Hotel
	Stays []Stay
}

// OverrideState is the operator-editable redirection state layered over the
// canonical itinerary. It is created on first edit, mutated in place by the
// write-behind store, and must survive recomputation against a refreshed
// snapshot.
type OverrideState struct {
	// ExtraHotels lists operator-added hotel ids per city.
	ExtraHotels map[string][]string
	// HotelAssignments redirects individual stays to manually chosen hotels.
	HotelAssignments map[StayKey]string
	// RowStatuses holds locally edited confirmation statuses.
	RowStatuses map[StatusKey]ConfirmationStatus
}

// NewOverrideState returns an empty state with initialized maps.
func NewOverrideState() OverrideState {
	return OverrideState{
		ExtraHotels:      make(map[string][]string),
		HotelAssignments: make(map[StayKey]string),
		RowStatuses:      make(map[StatusKey]ConfirmationStatus),
	}
}

// Clone returns a deep copy so snapshots can be handed to the persistence port
// without racing later edits.
func (s OverrideState) Clone() OverrideState {
	out := NewOverrideState()
	for city, ids := range s.ExtraHotels {
		copied := make([]string, len(ids))
		copy(copied, ids)
		out.ExtraHotels[city] = copied
	}
	for key, hotelID := range s.HotelAssignments {
		out.HotelAssignments[key] = hotelID
	}
	for key, status := range s.RowStatuses {
		out.RowStatuses[key] = status
	}
	return out
}

// ResolvedStay is a stay placed at its effective hotel, carrying the identity
// attributes downstream consumers group and reconcile by.
type ResolvedStay struct {
	Stay
	Ordinal       int
	OriginHotelID string
	Moved         bool
}

// HotelGroup is one hotel of a city's effective list with the stays currently
// rendered under it.
type HotelGroup struct {
	Hotel   Hotel
	Stays   []ResolvedStay
	IsExtra bool
}

// CityAssignment is the effective hotel list for one city: canonical hotels in
// itinerary order followed by operator-added extras.
type CityAssignment struct {
	City   string
	Hotels []HotelGroup
}

// ResolveCityHotels computes which hotels a city renders and which stays sit
// under each, applying the operator's override state on top of the canonical
// itinerary. Every stay lands at exactly one hotel: its override target when
// that hotel is part of the working set, its originating hotel otherwise.
// A city with neither canonical hotels nor extras yields an empty assignment;
// "no data yet" is an expected steady state.
func ResolveCityHotels(city string, canonical []HotelStays, state OverrideState, directory map[string]Hotel) CityAssignment {
	all := make([]Stay, 0)
	origin := make([]string, 0)
	for _, hs := range canonical {
		for _, stay := range hs.Stays {
			all = append(all, stay)
			origin = append(origin, hs.Hotel.ID)
		}
	}
	ordinals := Ordinals(all)

	// De-duplicate by composite key. The first occurrence wins; duplicates in
	// the snapshot would otherwise render the same stay under two hotels.
	seen := make(map[StayKey]struct{}, len(all))
	resolved := make([]ResolvedStay, 0, len(all))
	for i, stay := range all {
		key := stay.Key()
		key.City = city
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		resolved = append(resolved, ResolvedStay{
			Stay:          stay,
			Ordinal:       ordinals[i],
			OriginHotelID: origin[i],
		})
	}

	groups := make([]HotelGroup, 0, len(canonical))
	index := make(map[string]int)
	for _, hs := range canonical {
		if _, ok := index[hs.Hotel.ID]; ok {
			continue
		}
		index[hs.Hotel.ID] = len(groups)
		groups = append(groups, HotelGroup{Hotel: hs.Hotel})
	}
	for _, extraID := range state.ExtraHotels[city] {
		if _, ok := index[extraID]; ok {
			continue
		}
		hotel, ok := directory[extraID]
		if !ok {
			hotel = Hotel{ID: extraID, Name: extraID, City: city}
		}
		index[extraID] = len(groups)
		groups = append(groups, HotelGroup{Hotel: hotel, IsExtra: true})
	}

	for _, stay := range resolved {
		target := stay.OriginHotelID
		key := stay.Key()
		key.City = city
		if override, ok := state.HotelAssignments[key]; ok {
			if _, present := index[override]; present {
				target = override
			}
		}
		stay.Moved = target != stay.OriginHotelID
		pos := index[target]
		groups[pos].Stays = append(groups[pos].Stays, stay)
	}

	for i := range groups {
		stays := groups[i].Stays
		sort.SliceStable(stays, func(a, b int) bool {
			if stays[a].CheckIn.Equal(stays[b].CheckIn) {
				return stays[a].BookingID < stays[b].BookingID
			}
			return stays[a].CheckIn.Before(stays[b].CheckIn)
		})
	}

	return CityAssignment{City: city, Hotels: groups}
}

// AssignStay records a single manual reassignment. Applying the same
// assignment twice is a no-op on the second application.
func AssignStay(state OverrideState, key StayKey, hotelID string) OverrideState {
	out := state.Clone()
	out.HotelAssignments[key] = hotelID
	return out
}

// ClearAssignment removes a manual reassignment, restoring the stay to its
// originating hotel on the next resolve.
func ClearAssignment(state OverrideState, key StayKey) OverrideState {
	out := state.Clone()
	delete(out.HotelAssignments, key)
	return out
}

// AddExtraHotel registers an operator-added hotel for a city. Already
// registered ids are kept once.
func AddExtraHotel(state OverrideState, city, hotelID string) OverrideState {
	out := state.Clone()
	for _, id := range out.ExtraHotels[city] {
		if id == hotelID {
			return out
		}
	}
	out.ExtraHotels[city] = append(out.ExtraHotels[city], hotelID)
	return out
}

// BulkReassign points every given stay at the target hotel except those whose
// effective confirmation status is CONFIRMED; confirmed rows keep their
// current placement so an agreed reservation is never silently moved.
func BulkReassign(state OverrideState, city string, stays []ResolvedStay, targetHotelID string, statuses map[StatusKey]ConfirmationStatus) OverrideState {
	out := state.Clone()
	for _, stay := range stays {
		current := stay.OriginHotelID
		if override, ok := out.HotelAssignments[stayKeyIn(city, stay.Stay)]; ok {
			current = override
		}
		if statuses[stay.StatusKeyAt(current)] == StatusConfirmed {
			continue
		}
		out.HotelAssignments[stayKeyIn(city, stay.Stay)] = targetHotelID
	}
	return out
}

// ReplaceHotel migrates every stay currently rendered under fromID to toID and
// adjusts extra-hotel membership: the replacement joins the extras when it is
// not canonical for the city, and the replaced hotel leaves them.
func ReplaceHotel(state OverrideState, city string, fromID, toID string, assignment CityAssignment, canonicalIDs map[string]struct{}) OverrideState {
	out := state.Clone()
	for _, group := range assignment.Hotels {
		if group.Hotel.ID != fromID {
			continue
		}
		for _, stay := range group.Stays {
			out.HotelAssignments[stayKeyIn(city, stay.Stay)] = toID
		}
	}
	if _, canonical := canonicalIDs[toID]; !canonical {
		out = AddExtraHotel(out, city, toID)
	}
	out.ExtraHotels[city] = removeID(out.ExtraHotels[city], fromID)
	return out
}

// RemoveHotel drops a hotel from a city's working set: overrides pointing at
// it are cleared, returning their stays to the originating hotels, and the id
// leaves the extras list.
func RemoveHotel(state OverrideState, city, hotelID string) OverrideState {
	out := state.Clone()
	for key, target := range out.HotelAssignments {
		if key.City == city && target == hotelID {
			delete(out.HotelAssignments, key)
		}
	}
	out.ExtraHotels[city] = removeID(out.ExtraHotels[city], hotelID)
	if len(out.ExtraHotels[city]) == 0 {
		delete(out.ExtraHotels, city)
	}
	return out
}

func stayKeyIn(city string, stay Stay) StayKey {
	key := stay.Key()
	key.City = city
	return key
}

func removeID(ids []string, target string) []string {
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == target {
			continue
		}
		result = append(result, id)
	}
	return result
}
