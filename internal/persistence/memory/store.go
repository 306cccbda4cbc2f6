// Package memory provides an in-memory implementation of the read-only
// snapshot repositories. The roster, accommodation blocks, and remote plans
// are owned by external systems and refreshed wholesale per view load, so the
// store only ever replaces whole snapshots.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/tour-backoffice/internal/allocation"
	"github.com/example/tour-backoffice/internal/assignment"
	"github.com/example/tour-backoffice/internal/expense"
	"github.com/example/tour-backoffice/internal/persistence"
	"github.com/example/tour-backoffice/internal/reconcile"
)

// Store keeps the current snapshots guarded by one lock. It implements
// persistence.AccommodationRepository, persistence.RosterRepository,
// persistence.PlanRepository, and persistence.BookingRepository.
type Store struct {
	mu       sync.RWMutex
	hotels   map[string]persistence.Hotel
	bookings map[string]persistence.BookingGroup
	blocks   []allocation.AccommodationBlock
	stays    map[string][]allocation.TouristStay
	roster   []allocation.RosterEntry
	plans    map[string]reconcile.PlanRecord
	totals   map[string]expense.CategoryTotals
	guides   map[string][]expense.GuideContract
}

// NewStore returns an empty snapshot store.
func NewStore() *Store {
	return &Store{
		hotels:   make(map[string]persistence.Hotel),
		bookings: make(map[string]persistence.BookingGroup),
		stays:    make(map[string][]allocation.TouristStay),
		plans:    make(map[string]reconcile.PlanRecord),
		totals:   make(map[string]expense.CategoryTotals),
		guides:   make(map[string][]expense.GuideContract),
	}
}

// ReplaceHotels swaps in a fresh hotel snapshot.
func (s *Store) ReplaceHotels(hotels []persistence.Hotel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hotels = make(map[string]persistence.Hotel, len(hotels))
	for _, hotel := range hotels {
		s.hotels[hotel.ID] = hotel
	}
}

// ReplaceBookings swaps in a fresh booking snapshot.
func (s *Store) ReplaceBookings(bookings []persistence.BookingGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = make(map[string]persistence.BookingGroup, len(bookings))
	for _, booking := range bookings {
		s.bookings[booking.ID] = booking
	}
}

// ReplaceBlocks swaps in a fresh accommodation-block snapshot.
func (s *Store) ReplaceBlocks(blocks []allocation.AccommodationBlock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = cloneBlocks(blocks)
}

// ReplaceStays swaps in the tourist stays linked to one block.
func (s *Store) ReplaceStays(blockID string, stays []allocation.TouristStay) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]allocation.TouristStay, len(stays))
	copy(copied, stays)
	s.stays[blockID] = copied
}

// ReplaceRoster swaps in the general roster snapshot.
func (s *Store) ReplaceRoster(roster []allocation.RosterEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster = make([]allocation.RosterEntry, len(roster))
	copy(s.roster, roster)
}

// ReplacePlans swaps in the remote confirmation plans per hotel.
func (s *Store) ReplacePlans(plans map[string]reconcile.PlanRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = make(map[string]reconcile.PlanRecord, len(plans))
	for hotelID, record := range plans {
		copied := make(reconcile.PlanRecord, len(record))
		for bookingID, entries := range record {
			list := make([]reconcile.PlanEntry, len(entries))
			copy(list, entries)
			copied[bookingID] = list
		}
		s.plans[hotelID] = copied
	}
}

// ListBlocksByCity returns blocks whose hotel sits in the given city, ordered
// by check-in then block id.
func (s *Store) ListBlocksByCity(ctx context.Context, city string) ([]allocation.AccommodationBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blocks := make([]allocation.AccommodationBlock, 0)
	for _, block := range s.blocks {
		hotel, ok := s.hotels[block.HotelID]
		if !ok || hotel.City != city {
			continue
		}
		blocks = append(blocks, cloneBlock(block))
	}
	sortBlocks(blocks)
	return blocks, nil
}

// ListBlocksByBooking returns all blocks of one booking ordered by check-in.
func (s *Store) ListBlocksByBooking(ctx context.Context, bookingID string) ([]allocation.AccommodationBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blocks := make([]allocation.AccommodationBlock, 0)
	for _, block := range s.blocks {
		if block.BookingID != bookingID {
			continue
		}
		blocks = append(blocks, cloneBlock(block))
	}
	sortBlocks(blocks)
	return blocks, nil
}

// CityStays groups the city's blocks into the canonical per-hotel stay lists
// the resolver starts from. Hotels appear in the order of their earliest
// check-in, which mirrors the itinerary.
func (s *Store) CityStays(ctx context.Context, city string) ([]assignment.HotelStays, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grouped := make(map[string][]assignment.Stay)
	order := make([]string, 0)
	for _, block := range s.blocks {
		hotel, ok := s.hotels[block.HotelID]
		if !ok || hotel.City != city {
			continue
		}
		if _, seen := grouped[block.HotelID]; !seen {
			order = append(order, block.HotelID)
		}
		stay := assignment.Stay{
			City:      city,
			BookingID: block.BookingID,
			HotelID:   block.HotelID,
			CheckIn:   block.CheckIn,
			CheckOut:  block.CheckOut,
		}
		if booking, ok := s.bookings[block.BookingID]; ok {
			stay.BookingCode = booking.Code
		}
		grouped[block.HotelID] = append(grouped[block.HotelID], stay)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return earliestCheckIn(grouped[order[i]]).Before(earliestCheckIn(grouped[order[j]]))
	})

	result := make([]assignment.HotelStays, 0, len(order))
	for _, hotelID := range order {
		hotel := s.hotels[hotelID]
		result = append(result, assignment.HotelStays{
			Hotel: assignment.Hotel{ID: hotel.ID, Name: hotel.Name, City: hotel.City},
			Stays: grouped[hotelID],
		})
	}
	return result, nil
}

// ListStaysForBlock returns the tourist stays linked to a block.
func (s *Store) ListStaysForBlock(ctx context.Context, blockID string) ([]allocation.TouristStay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stays := s.stays[blockID]
	copied := make([]allocation.TouristStay, len(stays))
	copy(copied, stays)
	return copied, nil
}

// GeneralRoster returns the full roster snapshot for the hotel-name fallback.
func (s *Store) GeneralRoster(ctx context.Context) ([]allocation.RosterEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roster := make([]allocation.RosterEntry, len(s.roster))
	copy(roster, s.roster)
	return roster, nil
}

// PlansForHotels returns the remote plan records for the requested hotels.
// Hotels without a plan are simply absent from the result.
func (s *Store) PlansForHotels(ctx context.Context, hotelIDs []string) (map[string]reconcile.PlanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]reconcile.PlanRecord)
	for _, hotelID := range hotelIDs {
		record, ok := s.plans[hotelID]
		if !ok {
			continue
		}
		copied := make(reconcile.PlanRecord, len(record))
		for bookingID, entries := range record {
			list := make([]reconcile.PlanEntry, len(entries))
			copy(list, entries)
			copied[bookingID] = list
		}
		result[hotelID] = copied
	}
	return result, nil
}

// ReplaceCategoryTotals swaps in the sibling cost-module totals per booking.
func (s *Store) ReplaceCategoryTotals(totals map[string]expense.CategoryTotals) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totals = make(map[string]expense.CategoryTotals, len(totals))
	for bookingID, t := range totals {
		s.totals[bookingID] = t
	}
}

// ReplaceGuideContracts swaps in the guide contracts per booking.
func (s *Store) ReplaceGuideContracts(guides map[string][]expense.GuideContract) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guides = make(map[string][]expense.GuideContract, len(guides))
	for bookingID, contracts := range guides {
		copied := make([]expense.GuideContract, len(contracts))
		copy(copied, contracts)
		s.guides[bookingID] = copied
	}
}

// CategoryTotals returns the sibling cost-module totals for one booking.
// Bookings without recorded totals yield the zero value.
func (s *Store) CategoryTotals(ctx context.Context, bookingID string) (expense.CategoryTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totals[bookingID], nil
}

// GuideContracts returns the guide contracts recorded for one booking.
func (s *Store) GuideContracts(ctx context.Context, bookingID string) ([]expense.GuideContract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contracts := s.guides[bookingID]
	copied := make([]expense.GuideContract, len(contracts))
	copy(copied, contracts)
	return copied, nil
}

// GetBooking retrieves one booking group.
func (s *Store) GetBooking(ctx context.Context, id string) (persistence.BookingGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	booking, ok := s.bookings[id]
	if !ok {
		return persistence.BookingGroup{}, persistence.ErrNotFound
	}
	return booking, nil
}

// ListBookings returns all bookings ordered by code then id.
func (s *Store) ListBookings(ctx context.Context) ([]persistence.BookingGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookings := make([]persistence.BookingGroup, 0, len(s.bookings))
	for _, booking := range s.bookings {
		bookings = append(bookings, booking)
	}
	sort.Slice(bookings, func(i, j int) bool {
		if bookings[i].Code == bookings[j].Code {
			return bookings[i].ID < bookings[j].ID
		}
		return bookings[i].Code < bookings[j].Code
	})
	return bookings, nil
}

func earliestCheckIn(stays []assignment.Stay) time.Time {
	var earliest time.Time
	for i, stay := range stays {
		if i == 0 || (!stay.CheckIn.IsZero() && stay.CheckIn.Before(earliest)) {
			earliest = stay.CheckIn
		}
	}
	return earliest
}

func cloneBlocks(blocks []allocation.AccommodationBlock) []allocation.AccommodationBlock {
	copied := make([]allocation.AccommodationBlock, len(blocks))
	for i, block := range blocks {
		copied[i] = cloneBlock(block)
	}
	return copied
}

func cloneBlock(block allocation.AccommodationBlock) allocation.AccommodationBlock {
	rooms := make([]allocation.RoomLine, len(block.Rooms))
	copy(rooms, block.Rooms)
	block.Rooms = rooms
	return block
}

func sortBlocks(blocks []allocation.AccommodationBlock) {
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].CheckIn.Equal(blocks[j].CheckIn) {
			return blocks[i].ID < blocks[j].ID
		}
		return blocks[i].CheckIn.Before(blocks[j].CheckIn)
	})
}
