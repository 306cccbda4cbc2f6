package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/tour-backoffice/internal/allocation"
	"github.com/example/tour-backoffice/internal/persistence"
)

// DefaultLocalThreshold is the nightly rate above which a room line without
// an explicit currency is assumed to be priced in local currency. Hard-currency
// rates in this system sit well under it; local rates run thousands per night.
const DefaultLocalThreshold = 1000

// AccommodationService runs the room-night allocator over the current
// snapshots, producing per-hotel currency-bucketed cost breakdowns.
type AccommodationService struct {
	accommodations persistence.AccommodationRepository
	roster         persistence.RosterRepository
	hotels         persistence.HotelDirectory
	logger         *slog.Logger
}

// NewAccommodationService wires dependencies for cost allocation.
func NewAccommodationService(accommodations persistence.AccommodationRepository, roster persistence.RosterRepository, hotels persistence.HotelDirectory, logger *slog.Logger) *AccommodationService {
	return &AccommodationService{
		accommodations: accommodations,
		roster:         roster,
		hotels:         hotels,
		logger:         defaultLogger(logger),
	}
}

// CityCostReport allocates every accommodation block of the city. Blocks with
// no rooms or no dates are excluded; zero-cost blocks appear with zero totals.
func (s *AccommodationService) CityCostReport(ctx context.Context, city string) ([]allocation.Breakdown, error) {
	if s == nil {
		return nil, fmt.Errorf("AccommodationService is nil")
	}
	if strings.TrimSpace(city) == "" {
		return nil, nil
	}

	blocks, err := s.accommodations.ListBlocksByCity(ctx, city)
	if err != nil {
		return nil, err
	}
	return s.allocateBlocks(ctx, blocks)
}

// BookingCostReport allocates every accommodation block of one booking.
func (s *AccommodationService) BookingCostReport(ctx context.Context, bookingID string) ([]allocation.Breakdown, error) {
	if s == nil {
		return nil, fmt.Errorf("AccommodationService is nil")
	}
	if strings.TrimSpace(bookingID) == "" {
		return nil, nil
	}

	blocks, err := s.accommodations.ListBlocksByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.allocateBlocks(ctx, blocks)
}

func (s *AccommodationService) allocateBlocks(ctx context.Context, blocks []allocation.AccommodationBlock) ([]allocation.Breakdown, error) {
	breakdowns := make([]allocation.Breakdown, 0, len(blocks))
	for _, block := range blocks {
		stays, err := s.roster.ListStaysForBlock(ctx, block.ID)
		if err != nil {
			return nil, err
		}
		if len(stays) == 0 {
			// No stays linked directly; fall back to matching the general
			// roster by hotel name.
			roster, err := s.roster.GeneralRoster(ctx)
			if err != nil {
				return nil, err
			}
			stays = allocation.MatchRosterByHotel(block, roster)
		}

		rule, err := s.currencyRule(ctx, block.HotelID)
		if err != nil {
			return nil, err
		}

		breakdown, ok := allocation.Allocate(block, stays, rule)
		if !ok {
			serviceLogger(ctx, s.logger, "accommodation", "allocate", "block", block.ID).
				Debug("block excluded from allocation", "hotel", block.HotelID)
			continue
		}
		breakdowns = append(breakdowns, breakdown)
	}
	return breakdowns, nil
}

func (s *AccommodationService) currencyRule(ctx context.Context, hotelID string) (allocation.CurrencyRule, error) {
	rule := allocation.CurrencyRule{LocalThreshold: DefaultLocalThreshold}
	if s.hotels == nil || hotelID == "" {
		return rule, nil
	}

	hotel, err := s.hotels.GetHotel(ctx, hotelID)
	if err != nil {
		if errors.Is(mapRepoError(err), ErrNotFound) {
			return rule, nil
		}
		return allocation.CurrencyRule{}, err
	}

	rule.LocalCurrency = hotel.LocalCurrency
	if hotel.LocalThreshold > 0 {
		rule.LocalThreshold = hotel.LocalThreshold
	}
	return rule, nil
}
