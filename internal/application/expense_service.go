package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/tour-backoffice/internal/allocation"
	"github.com/example/tour-backoffice/internal/expense"
	"github.com/example/tour-backoffice/internal/persistence"
)

// BreakdownSource yields a booking's accommodation cost breakdowns.
// AccommodationService satisfies it.
type BreakdownSource interface {
	BookingCostReport(ctx context.Context, bookingID string) ([]allocation.Breakdown, error)
}

// CategoryTotalsSource is the port to the sibling cost modules. Each category
// is a simple per-booking amount computed elsewhere; the aggregator only sums.
type CategoryTotalsSource interface {
	CategoryTotals(ctx context.Context, bookingID string) (expense.CategoryTotals, error)
	GuideContracts(ctx context.Context, bookingID string) ([]expense.GuideContract, error)
}

// ExpenseService produces the final per-booking ledger row.
type ExpenseService struct {
	bookings   persistence.BookingRepository
	breakdowns BreakdownSource
	categories CategoryTotalsSource
	aggregator *expense.Aggregator
	logger     *slog.Logger
}

// NewExpenseService wires dependencies for expense aggregation.
func NewExpenseService(bookings persistence.BookingRepository, breakdowns BreakdownSource, categories CategoryTotalsSource, logger *slog.Logger) *ExpenseService {
	return &ExpenseService{
		bookings:   bookings,
		breakdowns: breakdowns,
		categories: categories,
		aggregator: expense.NewAggregator(),
		logger:     defaultLogger(logger),
	}
}

// Aggregate builds the expense record for one booking.
func (s *ExpenseService) Aggregate(ctx context.Context, bookingID string) (expense.ExpenseRecord, error) {
	if s == nil {
		return expense.ExpenseRecord{}, fmt.Errorf("ExpenseService is nil")
	}

	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return expense.ExpenseRecord{}, mapRepoError(err)
	}

	breakdowns, err := s.breakdowns.BookingCostReport(ctx, bookingID)
	if err != nil {
		return expense.ExpenseRecord{}, err
	}

	totals, err := s.categories.CategoryTotals(ctx, bookingID)
	if err != nil {
		return expense.ExpenseRecord{}, err
	}

	guides, err := s.categories.GuideContracts(ctx, bookingID)
	if err != nil {
		return expense.ExpenseRecord{}, err
	}

	record := s.aggregator.Aggregate(bookingID, expense.TourType(booking.TourType), breakdowns, totals, guides)

	serviceLogger(ctx, s.logger, "expense", "aggregate", "booking", bookingID).
		Debug("expense record built",
			"usd", record.GrandTotal.USD,
			"local", record.GrandTotal.Local,
		)
	return record, nil
}

// AggregateAll builds expense records for every non-cancelled booking.
func (s *ExpenseService) AggregateAll(ctx context.Context) ([]expense.ExpenseRecord, error) {
	bookings, err := s.bookings.ListBookings(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]expense.ExpenseRecord, 0, len(bookings))
	for _, booking := range bookings {
		if booking.Cancelled {
			continue
		}
		record, err := s.Aggregate(ctx, booking.ID)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
