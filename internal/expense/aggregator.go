// Package expense folds the accommodation breakdowns together with the sibling
// per-category cost totals into one ledger row per booking.
package expense

import (
	"github.com/example/tour-backoffice/internal/allocation"
)

// TourType classifies a booking for cost-rule purposes.
type TourType string

const (
	// TourTypeGroup is a standard escorted group tour.
	TourTypeGroup TourType = "GROUP"
	// TourTypeIndividual is an individually arranged tour.
	TourTypeIndividual TourType = "INDIV"
	// TourTypeTransit is a short transit program; transit bookings never incur
	// metro costs.
	TourTypeTransit TourType = "ZIY"
)

// Amount is a pair of currency-class accumulators. The two figures are never
// combined into one number here; presentation owns any conversion.
type Amount struct {
	USD   float64
	Local float64
}

// Plus returns the per-class sum of two amounts.
func (a Amount) Plus(b Amount) Amount {
	return Amount{USD: a.USD + b.USD, Local: a.Local + b.Local}
}

// CategoryTotals carries the externally computed per-category totals for one
// booking. Each sibling module reports a plain amount; nothing here recomputes
// them.
type CategoryTotals struct {
	Transport Amount
	Rail      Amount
	Flight    Amount
	Meals     Amount
	Metro     Amount
	Shows     Amount
	Entrance  Amount
	Other     Amount
}

// GuideRole distinguishes the independently configured guide contracts of one
// booking.
type GuideRole string

const (
	// GuideRoleMain is the principal tour guide.
	GuideRoleMain GuideRole = "main"
	// GuideRoleSecond is the assisting guide.
	GuideRoleSecond GuideRole = "second"
	// GuideRoleMountain is the specialist guide for mountain segments.
	GuideRoleMountain GuideRole = "mountain"
)

// GuideContract is one guide's engagement on a booking. DaysRecorded reports
// whether the operator entered explicit day counts; when false and the guide
// is assigned, tour-type defaults substitute.
type GuideContract struct {
	Role         GuideRole
	Assigned     bool
	FullDays     int
	HalfDays     int
	DaysRecorded bool
	DayRate      float64
	HalfDayRate  float64
	Local        bool
}

// GuideDays is a tour-type default for unrecorded guide engagements.
type GuideDays struct {
	Full int
	Half int
}

// ExpenseRecord is the final per-booking ledger row.
type ExpenseRecord struct {
	BookingID     string
	TourType      TourType
	Accommodation Amount
	Transport     Amount
	Rail          Amount
	Flight        Amount
	Guide         Amount
	Meals         Amount
	Metro         Amount
	Shows         Amount
	Entrance      Amount
	Other         Amount
	GrandTotal    Amount
}

// Aggregator applies the tour-type-specific cost rules while summing. The
// zero value is not usable; construct with NewAggregator.
type Aggregator struct {
	metroExempt   map[TourType]struct{}
	guideDefaults map[TourType]GuideDays
	fallbackDays  GuideDays
}

// NewAggregator returns an aggregator with the back-office defaults: transit
// tours are exempt from the metro category, group tours default to five full
// guide days and individual tours to two full days and one half day when a
// guide is assigned without recorded counts.
func NewAggregator() *Aggregator {
	return &Aggregator{
		metroExempt: map[TourType]struct{}{TourTypeTransit: {}},
		guideDefaults: map[TourType]GuideDays{
			TourTypeGroup:      {Full: 5},
			TourTypeIndividual: {Full: 2, Half: 1},
		},
		fallbackDays: GuideDays{Full: 1},
	}
}

// GuidePayment sums the booking's guide contracts. Each contract pays
// fullDays×dayRate + halfDays×halfDayRate; contracts that are assigned but
// carry no recorded day counts use the tour-type default.
func (a *Aggregator) GuidePayment(contracts []GuideContract, tourType TourType) Amount {
	var total Amount
	for _, contract := range contracts {
		if !contract.Assigned {
			continue
		}
		full, half := contract.FullDays, contract.HalfDays
		if !contract.DaysRecorded {
			days, ok := a.guideDefaults[tourType]
			if !ok {
				days = a.fallbackDays
			}
			full, half = days.Full, days.Half
		}
		pay := float64(full)*contract.DayRate + float64(half)*contract.HalfDayRate
		if contract.Local {
			total.Local += pay
		} else {
			total.USD += pay
		}
	}
	return total
}

// Aggregate produces the ledger row for one booking from its accommodation
// breakdowns, the sibling category totals, and its guide contracts.
func (a *Aggregator) Aggregate(bookingID string, tourType TourType, breakdowns []allocation.Breakdown, totals CategoryTotals, guides []GuideContract) ExpenseRecord {
	record := ExpenseRecord{
		BookingID: bookingID,
		TourType:  tourType,
		Transport: totals.Transport,
		Rail:      totals.Rail,
		Flight:    totals.Flight,
		Meals:     totals.Meals,
		Metro:     totals.Metro,
		Shows:     totals.Shows,
		Entrance:  totals.Entrance,
		Other:     totals.Other,
	}

	for _, breakdown := range breakdowns {
		record.Accommodation.USD += breakdown.GrandTotalUSD
		record.Accommodation.Local += breakdown.GrandTotalLocal
	}

	record.Guide = a.GuidePayment(guides, tourType)

	if _, exempt := a.metroExempt[tourType]; exempt {
		record.Metro = Amount{}
	}

	record.GrandTotal = record.Accommodation.
		Plus(record.Transport).
		Plus(record.Rail).
		Plus(record.Flight).
		Plus(record.Guide).
		Plus(record.Meals).
		Plus(record.Metro).
		Plus(record.Shows).
		Plus(record.Entrance).
		Plus(record.Other)

	return record
}
