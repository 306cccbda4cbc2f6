package allocation

import (
	"math"
	"strings"
	"time"
)

// TouristStay is one tourist's occupancy of one accommodation block. Check-in
// and check-out may differ from the block's nominal dates; zero values inherit
// the block dates during tallying.
type TouristStay struct {
	TouristID      string
	BlockID        string
	CheckIn        time.Time
	CheckOut       time.Time
	RoomPreference string
}

// RoomLine is one priced room group within an accommodation block. Price and
// currency are fixed per line; a line's cost is never split across currencies.
type RoomLine struct {
	RoomType      string
	RoomCount     int
	PricePerNight float64
	Currency      string
}

// AccommodationBlock is one hotel stay for one booking.
type AccommodationBlock struct {
	ID        string
	BookingID string
	HotelID   string
	HotelName string
	CheckIn   time.Time
	CheckOut  time.Time
	Rooms     []RoomLine
}

// CurrencyRule decides which of the two exclusive currency-class buckets a
// room line lands in. A line with an explicit currency is local-class when it
// matches LocalCurrency; a line without one is assumed local-class when the
// nightly rate exceeds LocalThreshold, since local-currency rates run several
// orders of magnitude above hard-currency ones.
type CurrencyRule struct {
	LocalCurrency  string
	LocalThreshold float64
}

// IsLocal classifies a single room line.
func (r CurrencyRule) IsLocal(line RoomLine) bool {
	if line.Currency != "" {
		return strings.EqualFold(line.Currency, r.LocalCurrency)
	}
	return line.PricePerNight > r.LocalThreshold
}

// LineCost is the computed cost of one room line.
type LineCost struct {
	Code       Code
	RoomNights float64
	Rate       float64
	Cost       float64
	Local      bool
}

// Breakdown is the currency-bucketed cost of one accommodation block.
// GrandTotalUSD and GrandTotalLocal are mutually exclusive accumulators; every
// line cost lands in exactly one of them.
type Breakdown struct {
	BlockID         string
	BookingID       string
	HotelID         string
	Lines           []LineCost
	GrandTotalUSD   float64
	GrandTotalLocal float64
}

// Nights returns the rounded whole-day span between check-in and check-out,
// clamped to zero. Missing endpoints yield zero nights.
func Nights(checkIn, checkOut time.Time) int {
	if checkIn.IsZero() || checkOut.IsZero() {
		return 0
	}
	nights := int(math.Round(checkOut.Sub(checkIn).Hours() / 24))
	if nights < 0 {
		return 0
	}
	return nights
}

// Overlaps applies the half-open interval test between a tourist stay and the
// block: stays touching only at an endpoint contribute zero nights and are
// excluded.
func Overlaps(stayIn, stayOut, blockIn, blockOut time.Time) bool {
	return stayIn.Before(blockOut) && stayOut.After(blockIn)
}

// TallyGuestNights sums nights per normalized room-type code across every
// tourist whose stay interval overlaps the block. Tourists without explicit
// dates inherit the block's nominal dates.
func TallyGuestNights(block AccommodationBlock, stays []TouristStay) map[Code]int {
	tally := make(map[Code]int)
	for _, stay := range stays {
		in, out := stay.CheckIn, stay.CheckOut
		if in.IsZero() {
			in = block.CheckIn
		}
		if out.IsZero() {
			out = block.CheckOut
		}
		if in.IsZero() || out.IsZero() {
			continue
		}
		if !block.CheckIn.IsZero() && !block.CheckOut.IsZero() && !Overlaps(in, out, block.CheckIn, block.CheckOut) {
			continue
		}
		nights := Nights(in, out)
		if nights == 0 {
			continue
		}
		tally[Normalize(stay.RoomPreference)] += nights
	}
	return tally
}

// Allocate computes the currency-bucketed cost of one accommodation block from
// the tourists occupying it. The boolean result reports whether the block
// participates in allocation at all: blocks with no room lines or no dates are
// excluded entirely, while blocks that merely contribute zero cost still
// appear with zero totals.
func Allocate(block AccommodationBlock, stays []TouristStay, rule CurrencyRule) (Breakdown, bool) {
	if len(block.Rooms) == 0 {
		return Breakdown{}, false
	}
	if block.CheckIn.IsZero() && block.CheckOut.IsZero() {
		return Breakdown{}, false
	}

	tally := TallyGuestNights(block, stays)

	breakdown := Breakdown{
		BlockID:   block.ID,
		BookingID: block.BookingID,
		HotelID:   block.HotelID,
	}

	for _, line := range block.Rooms {
		code := Normalize(line.RoomType)
		guestNights := tally[code]
		if guestNights == 0 && code != CodePax {
			// Stale inventory row with no matching guests.
			continue
		}

		var roomNights float64
		switch {
		case code == CodePax:
			roomNights = float64(guestNights)
			if roomNights == 0 {
				roomNights = float64(len(stays))
			}
		default:
			roomNights = float64(guestNights) / float64(guestsPerRoom(code))
		}

		cost := roomNights * line.PricePerNight
		local := rule.IsLocal(line)
		if local {
			breakdown.GrandTotalLocal += cost
		} else {
			breakdown.GrandTotalUSD += cost
		}
		breakdown.Lines = append(breakdown.Lines, LineCost{
			Code:       code,
			RoomNights: roomNights,
			Rate:       line.PricePerNight,
			Cost:       cost,
			Local:      local,
		})
	}

	return breakdown, true
}

// MatchRosterByHotel selects stays whose recorded hotel name contains the
// block's hotel name, case-insensitively. It is the fallback source of
// occupants when no stays are linked to the block directly.
func MatchRosterByHotel(block AccommodationBlock, roster []RosterEntry) []TouristStay {
	name := strings.ToLower(strings.TrimSpace(block.HotelName))
	if name == "" {
		return nil
	}
	var matched []TouristStay
	for _, entry := range roster {
		if !strings.Contains(strings.ToLower(entry.HotelName), name) {
			continue
		}
		matched = append(matched, entry.TouristStay)
	}
	return matched
}

// RosterEntry ties a tourist stay to the hotel name recorded on the general
// roster, for use by the substring fallback.
type RosterEntry struct {
	TouristStay
	HotelName string
}
