package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/tour-backoffice/internal/allocation"
	"github.com/example/tour-backoffice/internal/assignment"
	"github.com/example/tour-backoffice/internal/persistence"
	"github.com/example/tour-backoffice/internal/testfixtures"
)

type accommodationRepoStub struct {
	cityStays    []assignment.HotelStays
	cityStaysErr error

	blocksByCity    []allocation.AccommodationBlock
	blocksByBooking []allocation.AccommodationBlock
	blocksErr       error
}

func (a *accommodationRepoStub) ListBlocksByCity(ctx context.Context, city string) ([]allocation.AccommodationBlock, error) {
	if a.blocksErr != nil {
		return nil, a.blocksErr
	}
	return a.blocksByCity, nil
}

func (a *accommodationRepoStub) ListBlocksByBooking(ctx context.Context, bookingID string) ([]allocation.AccommodationBlock, error) {
	if a.blocksErr != nil {
		return nil, a.blocksErr
	}
	return a.blocksByBooking, nil
}

func (a *accommodationRepoStub) CityStays(ctx context.Context, city string) ([]assignment.HotelStays, error) {
	if a.cityStaysErr != nil {
		return nil, a.cityStaysErr
	}
	return a.cityStays, nil
}

type hotelDirectoryStub struct {
	hotels map[string]persistence.Hotel
	getErr error
}

func (h *hotelDirectoryStub) CreateHotel(ctx context.Context, hotel persistence.Hotel) error { return nil }
func (h *hotelDirectoryStub) UpdateHotel(ctx context.Context, hotel persistence.Hotel) error { return nil }
func (h *hotelDirectoryStub) DeleteHotel(ctx context.Context, id string) error               { return nil }

func (h *hotelDirectoryStub) GetHotel(ctx context.Context, id string) (persistence.Hotel, error) {
	if h.getErr != nil {
		return persistence.Hotel{}, h.getErr
	}
	hotel, ok := h.hotels[id]
	if !ok {
		return persistence.Hotel{}, persistence.ErrNotFound
	}
	return hotel, nil
}

func (h *hotelDirectoryStub) ListHotels(ctx context.Context) ([]persistence.Hotel, error) {
	hotels := make([]persistence.Hotel, 0, len(h.hotels))
	for _, hotel := range h.hotels {
		hotels = append(hotels, hotel)
	}
	return hotels, nil
}

func (h *hotelDirectoryStub) ListHotelsByCity(ctx context.Context, city string) ([]persistence.Hotel, error) {
	hotels := make([]persistence.Hotel, 0)
	for _, hotel := range h.hotels {
		if hotel.City == city {
			hotels = append(hotels, hotel)
		}
	}
	return hotels, nil
}

func newTestOverrideStore() (*OverrideStore, *testfixtures.ManualScheduler, *overridePortStub) {
	port := &overridePortStub{}
	scheduler := testfixtures.NewManualScheduler()
	store := NewOverrideStore(port, time.Second, scheduler.Schedule, nil)
	return store, scheduler, port
}

func samarkandFixture() (*accommodationRepoStub, *hotelDirectoryStub) {
	accommodations := &accommodationRepoStub{
		cityStays: []assignment.HotelStays{
			{Hotel: assignment.Hotel{ID: "hA", Name: "Registan Plaza", City: "Samarkand"}, Stays: []assignment.Stay{
				testfixtures.Stay("Samarkand", "g1", "hA", 0, 2),
				testfixtures.Stay("Samarkand", "g2", "hA", 1, 3),
			}},
			{Hotel: assignment.Hotel{ID: "hB", Name: "Bibi Khanum", City: "Samarkand"}, Stays: []assignment.Stay{
				testfixtures.Stay("Samarkand", "g3", "hB", 2, 4),
			}},
		},
	}
	hotels := &hotelDirectoryStub{hotels: map[string]persistence.Hotel{
		"hA": testfixtures.Hotel("hA", "Registan Plaza", "Samarkand"),
		"hB": testfixtures.Hotel("hB", "Bibi Khanum", "Samarkand"),
		"hC": testfixtures.Hotel("hC", "Silk Road Palace", "Samarkand"),
	}}
	return accommodations, hotels
}

func TestAssignmentService_ResolveCityHotels(t *testing.T) {
	t.Run("blank city resolves to an empty assignment", func(t *testing.T) {
		store, _, _ := newTestOverrideStore()
		svc := NewAssignmentService(&accommodationRepoStub{}, &hotelDirectoryStub{}, store, nil)

		resolved, err := svc.ResolveCityHotels(context.Background(), "  ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(resolved.Hotels) != 0 {
			t.Fatalf("expected empty assignment, got %d hotels", len(resolved.Hotels))
		}
	})

	t.Run("groups stays under canonical hotels", func(t *testing.T) {
		accommodations, hotels := samarkandFixture()
		store, _, _ := newTestOverrideStore()
		svc := NewAssignmentService(accommodations, hotels, store, nil)

		resolved, err := svc.ResolveCityHotels(context.Background(), "Samarkand")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(resolved.Hotels) != 2 {
			t.Fatalf("expected 2 hotels, got %d", len(resolved.Hotels))
		}
		if len(resolved.Hotels[0].Stays) != 2 || len(resolved.Hotels[1].Stays) != 1 {
			t.Fatalf("unexpected stay grouping: %d/%d", len(resolved.Hotels[0].Stays), len(resolved.Hotels[1].Stays))
		}
	})

	t.Run("propagates snapshot errors", func(t *testing.T) {
		accommodations := &accommodationRepoStub{cityStaysErr: errors.New("snapshot unavailable")}
		store, _, _ := newTestOverrideStore()
		svc := NewAssignmentService(accommodations, &hotelDirectoryStub{}, store, nil)

		if _, err := svc.ResolveCityHotels(context.Background(), "Samarkand"); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestAssignmentService_AssignBookingToHotel(t *testing.T) {
	t.Run("validates required attributes", func(t *testing.T) {
		store, _, _ := newTestOverrideStore()
		svc := NewAssignmentService(&accommodationRepoStub{}, &hotelDirectoryStub{}, store, nil)

		_, err := svc.AssignBookingToHotel(context.Background(), AssignBookingParams{})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"city", "booking_id", "hotel_id", "check_in"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s validation error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("records the assignment under the date key", func(t *testing.T) {
		accommodations, hotels := samarkandFixture()
		store, scheduler, port := newTestOverrideStore()
		svc := NewAssignmentService(accommodations, hotels, store, nil)

		state, err := svc.AssignBookingToHotel(context.Background(), AssignBookingParams{
			City:      "Samarkand",
			BookingID: "g1",
			CheckIn:   testfixtures.Day(0).Add(14 * time.Hour),
			HotelID:   "hB",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		key := assignment.StayKey{
			City:        "Samarkand",
			BookingID:   "g1",
			CheckInDate: assignment.DateKey(testfixtures.Day(0)),
		}
		if got := state.HotelAssignments[key]; got != "hB" {
			t.Fatalf("expected assignment to hB, got %q", got)
		}

		if !scheduler.Fire() {
			t.Fatal("expected a flush to be scheduled")
		}
		if port.saveCount() != 1 {
			t.Fatalf("expected one save, got %d", port.saveCount())
		}
	})

	t.Run("clearing restores the canonical placement", func(t *testing.T) {
		accommodations, hotels := samarkandFixture()
		store, _, _ := newTestOverrideStore()
		svc := NewAssignmentService(accommodations, hotels, store, nil)

		key := assignment.StayKey{
			City:        "Samarkand",
			BookingID:   "g1",
			CheckInDate: assignment.DateKey(testfixtures.Day(0)),
		}
		if _, err := svc.AssignBookingToHotel(context.Background(), AssignBookingParams{
			City: "Samarkand", BookingID: "g1", CheckIn: testfixtures.Day(0), HotelID: "hB",
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		state, err := svc.ClearBookingAssignment(context.Background(), key)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(state.HotelAssignments) != 0 {
			t.Fatalf("expected no assignments, got %v", state.HotelAssignments)
		}
	})
}

func TestAssignmentService_AddExtraHotel(t *testing.T) {
	t.Run("rejects unknown hotels", func(t *testing.T) {
		accommodations, hotels := samarkandFixture()
		store, _, _ := newTestOverrideStore()
		svc := NewAssignmentService(accommodations, hotels, store, nil)

		_, err := svc.AddExtraHotel(context.Background(), AddExtraHotelParams{City: "Samarkand", HotelID: "ghost"})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("registers the hotel without bulk reassignment", func(t *testing.T) {
		accommodations, hotels := samarkandFixture()
		store, _, _ := newTestOverrideStore()
		svc := NewAssignmentService(accommodations, hotels, store, nil)

		state, err := svc.AddExtraHotel(context.Background(), AddExtraHotelParams{City: "Samarkand", HotelID: "hC"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := state.ExtraHotels["Samarkand"]; len(got) != 1 || got[0] != "hC" {
			t.Fatalf("expected hC registered, got %v", got)
		}
		if len(state.HotelAssignments) != 0 {
			t.Fatalf("expected no reassignments, got %v", state.HotelAssignments)
		}
	})

	t.Run("bulk reassignment moves unconfirmed stays only", func(t *testing.T) {
		accommodations, hotels := samarkandFixture()
		store, _, _ := newTestOverrideStore()
		svc := NewAssignmentService(accommodations, hotels, store, nil)

		confirmed := assignment.NewOverrideState()
		confirmed.RowStatuses[assignment.StatusKey{
			HotelID:     "hA",
			BookingID:   "g1",
			CheckInDate: assignment.DateKey(testfixtures.Day(0)),
		}] = assignment.StatusConfirmed
		store.Reset(confirmed)

		state, err := svc.AddExtraHotel(context.Background(), AddExtraHotelParams{
			City:         "Samarkand",
			HotelID:      "hC",
			BulkReassign: true,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		g1 := assignment.StayKey{City: "Samarkand", BookingID: "g1", CheckInDate: assignment.DateKey(testfixtures.Day(0))}
		if _, moved := state.HotelAssignments[g1]; moved {
			t.Fatal("expected the confirmed stay to keep its placement")
		}
		g2 := assignment.StayKey{City: "Samarkand", BookingID: "g2", CheckInDate: assignment.DateKey(testfixtures.Day(1))}
		if got := state.HotelAssignments[g2]; got != "hC" {
			t.Fatalf("expected g2 moved to hC, got %q", got)
		}
		g3 := assignment.StayKey{City: "Samarkand", BookingID: "g3", CheckInDate: assignment.DateKey(testfixtures.Day(2))}
		if got := state.HotelAssignments[g3]; got != "hC" {
			t.Fatalf("expected g3 moved to hC, got %q", got)
		}
	})
}

func TestAssignmentService_ReplaceHotel(t *testing.T) {
	t.Run("rejects identical source and target", func(t *testing.T) {
		store, _, _ := newTestOverrideStore()
		svc := NewAssignmentService(&accommodationRepoStub{}, &hotelDirectoryStub{}, store, nil)

		_, err := svc.ReplaceHotel(context.Background(), ReplaceHotelParams{
			City: "Samarkand", FromHotelID: "hA", ToHotelID: "hA",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["to_hotel_id"]; !ok {
			t.Fatalf("expected to_hotel_id validation error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("migrates stays and registers the replacement as extra", func(t *testing.T) {
		accommodations, hotels := samarkandFixture()
		store, _, _ := newTestOverrideStore()
		svc := NewAssignmentService(accommodations, hotels, store, nil)

		state, err := svc.ReplaceHotel(context.Background(), ReplaceHotelParams{
			City: "Samarkand", FromHotelID: "hB", ToHotelID: "hC",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		g3 := assignment.StayKey{City: "Samarkand", BookingID: "g3", CheckInDate: assignment.DateKey(testfixtures.Day(2))}
		if got := state.HotelAssignments[g3]; got != "hC" {
			t.Fatalf("expected g3 moved to hC, got %q", got)
		}
		if got := state.ExtraHotels["Samarkand"]; len(got) != 1 || got[0] != "hC" {
			t.Fatalf("expected hC in extras, got %v", got)
		}
	})
}

func TestAssignmentService_RemoveHotel(t *testing.T) {
	accommodations, hotels := samarkandFixture()
	store, _, _ := newTestOverrideStore()
	svc := NewAssignmentService(accommodations, hotels, store, nil)

	if _, err := svc.AddExtraHotel(context.Background(), AddExtraHotelParams{City: "Samarkand", HotelID: "hC"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.AssignBookingToHotel(context.Background(), AssignBookingParams{
		City: "Samarkand", BookingID: "g1", CheckIn: testfixtures.Day(0), HotelID: "hC",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state, err := svc.RemoveHotel(context.Background(), "Samarkand", "hC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(state.HotelAssignments) != 0 {
		t.Fatalf("expected assignments cleared, got %v", state.HotelAssignments)
	}
	if _, ok := state.ExtraHotels["Samarkand"]; ok {
		t.Fatal("expected hC removed from extras")
	}
}
