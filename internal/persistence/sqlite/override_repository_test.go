package sqlite

import (
	"context"
	"testing"

	"github.com/example/tour-backoffice/internal/assignment"
)

func stayKey(city, bookingID, checkInDate string) assignment.StayKey {
	return assignment.StayKey{City: city, BookingID: bookingID, CheckInDate: checkInDate}
}

func loadState(t *testing.T, repo *OverrideRepository) assignment.OverrideState {
	t.Helper()
	state, err := repo.LoadOverrides(context.Background())
	if err != nil {
		t.Fatalf("LoadOverrides failed: %v", err)
	}
	return state
}

func TestOverrideRepository(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	repo := NewOverrideRepository(storage.Pool())

	t.Run("empty database yields an empty state", func(t *testing.T) {
		state := loadState(t, repo)
		if len(state.ExtraHotels) != 0 || len(state.HotelAssignments) != 0 || len(state.RowStatuses) != 0 {
			t.Fatalf("expected empty state, got %#v", state)
		}
	})

	t.Run("snapshot round trip", func(t *testing.T) {
		state := assignment.NewOverrideState()
		state.ExtraHotels["Samarkand"] = []string{"hC", "hD"}
		state.HotelAssignments[stayKey("Samarkand", "g1", "2024-04-01")] = "hC"
		state.RowStatuses[assignment.StatusKey{
			HotelID:     "hC",
			BookingID:   "g1",
			CheckInDate: "2024-04-01",
		}] = assignment.StatusConfirmed

		if err := repo.SaveOverrides(ctx, state); err != nil {
			t.Fatalf("SaveOverrides failed: %v", err)
		}

		loaded := loadState(t, repo)
		extras := loaded.ExtraHotels["Samarkand"]
		if len(extras) != 2 || extras[0] != "hC" || extras[1] != "hD" {
			t.Fatalf("extras not preserved in order: %v", extras)
		}
		if got := loaded.HotelAssignments[stayKey("Samarkand", "g1", "2024-04-01")]; got != "hC" {
			t.Fatalf("assignment not preserved: %q", got)
		}
		key := assignment.StatusKey{HotelID: "hC", BookingID: "g1", CheckInDate: "2024-04-01"}
		if loaded.RowStatuses[key] != assignment.StatusConfirmed {
			t.Fatalf("status not preserved: %q", loaded.RowStatuses[key])
		}
	})

	t.Run("save replaces the previous snapshot wholesale", func(t *testing.T) {
		smaller := assignment.NewOverrideState()
		smaller.ExtraHotels["Bukhara"] = []string{"hZ"}

		if err := repo.SaveOverrides(ctx, smaller); err != nil {
			t.Fatalf("SaveOverrides failed: %v", err)
		}

		loaded := loadState(t, repo)
		if _, ok := loaded.ExtraHotels["Samarkand"]; ok {
			t.Fatal("expected the earlier snapshot to be gone")
		}
		if len(loaded.HotelAssignments) != 0 || len(loaded.RowStatuses) != 0 {
			t.Fatalf("expected only the new snapshot, got %#v", loaded)
		}
		if got := loaded.ExtraHotels["Bukhara"]; len(got) != 1 || got[0] != "hZ" {
			t.Fatalf("expected the new snapshot, got %v", got)
		}
	})

	t.Run("saving an empty state clears everything", func(t *testing.T) {
		if err := repo.SaveOverrides(ctx, assignment.NewOverrideState()); err != nil {
			t.Fatalf("SaveOverrides failed: %v", err)
		}
		state := loadState(t, repo)
		if len(state.ExtraHotels) != 0 || len(state.HotelAssignments) != 0 || len(state.RowStatuses) != 0 {
			t.Fatalf("expected cleared state, got %#v", state)
		}
	})
}
