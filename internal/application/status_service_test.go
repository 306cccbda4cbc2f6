package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/tour-backoffice/internal/assignment"
	"github.com/example/tour-backoffice/internal/reconcile"
	"github.com/example/tour-backoffice/internal/testfixtures"
)

type resolverStub struct {
	resolved assignment.CityAssignment
	err      error
}

func (r *resolverStub) ResolveCityHotels(ctx context.Context, city string) (assignment.CityAssignment, error) {
	if r.err != nil {
		return assignment.CityAssignment{}, r.err
	}
	return r.resolved, nil
}

type planRepoStub struct {
	plans map[string]reconcile.PlanRecord
	err   error

	requestedHotels []string
}

func (p *planRepoStub) PlansForHotels(ctx context.Context, hotelIDs []string) (map[string]reconcile.PlanRecord, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.requestedHotels = append([]string(nil), hotelIDs...)
	return p.plans, nil
}

func TestStatusService_ReconcileStatuses(t *testing.T) {
	t.Run("adopts remote statuses for resolved rows", func(t *testing.T) {
		stay := testfixtures.Stay("Bukhara", "g1", "h1", 0, 2)
		resolver := &resolverStub{resolved: assignment.CityAssignment{
			City: "Bukhara",
			Hotels: []assignment.HotelGroup{
				{Hotel: assignment.Hotel{ID: "h1"}, Stays: []assignment.ResolvedStay{
					{Stay: stay, OriginHotelID: "h1"},
				}},
			},
		}}
		plans := &planRepoStub{plans: map[string]reconcile.PlanRecord{
			"h1": {"g1": {
				{Ordinal: 0, CheckIn: assignment.DateKey(testfixtures.Day(0)), Status: assignment.StatusConfirmed},
			}},
		}}
		store, _, _ := newTestOverrideStore()
		svc := NewStatusService(resolver, plans, store, nil)

		merged, err := svc.ReconcileStatuses(context.Background(), "Bukhara")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		key := stay.StatusKeyAt("h1")
		if merged[key] != assignment.StatusConfirmed {
			t.Fatalf("expected CONFIRMED, got %q", merged[key])
		}
		if len(plans.requestedHotels) != 1 || plans.requestedHotels[0] != "h1" {
			t.Fatalf("expected plans requested for h1, got %v", plans.requestedHotels)
		}
	})

	t.Run("moved stays reconcile at their effective hotel", func(t *testing.T) {
		stay := testfixtures.Stay("Bukhara", "g1", "hA", 0, 2)
		resolver := &resolverStub{resolved: assignment.CityAssignment{
			City: "Bukhara",
			Hotels: []assignment.HotelGroup{
				{Hotel: assignment.Hotel{ID: "hA"}},
				{Hotel: assignment.Hotel{ID: "hB"}, Stays: []assignment.ResolvedStay{
					{Stay: stay, OriginHotelID: "hA", Moved: true},
				}, IsExtra: true},
			},
		}}
		plans := &planRepoStub{plans: map[string]reconcile.PlanRecord{
			"hB": {"g1": {
				{Ordinal: 0, CheckIn: assignment.DateKey(testfixtures.Day(0)), Status: assignment.StatusWaiting},
			}},
		}}
		store, _, _ := newTestOverrideStore()
		svc := NewStatusService(resolver, plans, store, nil)

		merged, err := svc.ReconcileStatuses(context.Background(), "Bukhara")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// The row lives at hB now, so the status key carries hB.
		key := stay.StatusKeyAt("hB")
		if merged[key] != assignment.StatusWaiting {
			t.Fatalf("expected WAITING at the effective hotel, got %q", merged[key])
		}
		if _, ok := merged[stay.StatusKeyAt("hA")]; ok {
			t.Fatal("expected no status at the originating hotel")
		}
	})

	t.Run("local edits survive when no plan matches", func(t *testing.T) {
		stay := testfixtures.Stay("Bukhara", "g1", "h1", 0, 2)
		resolver := &resolverStub{resolved: assignment.CityAssignment{
			City: "Bukhara",
			Hotels: []assignment.HotelGroup{
				{Hotel: assignment.Hotel{ID: "h1"}, Stays: []assignment.ResolvedStay{
					{Stay: stay, OriginHotelID: "h1"},
				}},
			},
		}}
		store, _, _ := newTestOverrideStore()
		svc := NewStatusService(resolver, &planRepoStub{}, store, nil)

		key := stay.StatusKeyAt("h1")
		if _, err := svc.SetRowStatus(context.Background(), SetRowStatusParams{Key: key, Status: assignment.StatusRejected}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		merged, err := svc.ReconcileStatuses(context.Background(), "Bukhara")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if merged[key] != assignment.StatusRejected {
			t.Fatalf("expected the local edit to survive, got %q", merged[key])
		}
	})

	t.Run("propagates resolver errors", func(t *testing.T) {
		store, _, _ := newTestOverrideStore()
		svc := NewStatusService(&resolverStub{err: errors.New("resolve failed")}, &planRepoStub{}, store, nil)

		if _, err := svc.ReconcileStatuses(context.Background(), "Bukhara"); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestStatusService_SetRowStatus(t *testing.T) {
	t.Run("validates the key and status", func(t *testing.T) {
		store, _, _ := newTestOverrideStore()
		svc := NewStatusService(&resolverStub{}, &planRepoStub{}, store, nil)

		_, err := svc.SetRowStatus(context.Background(), SetRowStatusParams{Status: assignment.ConfirmationStatus("MAYBE")})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"hotel_id", "booking_id", "status"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s validation error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("records the edit through the write-behind store", func(t *testing.T) {
		store, scheduler, port := newTestOverrideStore()
		svc := NewStatusService(&resolverStub{}, &planRepoStub{}, store, nil)

		key := assignment.StatusKey{HotelID: "h1", BookingID: "g1", CheckInDate: "2024-04-01"}
		state, err := svc.SetRowStatus(context.Background(), SetRowStatusParams{Key: key, Status: assignment.StatusConfirmed})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if state.RowStatuses[key] != assignment.StatusConfirmed {
			t.Fatalf("expected CONFIRMED recorded, got %q", state.RowStatuses[key])
		}

		if !scheduler.Fire() {
			t.Fatal("expected a flush to be scheduled")
		}
		if port.saveCount() != 1 {
			t.Fatalf("expected one save, got %d", port.saveCount())
		}
	})
}
