package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/example/tour-backoffice/internal/assignment"
)

// OverridePersistence is the port the write-behind store flushes snapshots to.
// persistence.OverrideRepository satisfies it.
type OverridePersistence interface {
	SaveOverrides(ctx context.Context, state assignment.OverrideState) error
}

// ScheduleFunc arms a one-shot timer and returns a cancel function. Tests
// inject a manual trigger instead of real timers.
type ScheduleFunc func(d time.Duration, fn func()) (cancel func())

// DefaultFlushDelay is the quiet period after the last mutation before the
// override snapshot is persisted.
const DefaultFlushDelay = 1200 * time.Millisecond

// OverrideStore is the write-behind cache for the operator's override state.
// Mutations apply to the in-memory state immediately and are visible to
// subsequent reads; a coalescing timer persists the latest full snapshot after
// a quiet period, so rapid successive edits produce a single remote write.
// Save failures are logged and swallowed: the in-memory state stays the source
// of truth for the session, and a later reload reconciles from whatever the
// remote last accepted.
type OverrideStore struct {
	mu         sync.Mutex
	state      assignment.OverrideState
	port       OverridePersistence
	flushAfter time.Duration
	schedule   ScheduleFunc
	cancel     func()
	logger     *slog.Logger
}

// NewOverrideStore wires the store with its persistence port. A nil schedule
// uses real timers; a non-positive flushAfter uses DefaultFlushDelay.
func NewOverrideStore(port OverridePersistence, flushAfter time.Duration, schedule ScheduleFunc, logger *slog.Logger) *OverrideStore {
	if flushAfter <= 0 {
		flushAfter = DefaultFlushDelay
	}
	if schedule == nil {
		schedule = func(d time.Duration, fn func()) func() {
			timer := time.AfterFunc(d, fn)
			return func() { timer.Stop() }
		}
	}
	return &OverrideStore{
		state:      assignment.NewOverrideState(),
		port:       port,
		flushAfter: flushAfter,
		schedule:   schedule,
		logger:     defaultLogger(logger),
	}
}

// Reset replaces the cached state wholesale, typically after a full reload
// from the remote store. Reset does not schedule a flush: the loaded state is
// by definition what the remote already holds.
func (s *OverrideStore) Reset(state assignment.OverrideState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state = state.Clone()
}

// Snapshot returns a deep copy of the current state.
func (s *OverrideStore) Snapshot() assignment.OverrideState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Update applies a mutation to the cached state and re-arms the flush timer.
// If a timer is already pending it is cancelled first, so only the final state
// after a pause gets persisted. The updated state is returned for the caller.
func (s *OverrideStore) Update(mutate func(assignment.OverrideState) assignment.OverrideState) assignment.OverrideState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = mutate(s.state)
	snapshot := s.state.Clone()

	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = s.schedule(s.flushAfter, s.flush)

	return snapshot
}

// Flush persists the current snapshot immediately, bypassing the quiet
// period. Intended for shutdown paths; unlike the timer-driven flush, the
// error is returned to the caller.
func (s *OverrideStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	snapshot := s.state.Clone()
	s.mu.Unlock()

	return s.port.SaveOverrides(ctx, snapshot)
}

func (s *OverrideStore) flush() {
	s.mu.Lock()
	s.cancel = nil
	snapshot := s.state.Clone()
	s.mu.Unlock()

	if err := s.port.SaveOverrides(context.Background(), snapshot); err != nil {
		s.logger.Warn("override save failed; keeping local state",
			"error", err,
			"extra_hotels", len(snapshot.ExtraHotels),
			"assignments", len(snapshot.HotelAssignments),
			"row_statuses", len(snapshot.RowStatuses),
		)
	}
}
