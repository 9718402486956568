package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/kavelio/reservation-service/internal/domain"
	publisher "github.com/kavelio/reservation-service/internal/infrastructure/kafka"
	"github.com/kavelio/reservation-service/internal/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// fakeRepo is an in-memory ReservationRepository with real CAS semantics:
// SaveTransition only succeeds when the stored version matches, exactly like
// the postgres implementation's conditional UPDATE.
type fakeRepo struct {
	mu           sync.Mutex
	reservations map[string]*domain.Reservation
	logs         []*domain.TransitionLog
	slotConflict bool

	// forcedConflicts makes the next n SaveTransition calls fail with
	// ErrVersionConflict regardless of version, to exercise retry paths.
	forcedConflicts int

	// beforeCreate, when set, runs once under the lock at the start of the
	// next CreateReservation call. Tests use it to slip a racing insert in
	// between a caller's idempotency lookup and its own insert.
	beforeCreate func(reservations map[string]*domain.Reservation)
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{reservations: make(map[string]*domain.Reservation)}
}

func (f *fakeRepo) CreateReservation(ctx context.Context, r *domain.Reservation, log *domain.TransitionLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.beforeCreate != nil {
		hook := f.beforeCreate
		f.beforeCreate = nil
		hook(f.reservations)
	}

	if r.IdempotencyKey != "" {
		for _, existing := range f.reservations {
			if existing.PartnerID == r.PartnerID && existing.IdempotencyKey == r.IdempotencyKey {
				return domain.ErrDuplicateKey
			}
		}
	}

	stored := *r
	f.reservations[r.ID] = &stored
	logCopy := *log
	f.logs = append(f.logs, &logCopy)
	return nil
}

func (f *fakeRepo) GetReservationByID(ctx context.Context, id string) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.reservations[id]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}
	out := *stored
	return &out, nil
}

func (f *fakeRepo) FindByIdempotencyKey(ctx context.Context, partnerID, key string) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, stored := range f.reservations {
		if stored.PartnerID == partnerID && stored.IdempotencyKey == key {
			out := *stored
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) SaveTransition(ctx context.Context, r *domain.Reservation, expectedVersion int64, log *domain.TransitionLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.forcedConflicts > 0 {
		f.forcedConflicts--
		return domain.ErrVersionConflict
	}

	stored, ok := f.reservations[r.ID]
	if !ok {
		return domain.ErrReservationNotFound
	}
	if stored.Version != expectedVersion {
		return domain.ErrVersionConflict
	}

	updated := *r
	updated.Version = expectedVersion + 1
	f.reservations[r.ID] = &updated
	logCopy := *log
	f.logs = append(f.logs, &logCopy)
	return nil
}

func (f *fakeRepo) AppendTransitionLog(ctx context.Context, log *domain.TransitionLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	logCopy := *log
	f.logs = append(f.logs, &logCopy)
	return nil
}

func (f *fakeRepo) GetTransitionLog(ctx context.Context, reservationID string) ([]*domain.TransitionLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*domain.TransitionLog
	for _, log := range f.logs {
		if log.ReservationID == reservationID {
			logCopy := *log
			out = append(out, &logCopy)
		}
	}
	return out, nil
}

func (f *fakeRepo) FindExpiredReservations(ctx context.Context, now time.Time, limit int) ([]*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*domain.Reservation
	for _, stored := range f.reservations {
		if domain.IsTerminalState(stored.State) || stored.ExpiresAt == nil {
			continue
		}
		if stored.ExpiresAt.Before(now) {
			r := *stored
			out = append(out, &r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepo) GetReservationsByVendorID(ctx context.Context, vendorID string, states []domain.ReservationState) ([]*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*domain.Reservation
	for _, stored := range f.reservations {
		if stored.VendorID != vendorID {
			continue
		}
		if len(states) > 0 {
			match := false
			for _, s := range states {
				if stored.State == s {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		r := *stored
		out = append(out, &r)
	}
	return out, nil
}

func (f *fakeRepo) HasSlotConflict(ctx context.Context, vendorID string, slotStart, slotEnd time.Time, excludeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slotConflict, nil
}

// setPaymentIntents simulates the payment orchestrator attaching intents to
// the stored row.
func (f *fakeRepo) setPaymentIntents(id, vendorIntent, requesterIntent string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if stored, ok := f.reservations[id]; ok {
		if vendorIntent != "" {
			stored.PaymentState.VendorPaymentIntentID = vendorIntent
		}
		if requesterIntent != "" {
			stored.PaymentState.RequesterPaymentIntentID = requesterIntent
		}
	}
}

func (f *fakeRepo) logCount(reservationID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, log := range f.logs {
		if log.ReservationID == reservationID {
			n++
		}
	}
	return n
}

type fakeVendors struct {
	known map[string]bool
}

func (f *fakeVendors) VendorExists(ctx context.Context, vendorID string) (bool, error) {
	return f.known[vendorID], nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publisher.ReservationEvent
}

func (f *fakePublisher) PublishReservation(event publisher.ReservationEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) published() []publisher.ReservationEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]publisher.ReservationEvent, len(f.events))
	copy(out, f.events)
	return out
}

// testClock is a movable clock for exercising deadlines.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{now: t.UTC()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	uc   *DefaultReservationUsecase
	repo *fakeRepo
	clk  *testClock
	pub  *fakePublisher
}

func newTestEnv(now time.Time) *testEnv {
	repo := newFakeRepo()
	clk := newTestClock(now)
	pub := &fakePublisher{}
	vendors := &fakeVendors{known: map[string]bool{"vendor-1": true}}

	uc := NewDefaultReservationUsecase(
		repo,
		vendors,
		DefaultGuardChain(repo),
		pub,
		metrics.NewReservationMetrics(prometheus.NewRegistry()),
		clk,
	)

	return &testEnv{uc: uc, repo: repo, clk: clk, pub: pub}
}
