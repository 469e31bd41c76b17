package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	interfaces "github.com/sheikh-saqib/iou-ledger/internal/interfaces"
	"github.com/sheikh-saqib/iou-ledger/internal/metrics"
	"github.com/sheikh-saqib/iou-ledger/internal/models"
)

// Ledger is the shared debt graph: who owes whom how much, the set of known
// participants and the last time each of them took part in an IOU.
// All mutations go through RecordDebt and are serialized by mu; queries take
// the read lock so they never observe a half-applied cycle.
type Ledger struct {
	store     interfaces.IOUStore
	publisher interfaces.EventPublisher
	topic     string
	clock     interfaces.Clock
	logger    *logrus.Entry
	metrics   *metrics.Metrics

	mu           sync.RWMutex
	graph        *debtGraph
	participants []models.Identity             // first-appearance order
	known        map[models.Identity]struct{}  // index over participants
	lastActivity map[models.Identity]time.Time // latest IOU per participant
	ledgerTime   time.Time                     // never moves backwards
}

// Option configures a Ledger.
type Option func(*Ledger)

func WithClock(c interfaces.Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

func WithLogger(e *logrus.Entry) Option {
	return func(l *Ledger) { l.logger = e }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithPublisher makes the ledger publish an IOURecorded event to topic after
// every committed IOU.
func WithPublisher(p interfaces.EventPublisher, topic string) Option {
	return func(l *Ledger) {
		l.publisher = p
		l.topic = topic
	}
}

// NewLedger creates an empty ledger backed by store. Call Restore to rebuild
// state from a store that already holds IOUs.
func NewLedger(store interfaces.IOUStore, opts ...Option) *Ledger {
	l := &Ledger{
		store:        store,
		clock:        interfaces.SystemClock{},
		graph:        newDebtGraph(),
		known:        make(map[models.Identity]struct{}),
		lastActivity: make(map[models.Identity]time.Time),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logrus.StandardLogger().WithField("component", "ledger")
	}
	if l.metrics == nil {
		l.metrics = metrics.New(prometheus.NewRegistry())
	}
	return l
}

// Receipt describes the outcome of an accepted RecordDebt call.
type Receipt struct {
	IOU     models.IOU
	Settled models.Amount     // amount netted out of the cycle, zero for a plain increment
	Cycle   []models.Identity // debtor, creditor, ..., debtor when a cycle was cancelled

	// Duplicate is set when the idempotency key matched an earlier IOU and
	// nothing was applied.
	Duplicate bool
}

// RecordDebt is the only mutating operation. It records that req.Debtor owes
// req.Creditor req.Amount.
//
// When req.Path is a valid chain of outstanding debts from the creditor back
// to the debtor, the loop it closes is netted: every edge on the chain and the
// new debt shrink by the smallest amount among them, and whatever is left of
// the new debt is added to the debtor -> creditor edge. An invalid or stale
// path is ignored and the debt is added as a plain increment.
//
// The IOU is appended to the store before the in-memory state changes, so a
// rejected or failed call leaves both untouched.
func (l *Ledger) RecordDebt(ctx context.Context, req models.DebtRequest) (Receipt, error) {
	amount, err := l.validate(req)
	if err != nil {
		return Receipt{}, err
	}

	l.mu.Lock()

	// Check idempotency
	if req.IdempotencyKey != "" {
		prev, exists, err := l.store.GetIOUByKey(ctx, req.IdempotencyKey)
		if err != nil {
			l.mu.Unlock()
			l.metrics.Rejections.WithLabelValues(metrics.ReasonStorage).Inc()
			return Receipt{}, fmt.Errorf("idempotency lookup: %w", err)
		}
		if exists {
			l.mu.Unlock()
			l.metrics.DuplicateIOUs.Inc()
			return Receipt{IOU: prev, Duplicate: true}, nil
		}
	}

	p, err := l.plan(req.Debtor, req.Creditor, amount, req.Path)
	if err != nil {
		l.mu.Unlock()
		l.metrics.Rejections.WithLabelValues(metrics.ReasonInvalidAmount).Inc()
		return Receipt{}, err
	}
	if len(req.Path) > 0 && p.path == nil {
		l.metrics.StalePathHints.Inc()
		l.logger.WithFields(logrus.Fields{
			"debtor":   req.Debtor,
			"creditor": req.Creditor,
			"path":     req.Path,
		}).Debug("Stale path hint, falling back to plain increment")
	}

	iou := models.IOU{
		ID:             uuid.New().String(),
		IdempotencyKey: req.IdempotencyKey,
		Debtor:         req.Debtor,
		Creditor:       req.Creditor,
		Amount:         amount,
		Path:           p.path,
		CreatedAt:      l.nextTime(),
	}

	// Persist first, then mutate
	if err := l.store.SaveIOU(ctx, iou); err != nil {
		l.mu.Unlock()
		l.metrics.Rejections.WithLabelValues(metrics.ReasonStorage).Inc()
		l.logger.WithError(err).Error("Failed to save IOU")
		return Receipt{}, fmt.Errorf("save iou: %w", err)
	}

	l.apply(iou, p)
	l.mu.Unlock()

	// Everything below runs outside the lock

	l.metrics.IOUsRecorded.Inc()
	receipt := Receipt{IOU: iou, Settled: p.settled}
	if p.path != nil {
		receipt.Cycle = append([]models.Identity{iou.Debtor}, p.path...)
	}

	l.logger.WithFields(logrus.Fields{
		"iou":      iou.ID,
		"debtor":   iou.Debtor,
		"creditor": iou.Creditor,
		"amount":   iou.Amount,
		"settled":  p.settled,
	}).Info("IOU recorded")

	l.publish(ctx, receipt)
	return receipt, nil
}

func (l *Ledger) validate(req models.DebtRequest) (models.Amount, error) {
	if req.Debtor == "" || req.Creditor == "" {
		l.metrics.Rejections.WithLabelValues(metrics.ReasonInvalidIdentity).Inc()
		return 0, ErrInvalidIdentity
	}
	if req.Debtor == req.Creditor {
		l.metrics.Rejections.WithLabelValues(metrics.ReasonSelfDebt).Inc()
		return 0, ErrSelfDebt
	}
	amount, err := models.AmountFromInt64(req.Amount)
	if err != nil {
		l.metrics.Rejections.WithLabelValues(metrics.ReasonInvalidAmount).Inc()
		return 0, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}
	return amount, nil
}

// nextTime returns the current ledger time in whole seconds, never earlier
// than the previous one. Callers hold mu.
func (l *Ledger) nextTime() time.Time {
	now := l.clock.Now().UTC().Truncate(time.Second)
	if now.Before(l.ledgerTime) {
		now = l.ledgerTime
	}
	return now
}

// apply commits a plan and stamps both parties. Callers hold mu.
func (l *Ledger) apply(iou models.IOU, p plan) {
	for _, c := range p.changes {
		l.graph.set(c.debtor, c.creditor, c.amount) // zero removes the edge
	}
	l.touch(iou.Debtor, iou.CreatedAt)
	l.touch(iou.Creditor, iou.CreatedAt)
	if iou.CreatedAt.After(l.ledgerTime) {
		l.ledgerTime = iou.CreatedAt
	}

	if p.path != nil {
		l.metrics.CyclesCancelled.Inc()
		l.metrics.AmountSettled.Add(float64(p.settled))
	}
	l.metrics.Participants.Set(float64(len(l.participants)))
	l.metrics.Edges.Set(float64(l.graph.edges))
}

// touch registers id as a participant and bumps its last activity.
func (l *Ledger) touch(id models.Identity, at time.Time) {
	if _, ok := l.known[id]; !ok {
		l.known[id] = struct{}{}
		l.participants = append(l.participants, id)
	}
	if prev, ok := l.lastActivity[id]; !ok || at.After(prev) {
		l.lastActivity[id] = at
	}
}

// AmountOwed returns how much debtor owes creditor, zero when nothing is owed.
func (l *Ledger) AmountOwed(debtor, creditor models.Identity) models.Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.graph.get(debtor, creditor)
}

// TotalOwedBy sums every outstanding debt of participant.
func (l *Ledger) TotalOwedBy(participant models.Identity) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.graph.total(participant)
}

// Participants returns a snapshot of every identity that has taken part in an
// accepted IOU, in order of first appearance.
func (l *Ledger) Participants() []models.Identity {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Identity, len(l.participants))
	copy(out, l.participants)
	return out
}

// LastActivity returns the ledger time of participant's latest IOU. ok is
// false when the participant has never been active.
func (l *Ledger) LastActivity(participant models.Identity) (time.Time, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.lastActivity[participant]
	return t, ok
}

// Neighbors returns the creditors participant currently owes money to, in
// edge creation order. Its signature matches pathfinder.NeighborFunc.
func (l *Ledger) Neighbors(_ context.Context, participant models.Identity) ([]models.Identity, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.graph.creditors(participant), nil
}

// Creditors returns participant's outstanding edges in edge creation order.
func (l *Ledger) Creditors(participant models.Identity) []models.Edge {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := l.graph.order[participant]
	edges := make([]models.Edge, 0, len(ids))
	for _, c := range ids {
		edges = append(edges, models.Edge{
			Debtor:   participant,
			Creditor: c,
			Amount:   l.graph.get(participant, c),
		})
	}
	return edges
}
