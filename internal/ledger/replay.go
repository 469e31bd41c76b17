package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sheikh-saqib/iou-ledger/internal/metrics"
	"github.com/sheikh-saqib/iou-ledger/internal/models"
)

// Restore rebuilds the ledger from the IOUs in the store, applying them in
// log order with the same update rule RecordDebt uses. The rebuilt state
// replaces what the ledger held only when the whole log replays cleanly; on
// error the ledger is left as it was. It returns the number of IOUs replayed.
func (l *Ledger) Restore(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ious, err := l.store.ListIOUs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list ious: %w", err)
	}

	// scratch ledger: replay happens here, never on l directly
	next := &Ledger{
		logger:       l.logger,
		metrics:      metrics.New(prometheus.NewRegistry()), // throwaway, gauges are set on l after the swap
		graph:        newDebtGraph(),
		known:        make(map[models.Identity]struct{}),
		lastActivity: make(map[models.Identity]time.Time),
	}

	for i, iou := range ious {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		p, err := next.plan(iou.Debtor, iou.Creditor, iou.Amount, iou.Path)
		if err != nil {
			return i, fmt.Errorf("replay iou %s: %w", iou.ID, err)
		}
		// a recorded path was valid when accepted, so it must be valid again
		if len(iou.Path) > 0 && p.path == nil {
			return i, fmt.Errorf("replay iou %s: recorded path no longer valid", iou.ID)
		}
		next.apply(iou, p)
	}

	// swap the rebuilt state in as one unit
	l.graph = next.graph
	l.participants = next.participants
	l.known = next.known
	l.lastActivity = next.lastActivity
	l.ledgerTime = next.ledgerTime

	l.metrics.IOUsReplayed.Add(float64(len(ious)))
	l.metrics.Participants.Set(float64(len(l.participants)))
	l.metrics.Edges.Set(float64(l.graph.edges))

	l.logger.WithField("ious", len(ious)).Debug("Ledger restored")
	return len(ious), nil
}
