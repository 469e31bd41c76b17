package ledger

import (
	"fmt"

	"github.com/sheikh-saqib/iou-ledger/internal/models"
)

type edgeChange struct {
	debtor   models.Identity
	creditor models.Identity
	amount   models.Amount
}

// plan is the set of edge writes one IOU produces, computed before anything
// is persisted or mutated.
type plan struct {
	path    []models.Identity // validated hint, nil for a plain increment
	settled models.Amount
	changes []edgeChange
}

// plan works out the effect of debtor owing creditor amount. Callers hold mu.
func (l *Ledger) plan(debtor, creditor models.Identity, amount models.Amount, hint []models.Identity) (plan, error) {
	// the hint must close the loop: creditor -> ... -> debtor
	minHop, ok := l.validPath(creditor, debtor, hint)
	if !ok {
		sum := uint64(l.graph.get(debtor, creditor)) + uint64(amount)
		if sum > models.MaxAmount {
			return plan{}, fmt.Errorf("%w: %w", ErrInvalidAmount, models.ErrAmountOverflow)
		}
		return plan{changes: []edgeChange{{debtor, creditor, models.Amount(sum)}}}, nil
	}

	// every hop on the loop and the new debt shrink by the same amount
	settled := min(amount, minHop)
	p := plan{
		path:    append([]models.Identity(nil), hint...),
		settled: settled,
	}
	for i := 0; i+1 < len(hint); i++ {
		from, to := hint[i], hint[i+1]
		p.changes = append(p.changes, edgeChange{from, to, l.graph.get(from, to) - settled})
	}
	// leftover of the new debt becomes a plain increment
	if rest := amount - settled; rest > 0 {
		sum := uint64(l.graph.get(debtor, creditor)) + uint64(rest)
		if sum > models.MaxAmount {
			return plan{}, fmt.Errorf("%w: %w", ErrInvalidAmount, models.ErrAmountOverflow)
		}
		p.changes = append(p.changes, edgeChange{debtor, creditor, models.Amount(sum)})
	}
	return p, nil
}

// validPath checks that path runs from start to end over outstanding edges
// without revisiting a node, and returns the smallest amount along it.
func (l *Ledger) validPath(start, end models.Identity, path []models.Identity) (models.Amount, bool) {
	if len(path) < 2 || path[0] != start || path[len(path)-1] != end {
		return 0, false
	}
	seen := make(map[models.Identity]struct{}, len(path))
	var minHop models.Amount
	for i, id := range path {
		// a repeated node would subtract twice from one hop
		if _, dup := seen[id]; dup {
			return 0, false
		}
		seen[id] = struct{}{}
		if i == 0 {
			continue
		}
		amt := l.graph.get(path[i-1], id)
		if amt == 0 {
			return 0, false
		}
		if i == 1 || amt < minHop {
			minHop = amt
		}
	}
	return minHop, true
}
