package ledger

import "github.com/sheikh-saqib/iou-ledger/internal/models"

// debtGraph stores positive debtor -> creditor amounts. A zero amount is
// never stored. Each debtor keeps its creditors in edge creation order, which
// is the neighbor order used for path search.
type debtGraph struct {
	amounts map[models.Identity]map[models.Identity]models.Amount // debtor -> creditor -> amount
	order   map[models.Identity][]models.Identity                 // creditors per debtor, oldest edge first
	edges   int                                                   // number of non-zero edges
}

func newDebtGraph() *debtGraph {
	return &debtGraph{
		amounts: make(map[models.Identity]map[models.Identity]models.Amount),
		order:   make(map[models.Identity][]models.Identity),
	}
}

func (g *debtGraph) get(debtor, creditor models.Identity) models.Amount {
	return g.amounts[debtor][creditor]
}

// set stores amount on the edge, removing the edge when amount is zero.
func (g *debtGraph) set(debtor, creditor models.Identity, amount models.Amount) {
	out, ok := g.amounts[debtor]
	if amount == 0 {
		if !ok {
			return
		}
		if _, exists := out[creditor]; !exists {
			return
		}
		// settled: drop the edge so it re-enters at the back if re-created
		delete(out, creditor)
		g.order[debtor] = remove(g.order[debtor], creditor)
		if len(out) == 0 {
			delete(g.amounts, debtor)
			delete(g.order, debtor)
		}
		g.edges--
		return
	}

	if !ok {
		out = make(map[models.Identity]models.Amount)
		g.amounts[debtor] = out
	}
	if _, exists := out[creditor]; !exists {
		g.order[debtor] = append(g.order[debtor], creditor) // new edge
		g.edges++
	}
	out[creditor] = amount
}

func (g *debtGraph) creditors(debtor models.Identity) []models.Identity {
	src := g.order[debtor]
	if len(src) == 0 {
		return nil
	}
	dst := make([]models.Identity, len(src))
	copy(dst, src)
	return dst
}

func (g *debtGraph) total(debtor models.Identity) uint64 {
	var sum uint64
	for _, amt := range g.amounts[debtor] {
		sum += uint64(amt)
	}
	return sum
}

func remove(ids []models.Identity, id models.Identity) []models.Identity {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
