package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// IOURecorded is published after a debt is committed to the ledger.
type IOURecorded struct {
	IOUID      string          `json:"iou_id"`
	Debtor     string          `json:"debtor"`
	Creditor   string          `json:"creditor"`
	Amount     decimal.Decimal `json:"amount"`
	Settled    decimal.Decimal `json:"settled"`
	Cycle      []string        `json:"cycle,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}
