package ledger

import (
	"context"

	"github.com/sheikh-saqib/iou-ledger/internal/models/events"
)

func (l *Ledger) publish(ctx context.Context, r Receipt) {
	if l.publisher == nil {
		return
	}

	event := events.IOURecorded{
		IOUID:      r.IOU.ID,
		Debtor:     string(r.IOU.Debtor),
		Creditor:   string(r.IOU.Creditor),
		Amount:     r.IOU.Amount.Decimal(),
		Settled:    r.Settled.Decimal(),
		OccurredAt: r.IOU.CreatedAt,
	}
	for _, id := range r.Cycle {
		event.Cycle = append(event.Cycle, string(id))
	}

	if err := l.publisher.Publish(ctx, l.topic, event); err != nil {
		l.logger.WithError(err).WithField("iou", r.IOU.ID).Warn("Failed to publish IOU event")
	}
}
