package interfaces

import (
	"context"

	"github.com/sheikh-saqib/iou-ledger/internal/models"
)

// IOUStore is the append-only log of accepted IOUs, enumerated in ledger order.
type IOUStore interface {
	SaveIOU(ctx context.Context, iou models.IOU) error
	GetIOUByKey(ctx context.Context, idempotencyKey string) (models.IOU, bool, error)
	ListIOUs(ctx context.Context) ([]models.IOU, error)
}
