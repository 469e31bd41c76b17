package memory

import (
	"context" // standard Go package for request-scoped context (timeouts, cancellation)
	"sync"    // standard Go package for concurrency primitives like Mutex

	interfaces "github.com/sheikh-saqib/iou-ledger/internal/interfaces"
	"github.com/sheikh-saqib/iou-ledger/internal/models"
)

// MemoryIOUStore is an in-memory implementation of interfaces.IOUStore.
// It keeps the IOU log in a slice, in the order IOUs were accepted.
type MemoryIOUStore struct {
	mu    sync.Mutex            // protects ious and byKey
	ious  []models.IOU          // the append-only log
	byKey map[string]models.IOU // idempotency key -> IOU
}

// NewMemoryIOUStore creates and returns a new MemoryIOUStore instance
func NewMemoryIOUStore() *MemoryIOUStore {
	return &MemoryIOUStore{
		ious:  make([]models.IOU, 0),
		byKey: make(map[string]models.IOU),
	}
}

// SaveIOU appends an IOU to the log.
func (m *MemoryIOUStore) SaveIOU(ctx context.Context, iou models.IOU) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	iou.Path = clonePath(iou.Path)
	m.ious = append(m.ious, iou)
	if iou.IdempotencyKey != "" {
		m.byKey[iou.IdempotencyKey] = iou
	}
	return nil // always succeeds in memory
}

func (m *MemoryIOUStore) GetIOUByKey(ctx context.Context, idempotencyKey string) (models.IOU, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	iou, exists := m.byKey[idempotencyKey]
	iou.Path = clonePath(iou.Path)
	return iou, exists, nil
}

// ListIOUs returns a copy of the log so callers can't modify internal state.
func (m *MemoryIOUStore) ListIOUs(ctx context.Context) ([]models.IOU, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]models.IOU, len(m.ious))
	for i, iou := range m.ious {
		iou.Path = clonePath(iou.Path)
		copied[i] = iou
	}
	return copied, nil
}

func clonePath(p []models.Identity) []models.Identity {
	if p == nil {
		return nil
	}
	return append([]models.Identity(nil), p...)
}

// Compile-time check: ensure MemoryIOUStore implements IOUStore interface
var _ interfaces.IOUStore = (*MemoryIOUStore)(nil)
