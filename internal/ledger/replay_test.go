package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/iou-ledger/internal/common"
	"github.com/sheikh-saqib/iou-ledger/internal/models"
	"github.com/sheikh-saqib/iou-ledger/internal/storage/memory"
)

func TestRestore_RebuildsState(t *testing.T) {
	l, store := newTestLedger(t)

	record(t, l, owner, addr1, 10)
	record(t, l, addr1, addr2, 20)
	record(t, l, addr2, owner, 30, owner, addr1, addr2)
	record(t, l, addr1, owner, 5, owner) // stale hint, stored without a path

	restored := NewLedger(store, WithLogger(common.NewTestEntry(t, "restored")))
	n, err := restored.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	for _, d := range []models.Identity{owner, addr1, addr2} {
		for _, c := range []models.Identity{owner, addr1, addr2} {
			assert.Equal(t, l.AmountOwed(d, c), restored.AmountOwed(d, c), "%s -> %s", d, c)
		}
		want, _ := l.LastActivity(d)
		got, ok := restored.LastActivity(d)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, l.Participants(), restored.Participants())
}

func TestRestore_ContinuesAfterReplay(t *testing.T) {
	l, store := newTestLedger(t)
	record(t, l, owner, addr1, 10)

	restored := NewLedger(store,
		WithLogger(common.NewTestEntry(t, "restored")),
		WithClock(&stepClock{now: time.Unix(1, 0)}))
	_, err := restored.Restore(context.Background())
	require.NoError(t, err)

	record(t, restored, addr1, owner, 3, owner, addr1)
	assert.EqualValues(t, 7, restored.AmountOwed(owner, addr1))

	// clock behind the log: ledger time must not go backwards
	before, _ := l.LastActivity(owner)
	after, _ := restored.LastActivity(owner)
	assert.False(t, after.Before(before))
}

func TestRestore_CorruptLogLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	l, store := newTestLedger(t)
	record(t, l, owner, addr1, 10)

	// a valid entry followed by one whose path never existed
	require.NoError(t, store.SaveIOU(ctx, models.IOU{
		ID: "ok", Debtor: addr2, Creditor: owner, Amount: 3, CreatedAt: time.Unix(1_800_000_000, 0),
	}))
	require.NoError(t, store.SaveIOU(ctx, models.IOU{
		ID: "bad", Debtor: addr1, Creditor: addr2, Amount: 5,
		Path: []models.Identity{addr2, addr1},
	}))

	before, _ := l.LastActivity(owner)

	n, err := l.Restore(ctx)
	require.Error(t, err)
	assert.Equal(t, 2, n)

	assert.EqualValues(t, 10, l.AmountOwed(owner, addr1))
	assert.Zero(t, l.AmountOwed(addr2, owner))
	assert.Equal(t, []models.Identity{owner, addr1}, l.Participants())
	_, ok := l.LastActivity(addr2)
	assert.False(t, ok)
	after, _ := l.LastActivity(owner)
	assert.Equal(t, before, after)

	// the ledger keeps working on its old state
	record(t, l, addr1, owner, 4, owner, addr1)
	assert.EqualValues(t, 6, l.AmountOwed(owner, addr1))
}

func TestRestore_CorruptLog(t *testing.T) {
	store := memory.NewMemoryIOUStore()
	ctx := context.Background()
	require.NoError(t, store.SaveIOU(ctx, models.IOU{
		ID: "bad", Debtor: addr1, Creditor: owner, Amount: 5,
		Path: []models.Identity{owner, addr1},
	}))

	l := NewLedger(store, WithLogger(common.NewTestEntry(t, "ledger")))
	_, err := l.Restore(ctx)
	require.Error(t, err)
	assert.Empty(t, l.Participants())
	assert.Zero(t, l.AmountOwed(owner, addr1))
}

type listErrorStore struct {
	*memory.MemoryIOUStore
}

func (listErrorStore) ListIOUs(context.Context) ([]models.IOU, error) {
	return nil, errors.New("connection refused")
}

func TestRestore_StoreError(t *testing.T) {
	l := NewLedger(listErrorStore{memory.NewMemoryIOUStore()},
		WithLogger(common.NewTestEntry(t, "ledger")))
	_, err := l.Restore(context.Background())
	require.Error(t, err)
}
