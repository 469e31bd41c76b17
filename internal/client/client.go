// Package client is the caller side of the ledger: it discovers settlement
// paths before submitting an IOU and derives the per-user views.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sheikh-saqib/iou-ledger/internal/ledger"
	"github.com/sheikh-saqib/iou-ledger/internal/models"
	"github.com/sheikh-saqib/iou-ledger/internal/pathfinder"
)

// Ledger is the subset of *ledger.Ledger the client needs.
type Ledger interface {
	RecordDebt(ctx context.Context, req models.DebtRequest) (ledger.Receipt, error)
	Neighbors(ctx context.Context, participant models.Identity) ([]models.Identity, error)
	AmountOwed(debtor, creditor models.Identity) models.Amount
	TotalOwedBy(participant models.Identity) uint64
	Creditors(participant models.Identity) []models.Edge
	Participants() []models.Identity
	LastActivity(participant models.Identity) (time.Time, bool)
}

type Client struct {
	ledger Ledger
	logger *logrus.Entry
}

func New(l Ledger, logger *logrus.Entry) *Client {
	return &Client{ledger: l, logger: logger}
}

// AddIOU records that debtor owes creditor amount. It first looks for a
// chain of debts from creditor back to debtor and passes it along as the
// path hint so the ledger can net the cycle.
func (c *Client) AddIOU(ctx context.Context, idempotencyKey string, debtor, creditor models.Identity, amount int64) (ledger.Receipt, error) {
	path, err := c.FindPath(ctx, creditor, debtor)
	if err != nil {
		return ledger.Receipt{}, fmt.Errorf("find path: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"debtor":   debtor,
		"creditor": creditor,
		"path":     path,
	}).Debug("Submitting IOU")

	return c.ledger.RecordDebt(ctx, models.DebtRequest{
		IdempotencyKey: idempotencyKey,
		Debtor:         debtor,
		Creditor:       creditor,
		Amount:         amount,
		Path:           path,
	})
}

// FindPath searches the ledger's debt graph from start to end. A nil path
// means there is none.
func (c *Client) FindPath(ctx context.Context, start, end models.Identity) ([]models.Identity, error) {
	return pathfinder.FindPath(ctx, start, end, c.ledger.Neighbors)
}

// Creditors lists everyone user owes money to, with the amount owed. The
// edges come from a single ledger read, so they never mix states from before
// and after a concurrent IOU.
func (c *Client) Creditors(ctx context.Context, user models.Identity) ([]models.Edge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.ledger.Creditors(user), nil
}

// TotalOwed returns the sum of user's outstanding debts.
func (c *Client) TotalOwed(ctx context.Context, user models.Identity) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return c.ledger.TotalOwedBy(user), nil
}

func (c *Client) Users() []models.Identity {
	return c.ledger.Participants()
}

// LastActive returns the unix time of user's latest IOU, or nil if user has
// never been active.
func (c *Client) LastActive(user models.Identity) *int64 {
	t, ok := c.ledger.LastActivity(user)
	if !ok {
		return nil
	}
	sec := t.Unix()
	return &sec
}
