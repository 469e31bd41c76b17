package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	interfaces "github.com/sheikh-saqib/iou-ledger/internal/interfaces" // interface IOUStore
	"github.com/sheikh-saqib/iou-ledger/internal/models"
)

// Schema creates the IOU log. seq fixes ledger order for replay.
const Schema = `
CREATE TABLE IF NOT EXISTS ious (
	seq             BIGSERIAL PRIMARY KEY,
	id              TEXT NOT NULL UNIQUE,
	idempotency_key TEXT UNIQUE,
	debtor          TEXT NOT NULL,
	creditor        TEXT NOT NULL,
	amount          BIGINT NOT NULL CHECK (amount > 0 AND amount <= 4294967295),
	path            TEXT[],
	created_at      TIMESTAMPTZ NOT NULL
)`

type PostgresIOUStore struct {
	db *sql.DB
}

func NewPostgresIOUStore(db *sql.DB) *PostgresIOUStore {
	return &PostgresIOUStore{
		db: db,
	}
}

// EnsureSchema creates the ious table if it does not exist.
func (p *PostgresIOUStore) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, Schema)
	return err
}

func (p *PostgresIOUStore) SaveIOU(ctx context.Context, iou models.IOU) error {
	const query = `INSERT INTO ious (id, idempotency_key, debtor, creditor, amount, path, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err := p.db.ExecContext(ctx, query,
		iou.ID,
		nullableKey(iou.IdempotencyKey),
		string(iou.Debtor),
		string(iou.Creditor),
		int64(iou.Amount),
		pathArray(iou.Path),
		iou.CreatedAt,
	)
	return err
}

func (p *PostgresIOUStore) GetIOUByKey(ctx context.Context, idempotencyKey string) (models.IOU, bool, error) {
	const query = `SELECT id, idempotency_key, debtor, creditor, amount, path, created_at
	FROM ious WHERE idempotency_key = $1 LIMIT 1`

	iou, err := scanIOU(p.db.QueryRowContext(ctx, query, idempotencyKey))
	if errors.Is(err, sql.ErrNoRows) {
		return models.IOU{}, false, nil
	}
	if err != nil {
		return models.IOU{}, false, err
	}
	return iou, true, nil
}

func (p *PostgresIOUStore) ListIOUs(ctx context.Context) ([]models.IOU, error) {
	const query = `SELECT id, idempotency_key, debtor, creditor, amount, path, created_at
	FROM ious ORDER BY seq`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ious []models.IOU
	for rows.Next() {
		iou, err := scanIOU(rows)
		if err != nil {
			return nil, err
		}
		ious = append(ious, iou)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ious, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIOU(s scanner) (models.IOU, error) {
	var (
		iou    models.IOU
		key    sql.NullString
		amount int64
		path   pq.StringArray
	)
	err := s.Scan(
		&iou.ID,
		&key,
		&iou.Debtor,
		&iou.Creditor,
		&amount,
		&path,
		&iou.CreatedAt,
	)
	if err != nil {
		return models.IOU{}, err
	}

	iou.IdempotencyKey = key.String
	iou.Amount, err = models.AmountFromInt64(amount)
	if err != nil {
		return models.IOU{}, err
	}
	if path != nil {
		iou.Path = make([]models.Identity, len(path))
		for i, id := range path {
			iou.Path[i] = models.Identity(id)
		}
	}
	return iou, nil
}

func nullableKey(k string) sql.NullString {
	return sql.NullString{String: k, Valid: k != ""}
}

func pathArray(path []models.Identity) any {
	if path == nil {
		return nil
	}
	ids := make(pq.StringArray, len(path))
	for i, id := range path {
		ids[i] = string(id)
	}
	return ids
}

var _ interfaces.IOUStore = (*PostgresIOUStore)(nil)
