package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/models"
	"faraid/pkg/platform/tx"
)

const schema = `
CREATE TABLE IF NOT EXISTS calculation_history (
	id          UUID PRIMARY KEY,
	owner_id    TEXT        NOT NULL,
	madhab      TEXT        NOT NULL,
	currency    TEXT        NOT NULL,
	net_estate  NUMERIC     NOT NULL,
	elapsed_ms  DOUBLE PRECISION NOT NULL DEFAULT 0,
	result      JSONB       NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS calculation_history_owner_created_idx
	ON calculation_history (owner_id, created_at DESC, id DESC);
`

const uniqueViolation = "23505"

// PostgresStore persists history in PostgreSQL. The result is stored as
// JSONB; madhab, currency and net estate are denormalized for querying.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the history table and index when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure history schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, rec *models.Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	payload, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		_, err := tx.Conn(ctx, s.db).ExecContext(ctx, `
			INSERT INTO calculation_history (id, owner_id, madhab, currency, net_estate, elapsed_ms, result, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			rec.ID, rec.OwnerID, string(rec.Madhab), rec.Result.Estate.Currency,
			rec.Result.NetEstate.String(), rec.ElapsedMS, payload, rec.CreatedAt.UTC(),
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				return ErrConflict
			}
			return fmt.Errorf("insert calculation: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) Get(ctx context.Context, ownerID, id string) (*models.Record, error) {
	row := tx.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, owner_id, madhab, elapsed_ms, result, created_at
		FROM calculation_history
		WHERE id::text = $1 AND owner_id = $2`, id, ownerID)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find calculation: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*models.Record, error) {
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT id, owner_id, madhab, elapsed_ms, result, created_at
		FROM calculation_history
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list calculations: %w", err)
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calculation: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calculations: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.Record, error) {
	var (
		rec     models.Record
		madhab  string
		payload []byte
	)
	if err := row.Scan(&rec.ID, &rec.OwnerID, &madhab, &rec.ElapsedMS, &payload, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Madhab = fiqh.Madhab(madhab)
	rec.Result = &models.Result{}
	if err := json.Unmarshal(payload, rec.Result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &rec, nil
}
