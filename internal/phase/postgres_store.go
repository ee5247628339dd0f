package phase

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists phase transitions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed phase transition store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the phase_transitions table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS phase_transitions (
			id         VARCHAR(64) PRIMARY KEY,
			account_id VARCHAR(64) NOT NULL,
			from_phase VARCHAR(16) NOT NULL,
			to_phase   VARCHAR(16) NOT NULL,
			reason     TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_phase_transitions_account
			ON phase_transitions (account_id, created_at DESC);
	`)
	return err
}

func (s *PostgresStore) Record(ctx context.Context, t *Transition) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO phase_transitions (id, account_id, from_phase, to_phase, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.ID, t.AccountID, string(t.FromPhase), string(t.ToPhase), t.Reason, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record phase transition: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByAccount(ctx context.Context, accountID string, limit int) ([]*Transition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, from_phase, to_phase, reason, created_at
		FROM phase_transitions
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list phase transitions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Transition
	for rows.Next() {
		var t Transition
		var from, to string
		if err := rows.Scan(&t.ID, &t.AccountID, &from, &to, &t.Reason, &t.CreatedAt); err != nil {
			continue
		}
		t.FromPhase = Phase(from)
		t.ToPhase = Phase(to)
		result = append(result, &t)
	}
	return result, rows.Err()
}
