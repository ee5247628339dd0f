package risk

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// PostgresStore persists risk assessments in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed risk assessment store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the risk_assessments table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS risk_assessments (
			id              VARCHAR(64) PRIMARY KEY,
			account_id      VARCHAR(64) NOT NULL,
			action_type     VARCHAR(16) NOT NULL,
			risk_level      VARCHAR(8) NOT NULL CHECK (risk_level IN ('green', 'yellow', 'red')),
			confidence      NUMERIC(4,3) NOT NULL CHECK (confidence >= 0 AND confidence <= 1),
			reasoning       TEXT NOT NULL DEFAULT '',
			recommendation  TEXT NOT NULL DEFAULT '',
			requires_approval BOOLEAN NOT NULL DEFAULT FALSE,
			flags           TEXT[] NOT NULL DEFAULT '{}',
			score           NUMERIC(4,3) NOT NULL CHECK (score >= 0 AND score <= 1),
			factors         JSONB NOT NULL DEFAULT '{}',
			phase           VARCHAR(16) NOT NULL,
			degraded        BOOLEAN NOT NULL DEFAULT FALSE,
			evaluated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_risk_assessments_account
			ON risk_assessments (account_id, evaluated_at DESC);

		CREATE INDEX IF NOT EXISTS idx_risk_assessments_red
			ON risk_assessments (evaluated_at DESC) WHERE risk_level = 'red';
	`)
	return err
}

func (s *PostgresStore) Record(ctx context.Context, a *Assessment) error {
	factorsJSON, err := json.Marshal(a.Factors)
	if err != nil {
		return fmt.Errorf("failed to marshal factors: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO risk_assessments (
			id, account_id, action_type, risk_level, confidence, reasoning,
			recommendation, requires_approval, flags, score, factors, phase,
			degraded, evaluated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		a.ID, a.AccountID, a.ActionType, string(a.Level), a.Confidence, a.Reasoning,
		a.RecommendedAction, a.RequiresHumanApproval, pq.Array(a.Flags), a.Score,
		factorsJSON, a.Phase, a.Degraded, a.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record risk assessment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByAccount(ctx context.Context, accountID string, limit int) ([]*Assessment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, action_type, risk_level, confidence, reasoning,
		       recommendation, requires_approval, flags, score, factors, phase,
		       degraded, evaluated_at
		FROM risk_assessments
		WHERE account_id = $1
		ORDER BY evaluated_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list risk assessments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Assessment
	for rows.Next() {
		var a Assessment
		var level string
		var flags pq.StringArray
		var factorsJSON []byte

		if err := rows.Scan(
			&a.ID, &a.AccountID, &a.ActionType, &level, &a.Confidence, &a.Reasoning,
			&a.RecommendedAction, &a.RequiresHumanApproval, &flags, &a.Score,
			&factorsJSON, &a.Phase, &a.Degraded, &a.EvaluatedAt,
		); err != nil {
			continue
		}
		a.Level = Level(level)
		a.Flags = []string(flags)
		a.Factors = make(map[string]float64)
		_ = json.Unmarshal(factorsJSON, &a.Factors)
		result = append(result, &a)
	}
	return result, rows.Err()
}
