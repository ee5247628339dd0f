package approval

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PostgresStore persists approval requests in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed approval store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the approval_requests table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS approval_requests (
			id               VARCHAR(64) PRIMARY KEY,
			account_id       VARCHAR(64) NOT NULL,
			action_type      VARCHAR(16) NOT NULL,
			risk_level       VARCHAR(8) NOT NULL,
			reasoning        TEXT NOT NULL DEFAULT '',
			action_data      JSONB NOT NULL DEFAULT '{}',
			status           VARCHAR(10) NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending', 'approved', 'rejected')),
			requested_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			resolved_at      TIMESTAMPTZ,
			resolved_by      VARCHAR(255) NOT NULL DEFAULT '',
			resolution_notes TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_approval_requests_pending
			ON approval_requests (requested_at) WHERE status = 'pending';

		CREATE INDEX IF NOT EXISTS idx_approval_requests_account
			ON approval_requests (account_id, requested_at DESC);
	`)
	return err
}

func (s *PostgresStore) Create(ctx context.Context, r *Request) error {
	actionData, err := json.Marshal(r.ActionData)
	if err != nil {
		return fmt.Errorf("failed to marshal action data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO approval_requests (
			id, account_id, action_type, risk_level, reasoning, action_data,
			status, requested_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.ID, r.AccountID, r.ActionType, r.RiskLevel, r.Reasoning, actionData,
		string(r.Status), r.RequestedAt)
	if err != nil {
		return fmt.Errorf("failed to create approval request: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Request, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id)
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (s *PostgresStore) ListPending(ctx context.Context, accountID string) ([]*Request, error) {
	query := selectColumns + ` WHERE status = 'pending'`
	args := []any{}
	if accountID != "" {
		query += ` AND account_id = $1`
		args = append(args, accountID)
	}
	query += ` ORDER BY requested_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanRequests(rows)
}

// Resolve uses a conditional UPDATE so the pending check and the transition
// are one atomic statement.
func (s *PostgresStore) Resolve(ctx context.Context, id string, status Status, resolvedBy, notes string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE approval_requests
		SET status = $2, resolved_at = $3, resolved_by = $4, resolution_notes = $5
		WHERE id = $1 AND status = 'pending'
	`, id, string(status), at, resolvedBy, notes)
	if err != nil {
		return false, fmt.Errorf("failed to resolve approval: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *PostgresStore) ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]*Request, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		WHERE status = 'pending' AND requested_at < $1
		ORDER BY requested_at
		LIMIT $2
	`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired approvals: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanRequests(rows)
}

func (s *PostgresStore) CountPending(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM approval_requests WHERE status = 'pending'`).Scan(&count)
	return count, err
}

const selectColumns = `
	SELECT id, account_id, action_type, risk_level, reasoning, action_data,
	       status, requested_at, resolved_at, resolved_by, resolution_notes
	FROM approval_requests`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*Request, error) {
	var r Request
	var status string
	var actionData []byte
	var resolvedAt sql.NullTime

	err := row.Scan(&r.ID, &r.AccountID, &r.ActionType, &r.RiskLevel, &r.Reasoning,
		&actionData, &status, &r.RequestedAt, &resolvedAt, &r.ResolvedBy, &r.ResolutionNotes)
	if err != nil {
		return nil, err
	}
	r.Status = Status(status)
	if resolvedAt.Valid {
		t := resolvedAt.Time
		r.ResolvedAt = &t
	}
	if len(actionData) > 0 {
		r.ActionData = make(map[string]string)
		_ = json.Unmarshal(actionData, &r.ActionData)
	}
	return &r, nil
}

func scanRequests(rows *sql.Rows) ([]*Request, error) {
	var result []*Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			continue
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
