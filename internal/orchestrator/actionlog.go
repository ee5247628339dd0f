package orchestrator

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// ActionRecord is one entry in the action history log.
type ActionRecord struct {
	ID           string    `json:"id"`
	AccountID    string    `json:"accountId"`
	Platform     string    `json:"platform"`
	ActionType   string    `json:"actionType"`
	Status       string    `json:"status"`
	RiskLevel    string    `json:"riskLevel,omitempty"`
	DelaySeconds int       `json:"delaySeconds,omitempty"`
	Detail       string    `json:"detail,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ActionLog persists the action history.
type ActionLog interface {
	Record(ctx context.Context, r *ActionRecord) error
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*ActionRecord, error)
}

// MemoryActionLog is an in-memory ActionLog for demo/test use.
type MemoryActionLog struct {
	mu      sync.RWMutex
	records map[string][]*ActionRecord
}

// NewMemoryActionLog creates an in-memory action log.
func NewMemoryActionLog() *MemoryActionLog {
	return &MemoryActionLog{records: make(map[string][]*ActionRecord)}
}

func (l *MemoryActionLog) Record(ctx context.Context, r *ActionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := *r
	l.records[r.AccountID] = append(l.records[r.AccountID], &cp)
	return nil
}

func (l *MemoryActionLog) ListByAccount(ctx context.Context, accountID string, limit int) ([]*ActionRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	all := l.records[accountID]
	start := len(all) - limit
	if start < 0 {
		start = 0
	}
	result := make([]*ActionRecord, 0, len(all)-start)
	for i := len(all) - 1; i >= start; i-- {
		cp := *all[i]
		result = append(result, &cp)
	}
	return result, nil
}

// PostgresActionLog persists action history in PostgreSQL.
type PostgresActionLog struct {
	db *sql.DB
}

// NewPostgresActionLog creates a PostgreSQL-backed action log.
func NewPostgresActionLog(db *sql.DB) *PostgresActionLog {
	return &PostgresActionLog{db: db}
}

// Migrate creates the action_history table if it doesn't exist.
func (l *PostgresActionLog) Migrate(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS action_history (
			id            VARCHAR(64) PRIMARY KEY,
			account_id    VARCHAR(64) NOT NULL,
			platform      VARCHAR(32) NOT NULL,
			action_type   VARCHAR(16) NOT NULL,
			status        VARCHAR(24) NOT NULL,
			risk_level    VARCHAR(8) NOT NULL DEFAULT '',
			delay_seconds INTEGER NOT NULL DEFAULT 0,
			detail        TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_action_history_account
			ON action_history (account_id, created_at DESC);
	`)
	return err
}

func (l *PostgresActionLog) Record(ctx context.Context, r *ActionRecord) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO action_history (id, account_id, platform, action_type, status,
			risk_level, delay_seconds, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.ID, r.AccountID, r.Platform, r.ActionType, r.Status, r.RiskLevel,
		r.DelaySeconds, r.Detail, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record action: %w", err)
	}
	return nil
}

func (l *PostgresActionLog) ListByAccount(ctx context.Context, accountID string, limit int) ([]*ActionRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, account_id, platform, action_type, status, risk_level,
		       delay_seconds, detail, created_at
		FROM action_history
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list action history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*ActionRecord
	for rows.Next() {
		var r ActionRecord
		if err := rows.Scan(&r.ID, &r.AccountID, &r.Platform, &r.ActionType,
			&r.Status, &r.RiskLevel, &r.DelaySeconds, &r.Detail, &r.CreatedAt); err != nil {
			continue
		}
		result = append(result, &r)
	}
	return result, rows.Err()
}
