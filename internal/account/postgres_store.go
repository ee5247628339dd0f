package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresStore persists accounts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed account store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the social_accounts table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS social_accounts (
			id                 VARCHAR(64) PRIMARY KEY,
			platform           VARCHAR(32) NOT NULL,
			username           VARCHAR(255) NOT NULL,
			follower_count     INTEGER NOT NULL DEFAULT 0,
			following_count    INTEGER NOT NULL DEFAULT 0,
			post_count         INTEGER NOT NULL DEFAULT 0,
			engagement_rate    NUMERIC(6,5) NOT NULL DEFAULT 0,
			consecutive_errors INTEGER NOT NULL DEFAULT 0,
			phase              VARCHAR(16) NOT NULL DEFAULT 'phase_1',
			status             VARCHAR(16) NOT NULL DEFAULT 'active',
			account_created_at TIMESTAMPTZ,
			last_action_at     TIMESTAMPTZ,
			created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_social_accounts_platform
			ON social_accounts (platform, status);
	`)
	return err
}

func (s *PostgresStore) Create(ctx context.Context, a *Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO social_accounts (
			id, platform, username, follower_count, following_count, post_count,
			engagement_rate, consecutive_errors, phase, status,
			account_created_at, last_action_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		a.ID, a.Platform, a.Username, a.FollowerCount, a.FollowingCount, a.PostCount,
		a.EngagementRate, a.ConsecutiveErrors, a.Phase, string(a.Status),
		nullTime(a.AccountCreatedAt), a.LastActionAt, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, platform, username, follower_count, following_count, post_count,
		       engagement_rate, consecutive_errors, phase, status,
		       account_created_at, last_action_at, created_at, updated_at
		FROM social_accounts WHERE id = $1
	`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (s *PostgresStore) List(ctx context.Context) ([]*Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, platform, username, follower_count, following_count, post_count,
		       engagement_rate, consecutive_errors, phase, status,
		       account_created_at, last_action_at, created_at, updated_at
		FROM social_accounts ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			continue
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, a *Account) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE social_accounts SET
			platform = $2, username = $3, follower_count = $4, following_count = $5,
			post_count = $6, engagement_rate = $7, consecutive_errors = $8,
			phase = $9, status = $10, account_created_at = $11, last_action_at = $12,
			updated_at = NOW()
		WHERE id = $1
	`,
		a.ID, a.Platform, a.Username, a.FollowerCount, a.FollowingCount,
		a.PostCount, a.EngagementRate, a.ConsecutiveErrors,
		a.Phase, string(a.Status), nullTime(a.AccountCreatedAt), a.LastActionAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) SetPhase(ctx context.Context, id, phase string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE social_accounts SET phase = $2, updated_at = NOW() WHERE id = $1
	`, id, phase)
	if err != nil {
		return fmt.Errorf("failed to set phase: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) RecordActionResult(ctx context.Context, id string, success bool, at time.Time) error {
	var query string
	if success {
		query = `UPDATE social_accounts SET last_action_at = $2, consecutive_errors = 0, updated_at = $2 WHERE id = $1`
	} else {
		query = `UPDATE social_accounts SET last_action_at = $2, consecutive_errors = consecutive_errors + 1, updated_at = $2 WHERE id = $1`
	}
	res, err := s.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to record action result: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*Account, error) {
	var a Account
	var status string
	var accountCreatedAt, lastActionAt sql.NullTime

	err := row.Scan(
		&a.ID, &a.Platform, &a.Username, &a.FollowerCount, &a.FollowingCount,
		&a.PostCount, &a.EngagementRate, &a.ConsecutiveErrors, &a.Phase, &status,
		&accountCreatedAt, &lastActionAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = Status(status)
	if accountCreatedAt.Valid {
		a.AccountCreatedAt = accountCreatedAt.Time
	}
	if lastActionAt.Valid {
		t := lastActionAt.Time
		a.LastActionAt = &t
	}
	return &a, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
