package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// DefaultSessionTable session 表名
const DefaultSessionTable = "directory_sessions"

// PostgresSessionRepo session 持久化到 PostgreSQL
//
//	CREATE TABLE directory_sessions (
//	    name       TEXT PRIMARY KEY,
//	    blob       TEXT NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresSessionRepo struct {
	db    *sql.DB
	table string
	now   func() time.Time
}

// NewPostgresSessionRepo table 为空时使用 DefaultSessionTable
func NewPostgresSessionRepo(db *sql.DB, table string) *PostgresSessionRepo {
	if table == "" {
		table = DefaultSessionTable
	}
	return &PostgresSessionRepo{db: db, table: pq.QuoteIdentifier(table), now: time.Now}
}

var _ SessionRepo = (*PostgresSessionRepo)(nil)

// EnsureSchema 建表（已存在时不做任何事）
func (r *PostgresSessionRepo) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name       TEXT PRIMARY KEY,
			blob       TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`, r.table)
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create session table: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepo) Save(ctx context.Context, name, blob string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (name, blob, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name)
		DO UPDATE SET blob = EXCLUDED.blob, updated_at = EXCLUDED.updated_at
	`, r.table)
	if _, err := r.db.ExecContext(ctx, query, name, blob, r.now().UTC()); err != nil {
		return fmt.Errorf("failed to save session %q: %w", name, describe(err))
	}
	return nil
}

func (r *PostgresSessionRepo) Load(ctx context.Context, name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	query := fmt.Sprintf(`SELECT blob FROM %s WHERE name = $1`, r.table)
	var blob string
	err := r.db.QueryRowContext(ctx, query, name).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%q: %w", name, ErrSessionNotFound)
		}
		return "", fmt.Errorf("failed to load session %q: %w", name, describe(err))
	}
	return blob, nil
}

func (r *PostgresSessionRepo) List(ctx context.Context) ([]SessionInfo, error) {
	query := fmt.Sprintf(`
		SELECT name, length(blob), updated_at
		FROM %s
		ORDER BY name
	`, r.table)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", describe(err))
	}
	defer rows.Close()

	out := []SessionInfo{}
	for rows.Next() {
		var info SessionInfo
		if err := rows.Scan(&info.Name, &info.Size, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return out, nil
}

func (r *PostgresSessionRepo) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE name = $1`, r.table)
	res, err := r.db.ExecContext(ctx, query, name)
	if err != nil {
		return fmt.Errorf("failed to delete session %q: %w", name, describe(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%q: %w", name, ErrSessionNotFound)
	}
	return nil
}

// describe 给 pq 错误补上 SQLSTATE
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%w (sqlstate %s)", err, pqErr.Code)
	}
	return err
}
