package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
)

// insufficientPrivilege is returned by row-level security and missing grants.
const insufficientPrivilege = "42501"

// HistoryRepository mirrors audit history per reviewer id in the remote backend.
type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classifySyncError("begin schema tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker/cli startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101401)); err != nil {
		return classifySyncError("acquire schema lock", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS history (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	file_name TEXT NOT NULL,
	file_type TEXT NOT NULL,
	date TIMESTAMPTZ NOT NULL,
	result JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_user_date ON history(user_id, date DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return classifySyncError("execute schema ddl", err)
	}

	if err := tx.Commit(); err != nil {
		return classifySyncError("commit schema tx", err)
	}
	return nil
}

func (r *HistoryRepository) ListHistory(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, file_name, file_type, date, result
FROM history
WHERE user_id = $1
ORDER BY date DESC
`, userID)
	if err != nil {
		return nil, classifySyncError("list history", err)
	}
	defer rows.Close()

	entries := make([]domain.HistoryEntry, 0)
	for rows.Next() {
		var entry domain.HistoryEntry
		var resultRaw []byte
		if err := rows.Scan(&entry.ID, &entry.FileName, &entry.FileType, &entry.Date, &resultRaw); err != nil {
			return nil, classifySyncError("scan history row", err)
		}
		if err := json.Unmarshal(resultRaw, &entry.Result); err != nil {
			return nil, domain.WrapError(domain.ErrSyncTransient, "decode history result", err)
		}
		entry.Date = entry.Date.UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, classifySyncError("iterate history rows", err)
	}
	return entries, nil
}

func (r *HistoryRepository) InsertHistory(ctx context.Context, userID string, entry domain.HistoryEntry) error {
	resultJSON, err := json.Marshal(entry.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO history (id, user_id, file_name, file_type, date, result)
VALUES ($1,$2,$3,$4,$5,$6)
`, entry.ID, userID, entry.FileName, entry.FileType, entry.Date.UTC(), resultJSON)
	if err != nil {
		return classifySyncError("insert history", err)
	}
	return nil
}

func (r *HistoryRepository) DeleteHistory(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM history WHERE user_id = $1`, userID); err != nil {
		return classifySyncError("delete history", err)
	}
	return nil
}

// classifySyncError maps privilege failures to a permanent denial and everything else to a transient one.
func classifySyncError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == insufficientPrivilege {
		return domain.WrapError(domain.ErrSyncPermissionDenied, operation, err)
	}
	return domain.WrapError(domain.ErrSyncTransient, operation, err)
}
