package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"msigwallet/internal/application"
	"msigwallet/internal/domain"

	_ "modernc.org/sqlite"
)

// Repository is the embedded activity journal.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dbPath == "" {
		return nil, errors.New("db path is required")
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS activities (
			id TEXT PRIMARY KEY,
			chain_id INTEGER NOT NULL,
			wallet TEXT NOT NULL,
			operation TEXT NOT NULL,
			step TEXT NOT NULL,
			tx_hash TEXT NOT NULL DEFAULT '',
			transaction_id TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS activities_wallet_idx ON activities (chain_id, wallet, created_at)`,
		`CREATE INDEX IF NOT EXISTS activities_tx_idx ON activities (tx_hash)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) RecordActivity(ctx context.Context, activity domain.Activity) error {
	return r.StoreActivities(ctx, []domain.Activity{activity})
}

func (r *Repository) StoreActivities(ctx context.Context, activities []domain.Activity) error {
	if len(activities) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO activities (id, chain_id, wallet, operation, step, tx_hash, transaction_id, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, a := range activities {
		if _, err := stmt.ExecContext(ctx, a.ID, a.ChainID, strings.ToLower(a.Wallet), string(a.Operation), a.Step,
			a.TxHash, a.TransactionID, a.Error, a.CreatedAt.UnixMilli()); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// QueryActivities returns matching activities, newest first.
func (r *Repository) QueryActivities(ctx context.Context, filter application.ActivityFilter) ([]domain.Activity, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	clauses := make([]string, 0, 4)
	args := make([]any, 0, 5)

	if filter.ChainID != nil {
		clauses = append(clauses, "chain_id = ?")
		args = append(args, *filter.ChainID)
	}
	if filter.Wallet != "" {
		clauses = append(clauses, "wallet = ?")
		args = append(args, strings.ToLower(filter.Wallet))
	}
	if filter.Operation != "" {
		clauses = append(clauses, "operation = ?")
		args = append(args, filter.Operation)
	}
	if filter.TxHash != "" {
		clauses = append(clauses, "tx_hash = ?")
		args = append(args, filter.TxHash)
	}

	query := `SELECT id, chain_id, wallet, operation, step, tx_hash, transaction_id, error, created_at FROM activities`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, application.NormalizeLimit(filter.Limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := []domain.Activity{}
	for rows.Next() {
		var (
			a         domain.Activity
			operation string
			createdAt int64
		)
		if err := rows.Scan(&a.ID, &a.ChainID, &a.Wallet, &operation, &a.Step, &a.TxHash, &a.TransactionID, &a.Error, &createdAt); err != nil {
			return nil, err
		}
		a.Operation = domain.Operation(operation)
		a.CreatedAt = time.UnixMilli(createdAt).UTC()
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	return r.db.Close()
}
