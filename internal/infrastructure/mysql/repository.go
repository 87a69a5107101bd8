package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"msigwallet/internal/application"
	"msigwallet/internal/domain"

	driver "github.com/go-sql-driver/mysql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Repository is the server-backed activity journal.
type Repository struct {
	db *sql.DB
}

func NewRepository(dsn string) (*Repository, error) {
	if dsn == "" {
		return nil, errors.New("db dsn is required")
	}
	parsed, err := driver.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	// created_at scans into time.Time.
	parsed.ParseTime = true
	parsed.Loc = time.UTC
	db, err := sql.Open("mysql", parsed.FormatDSN())
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewRepositoryFromDB(db), nil
}

// NewRepositoryFromDB wraps an open handle whose schema is already in place.
func NewRepositoryFromDB(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS activities (
		id CHAR(36) NOT NULL,
		chain_id BIGINT UNSIGNED NOT NULL,
		wallet VARCHAR(42) NOT NULL,
		operation VARCHAR(16) NOT NULL,
		step VARCHAR(16) NOT NULL,
		tx_hash VARCHAR(66) NOT NULL DEFAULT '',
		transaction_id VARCHAR(78) NOT NULL DEFAULT '',
		error TEXT NOT NULL,
		created_at DATETIME(3) NOT NULL,
		PRIMARY KEY (id),
		KEY activities_wallet_idx (chain_id, wallet, created_at),
		KEY activities_tx_idx (tx_hash)
	)`)
	return err
}

func (r *Repository) RecordActivity(ctx context.Context, activity domain.Activity) error {
	return r.StoreActivities(ctx, []domain.Activity{activity})
}

func (r *Repository) StoreActivities(ctx context.Context, activities []domain.Activity) error {
	if len(activities) == 0 {
		return nil
	}
	ctx, span := startDBSpan(ctx, "mysql.StoreActivities", attribute.Int("activity.count", len(activities)))
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return spanError(span, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT IGNORE INTO activities (id, chain_id, wallet, operation, step, tx_hash, transaction_id, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return spanError(span, err)
	}
	defer stmt.Close()

	for _, a := range activities {
		if _, err := stmt.ExecContext(ctx, a.ID, a.ChainID, strings.ToLower(a.Wallet), string(a.Operation), a.Step,
			a.TxHash, a.TransactionID, a.Error, a.CreatedAt.UTC()); err != nil {
			_ = tx.Rollback()
			return spanError(span, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return spanError(span, err)
	}
	return nil
}

// QueryActivities returns matching activities, newest first.
func (r *Repository) QueryActivities(ctx context.Context, filter application.ActivityFilter) ([]domain.Activity, error) {
	ctx, span := startDBSpan(ctx, "mysql.QueryActivities")
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query, args := activityQuery(filter)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, spanError(span, err)
	}
	defer rows.Close()

	activities := []domain.Activity{}
	for rows.Next() {
		var (
			a         domain.Activity
			operation string
		)
		if err := rows.Scan(&a.ID, &a.ChainID, &a.Wallet, &operation, &a.Step, &a.TxHash, &a.TransactionID, &a.Error, &a.CreatedAt); err != nil {
			return nil, spanError(span, err)
		}
		a.Operation = domain.Operation(operation)
		a.CreatedAt = a.CreatedAt.UTC()
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, spanError(span, err)
	}
	return activities, nil
}

func activityQuery(filter application.ActivityFilter) (string, []any) {
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
	return query, args
}

func (r *Repository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func startDBSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("msigwallet/mysql").Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attribute.String("db.system", "mysql"))
	span.SetAttributes(attrs...)
	return ctx, span
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
