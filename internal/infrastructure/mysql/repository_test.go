package mysql

import (
	"context"
	"testing"
	"time"

	"msigwallet/internal/application"
	"msigwallet/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
)

var activityColumns = []string{"id", "chain_id", "wallet", "operation", "step", "tx_hash", "transaction_id", "error", "created_at"}

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("open stub database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewRepositoryFromDB(db), mock
}

func TestStoreActivities(t *testing.T) {
	repo, mock := newMockRepository(t)
	created := time.Unix(1_700_000_000, 0).UTC()
	activity := domain.Activity{
		ID:        "7d0c8a52-1111-4a2b-9c3d-000000000001",
		ChainID:   2151,
		Wallet:    "0x000000000000000000000000000000000000BEEF",
		Operation: domain.OperationSubmit,
		Step:      "SENT",
		TxHash:    "0xabc",
		CreatedAt: created,
	}

	mock.ExpectBegin()
	prepared := mock.ExpectPrepare("INSERT IGNORE INTO activities")
	prepared.ExpectExec().
		WithArgs(activity.ID, activity.ChainID, "0x000000000000000000000000000000000000beef", "submit", "SENT", "0xabc", "", "", created).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := repo.RecordActivity(context.Background(), activity); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestQueryActivities(t *testing.T) {
	repo, mock := newMockRepository(t)
	created := time.Unix(1_700_000_100, 0).UTC()
	chain := uint64(2151)

	mock.ExpectQuery(`SELECT id, chain_id, wallet, operation, step, tx_hash, transaction_id, error, created_at FROM activities WHERE chain_id = \? AND wallet = \? ORDER BY created_at DESC, id DESC LIMIT \?`).
		WithArgs(chain, "0x000000000000000000000000000000000000beef", 100).
		WillReturnRows(sqlmock.NewRows(activityColumns).
			AddRow("a2", chain, "0x000000000000000000000000000000000000beef", "confirm", "SUCCESS", "0x02", "4", "", created).
			AddRow("a1", chain, "0x000000000000000000000000000000000000beef", "submit", "SENT", "0x01", "", "", created))

	got, err := repo.QueryActivities(context.Background(), application.ActivityFilter{
		ChainID: &chain,
		Wallet:  "0x000000000000000000000000000000000000BEEF",
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a2" || got[0].Operation != domain.OperationConfirm || got[0].TransactionID != "4" {
		t.Fatalf("unexpected activities: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestActivityCacheKey(t *testing.T) {
	chain := uint64(1)
	key := activityCacheKey("3", application.ActivityFilter{ChainID: &chain, Wallet: "0xAB", Limit: 5000})
	want := "msigwallet:activities:v3:chain=1:wallet=0xab:op=any:tx=any:limit=100"
	if key != want {
		t.Fatalf("key = %q, want %q", key, want)
	}
}

func TestCachedRepositoryWithoutRedis(t *testing.T) {
	repo, mock := newMockRepository(t)
	cached, err := NewCachedRepository(repo, CacheConfig{})
	if err != nil {
		t.Fatalf("new cached repository: %v", err)
	}

	mock.ExpectQuery("SELECT id").WillReturnRows(sqlmock.NewRows(activityColumns))
	got, err := cached.QueryActivities(context.Background(), application.ActivityFilter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no rows, got %d", len(got))
	}
}

func TestCreateSchemaIssuesSingleStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("open stub database: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS activities").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := createSchema(db); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
