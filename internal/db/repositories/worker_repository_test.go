package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/outreach-tracker/outreach-tracker/internal/db/models"
	"github.com/outreach-tracker/outreach-tracker/internal/policy"
)

var workerCols = []string{"id", "first_name", "last_name", "contact_info", "location", "notes", "role", "date_added", "leader_id"}

func sampleWorkerRow() *sqlmock.Rows {
	return sqlmock.NewRows(workerCols).
		AddRow(int64(20), "Chidi", "Obi", nil, "north", nil, "usher", time.Now(), int64(3))
}

func newWorkerRepo(t *testing.T) (*WorkerRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewWorkerRepository(db), mock
}

func TestWorkerCreate_FillsGeneratedID(t *testing.T) {
	repo, mock := newWorkerRepo(t)
	mock.ExpectQuery("INSERT INTO workers").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(20)))

	w := &models.Worker{FirstName: "Chidi", LastName: "Obi", Location: "north", Role: "usher", LeaderID: 3}
	if err := repo.Create(context.Background(), w); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.ID != 20 {
		t.Errorf("ID = %d, want 20", w.ID)
	}
}

func TestWorkerGetByID_Found(t *testing.T) {
	repo, mock := newWorkerRepo(t)
	mock.ExpectQuery("SELECT.*FROM workers.*WHERE id").
		WithArgs(int64(20)).
		WillReturnRows(sampleWorkerRow())

	w, err := repo.GetByID(context.Background(), 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w == nil {
		t.Fatal("expected worker, got nil")
	}
	if w.Role != "usher" {
		t.Errorf("Role = %s, want usher", w.Role)
	}
}

func TestWorkerGetByID_NotFound(t *testing.T) {
	repo, mock := newWorkerRepo(t)
	mock.ExpectQuery("SELECT.*FROM workers.*WHERE id").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(workerCols))

	w, err := repo.GetByID(context.Background(), 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != nil {
		t.Errorf("expected nil for not found, got %v", w)
	}
}

func TestWorkerList_PastorLocationScope(t *testing.T) {
	repo, mock := newWorkerRepo(t)

	loc := "north"
	scope := policy.Scope{Location: &loc}

	mock.ExpectQuery("SELECT COUNT.*FROM workers.*location").
		WithArgs(loc).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT.*FROM workers.*location.*ORDER BY date_added").
		WithArgs(loc, 50, 0).
		WillReturnRows(sampleWorkerRow())

	workers, total, err := repo.List(context.Background(), scope, WorkerFilters{}, 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(workers) != 1 {
		t.Errorf("total=%d len=%d, want 1/1", total, len(workers))
	}
}

func TestWorkerList_RoleFilter(t *testing.T) {
	repo, mock := newWorkerRepo(t)

	role := "usher"
	mock.ExpectQuery("SELECT COUNT.*FROM workers.*role").
		WithArgs(role).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT.*FROM workers.*role.*ORDER BY date_added").
		WithArgs(role, 50, 0).
		WillReturnRows(sampleWorkerRow())

	_, total, err := repo.List(context.Background(), policy.Scope{Unrestricted: true}, WorkerFilters{Role: &role}, 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
}

func TestWorkerList_DeniedScopeSkipsQueries(t *testing.T) {
	repo, mock := newWorkerRepo(t)

	workers, total, err := repo.List(context.Background(), policy.Scope{Denied: true}, WorkerFilters{}, 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 || len(workers) != 0 {
		t.Errorf("denied scope should return empty result")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("denied scope should not touch the database: %v", err)
	}
}
