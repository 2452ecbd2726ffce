package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/outreach-tracker/outreach-tracker/internal/db/models"
	"github.com/outreach-tracker/outreach-tracker/internal/policy"
)

var errDB = errors.New("db error")

var userCols = []string{"id", "username", "password_hash", "role", "active", "location", "created_at", "updated_at"}

func sampleUserRow() *sqlmock.Rows {
	return sqlmock.NewRows(userCols).
		AddRow(int64(1), "alice", "$2a$12$hash", "leader", true, nil, time.Now(), time.Now())
}

func emptyUserRow() *sqlmock.Rows {
	return sqlmock.NewRows(userCols)
}

func newUserRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserRepository(db), mock
}

// ---------------------------------------------------------------------------
// GetByID
// ---------------------------------------------------------------------------

func TestUserGetByID_Found(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(sampleUserRow())

	user, err := repo.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.ID != 1 {
		t.Errorf("ID = %d, want 1", user.ID)
	}
	if user.Role != policy.RoleLeader {
		t.Errorf("Role = %s, want leader", user.Role)
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WithArgs(int64(99)).
		WillReturnRows(emptyUserRow())

	user, err := repo.GetByID(context.Background(), 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil user for not found, got %v", user)
	}
}

func TestUserGetByID_DBError(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WithArgs(int64(1)).
		WillReturnError(errDB)

	_, err := repo.GetByID(context.Background(), 1)
	if err == nil {
		t.Error("expected error, got nil")
	}
}

// ---------------------------------------------------------------------------
// GetByUsername
// ---------------------------------------------------------------------------

func TestUserGetByUsername_Found(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users.*WHERE username").
		WithArgs("alice").
		WillReturnRows(sampleUserRow())

	user, err := repo.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.Username != "alice" {
		t.Errorf("Username = %s, want alice", user.Username)
	}
}

func TestUserGetByUsername_NotFound(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users.*WHERE username").
		WithArgs("nobody").
		WillReturnRows(emptyUserRow())

	user, err := repo.GetByUsername(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil user, got %v", user)
	}
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestUserCreate_FillsGeneratedID(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	user := &models.User{
		Username:     "bob",
		PasswordHash: "$2a$12$hash",
		Role:         policy.RoleWorker,
		Active:       true,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != 7 {
		t.Errorf("ID = %d, want 7", user.ID)
	}
	if user.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestUserCreate_DBError(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(errDB)

	err := repo.Create(context.Background(), &models.User{Username: "bob", Role: policy.RoleWorker})
	if err == nil {
		t.Error("expected error, got nil")
	}
}

// ---------------------------------------------------------------------------
// Deactivate
// ---------------------------------------------------------------------------

func TestUserDeactivate(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectExec("UPDATE users SET active = FALSE").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Deactivate(context.Background(), 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestUserList(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT.*FROM users.*ORDER BY created_at").
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(int64(1), "alice", "h", "leader", true, nil, time.Now(), time.Now()).
			AddRow(int64(2), "bob", "h", "worker", true, nil, time.Now(), time.Now()))

	users, total, err := repo.List(context.Background(), 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(users) != 2 {
		t.Errorf("len(users) = %d, want 2", len(users))
	}
}
