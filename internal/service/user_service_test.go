package service

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"

	"github.com/outreach-tracker/outreach-tracker/internal/db/models"
	"github.com/outreach-tracker/outreach-tracker/internal/policy"
)

var userCols = []string{"id", "username", "password_hash", "role", "active", "location", "created_at", "updated_at"}

func activeUserRow(id int64, username string) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).
		AddRow(id, username, "$2a$04$hash", "leader", true, nil, time.Now(), time.Now())
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestUserServiceCreate_HashesPasswordAndAudits(t *testing.T) {
	db, mock := newServiceDB(t)
	svc := NewUserService(db, nil, bcrypt.MinCost)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery("INSERT INTO audit_logs").
		WithArgs("create", "users", int64(7), int64(1), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()

	u := &models.User{Username: "newleader", Role: policy.RoleLeader}
	if err := svc.Create(context.Background(), adminUser(), u, "s3cret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.PasswordHash == "" || u.PasswordHash == "s3cret" {
		t.Errorf("password not hashed: %q", u.PasswordHash)
	}
	if !u.Active {
		t.Error("new account should start active")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUserServiceCreate_NonAdminDenied(t *testing.T) {
	db, mock := newServiceDB(t)
	svc := NewUserService(db, nil, bcrypt.MinCost)

	u := &models.User{Username: "x", Role: policy.RoleLeader}
	err := svc.Create(context.Background(), pastorUser("north"), u, "pw")

	var fe *ForbiddenError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want ForbiddenError", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("database touched on denied create: %v", err)
	}
}

func TestUserServiceCreate_InvalidRole(t *testing.T) {
	db, _ := newServiceDB(t)
	svc := NewUserService(db, nil, bcrypt.MinCost)

	u := &models.User{Username: "x", Role: policy.Role("superuser")}
	err := svc.Create(context.Background(), adminUser(), u, "pw")

	var pe *PreconditionError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want PreconditionError", err)
	}
}

func TestUserServiceCreate_EmptyPassword(t *testing.T) {
	db, _ := newServiceDB(t)
	svc := NewUserService(db, nil, bcrypt.MinCost)

	u := &models.User{Username: "x", Role: policy.RoleLeader}
	err := svc.Create(context.Background(), adminUser(), u, "")

	var pe *PreconditionError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want PreconditionError", err)
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestUserServiceUpdate_PasswordChangeFlaggedNotStored(t *testing.T) {
	db, mock := newServiceDB(t)
	svc := NewUserService(db, nil, bcrypt.MinCost)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(activeUserRow(7, "leader7"))
	mock.ExpectExec("UPDATE users").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO audit_logs").
		WithArgs("update", "users", int64(7), int64(1), sqlmock.AnyArg(),
			[]byte(`{"password_changed":true}`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectCommit()

	pw := "newpass"
	u, err := svc.Update(context.Background(), adminUser(), 7, UserUpdate{Password: &pw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.PasswordHash == "$2a$04$hash" {
		t.Error("password hash not replaced")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUserServiceUpdate_RoleChangeRecorded(t *testing.T) {
	db, mock := newServiceDB(t)
	svc := NewUserService(db, nil, bcrypt.MinCost)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(activeUserRow(7, "leader7"))
	mock.ExpectExec("UPDATE users").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO audit_logs").
		WithArgs("update", "users", int64(7), int64(1), sqlmock.AnyArg(),
			[]byte(`{"role":["leader","pastor"]}`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectCommit()

	role := policy.RolePastor
	if _, err := svc.Update(context.Background(), adminUser(), 7, UserUpdate{Role: &role}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUserServiceUpdate_InvalidRole(t *testing.T) {
	db, _ := newServiceDB(t)
	svc := NewUserService(db, nil, bcrypt.MinCost)

	role := policy.Role("superuser")
	_, err := svc.Update(context.Background(), adminUser(), 7, UserUpdate{Role: &role})

	var pe *PreconditionError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want PreconditionError", err)
	}
}

// ---------------------------------------------------------------------------
// Deactivate
// ---------------------------------------------------------------------------

func TestUserServiceDeactivate_RecordsSnapshot(t *testing.T) {
	db, mock := newServiceDB(t)
	svc := NewUserService(db, nil, bcrypt.MinCost)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(activeUserRow(7, "leader7"))
	mock.ExpectExec("UPDATE users SET active = FALSE").
		WithArgs(int64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO audit_logs").
		WithArgs("delete", "users", int64(7), int64(1), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(4)))
	mock.ExpectCommit()

	if err := svc.Deactivate(context.Background(), adminUser(), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUserServiceDeactivate_OwnAccountRefused(t *testing.T) {
	db, mock := newServiceDB(t)
	svc := NewUserService(db, nil, bcrypt.MinCost)

	err := svc.Deactivate(context.Background(), adminUser(), 1)

	var pe *PreconditionError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want PreconditionError", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("database touched: %v", err)
	}
}

func TestUserServiceDeactivate_AlreadyInactive(t *testing.T) {
	db, mock := newServiceDB(t)
	svc := NewUserService(db, nil, bcrypt.MinCost)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(int64(7), "leader7", "$2a$04$hash", "leader", false, nil, time.Now(), time.Now()))
	mock.ExpectRollback()

	err := svc.Deactivate(context.Background(), adminUser(), 7)

	var pe *PreconditionError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want PreconditionError", err)
	}
}

// ---------------------------------------------------------------------------
// Get / List
// ---------------------------------------------------------------------------

func TestUserServiceGet_NotFound(t *testing.T) {
	db, mock := newServiceDB(t)
	svc := NewUserService(db, nil, bcrypt.MinCost)

	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := svc.Get(context.Background(), adminUser(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUserServiceList_NonAdminDenied(t *testing.T) {
	db, _ := newServiceDB(t)
	svc := NewUserService(db, nil, bcrypt.MinCost)

	_, _, err := svc.List(context.Background(), leaderUser(3), 50, 0)

	var fe *ForbiddenError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want ForbiddenError", err)
	}
}
