package service

import (
	"context"
	"database/sql"

	"github.com/outreach-tracker/outreach-tracker/internal/audit"
	"github.com/outreach-tracker/outreach-tracker/internal/auth"
	"github.com/outreach-tracker/outreach-tracker/internal/db"
	"github.com/outreach-tracker/outreach-tracker/internal/db/models"
	"github.com/outreach-tracker/outreach-tracker/internal/db/repositories"
	"github.com/outreach-tracker/outreach-tracker/internal/policy"
)

// UserService manages accounts. Every operation is admin-only; account
// mutations are audited like entity mutations, but accounts are deactivated
// rather than deleted so audit rows keep a valid actor reference forever.
type UserService struct {
	db         *sql.DB
	shipper    audit.Shipper
	bcryptCost int
}

// NewUserService creates a new UserService.
func NewUserService(database *sql.DB, shipper audit.Shipper, bcryptCost int) *UserService {
	return &UserService{db: database, shipper: shipper, bcryptCost: bcryptCost}
}

// UserUpdate carries the updatable fields of an account. Nil fields are left
// unchanged. Password changes are recorded in the audit trail as a flag only,
// never as a value.
type UserUpdate struct {
	Username *string
	Role     *policy.Role
	Location *string
	Password *string
}

func requireAdmin(actor *models.User) error {
	if actor.Role != policy.RoleAdmin {
		return forbidden(policy.DenyRoleForbidden)
	}
	return nil
}

// Create stores a new active account with a freshly hashed password and writes
// the create audit row in the same transaction.
func (s *UserService) Create(ctx context.Context, actor *models.User, u *models.User, password string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if !u.Role.Valid() {
		return &PreconditionError{Message: "invalid role: " + string(u.Role)}
	}
	if password == "" {
		return &PreconditionError{Message: "password must not be empty"}
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return storageErr("hash password", err)
	}
	u.PasswordHash = hash
	u.Active = true

	var entry *models.AuditLog
	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := repositories.NewUserRepository(tx).Create(ctx, u); err != nil {
			return storageErr("create user", err)
		}
		entry = &models.AuditLog{
			Action:    "create",
			TableName: "users",
			RecordID:  u.ID,
			UserID:    actor.ID,
			Changes:   audit.CreateChanges(u.AuditFields()),
		}
		if err := repositories.NewAuditRepository(tx).Create(ctx, entry); err != nil {
			return storageErr("record user creation", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	shipAudit(s.shipper, entry)
	return nil
}

// Get fetches a single account.
func (s *UserService) Get(ctx context.Context, actor *models.User, id int64) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	u, err := repositories.NewUserRepository(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("load user", err)
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// List returns all accounts, paginated.
func (s *UserService) List(ctx context.Context, actor *models.User, limit, offset int) ([]*models.User, int, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	users, total, err := repositories.NewUserRepository(s.db).List(ctx, limit, offset)
	if err != nil {
		return nil, 0, storageErr("list users", err)
	}
	return users, total, nil
}

// Update applies the given field changes and records the field-level diff in
// the same transaction.
func (s *UserService) Update(ctx context.Context, actor *models.User, id int64, upd UserUpdate) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if upd.Role != nil && !upd.Role.Valid() {
		return nil, &PreconditionError{Message: "invalid role: " + string(*upd.Role)}
	}

	var u *models.User
	var entry *models.AuditLog

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := repositories.NewUserRepository(tx)

		var err error
		u, err = repo.GetByID(ctx, id)
		if err != nil {
			return storageErr("load user", err)
		}
		if u == nil {
			return ErrNotFound
		}

		oldFields := u.AuditFields()
		if upd.Username != nil {
			u.Username = *upd.Username
		}
		if upd.Role != nil {
			u.Role = *upd.Role
		}
		if upd.Location != nil {
			u.Location = upd.Location
		}
		passwordChanged := false
		if upd.Password != nil {
			hash, err := auth.HashPassword(*upd.Password, s.bcryptCost)
			if err != nil {
				return storageErr("hash password", err)
			}
			u.PasswordHash = hash
			passwordChanged = true
		}

		if err := repo.Update(ctx, u); err != nil {
			return storageErr("update user", err)
		}

		changes := audit.UpdateChanges(oldFields, u.AuditFields())
		if passwordChanged {
			changes["password_changed"] = true
		}
		entry = &models.AuditLog{
			Action:    "update",
			TableName: "users",
			RecordID:  u.ID,
			UserID:    actor.ID,
			Changes:   changes,
		}
		if err := repositories.NewAuditRepository(tx).Create(ctx, entry); err != nil {
			return storageErr("record user update", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	shipAudit(s.shipper, entry)
	return u, nil
}

// Deactivate disables an account so it can no longer log in. The row stays in
// place. Admins cannot deactivate their own account.
func (s *UserService) Deactivate(ctx context.Context, actor *models.User, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if id == actor.ID {
		return &PreconditionError{Message: "cannot deactivate own account"}
	}

	var entry *models.AuditLog

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := repositories.NewUserRepository(tx)

		u, err := repo.GetByID(ctx, id)
		if err != nil {
			return storageErr("load user", err)
		}
		if u == nil {
			return ErrNotFound
		}
		if !u.Active {
			return &PreconditionError{Message: "account is already deactivated"}
		}

		if err := repo.Deactivate(ctx, id); err != nil {
			return storageErr("deactivate user", err)
		}

		entry = &models.AuditLog{
			Action:    "delete",
			TableName: "users",
			RecordID:  id,
			UserID:    actor.ID,
			Changes: map[string]interface{}{
				"deactivated": true,
				"snapshot":    u.AuditFields(),
			},
		}
		if err := repositories.NewAuditRepository(tx).Create(ctx, entry); err != nil {
			return storageErr("record user deactivation", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	shipAudit(s.shipper, entry)
	return nil
}
