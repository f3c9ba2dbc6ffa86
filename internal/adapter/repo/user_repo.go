package repo

import (
	"context"
	"strings"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/sqlinline"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(sql infra.SQLExecutor) *UserRepositoryPG {
	return &UserRepositoryPG{sql: sql}
}

// UpsertByAuthSubject inserts or refreshes a user keyed by the identity provider subject.
// An existing role is kept unless the incoming user is an admin.
func (r *UserRepositoryPG) UpsertByAuthSubject(ctx context.Context, user *domain.User) (*domain.User, error) {
	role := user.Role
	if !role.Valid() {
		role = domain.UserRoleContributor
	}
	row := r.sql.QueryRow(ctx, sqlinline.QUpsertUserByAuthSubject,
		user.AuthSubject,
		strings.ToLower(strings.TrimSpace(user.Email)),
		strings.TrimSpace(user.Name),
		string(role),
		role == domain.UserRoleAdmin,
	)
	return scanUser(row)
}

// GetByID fetches a user by UUID.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.sql.QueryRow(ctx, sqlinline.QSelectUserByID, id))
}

// Update persists the editable profile fields.
func (r *UserRepositoryPG) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	loc := user.Location.Normalize()
	prefs := user.CharityPreferences
	if prefs == nil {
		prefs = []string{}
	}
	row := r.sql.QueryRow(ctx, sqlinline.QUpdateUser,
		user.ID,
		user.Name,
		string(user.Role),
		loc.City,
		loc.Province,
		loc.PostalCode,
		prefs,
	)
	return scanUser(row)
}

// SetRoleByEmail changes the role of the account registered with email.
func (r *UserRepositoryPG) SetRoleByEmail(ctx context.Context, email string, role domain.UserRole) (*domain.User, error) {
	if !role.Valid() {
		return nil, domain.Invalid("role", "unknown role")
	}
	return scanUser(r.sql.QueryRow(ctx, sqlinline.QSetUserRoleByEmail, strings.TrimSpace(email), string(role)))
}

var _ domain.UserRepository = (*UserRepositoryPG)(nil)
