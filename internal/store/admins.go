package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/makeplus/makeplus-api/internal/model"
)

// adminColumns is the admin projection without the password hash.
const adminColumns = "id, email, name, role, is_active, last_login_at, created_at, updated_at"

// CreateAdmin inserts a new admin account. The email is stored lower-cased.
// admin.PasswordHash must already hold a bcrypt hash. The ID, CreatedAt and
// UpdatedAt fields are populated after a successful insert.
func (s *Store) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	ts := now()
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
	admin.CreatedAt = ts
	admin.UpdatedAt = ts

	const q = `INSERT INTO admins
		(email, password_hash, name, role, is_active, created_at, updated_at)
		VALUES
		(:email, :password_hash, :name, :role, :is_active, :created_at, :updated_at)`

	id, err := s.insert(ctx, q, admin)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("admin %s: %w", admin.Email, ErrConflict)
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	admin.ID = id
	return nil
}

// GetAdmin returns an admin by ID. The password hash is not loaded.
func (s *Store) GetAdmin(ctx context.Context, id int64) (*model.Admin, error) {
	var admin model.Admin
	q := s.db.Rebind("SELECT " + adminColumns + " FROM admins WHERE id = ?")
	if err := s.db.GetContext(ctx, &admin, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return &admin, nil
}

// GetAdminCredentials returns an admin by email, including the password
// hash. It is meant for credential checks only.
func (s *Store) GetAdminCredentials(ctx context.Context, email string) (*model.Admin, error) {
	var admin model.Admin
	q := s.db.Rebind("SELECT " + adminColumns + ", password_hash FROM admins WHERE email = ?")
	if err := s.db.GetContext(ctx, &admin, q, strings.ToLower(strings.TrimSpace(email))); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	return &admin, nil
}

// ListAdmins returns all admin accounts ordered by email.
func (s *Store) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	admins := []model.Admin{}
	if err := s.db.SelectContext(ctx, &admins, "SELECT "+adminColumns+" FROM admins ORDER BY email"); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// HasAnyAdmin reports whether at least one admin account exists.
func (s *Store) HasAnyAdmin(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM admins"); err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	return count > 0, nil
}

// UpdateAdminLastLogin records a successful login.
func (s *Store) UpdateAdminLastLogin(ctx context.Context, id int64) error {
	ts := now()
	if err := s.exec(ctx, "UPDATE admins SET last_login_at = ?, updated_at = ? WHERE id = ?", ts, ts, id); err != nil {
		return fmt.Errorf("update admin last login: %w", err)
	}
	return nil
}

// UpdateAdminPassword replaces the stored hash. hash must be a bcrypt hash.
func (s *Store) UpdateAdminPassword(ctx context.Context, id int64, hash string) error {
	if err := s.exec(ctx, "UPDATE admins SET password_hash = ?, updated_at = ? WHERE id = ?", hash, now(), id); err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	return nil
}

// SetAdminActive enables or disables an account.
func (s *Store) SetAdminActive(ctx context.Context, id int64, active bool) error {
	if err := s.exec(ctx, "UPDATE admins SET is_active = ?, updated_at = ? WHERE id = ?", active, now(), id); err != nil {
		return fmt.Errorf("set admin active: %w", err)
	}
	return nil
}
