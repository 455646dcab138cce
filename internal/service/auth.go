package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/makeplus/makeplus-api/internal/model"
	"github.com/makeplus/makeplus-api/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrAdminUnavailable   = errors.New("admin no longer exists or is inactive")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrIncorrectPassword  = errors.New("current password is incorrect")
	ErrInvalidRole        = errors.New("invalid role")
)

// AdminStore is the persistence the auth flow needs.
type AdminStore interface {
	CreateAdmin(ctx context.Context, admin *model.Admin) error
	GetAdmin(ctx context.Context, id int64) (*model.Admin, error)
	GetAdminCredentials(ctx context.Context, email string) (*model.Admin, error)
	UpdateAdminLastLogin(ctx context.Context, id int64) error
	UpdateAdminPassword(ctx context.Context, id int64, hash string) error
	SetAdminActive(ctx context.Context, id int64, active bool) error
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Admin *model.Admin
	Token string
}

// AuthService owns credential checks, session tokens and password changes.
type AuthService struct {
	store  AdminStore
	tokens *TokenIssuer
	hasher Hasher
	logger *slog.Logger

	// dummyHash is compared against when the email is unknown so that both
	// failure paths cost one bcrypt comparison.
	dummyHash func() string
}

// NewAuthService wires the auth flow. A nil logger discards logs.
func NewAuthService(st AdminStore, tokens *TokenIssuer, hasher Hasher, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &AuthService{store: st, tokens: tokens, hasher: hasher, logger: logger}
	s.dummyHash = sync.OnceValue(func() string {
		h, err := hasher.Hash("makeplus-timing-equalizer")
		if err != nil {
			return ""
		}
		return h
	})
	return s
}

// Tokens exposes the token issuer, e.g. for cookie lifetimes.
func (s *AuthService) Tokens() *TokenIssuer {
	return s.tokens
}

// Login checks email and password and issues a session token. Unknown
// emails and wrong passwords both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	admin, err := s.store.GetAdminCredentials(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.hasher.Verify(password, s.dummyHash())
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load admin: %w", err)
	}

	// Every failure path pays for exactly one hash comparison.
	matched := s.hasher.Verify(password, admin.PasswordHash)
	if !admin.IsActive {
		return nil, ErrAccountDeactivated
	}
	if !matched {
		return nil, ErrInvalidCredentials
	}

	if err := s.store.UpdateAdminLastLogin(ctx, admin.ID); err != nil {
		s.logger.Warn("failed to record last login", "admin_id", admin.ID, "error", err)
	}

	token, err := s.tokens.Issue(admin.ID)
	if err != nil {
		return nil, err
	}
	admin.PasswordHash = ""
	return &LoginResult{Admin: admin, Token: token}, nil
}

// Authenticate resolves a session token to an active admin. It returns
// ErrInvalidToken for bad tokens and ErrAdminUnavailable when the admin was
// removed or deactivated after the token was issued.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.Admin, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	admin, err := s.store.GetAdmin(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAdminUnavailable
		}
		return nil, fmt.Errorf("load admin: %w", err)
	}
	if !admin.IsActive {
		return nil, ErrAdminUnavailable
	}
	return admin, nil
}

// CreateAdmin hashes password and stores a new active admin.
func (s *AuthService) CreateAdmin(ctx context.Context, email, name, password string, role model.Role) (*model.Admin, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}
	admin := &model.Admin{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		Role:         role,
		IsActive:     true,
	}
	if err := s.store.CreateAdmin(ctx, admin); err != nil {
		return nil, err
	}
	admin.PasswordHash = ""
	return admin, nil
}

// ChangePassword replaces the password of adminID after checking current.
func (s *AuthService) ChangePassword(ctx context.Context, adminID int64, current, next string) error {
	admin, err := s.store.GetAdmin(ctx, adminID)
	if err != nil {
		return err
	}
	cred, err := s.store.GetAdminCredentials(ctx, admin.Email)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(current, cred.PasswordHash) {
		return ErrIncorrectPassword
	}
	return s.SetPassword(ctx, adminID, next)
}

// SetPassword replaces the password of adminID without checking the old one.
func (s *AuthService) SetPassword(ctx context.Context, adminID int64, password string) error {
	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}
	return s.store.UpdateAdminPassword(ctx, adminID, hash)
}

// SetActive enables or disables an admin. Tokens already issued to a
// disabled admin stop working on their next use.
func (s *AuthService) SetActive(ctx context.Context, adminID int64, active bool) error {
	return s.store.SetAdminActive(ctx, adminID, active)
}

func (s *AuthService) hashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	return s.hasher.Hash(password)
}
