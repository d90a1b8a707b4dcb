// Package identity manages user accounts and session tokens. The ledger
// treats users as opaque; identity only exists to key persistence.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/GanagallaJoshitha/tasknest/internal/auth"
)

var (
	// ErrEmailTaken is returned when registering an already-known email.
	ErrEmailTaken = errors.New("email already in use")
	// ErrUserNotFound is returned when no account exists for an email.
	ErrUserNotFound = errors.New("user not found")
	// ErrWrongPassword is returned on a credential mismatch.
	ErrWrongPassword = errors.New("invalid password")
)

// User is the public view of an account.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Record is the stored form of an account.
type Record struct {
	User
	PasswordHash []byte `json:"passwordHash"`
}

// Store captures account persistence. FindByEmail returns (nil, nil) when
// no account exists.
type Store interface {
	CreateUser(ctx context.Context, rec Record) error
	FindUserByEmail(ctx context.Context, email string) (*Record, error)
	FindUser(ctx context.Context, id string) (*Record, error)
}

// Service implements register/login and stateless session issuance.
type Service struct {
	store  Store
	tokens auth.Config
}

// NewService constructs a Service.
func NewService(store Store, tokens auth.Config) *Service {
	return &Service{store: store, tokens: tokens}
}

// Register creates an account and logs it in, returning a session token.
// An empty display name defaults to the local part of the email.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (User, string, error) {
	email = normalizeEmail(email)
	if existing, err := s.store.FindUserByEmail(ctx, email); err != nil {
		return User{}, "", err
	} else if existing != nil {
		return User{}, "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, "", err
	}

	if displayName == "" {
		displayName = localPart(email)
	}

	rec := Record{
		User: User{
			ID:          uuid.NewString(),
			Email:       email,
			DisplayName: displayName,
		},
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, rec); err != nil {
		return User{}, "", err
	}

	token, err := s.issue(rec.User)
	if err != nil {
		return User{}, "", err
	}
	return rec.User, token, nil
}

// Login verifies credentials and returns a session token.
func (s *Service) Login(ctx context.Context, email, password string) (User, string, error) {
	rec, err := s.store.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return User{}, "", err
	}
	if rec == nil {
		return User{}, "", ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword(rec.PasswordHash, []byte(password)); err != nil {
		return User{}, "", ErrWrongPassword
	}

	token, err := s.issue(rec.User)
	if err != nil {
		return User{}, "", err
	}
	return rec.User, token, nil
}

// CurrentUser resolves the account behind validated claims. Falls back to
// the claims themselves when the store no longer has the record, so a
// stale-but-valid token still identifies its user.
func (s *Service) CurrentUser(ctx context.Context, claims *auth.Claims) User {
	if rec, err := s.store.FindUser(ctx, claims.Subject); err == nil && rec != nil {
		return rec.User
	}
	return User{ID: claims.Subject, Email: claims.Email, DisplayName: claims.DisplayName}
}

func (s *Service) issue(u User) (string, error) {
	return auth.Sign(auth.Claims{
		Subject:     u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
	}, s.tokens)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func localPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
