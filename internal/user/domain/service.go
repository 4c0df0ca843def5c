package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidPassword    = errors.New("password must be between 8 and 100 characters")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email not verified")
	ErrInactive           = errors.New("account is inactive")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidRole        = errors.New("invalid role")
	ErrNotFound           = errors.New("user not found")
)

type RegisterRequest struct {
	Email    string
	Password string
	FullName string
}

type Service interface {
	// Register creates an unverified active account and sends a
	// verification email. Returns ErrEmailTaken on duplicates.
	Register(ctx context.Context, req RegisterRequest) (*User, error)

	// Authenticate checks credentials and returns the principal plus a
	// signed access token. Bad credentials, unverified and inactive
	// accounts all fail with ErrInvalidCredentials, ErrNotVerified and
	// ErrInactive respectively.
	Authenticate(ctx context.Context, email, password string) (*User, string, error)

	// VerifyEmail redeems an email-verification token.
	VerifyEmail(ctx context.Context, token string) error

	// ResendVerification re-sends the verification email. Enumeration
	// safe: unknown and already-verified emails return nil.
	ResendVerification(ctx context.Context, email string) error

	// RequestPasswordReset issues a reset token and mails it.
	// Enumeration safe: unknown emails return nil and send nothing.
	RequestPasswordReset(ctx context.Context, email string) error

	// ValidateResetToken pre-checks a reset token without consuming it.
	ValidateResetToken(ctx context.Context, token string) error

	// ResetPassword redeems a reset token, stores the new password hash,
	// consumes the token and invalidates the cached snapshot.
	ResetPassword(ctx context.Context, token, newPassword string) error

	// Resolve turns a raw bearer token into a principal, consulting the
	// snapshot cache before the store. All failures are
	// ErrUnauthenticated.
	Resolve(ctx context.Context, rawToken string) (*User, error)

	// UpdateAvatar stores new avatar content and records its URL.
	UpdateAvatar(ctx context.Context, user *User, content []byte, contentType string) (*User, error)

	// UpdateRole changes an account's role.
	UpdateRole(ctx context.Context, id snowflake.ID, role Role) (*User, error)
}
