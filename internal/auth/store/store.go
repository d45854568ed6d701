package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/worklog/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite) implement
// this. Sub-repositories are exposed as methods so a Tx-scoped Store can hand
// out repos bound to the transaction, which stops accidental nested
// transactions.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Users is the identity repository. Every write bumps updated_at.
type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByResetTokenHash finds the user holding the given reset token
	// hash, expired or not.
	GetUserByResetTokenHash(ctx context.Context, tokenHash string) (domain.User, error)

	// ListUsers returns all users ordered by email.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash stores a new credential. It also clears any
	// outstanding reset token and the reset-required flag.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// RehashPassword replaces the hash of an unchanged password (parameter
	// upgrade) and touches nothing else.
	RehashPassword(ctx context.Context, userID, newHash string) error

	// SetPasswordResetToken stores a reset token pair, overwriting any
	// previous one.
	SetPasswordResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// ClearPasswordResetToken removes the reset token pair.
	ClearPasswordResetToken(ctx context.Context, userID string) error

	// ConsumePasswordResetToken atomically replaces the password and clears
	// the token pair, but only while the stored hash still equals tokenHash
	// and has not expired at now. It reports whether a row was updated.
	ConsumePasswordResetToken(ctx context.Context, userID, tokenHash, newHash string, now time.Time) (bool, error)

	SetPasswordResetRequired(ctx context.Context, userID string, required bool) error
	SetActive(ctx context.Context, userID string, active bool) error

	// DeleteExpiredPasswordResetTokens clears every token pair that expired
	// at or before now and returns how many were cleared.
	DeleteExpiredPasswordResetTokens(ctx context.Context, now time.Time) (int64, error)

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}
