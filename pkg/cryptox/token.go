package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"
)

// Token size constants (in bytes before encoding).
const (
	// TokenSize128 provides 128 bits of entropy (22 chars base64url).
	TokenSize128 = 16
	// TokenSize256 provides 256 bits of entropy (43 chars base64url).
	TokenSize256 = 32
)

// DefaultResetTokenValidity is how long an issued reset token stays usable.
const DefaultResetTokenValidity = time.Hour

// resetTokenHashLength is the hex length of a SHA-256 digest.
const resetTokenHashLength = sha256.Size * 2

// GenerateToken creates a cryptographically secure random token of the specified byte length.
// The token is returned as a base64url-encoded string (URL-safe, no padding).
// Returns an error if the random number generator fails.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("%w: token size must be positive, got %d", ErrInvalidInput, size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// MustGenerateToken is like GenerateToken but panics on error.
// Use this only during initialization or in contexts where failure is unrecoverable.
func MustGenerateToken(size int) string {
	token, err := GenerateToken(size)
	if err != nil {
		panic(fmt.Sprintf("cryptox: failed to generate token: %v", err))
	}
	return token
}

// ResetToken is the result of issuing a password reset token. Plaintext is
// handed to the user exactly once (typically inside an emailed link); only
// Hash and ExpiresAt are persisted.
type ResetToken struct {
	Plaintext string
	Hash      string
	ExpiresAt time.Time
}

// ResetTokenIssuer mints reset tokens. A zero value uses
// DefaultResetTokenValidity and the wall clock.
type ResetTokenIssuer struct {
	Validity time.Duration
	Now      func() time.Time
}

// NewResetTokenIssuer returns an issuer with the given validity window.
// Non-positive validity falls back to DefaultResetTokenValidity.
func NewResetTokenIssuer(validity time.Duration) *ResetTokenIssuer {
	if validity <= 0 {
		validity = DefaultResetTokenValidity
	}
	return &ResetTokenIssuer{Validity: validity, Now: time.Now}
}

// Issue generates a fresh token. It has no side effects; storing Hash and
// ExpiresAt on the credential is up to the caller.
func (i *ResetTokenIssuer) Issue() (ResetToken, error) {
	plaintext, err := GenerateToken(TokenSize256)
	if err != nil {
		return ResetToken{}, err
	}
	return ResetToken{
		Plaintext: plaintext,
		Hash:      HashResetToken(plaintext),
		ExpiresAt: i.now().Add(i.validity()).UTC(),
	}, nil
}

func (i *ResetTokenIssuer) validity() time.Duration {
	if i == nil || i.Validity <= 0 {
		return DefaultResetTokenValidity
	}
	return i.Validity
}

func (i *ResetTokenIssuer) now() time.Time {
	if i == nil || i.Now == nil {
		return time.Now()
	}
	return i.Now()
}

// HashResetToken returns the lowercase hex SHA-256 digest of plaintext.
// Reset tokens carry 256 bits of entropy, so a fast hash is enough and
// keeps lookups by hash cheap.
func HashResetToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// VerifyResetToken reports whether plaintext hashes to storedHash. Empty
// input and malformed stored hashes yield false. Expiry is not checked here;
// see ResetTokenExpired.
func VerifyResetToken(plaintext, storedHash string) bool {
	if plaintext == "" || len(storedHash) != resetTokenHashLength {
		return false
	}
	stored, err := hex.DecodeString(storedHash)
	if err != nil {
		return false
	}
	sum := sha256.Sum256([]byte(plaintext))
	return subtle.ConstantTimeCompare(sum[:], stored) == 1
}

// ResetTokenExpired reports whether a token expiring at expiresAt is no
// longer usable at now. A nil expiry means no token is outstanding.
func ResetTokenExpired(expiresAt *time.Time, now time.Time) bool {
	return expiresAt == nil || !now.Before(*expiresAt)
}
