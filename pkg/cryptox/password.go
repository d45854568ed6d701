package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidInput reports empty or undersized input to hashing or generation.
// Callers should treat it as a programming error.
var ErrInvalidInput = errors.New("cryptox: invalid input")

// Default Argon2id parameters.
const (
	DefaultMemory      = 19 * 1024 // KiB (19 MiB)
	DefaultIterations  = 2
	DefaultParallelism = 1

	keyLength  = 32
	saltLength = 16

	maxMemory     = 1024 * 1024 // 1 GiB
	maxIterations = 64
)

// Hasher produces and verifies slow, salted password hashes in PHC format:
//
//	$argon2id$v=19$m=19456,t=2,p=1$<salt>$<hash>
//
// A zero Hasher uses the default parameters and no pepper.
type Hasher struct {
	Memory      uint32 // KiB
	Iterations  uint32 // the configurable cost factor
	Parallelism uint8
	Pepper      string // appended to every plaintext before hashing
}

// NewHasher returns a Hasher with default memory and parallelism and the
// given iteration count. A cost below 1 falls back to DefaultIterations.
func NewHasher(cost int, pepper string) *Hasher {
	if cost < 1 {
		cost = DefaultIterations
	}
	return &Hasher{
		Memory:      DefaultMemory,
		Iterations:  uint32(cost), // #nosec G115 - cost comes from config and is small
		Parallelism: DefaultParallelism,
		Pepper:      pepper,
	}
}

func (h *Hasher) params() (memory, iterations uint32, parallelism uint8) {
	memory, iterations, parallelism = DefaultMemory, DefaultIterations, DefaultParallelism
	if h == nil {
		return
	}
	if h.Memory > 0 {
		memory = h.Memory
	}
	if h.Iterations > 0 {
		iterations = h.Iterations
	}
	if h.Parallelism > 0 {
		parallelism = h.Parallelism
	}
	return
}

func (h *Hasher) pepper() string {
	if h == nil {
		return ""
	}
	return h.Pepper
}

// Hash computes a PHC-format Argon2id hash with a fresh random salt, so two
// calls with the same plaintext never return the same string.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("%w: empty password", ErrInvalidInput)
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("cryptox: generate salt: %w", err)
	}

	memory, iterations, parallelism := h.params()
	sum := argon2.IDKey([]byte(plaintext+h.pepper()), salt, iterations, memory, parallelism, keyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		memory,
		iterations,
		parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// Verify reports whether plaintext matches the stored hash. Malformed hashes
// yield false. Legacy bcrypt hashes are accepted so imported credentials keep
// working until the next successful login rehashes them.
func (h *Hasher) Verify(plaintext, storedHash string) bool {
	if isBcrypt(storedHash) {
		return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext)) == nil
	}

	p, err := decodePHC(storedHash)
	if err != nil {
		return false
	}

	computed := argon2.IDKey(
		[]byte(plaintext+h.pepper()),
		p.salt,
		p.iterations,
		p.memory,
		p.parallelism,
		uint32(len(p.hash)), // #nosec G115 - decoded hash is 32 bytes in practice
	)
	return subtle.ConstantTimeCompare(computed, p.hash) == 1
}

// NeedsRehash reports whether storedHash was produced by a different
// algorithm or with parameters other than the hasher's current ones.
func (h *Hasher) NeedsRehash(storedHash string) bool {
	if isBcrypt(storedHash) {
		return true
	}
	p, err := decodePHC(storedHash)
	if err != nil {
		return true
	}
	memory, iterations, parallelism := h.params()
	return p.memory != memory || p.iterations != iterations || p.parallelism != parallelism
}

type phcHash struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

// decodePHC parses $argon2id$v=19$m=X,t=Y,p=Z$salt$hash.
func decodePHC(encoded string) (phcHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return phcHash{}, errors.New("invalid hash format: expected 6 parts")
	}
	if parts[1] != "argon2id" {
		return phcHash{}, errors.New("invalid hash format: not argon2id")
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return phcHash{}, errors.New("invalid hash format: wrong version")
	}

	var p phcHash
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return phcHash{}, fmt.Errorf("invalid hash format: parameters: %w", err)
	}
	if p.memory == 0 || p.iterations == 0 || p.parallelism == 0 {
		return phcHash{}, errors.New("invalid hash format: zero parameter")
	}
	// Refuse parameters that would turn a tampered row into a CPU/memory sink.
	if p.memory > maxMemory || p.iterations > maxIterations {
		return phcHash{}, errors.New("invalid hash format: parameters out of range")
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(p.salt) == 0 {
		return phcHash{}, errors.New("invalid hash format: salt")
	}
	if p.hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.hash) == 0 {
		return phcHash{}, errors.New("invalid hash format: hash")
	}
	return p, nil
}

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
