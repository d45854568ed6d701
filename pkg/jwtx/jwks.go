package jwtx

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
)

const (
	ktyOKP       = "OKP"
	crvEd25519   = "Ed25519"
	useSignature = "sig"
)

// JWK is a public key as published on /.well-known/jwks.json (RFC 7517).
// Work-log tokens are only ever signed with Ed25519, so only OKP members
// are modelled.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`
	Kid string `json:"kid,omitempty"`
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"` // base64url public key
}

type JWKS struct {
	Keys []JWK `json:"keys"`
}

// Key returns the entry for kid.
func (s JWKS) Key(kid string) (JWK, bool) {
	for _, k := range s.Keys {
		if k.Kid == kid {
			return k, true
		}
	}
	return JWK{}, false
}

func NewEd25519JWK(kid, use, alg string, pub ed25519.PublicKey) JWK {
	return JWK{
		Kty: ktyOKP,
		Use: use,
		Alg: alg,
		Kid: kid,
		Crv: crvEd25519,
		X:   base64.RawURLEncoding.EncodeToString(pub),
	}
}

// PublicKey decodes the Ed25519 key the JWK carries.
func (j JWK) PublicKey() (ed25519.PublicKey, error) {
	if j.Kty != ktyOKP || j.Crv != crvEd25519 {
		return nil, fmt.Errorf("jwtx: unsupported key %s/%s", j.Kty, j.Crv)
	}
	x, err := base64.RawURLEncoding.DecodeString(j.X)
	if err != nil {
		return nil, fmt.Errorf("jwtx: decode x: %w", err)
	}
	if len(x) != ed25519.PublicKeySize {
		return nil, errors.New("jwtx: invalid Ed25519 public key size")
	}
	return ed25519.PublicKey(x), nil
}

// Thumbprint is the RFC 7638 SHA-256 thumbprint, base64url. Signers
// without a configured kid use it as their kid.
func (j JWK) Thumbprint() string {
	// Required members only, lexicographic, no whitespace.
	canonical := `{"crv":"` + j.Crv + `","kty":"` + j.Kty + `","x":"` + j.X + `"}`
	sum := sha256.Sum256([]byte(canonical))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// PEM renders the key as a PKIX "PUBLIC KEY" block, the form most JWT
// tooling accepts for offline verification.
func (j JWK) PEM() (string, error) {
	pub, err := j.PublicKey()
	if err != nil {
		return "", err
	}
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}
