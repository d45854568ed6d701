package jwtx

import (
	"crypto/ed25519"
	"errors"
	"sync"
)

var (
	ErrNoKey = errors.New("jwtx: key not found")
	errNoKID = errors.New("jwtx: key without kid")
)

// KeySet holds the Ed25519 verification keys. The auth service fills it from
// its signer; other work-log services fill it from the published JWKS. Safe
// for concurrent use.
type KeySet struct {
	mu   sync.RWMutex
	jwks JWKS
	pub  map[string]ed25519.PublicKey
}

func NewKeySet() *KeySet {
	return &KeySet{pub: make(map[string]ed25519.PublicKey)}
}

// AddSigner publishes a signer's public key.
func (k *KeySet) AddSigner(s Signer) error {
	return k.AddJWK(s.PublicJWK())
}

// AddJWK adds one key. Re-adding a kid replaces it.
func (k *KeySet) AddJWK(j JWK) error {
	if j.Kid == "" {
		return errNoKID
	}
	pub, err := j.PublicKey()
	if err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if _, exists := k.pub[j.Kid]; exists {
		for i := range k.jwks.Keys {
			if k.jwks.Keys[i].Kid == j.Kid {
				k.jwks.Keys[i] = j
			}
		}
	} else {
		k.jwks.Keys = append(k.jwks.Keys, j)
	}
	k.pub[j.Kid] = pub
	return nil
}

func (k *KeySet) Get(kid string) (ed25519.PublicKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.pub[kid]; ok {
		return pk, nil
	}
	return nil, ErrNoKey
}

// PublicJWKS returns a copy safe to serialise.
func (k *KeySet) PublicJWKS() JWKS {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return JWKS{Keys: append([]JWK(nil), k.jwks.Keys...)}
}

// IsReady reports whether any key is loaded; /readyz depends on it.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub) > 0
}

// ResetFromJWKS atomically replaces every key, e.g. after a consumer
// refetches the auth service's JWKS.
func (k *KeySet) ResetFromJWKS(jwks JWKS) error {
	pub := make(map[string]ed25519.PublicKey, len(jwks.Keys))
	for _, j := range jwks.Keys {
		if j.Kid == "" {
			return errNoKID
		}
		key, err := j.PublicKey()
		if err != nil {
			return err
		}
		pub[j.Kid] = key
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub = pub
	k.jwks = JWKS{Keys: append([]JWK(nil), jwks.Keys...)}
	return nil
}
