package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/worklog/pkg/cryptox"
	"github.com/aussiebroadwan/worklog/pkg/jwtx"
)

// AuthKeys bundles the access-token signer with the key set published on
// the JWKS endpoint and the verifier the bearer middleware uses.
type AuthKeys struct {
	Signer   *jwtx.EdDSASigner
	KeySet   *jwtx.KeySet
	Verifier jwtx.Verifier
}

// InitAuthKeys loads the Ed25519 signing key.
//
// Key sources:
//   - AUTH_SIGNING_KEY_FILE set: the PKCS8 PEM at that path is loaded, or
//     generated and written with 0600 permissions when missing. Tokens
//     survive restarts.
//   - unset: an ephemeral key is generated in memory. All issued tokens
//     become invalid when the service restarts.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*AuthKeys, error) {
	key, err := cryptox.LoadOrCreateEd25519Key(cfg.SigningKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key: %w", err)
	}

	signer, err := jwtx.NewEdDSASignerFromKey("", key)
	if err != nil {
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}

	keys := jwtx.NewKeySet()
	if err := keys.AddSigner(signer); err != nil {
		return nil, fmt.Errorf("failed to publish signing key: %w", err)
	}

	if cfg.SigningKeyFile == "" {
		logger.Warn("using ephemeral signing key; tokens will not survive a restart", "kid", signer.KID())
	} else {
		logger.Info("signing key loaded", "kid", signer.KID(), "path", cfg.SigningKeyFile)
	}

	return &AuthKeys{
		Signer: signer,
		KeySet: keys,
		// Tokens carry no audience, so none is checked.
		Verifier: jwtx.NewCommonEdDSA(keys, cfg.Issuer, nil),
	}, nil
}
