package keys

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/smallbiznis/appleid-token/internal/domain/apple"
)

// KeyMaterial is the ES256 signing key bound to a build configuration.
type KeyMaterial struct {
	BuildConfiguration apple.BuildConfiguration
	PrivateKey         *ecdsa.PrivateKey
}

// Store resolves signing keys by build configuration. Implementations must be safe for
// concurrent use.
type Store interface {
	SigningKey(ctx context.Context, b apple.BuildConfiguration) (KeyMaterial, error)
}

// StaticStore keeps keys parsed once at startup. It is read-only after construction.
type StaticStore struct {
	keys map[apple.BuildConfiguration]KeyMaterial
}

var _ Store = (*StaticStore)(nil)

// NewStaticStore parses one PEM key per build configuration. Every known build
// configuration must be present.
func NewStaticStore(pems map[apple.BuildConfiguration][]byte) (*StaticStore, error) {
	keys := make(map[apple.BuildConfiguration]KeyMaterial, len(pems))
	for _, b := range apple.BuildConfigurations() {
		data, ok := pems[b]
		if !ok || len(data) == 0 {
			return nil, fmt.Errorf("signing key for %s is missing", b)
		}
		key, err := ParsePrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("signing key for %s: %w", b, err)
		}
		keys[b] = KeyMaterial{BuildConfiguration: b, PrivateKey: key}
	}
	return &StaticStore{keys: keys}, nil
}

// SigningKey returns the key for b.
func (s *StaticStore) SigningKey(_ context.Context, b apple.BuildConfiguration) (KeyMaterial, error) {
	key, ok := s.keys[b]
	if !ok {
		return KeyMaterial{}, fmt.Errorf("%w: %q", apple.ErrUnknownBuildConfiguration, string(b))
	}
	return key, nil
}

// ParsePrivateKey decodes a PKCS#8 (Apple .p8) or SEC1 PEM block into a P-256 key.
func ParsePrivateKey(data []byte) (*ecdsa.PrivateKey, error) {
	key, err := jwt.ParseECPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("parse ec private key: %w", err)
	}
	if key.Curve != elliptic.P256() {
		return nil, fmt.Errorf("parse ec private key: curve %s is not P-256", key.Curve.Params().Name)
	}
	return key, nil
}
