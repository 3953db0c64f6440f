// Package keystest generates throwaway ES256 keys for tests.
package keystest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/smallbiznis/appleid-token/internal/domain/apple"
	"github.com/smallbiznis/appleid-token/internal/keys"
)

// PEM returns a freshly generated key in PKCS#8 PEM form, the format Apple hands out.
func PEM(t testing.TB, curve elliptic.Curve) (*ecdsa.PrivateKey, []byte) {
	t.Helper()
	key, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	return key, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

// Store returns a StaticStore with one P-256 key per build configuration and the keys used.
func Store(t testing.TB) (*keys.StaticStore, map[apple.BuildConfiguration]*ecdsa.PrivateKey) {
	t.Helper()
	pems := make(map[apple.BuildConfiguration][]byte)
	private := make(map[apple.BuildConfiguration]*ecdsa.PrivateKey)
	for _, b := range apple.BuildConfigurations() {
		key, data := PEM(t, elliptic.P256())
		pems[b] = data
		private[b] = key
	}
	store, err := keys.NewStaticStore(pems)
	if err != nil {
		t.Fatalf("new static store: %v", err)
	}
	return store, private
}

// ProviderTable returns a valid table whose subjects and key IDs derive from the build name.
func ProviderTable(t testing.TB) apple.ProviderTable {
	t.Helper()
	var configs []apple.ProviderConfig
	for _, b := range apple.BuildConfigurations() {
		configs = append(configs, apple.ProviderConfig{
			BuildConfiguration: b,
			Issuer:             "TEAM123456",
			Subject:            "com.example.app." + string(b),
			KeyID:              "KID" + string(b),
		})
	}
	table, err := apple.NewProviderTable(configs...)
	if err != nil {
		t.Fatalf("new provider table: %v", err)
	}
	return table
}
