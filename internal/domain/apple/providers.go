package apple

import (
	"fmt"
	"strings"
)

// ProviderTable maps each build configuration to exactly one ProviderConfig.
// It is built once at startup and never mutated afterwards.
type ProviderTable struct {
	entries map[BuildConfiguration]ProviderConfig
}

// NewProviderTable validates configs and returns the lookup table.
func NewProviderTable(configs ...ProviderConfig) (ProviderTable, error) {
	entries := make(map[BuildConfiguration]ProviderConfig, len(configs))
	for _, cfg := range configs {
		if _, err := ParseBuildConfiguration(string(cfg.BuildConfiguration)); err != nil {
			return ProviderTable{}, err
		}
		if _, dup := entries[cfg.BuildConfiguration]; dup {
			return ProviderTable{}, fmt.Errorf("duplicate provider config for %s", cfg.BuildConfiguration)
		}
		if strings.TrimSpace(cfg.Issuer) == "" {
			return ProviderTable{}, fmt.Errorf("provider config %s: issuer is required", cfg.BuildConfiguration)
		}
		if strings.TrimSpace(cfg.Subject) == "" {
			return ProviderTable{}, fmt.Errorf("provider config %s: subject is required", cfg.BuildConfiguration)
		}
		if strings.TrimSpace(cfg.KeyID) == "" {
			return ProviderTable{}, fmt.Errorf("provider config %s: key id is required", cfg.BuildConfiguration)
		}
		entries[cfg.BuildConfiguration] = cfg
	}
	for _, known := range BuildConfigurations() {
		if _, ok := entries[known]; !ok {
			return ProviderTable{}, fmt.Errorf("provider config %s is missing", known)
		}
	}
	return ProviderTable{entries: entries}, nil
}

// Lookup returns the ProviderConfig for b. Unknown configurations are an error.
func (t ProviderTable) Lookup(b BuildConfiguration) (ProviderConfig, error) {
	cfg, ok := t.entries[b]
	if !ok {
		return ProviderConfig{}, fmt.Errorf("%w: %q", ErrUnknownBuildConfiguration, string(b))
	}
	return cfg, nil
}
