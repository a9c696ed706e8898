/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package config loads configuration values from YAML/JSON sources and environment variables
// into configuration objects that implement the Config interface.
package config

// Config is implemented by every configuration object the Loader can fill.
// SetProviderDefaults is called for all objects before any Set call.
type Config interface {
	SetProviderDefaults(dp DataProvider)
	Set(dp DataProvider) error
}

// KeyPrefixProvider is implemented by configuration objects whose keys live under a common prefix
// (e.g. "crpt" for "crpt.rateLimit.limit").
type KeyPrefixProvider interface {
	KeyPrefix() string
}

// ProviderFor returns dp scoped to the key prefix of cfg if cfg has one.
func ProviderFor(cfg Config, dp DataProvider) DataProvider {
	if kp, ok := cfg.(KeyPrefixProvider); ok && kp.KeyPrefix() != "" {
		return NewKeyPrefixedDataProvider(dp, kp.KeyPrefix())
	}
	return dp
}

// Sections is a Config composed of independent configuration objects.
// Each section sees only keys under its own prefix.
type Sections []Config

var _ Config = Sections(nil)

// SetProviderDefaults sets default values of every section.
func (s Sections) SetProviderDefaults(dp DataProvider) {
	for _, cfg := range s {
		cfg.SetProviderDefaults(ProviderFor(cfg, dp))
	}
}

// Set sets values of every section. It stops on the first error.
func (s Sections) Set(dp DataProvider) error {
	for _, cfg := range s {
		if err := cfg.Set(ProviderFor(cfg, dp)); err != nil {
			return err
		}
	}
	return nil
}
