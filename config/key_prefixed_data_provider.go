/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"io"
	"strings"
	"time"
)

// KeyPrefixedDataProvider scopes every key of the underlying DataProvider under keyPrefix.
// Loading data (files, readers, env) is not scoped and goes straight to the delegate.
type KeyPrefixedDataProvider struct {
	delegate  DataProvider
	keyPrefix string
}

var _ DataProvider = (*KeyPrefixedDataProvider)(nil)

// NewKeyPrefixedDataProvider creates a new KeyPrefixedDataProvider.
func NewKeyPrefixedDataProvider(delegate DataProvider, keyPrefix string) *KeyPrefixedDataProvider {
	return &KeyPrefixedDataProvider{delegate: delegate, keyPrefix: keyPrefix}
}

func (p *KeyPrefixedDataProvider) key(k string) string {
	return strings.Trim(p.keyPrefix+"."+k, ".")
}

// UseEnvVars implements DataSource.
func (p *KeyPrefixedDataProvider) UseEnvVars(prefix string) { p.delegate.UseEnvVars(prefix) }

// SetFromFile implements DataSource.
func (p *KeyPrefixedDataProvider) SetFromFile(path string, dataType DataType) error {
	return p.delegate.SetFromFile(path, dataType)
}

// SetFromReader implements DataSource.
func (p *KeyPrefixedDataProvider) SetFromReader(reader io.Reader, dataType DataType) error {
	return p.delegate.SetFromReader(reader, dataType)
}

// Set implements DataSource.
func (p *KeyPrefixedDataProvider) Set(k string, value interface{}) {
	p.delegate.Set(p.key(k), value)
}

// SetDefault implements DataSource.
func (p *KeyPrefixedDataProvider) SetDefault(k string, value interface{}) {
	p.delegate.SetDefault(p.key(k), value)
}

// IsSet implements DataProvider.
func (p *KeyPrefixedDataProvider) IsSet(k string) bool { return p.delegate.IsSet(p.key(k)) }

// Get implements DataProvider.
func (p *KeyPrefixedDataProvider) Get(k string) interface{} { return p.delegate.Get(p.key(k)) }

// GetBool implements DataProvider.
func (p *KeyPrefixedDataProvider) GetBool(k string) (bool, error) {
	return p.delegate.GetBool(p.key(k))
}

// GetInt implements DataProvider.
func (p *KeyPrefixedDataProvider) GetInt(k string) (int, error) {
	return p.delegate.GetInt(p.key(k))
}

// GetString implements DataProvider.
func (p *KeyPrefixedDataProvider) GetString(k string) (string, error) {
	return p.delegate.GetString(p.key(k))
}

// GetStringFromSet implements DataProvider.
func (p *KeyPrefixedDataProvider) GetStringFromSet(k string, set []string, ignoreCase bool) (string, error) {
	return p.delegate.GetStringFromSet(p.key(k), set, ignoreCase)
}

// GetStringSlice implements DataProvider.
func (p *KeyPrefixedDataProvider) GetStringSlice(k string) ([]string, error) {
	return p.delegate.GetStringSlice(p.key(k))
}

// GetDuration implements DataProvider.
func (p *KeyPrefixedDataProvider) GetDuration(k string) (time.Duration, error) {
	return p.delegate.GetDuration(p.key(k))
}

// GetBytesCount implements DataProvider.
func (p *KeyPrefixedDataProvider) GetBytesCount(k string) (BytesCount, error) {
	return p.delegate.GetBytesCount(p.key(k))
}

// UnmarshalKey implements DataProvider.
func (p *KeyPrefixedDataProvider) UnmarshalKey(k string, rawVal interface{}, opts ...DecoderConfigOption) error {
	return p.delegate.UnmarshalKey(p.key(k), rawVal, opts...)
}

// WrapKeyErr implements DataProvider. The reported key includes the prefix.
func (p *KeyPrefixedDataProvider) WrapKeyErr(k string, err error) error {
	return p.delegate.WrapKeyErr(p.key(k), err)
}
