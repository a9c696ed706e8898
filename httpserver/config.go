/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"fmt"
	"time"

	"github.com/acronis/go-docgate/config"
)

const cfgDefaultKeyPrefix = "server"

const (
	cfgKeyAddress           = "address"
	cfgKeyTimeoutsWrite     = "timeouts.write"
	cfgKeyTimeoutsRead      = "timeouts.read"
	cfgKeyTimeoutsReadHdr   = "timeouts.readHeader"
	cfgKeyTimeoutsIdle      = "timeouts.idle"
	cfgKeyTimeoutsShutdown  = "timeouts.shutdown"
	cfgKeyLimitsMaxBodySize = "limits.maxBodySize"
	cfgKeyLogRequestStart   = "log.requestStart"
	cfgKeyLogExcluded       = "log.excludedEndpoints"
)

const (
	defaultAddress          = ":8080"
	defaultMaxBodySize      = "1M"
	defaultMaxBodySizeBytes = 1024 * 1024
)

// defaultTimeouts are keyed by their config keys.
var defaultTimeouts = map[string]time.Duration{
	cfgKeyTimeoutsWrite:    time.Minute,
	cfgKeyTimeoutsRead:     15 * time.Second,
	cfgKeyTimeoutsReadHdr:  10 * time.Second,
	cfgKeyTimeoutsIdle:     time.Minute,
	cfgKeyTimeoutsShutdown: 5 * time.Second,
}

// Config is the inbound HTTP server configuration ("server" section by default).
type Config struct {
	Address  string         `mapstructure:"address" yaml:"address" json:"address"`
	Timeouts TimeoutsConfig `mapstructure:"timeouts" yaml:"timeouts" json:"timeouts"`
	Limits   LimitsConfig   `mapstructure:"limits" yaml:"limits" json:"limits"`
	Log      LogConfig      `mapstructure:"log" yaml:"log" json:"log"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// TimeoutsConfig configures timeouts of http.Server and of the graceful shutdown.
type TimeoutsConfig struct {
	Write      config.TimeDuration `mapstructure:"write" yaml:"write" json:"write"`
	Read       config.TimeDuration `mapstructure:"read" yaml:"read" json:"read"`
	ReadHeader config.TimeDuration `mapstructure:"readHeader" yaml:"readHeader" json:"readHeader"`
	Idle       config.TimeDuration `mapstructure:"idle" yaml:"idle" json:"idle"`
	Shutdown   config.TimeDuration `mapstructure:"shutdown" yaml:"shutdown" json:"shutdown"`
}

func (t *TimeoutsConfig) byKey() map[string]*config.TimeDuration {
	return map[string]*config.TimeDuration{
		cfgKeyTimeoutsWrite:    &t.Write,
		cfgKeyTimeoutsRead:     &t.Read,
		cfgKeyTimeoutsReadHdr:  &t.ReadHeader,
		cfgKeyTimeoutsIdle:     &t.Idle,
		cfgKeyTimeoutsShutdown: &t.Shutdown,
	}
}

// LimitsConfig limits incoming requests.
type LimitsConfig struct {
	// MaxBodySizeBytes is the maximum size of the request body. Zero means no limit.
	MaxBodySizeBytes config.BytesCount `mapstructure:"maxBodySize" yaml:"maxBodySize" json:"maxBodySize"`
}

// LogConfig configures the logging middleware.
type LogConfig struct {
	RequestStart bool `mapstructure:"requestStart" yaml:"requestStart" json:"requestStart"`

	// ExcludedEndpoints are glob patterns of paths whose requests aren't logged.
	ExcludedEndpoints []string `mapstructure:"excludedEndpoints" yaml:"excludedEndpoints" json:"excludedEndpoints"`
}

// ConfigOption is a functional option for NewConfig and NewDefaultConfig.
type ConfigOption func(*Config)

// WithKeyPrefix makes config.Loader read the section under keyPrefix instead of "server".
func WithKeyPrefix(keyPrefix string) ConfigOption {
	return func(c *Config) {
		c.keyPrefix = keyPrefix
	}
}

// NewConfig creates an empty Config to be filled by config.Loader.
func NewConfig(options ...ConfigOption) *Config {
	cfg := &Config{keyPrefix: cfgDefaultKeyPrefix}
	for _, opt := range options {
		opt(cfg)
	}
	return cfg
}

// NewDefaultConfig creates a Config with the same values config.Loader produces for an empty section.
func NewDefaultConfig(options ...ConfigOption) *Config {
	cfg := NewConfig(options...)
	cfg.Address = defaultAddress
	for key, dst := range cfg.Timeouts.byKey() {
		*dst = config.TimeDuration(defaultTimeouts[key])
	}
	cfg.Limits.MaxBodySizeBytes = defaultMaxBodySizeBytes
	return cfg
}

// KeyPrefix implements config.KeyPrefixProvider.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults implements config.Config.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyAddress, defaultAddress)
	for key, dur := range defaultTimeouts {
		dp.SetDefault(key, dur)
	}
	dp.SetDefault(cfgKeyLimitsMaxBodySize, defaultMaxBodySize)
	dp.SetDefault(cfgKeyLogRequestStart, false)
}

// Set implements config.Config.
func (c *Config) Set(dp config.DataProvider) (err error) {
	if c.Address, err = dp.GetString(cfgKeyAddress); err != nil {
		return err
	}
	if c.Address == "" {
		return dp.WrapKeyErr(cfgKeyAddress, fmt.Errorf("cannot be empty"))
	}
	if err = c.Timeouts.Set(dp); err != nil {
		return err
	}
	if c.Limits.MaxBodySizeBytes, err = dp.GetBytesCount(cfgKeyLimitsMaxBodySize); err != nil {
		return err
	}
	if c.Log.RequestStart, err = dp.GetBool(cfgKeyLogRequestStart); err != nil {
		return err
	}
	c.Log.ExcludedEndpoints, err = dp.GetStringSlice(cfgKeyLogExcluded)
	return err
}

// Set reads the timeouts. Negative values are rejected.
func (t *TimeoutsConfig) Set(dp config.DataProvider) error {
	for _, key := range []string{
		cfgKeyTimeoutsWrite, cfgKeyTimeoutsRead, cfgKeyTimeoutsReadHdr, cfgKeyTimeoutsIdle, cfgKeyTimeoutsShutdown,
	} {
		dur, err := dp.GetDuration(key)
		if err != nil {
			return err
		}
		if dur < 0 {
			return dp.WrapKeyErr(key, fmt.Errorf("cannot be negative"))
		}
		*t.byKey()[key] = config.TimeDuration(dur)
	}
	return nil
}
