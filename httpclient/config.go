/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"fmt"
	"strings"
	"time"

	"github.com/acronis/go-docgate/config"
	"github.com/acronis/go-docgate/retry"
)

const cfgDefaultKeyPrefix = "httpClient"

const (
	cfgKeyTimeout                    = "timeout"
	cfgKeyRetriesEnabled             = "retries.enabled"
	cfgKeyRetriesMaxAttempts         = "retries.maxAttempts"
	cfgKeyRetriesPolicy              = "retries.policy"
	cfgKeyRetriesInterval            = "retries.interval"
	cfgKeyLoggerEnabled              = "logger.enabled"
	cfgKeyLoggerMode                 = "logger.mode"
	cfgKeyLoggerSlowRequestThreshold = "logger.slowRequestThreshold"
	cfgKeyMetricsEnabled             = "metrics.enabled"
)

// Default configuration values.
const (
	DefaultClientWaitTimeout = 10 * time.Second
	DefaultRetriesInterval   = time.Second
)

// Config represents options for the HTTP client.
type Config struct {
	// Timeout is the overall time limit for a request including all retries.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`

	Retries RetriesConfig `mapstructure:"retries" yaml:"retries" json:"retries"`
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger" json:"logger"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// RetriesConfig represents options for retrying requests.
type RetriesConfig struct {
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	MaxAttempts int           `mapstructure:"maxAttempts" yaml:"maxAttempts" json:"maxAttempts"`
	Policy      string        `mapstructure:"policy" yaml:"policy" json:"policy"`
	Interval    time.Duration `mapstructure:"interval" yaml:"interval" json:"interval"`
}

// GetPolicy returns a retry policy built from the configuration.
func (c *RetriesConfig) GetPolicy() (retry.Policy, error) {
	return retry.NewPolicy(c.Policy, c.Interval, c.MaxAttempts)
}

// LoggerConfig represents options for logging outgoing requests.
type LoggerConfig struct {
	Enabled              bool          `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Mode                 LoggingMode   `mapstructure:"mode" yaml:"mode" json:"mode"`
	SlowRequestThreshold time.Duration `mapstructure:"slowRequestThreshold" yaml:"slowRequestThreshold" json:"slowRequestThreshold"`
}

// MetricsConfig represents options for collecting metrics of outgoing requests.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
}

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return NewConfigWithKeyPrefix(cfgDefaultKeyPrefix)
}

// NewConfigWithKeyPrefix creates a new instance of the Config with the given key prefix.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		keyPrefix: cfgDefaultKeyPrefix,
		Timeout:   DefaultClientWaitTimeout,
		Retries: RetriesConfig{
			Enabled:     true,
			MaxAttempts: DefaultMaxRetryAttempts,
			Policy:      retry.PolicyExponential,
			Interval:    DefaultRetriesInterval,
		},
		Logger:  LoggerConfig{Enabled: true, Mode: LoggingModeFailed},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyTimeout, DefaultClientWaitTimeout.String())
	dp.SetDefault(cfgKeyRetriesEnabled, true)
	dp.SetDefault(cfgKeyRetriesMaxAttempts, DefaultMaxRetryAttempts)
	dp.SetDefault(cfgKeyRetriesPolicy, retry.PolicyExponential)
	dp.SetDefault(cfgKeyRetriesInterval, DefaultRetriesInterval.String())
	dp.SetDefault(cfgKeyLoggerEnabled, true)
	dp.SetDefault(cfgKeyLoggerMode, string(LoggingModeFailed))
	dp.SetDefault(cfgKeyMetricsEnabled, true)
}

var (
	availableLoggingModes  = []string{string(LoggingModeNone), string(LoggingModeAll), string(LoggingModeFailed)}
	availableRetryPolicies = []string{retry.PolicyExponential, retry.PolicyConstant}
)

// Set sets HTTP client configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.Timeout, err = dp.GetDuration(cfgKeyTimeout); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return dp.WrapKeyErr(cfgKeyTimeout, fmt.Errorf("cannot be negative"))
	}

	if err = c.setRetries(dp); err != nil {
		return err
	}

	if c.Logger.Enabled, err = dp.GetBool(cfgKeyLoggerEnabled); err != nil {
		return err
	}
	var mode string
	if mode, err = dp.GetStringFromSet(cfgKeyLoggerMode, availableLoggingModes, true); err != nil {
		return err
	}
	c.Logger.Mode = LoggingMode(strings.ToLower(mode))
	if c.Logger.SlowRequestThreshold, err = dp.GetDuration(cfgKeyLoggerSlowRequestThreshold); err != nil {
		return err
	}

	if c.Metrics.Enabled, err = dp.GetBool(cfgKeyMetricsEnabled); err != nil {
		return err
	}
	return nil
}

func (c *Config) setRetries(dp config.DataProvider) error {
	var err error
	if c.Retries.Enabled, err = dp.GetBool(cfgKeyRetriesEnabled); err != nil {
		return err
	}
	if c.Retries.MaxAttempts, err = dp.GetInt(cfgKeyRetriesMaxAttempts); err != nil {
		return err
	}
	if c.Retries.MaxAttempts < 0 {
		return dp.WrapKeyErr(cfgKeyRetriesMaxAttempts, fmt.Errorf("cannot be negative"))
	}
	var policy string
	if policy, err = dp.GetStringFromSet(cfgKeyRetriesPolicy, availableRetryPolicies, true); err != nil {
		return err
	}
	c.Retries.Policy = strings.ToLower(policy)
	if c.Retries.Interval, err = dp.GetDuration(cfgKeyRetriesInterval); err != nil {
		return err
	}
	if c.Retries.Interval <= 0 {
		return dp.WrapKeyErr(cfgKeyRetriesInterval, fmt.Errorf("must be positive"))
	}
	return nil
}
