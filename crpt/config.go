/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package crpt

import (
	"fmt"
	"net/url"
	"time"

	"github.com/acronis/go-docgate/config"
	"github.com/acronis/go-docgate/httpclient"
	"github.com/acronis/go-docgate/windowlimit"
)

const cfgDefaultKeyPrefix = "crpt"

const (
	cfgKeyEndpoint         = "endpoint"
	cfgKeyRateLimitWindow  = "rateLimit.window"
	cfgKeyRateLimitLimit   = "rateLimit.limit"
	cfgKeyHTTPClientPrefix = "httpClient"
)

// Default rate limit values.
const (
	DefaultRateLimitWindow = time.Second
	DefaultRateLimitLimit  = 10
)

// Config represents a set of configuration parameters for the CRPT client.
type Config struct {
	Endpoint   string             `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`
	RateLimit  windowlimit.Config `mapstructure:"rateLimit" yaml:"rateLimit" json:"rateLimit"`
	HTTPClient *httpclient.Config `mapstructure:"httpClient" yaml:"httpClient" json:"httpClient"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return &Config{keyPrefix: cfgDefaultKeyPrefix, HTTPClient: httpclient.NewConfig()}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		keyPrefix:  cfgDefaultKeyPrefix,
		Endpoint:   DefaultEndpoint,
		RateLimit:  windowlimit.Config{Window: DefaultRateLimitWindow, Limit: DefaultRateLimitLimit},
		HTTPClient: httpclient.NewDefaultConfig(),
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

func (c *Config) httpClientDataProvider(dp config.DataProvider) config.DataProvider {
	return config.NewKeyPrefixedDataProvider(dp, cfgKeyHTTPClientPrefix)
}

// SetProviderDefaults sets default configuration values for the CRPT client in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyEndpoint, DefaultEndpoint)
	dp.SetDefault(cfgKeyRateLimitWindow, DefaultRateLimitWindow.String())
	dp.SetDefault(cfgKeyRateLimitLimit, DefaultRateLimitLimit)
	if c.HTTPClient == nil {
		c.HTTPClient = httpclient.NewConfig()
	}
	c.HTTPClient.SetProviderDefaults(c.httpClientDataProvider(dp))
}

// Set sets the CRPT client configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.Endpoint, err = dp.GetString(cfgKeyEndpoint); err != nil {
		return err
	}
	endpointURL, err := url.Parse(c.Endpoint)
	if err != nil {
		return dp.WrapKeyErr(cfgKeyEndpoint, err)
	}
	if (endpointURL.Scheme != "http" && endpointURL.Scheme != "https") || endpointURL.Host == "" {
		return dp.WrapKeyErr(cfgKeyEndpoint, fmt.Errorf("must be an absolute http(s) URL"))
	}

	if c.RateLimit.Window, err = dp.GetDuration(cfgKeyRateLimitWindow); err != nil {
		return err
	}
	if c.RateLimit.Limit, err = dp.GetInt(cfgKeyRateLimitLimit); err != nil {
		return err
	}
	if err = c.RateLimit.Validate(); err != nil {
		key := cfgKeyRateLimitLimit
		if c.RateLimit.Limit > 0 {
			key = cfgKeyRateLimitWindow
		}
		return dp.WrapKeyErr(key, err)
	}

	if c.HTTPClient == nil {
		c.HTTPClient = httpclient.NewConfig()
	}
	return c.HTTPClient.Set(c.httpClientDataProvider(dp))
}
