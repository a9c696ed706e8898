/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"fmt"
	"time"

	"github.com/acronis/go-docgate/config"
	"github.com/acronis/go-docgate/crpt"
	"github.com/acronis/go-docgate/httpserver"
	"github.com/acronis/go-docgate/log"
	"github.com/acronis/go-docgate/profserver"
)

const (
	cfgKeyStatsInterval = "stats.interval"

	defaultStatsInterval = time.Minute
)

// AppConfig is the configuration of the docgate service.
type AppConfig struct {
	Log        *log.Config
	Server     *httpserver.Config
	ProfServer *profserver.Config
	CRPT       *crpt.Config
	Stats      *StatsConfig
}

var _ config.Config = (*AppConfig)(nil)

// NewAppConfig creates a new instance of the AppConfig.
func NewAppConfig() *AppConfig {
	return &AppConfig{
		Log:        log.NewConfig(),
		Server:     httpserver.NewConfig(),
		ProfServer: profserver.NewConfig(),
		CRPT:       crpt.NewConfig(),
		Stats:      &StatsConfig{},
	}
}

func (c *AppConfig) sections() config.Sections {
	return config.Sections{c.Log, c.Server, c.ProfServer, c.CRPT, c.Stats}
}

// SetProviderDefaults sets default values of all sections.
func (c *AppConfig) SetProviderDefaults(dp config.DataProvider) {
	c.sections().SetProviderDefaults(dp)
}

// Set sets values of all sections.
func (c *AppConfig) Set(dp config.DataProvider) error {
	return c.sections().Set(dp)
}

// StatsConfig configures periodic logging of the limiter state.
type StatsConfig struct {
	// Interval between two log records. Zero disables the stats logging.
	Interval time.Duration
}

// SetProviderDefaults sets default values for StatsConfig.
func (c *StatsConfig) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyStatsInterval, defaultStatsInterval.String())
}

// Set sets StatsConfig values from config.DataProvider.
func (c *StatsConfig) Set(dp config.DataProvider) error {
	var err error
	if c.Interval, err = dp.GetDuration(cfgKeyStatsInterval); err != nil {
		return err
	}
	if c.Interval < 0 {
		return dp.WrapKeyErr(cfgKeyStatsInterval, fmt.Errorf("cannot be negative"))
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	cfg := NewAppConfig()
	return cfg, config.NewDefaultLoader(envVarsPrefix).LoadFromFileOrDefaults(path, config.DataTypeYAML, cfg)
}
