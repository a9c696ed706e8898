/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"io"
)

// Loader fills configuration objects from a DataProvider.
// Defaults of all objects are registered first, so a value in one source overrides the default of any object.
type Loader struct {
	DataProvider DataProvider
}

// NewDefaultLoader creates a viper-backed Loader that also reads environment variables with the given prefix.
func NewDefaultLoader(envVarsPrefix string) *Loader {
	va := NewViperAdapter()
	va.UseEnvVars(envVarsPrefix)
	return NewLoader(va)
}

// NewLoader creates a new Loader.
func NewLoader(dp DataProvider) *Loader {
	return &Loader{DataProvider: dp}
}

// LoadFromFile reads the file and fills the configuration objects.
func (l *Loader) LoadFromFile(path string, dataType DataType, cfg Config, cfgs ...Config) error {
	if err := l.DataProvider.SetFromFile(path, dataType); err != nil {
		return err
	}
	return l.LoadDefaults(cfg, cfgs...)
}

// LoadFromFileOrDefaults is LoadFromFile when path is set and LoadDefaults otherwise.
func (l *Loader) LoadFromFileOrDefaults(path string, dataType DataType, cfg Config, cfgs ...Config) error {
	if path == "" {
		return l.LoadDefaults(cfg, cfgs...)
	}
	return l.LoadFromFile(path, dataType, cfg, cfgs...)
}

// LoadFromReader reads the data and fills the configuration objects.
func (l *Loader) LoadFromReader(reader io.Reader, dataType DataType, cfg Config, cfgs ...Config) error {
	if err := l.DataProvider.SetFromReader(reader, dataType); err != nil {
		return err
	}
	return l.LoadDefaults(cfg, cfgs...)
}

// LoadDefaults fills the configuration objects using defaults and environment variables only.
func (l *Loader) LoadDefaults(cfg Config, cfgs ...Config) error {
	all := append(Sections{cfg}, cfgs...)
	all.SetProviderDefaults(l.DataProvider)
	return all.Set(l.DataProvider)
}
