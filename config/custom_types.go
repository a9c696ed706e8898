/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"gopkg.in/yaml.v3"
)

// BytesCount is a size in bytes. It's decoded from plain numbers or bytefmt strings ("512K", "250M")
// and encoded as a bytefmt string.
type BytesCount uint64

// ParseBytesCount parses a number of bytes or a bytefmt string.
func ParseBytesCount(s string) (BytesCount, error) {
	if num, err := strconv.ParseInt(s, 10, 64); err == nil {
		if num < 0 {
			return 0, fmt.Errorf("negative value is not allowed: %d", num)
		}
		return BytesCount(num), nil
	}
	num, err := bytefmt.ToBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid bytes format: %s", s)
	}
	return BytesCount(num), nil
}

func (b *BytesCount) set(s string) error {
	v, err := ParseBytesCount(s)
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *BytesCount) UnmarshalJSON(data []byte) error {
	return b.set(unquote(data))
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *BytesCount) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("invalid bytes format: %v", value.Value)
	}
	return b.set(value.Value)
}

// UnmarshalText implements encoding.TextUnmarshaler, so mapstructure decodes BytesCount from strings.
func (b *BytesCount) UnmarshalText(text []byte) error {
	return b.set(string(text))
}

func (b BytesCount) String() string {
	return bytefmt.ByteSize(uint64(b))
}

// MarshalJSON implements json.Marshaler.
func (b BytesCount) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// MarshalYAML implements yaml.Marshaler.
func (b BytesCount) MarshalYAML() (interface{}, error) {
	return b.String(), nil
}

// MarshalText implements encoding.TextMarshaler.
func (b BytesCount) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// TimeDuration is a time.Duration decoded from Go duration strings ("1m30s") or integer nanoseconds
// and encoded as a Go duration string.
type TimeDuration time.Duration

func (d *TimeDuration) set(s string) error {
	if ns, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = TimeDuration(ns)
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration format: %s", s)
	}
	*d = TimeDuration(dur)
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *TimeDuration) UnmarshalJSON(data []byte) error {
	return d.set(unquote(data))
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *TimeDuration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("invalid duration format: %v", value.Value)
	}
	return d.set(value.Value)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *TimeDuration) UnmarshalText(text []byte) error {
	return d.set(string(text))
}

func (d TimeDuration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON implements json.Marshaler.
func (d TimeDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// MarshalYAML implements yaml.Marshaler.
func (d TimeDuration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// MarshalText implements encoding.TextMarshaler.
func (d TimeDuration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func unquote(data []byte) string {
	return strings.Trim(string(data), `"`)
}
