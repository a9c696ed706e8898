/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// ViperAdapter is a DataProvider backed by spf13/viper. Values are converted with spf13/cast.
type ViperAdapter struct {
	viper *viper.Viper
}

var _ DataProvider = (*ViperAdapter)(nil)

// NewViperAdapter creates a new ViperAdapter with its own viper instance.
func NewViperAdapter() *ViperAdapter {
	return &ViperAdapter{viper.New()}
}

// UseEnvVars makes environment variables override any other source.
// With the "docgate" prefix, "crpt.rateLimit.limit" is read from DOCGATE_CRPT_RATELIMIT_LIMIT.
func (va *ViperAdapter) UseEnvVars(prefix string) {
	va.viper.AutomaticEnv()
	va.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	va.viper.SetEnvPrefix(prefix)
}

// SetFromFile reads configuration data from the file.
func (va *ViperAdapter) SetFromFile(path string, dataType DataType) error {
	va.viper.SetConfigType(string(dataType))
	va.viper.SetConfigFile(path)
	return va.viper.ReadInConfig()
}

// SetFromReader reads configuration data from the reader.
func (va *ViperAdapter) SetFromReader(reader io.Reader, dataType DataType) error {
	va.viper.SetConfigType(string(dataType))
	return va.viper.ReadConfig(reader)
}

// Set overrides the value of the key.
func (va *ViperAdapter) Set(key string, value interface{}) {
	va.viper.Set(key, value)
}

// SetDefault sets the value used when no source provides the key.
func (va *ViperAdapter) SetDefault(key string, value interface{}) {
	va.viper.SetDefault(key, value)
}

// IsSet reports whether any source (defaults included) provides the key.
func (va *ViperAdapter) IsSet(key string) bool {
	return va.viper.IsSet(key)
}

// Get returns the raw value of the key.
func (va *ViperAdapter) Get(key string) interface{} {
	return va.viper.Get(key)
}

// castKey converts the value of the key. A missing key yields the zero value when skipNil is true.
func castKey[T any](va *ViperAdapter, key string, skipNil bool, conv func(interface{}) (T, error)) (T, error) {
	val := va.Get(key)
	if val == nil && skipNil {
		var zero T
		return zero, nil
	}
	res, err := conv(val)
	return res, WrapKeyErr(key, err)
}

// GetBool returns the value of the key as a bool.
func (va *ViperAdapter) GetBool(key string) (bool, error) {
	return castKey(va, key, false, cast.ToBoolE)
}

// GetInt returns the value of the key as an int.
func (va *ViperAdapter) GetInt(key string) (int, error) {
	return castKey(va, key, false, cast.ToIntE)
}

// GetString returns the value of the key as a string.
func (va *ViperAdapter) GetString(key string) (string, error) {
	return castKey(va, key, false, cast.ToStringE)
}

// GetStringSlice returns the value of the key as a slice of strings. A missing key yields nil.
func (va *ViperAdapter) GetStringSlice(key string) ([]string, error) {
	return castKey(va, key, true, cast.ToStringSliceE)
}

// GetDuration returns the value of the key as a time.Duration. A missing key yields 0.
func (va *ViperAdapter) GetDuration(key string) (time.Duration, error) {
	return castKey(va, key, true, cast.ToDurationE)
}

// GetStringFromSet returns the value of the key if it's one of set.
func (va *ViperAdapter) GetStringFromSet(key string, set []string, ignoreCase bool) (string, error) {
	str, err := va.GetString(key)
	if err != nil {
		return "", err
	}
	for _, s := range set {
		if str == s || (ignoreCase && strings.EqualFold(str, s)) {
			return str, nil
		}
	}
	return "", WrapKeyErr(key, fmt.Errorf("unknown value %q, should be one of %v", str, set))
}

// GetBytesCount returns the value of the key as a size in bytes.
// Strings are parsed with ParseBytesCount, numbers are taken as is.
func (va *ViperAdapter) GetBytesCount(key string) (BytesCount, error) {
	return castKey(va, key, true, func(val interface{}) (BytesCount, error) {
		switch v := val.(type) {
		case BytesCount:
			return v, nil
		case string:
			return ParseBytesCount(v)
		case int, int8, int16, int32, int64:
			num := cast.ToInt64(v)
			if num < 0 {
				return 0, fmt.Errorf("negative value is not allowed: %d", num)
			}
			return BytesCount(num), nil
		case uint, uint8, uint16, uint32, uint64:
			return BytesCount(cast.ToUint64(v)), nil
		case float32, float64:
			return BytesCount(uint64(cast.ToFloat64(v))), nil
		}
		return 0, fmt.Errorf("unsupported type for BytesCount: %T", val)
	})
}

// UnmarshalKey decodes the subtree of the key into rawVal with mapstructure.
// Types implementing encoding.TextUnmarshaler (TimeDuration, BytesCount) are decoded from strings.
func (va *ViperAdapter) UnmarshalKey(key string, rawVal interface{}, opts ...DecoderConfigOption) error {
	options := []viper.DecoderConfigOption{viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))}
	for _, opt := range opts {
		options = append(options, viper.DecoderConfigOption(opt))
	}
	return WrapKeyErr(key, va.viper.UnmarshalKey(key, rawVal, options...))
}

// WrapKeyErr prefixes err with the key.
func (va *ViperAdapter) WrapKeyErr(key string, err error) error {
	return WrapKeyErr(key, err)
}
