/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/ssgreg/logf"
)

// StringMasker masks secrets in text.
type StringMasker interface {
	Mask(s string) string
}

// MaskingLogger masks secrets in messages and in string, bytes, error and string slice fields
// before passing them to the underlying logger. Other field types are passed as is.
type MaskingLogger struct {
	log    FieldLogger
	masker StringMasker
}

var _ FieldLogger = MaskingLogger{}

// NewMaskingLogger wraps l.
func NewMaskingLogger(l FieldLogger, masker StringMasker) FieldLogger {
	return MaskingLogger{log: l, masker: masker}
}

// With returns a logger with fs (masked) added to every entry.
func (l MaskingLogger) With(fs ...Field) FieldLogger {
	return MaskingLogger{log: l.log.With(l.maskFields(fs)...), masker: l.masker}
}

// Debug logs at "debug" level.
func (l MaskingLogger) Debug(msg string, fs ...Field) {
	l.log.Debug(l.masker.Mask(msg), l.maskFields(fs)...)
}

// Info logs at "info" level.
func (l MaskingLogger) Info(msg string, fs ...Field) {
	l.log.Info(l.masker.Mask(msg), l.maskFields(fs)...)
}

// Warn logs at "warn" level.
func (l MaskingLogger) Warn(msg string, fs ...Field) {
	l.log.Warn(l.masker.Mask(msg), l.maskFields(fs)...)
}

// Error logs at "error" level.
func (l MaskingLogger) Error(msg string, fs ...Field) {
	l.log.Error(l.masker.Mask(msg), l.maskFields(fs)...)
}

// Debugf logs a formatted message at "debug" level.
func (l MaskingLogger) Debugf(format string, args ...interface{}) {
	l.Debug(fmt.Sprintf(format, args...))
}

// Infof logs a formatted message at "info" level.
func (l MaskingLogger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// Warnf logs a formatted message at "warn" level.
func (l MaskingLogger) Warnf(format string, args ...interface{}) {
	l.Warn(fmt.Sprintf(format, args...))
}

// Errorf logs a formatted message at "error" level.
func (l MaskingLogger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// AtLevel calls fn with a masking LogFunc if the level is enabled.
func (l MaskingLogger) AtLevel(level Level, fn func(logFunc LogFunc)) {
	l.log.AtLevel(level, func(logFunc LogFunc) {
		fn(func(msg string, fs ...Field) {
			logFunc(l.masker.Mask(msg), l.maskFields(fs)...)
		})
	})
}

// WithLevel returns a logger that additionally drops entries below level.
func (l MaskingLogger) WithLevel(level Level) FieldLogger {
	return MaskingLogger{log: l.log.WithLevel(level), masker: l.masker}
}

var stringSliceType = reflect.TypeOf([]string(nil))

// maskFields returns fs itself when nothing has been masked.
func (l MaskingLogger) maskFields(fs []Field) []Field {
	var res []Field
	for i := range fs {
		masked, changed := l.maskField(fs[i])
		if !changed {
			continue
		}
		if res == nil {
			res = make([]Field, len(fs))
			copy(res, fs)
		}
		res[i] = masked
	}
	if res == nil {
		return fs
	}
	return res
}

func (l MaskingLogger) maskField(f Field) (Field, bool) {
	switch f.Type {
	case logf.FieldTypeBytesToString:
		if s := string(f.Bytes); l.masker.Mask(s) != s {
			return String(f.Key, l.masker.Mask(s)), true
		}
	case logf.FieldTypeBytes, logf.FieldTypeRawBytes:
		if s := string(f.Bytes); f.Bytes != nil && l.masker.Mask(s) != s {
			return logf.ConstBytes(f.Key, []byte(l.masker.Mask(s))), true
		}
	case logf.FieldTypeError:
		if err, ok := f.Any.(error); ok && err != nil {
			if s := err.Error(); l.masker.Mask(s) != s {
				return logf.NamedError(f.Key, errors.New(l.masker.Mask(s))), true
			}
		}
	case logf.FieldTypeArray:
		// logf keeps string slices as a named slice type.
		if v := reflect.ValueOf(f.Any); f.Any != nil && v.CanConvert(stringSliceType) {
			ss := v.Convert(stringSliceType).Interface().([]string)
			masked := make([]string, len(ss))
			changed := false
			for i, s := range ss {
				masked[i] = l.masker.Mask(s)
				changed = changed || masked[i] != s
			}
			if changed {
				return Strings(f.Key, masked), true
			}
		}
	}
	return f, false
}
