/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

import "github.com/ssgreg/logf"

// Field is a single key-value pair of a structured log entry.
type Field = logf.Field

// Field constructors.
var (
	Error    = logf.Error
	String   = logf.String
	Strings  = logf.Strings
	Bytes    = logf.Bytes
	Int      = logf.Int
	Int64    = logf.Int64
	Bool     = logf.Bool
	Duration = logf.Duration
	Time     = logf.Time
)

// secretVisiblePrefixLen is how many leading characters of a secret survive masking.
const secretVisiblePrefixLen = 4

// MaskSecret hides a secret (e.g. a document signature) so it can be logged.
// A short prefix is kept only for values long enough to stay unguessable.
func MaskSecret(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) <= secretVisiblePrefixLen*2:
		return "***"
	}
	return secret[:secretVisiblePrefixLen] + "***"
}

// Secret returns a string Field with the masked value.
func Secret(key, value string) Field {
	return String(key, MaskSecret(value))
}
