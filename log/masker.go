/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"fmt"
	"regexp"
	"strings"
)

const maskedValue = "***"

// replacement is a single compiled substitution.
type replacement struct {
	re   *regexp.Regexp
	with string
}

// fieldMask holds the substitutions of one masked field. They're applied only
// when the text contains the field name (case-insensitively).
type fieldMask struct {
	name         string // lowercase
	replacements []replacement
}

// Masker replaces values of secret fields in arbitrary text (log messages, dumped requests, error texts).
type Masker struct {
	fields []fieldMask
}

// DefaultMaskingRules hide the document signature wherever it may leak.
var DefaultMaskingRules = []MaskingRuleConfig{
	{Field: "Authorization", Formats: []FieldMaskFormat{FieldMaskFormatHTTPHeader, FieldMaskFormatJSON}},
	{Field: "signature", Formats: []FieldMaskFormat{FieldMaskFormatJSON, FieldMaskFormatURLEncoded}},
}

// NewMasker compiles the rules. It fails on an invalid custom regular expression.
func NewMasker(rules []MaskingRuleConfig) (*Masker, error) {
	m := &Masker{fields: make([]fieldMask, 0, len(rules))}
	for _, rule := range rules {
		fm := fieldMask{name: strings.ToLower(rule.Field)}
		quoted := regexp.QuoteMeta(rule.Field)
		for _, format := range rule.Formats {
			switch format {
			case FieldMaskFormatHTTPHeader:
				fm.replacements = append(fm.replacements, replacement{
					regexp.MustCompile(`(?i)` + quoted + `: [^\r\n]+`), rule.Field + ": " + maskedValue})
			case FieldMaskFormatJSON:
				fm.replacements = append(fm.replacements, replacement{
					regexp.MustCompile(`(?i)"` + quoted + `"\s*:\s*"(?:[^"\\]|\\.)*"`), `"` + rule.Field + `": "` + maskedValue + `"`})
			case FieldMaskFormatURLEncoded:
				fm.replacements = append(fm.replacements, replacement{
					regexp.MustCompile(`(?i)` + quoted + `\s*=\s*[^&\s]+`), rule.Field + "=" + maskedValue})
			}
		}
		for _, mask := range rule.Masks {
			re, err := regexp.Compile(mask.RegExp)
			if err != nil {
				return nil, fmt.Errorf("compile mask for field %q: %w", rule.Field, err)
			}
			fm.replacements = append(fm.replacements, replacement{re, mask.Mask})
		}
		m.fields = append(m.fields, fm)
	}
	return m, nil
}

// Mask returns s with all secret values replaced.
func (m *Masker) Mask(s string) string {
	var lower string
	for _, fm := range m.fields {
		if lower == "" {
			lower = strings.ToLower(s)
		}
		if !strings.Contains(lower, fm.name) {
			continue
		}
		for _, r := range fm.replacements {
			s = r.re.ReplaceAllString(s, r.with)
		}
		lower = ""
	}
	return s
}
