// Package sanitize masks personal data before it is written to the interaction log.
package sanitize

import (
	"regexp"
	"unicode/utf8"
)

// MaxLength is the maximum number of characters kept for a logged text field.
const MaxLength = 500

// Masks substituted for detected values. They contain no digits and no '@'
// so a second pass never matches them again.
const (
	CardMask     = "[TARJETA]"
	EmailMask    = "[EMAIL]"
	PhoneMask    = "[TELEFONO]"
	RedactedMask = "[REDACTED]"
)

var (
	cardPattern  = regexp.MustCompile(`\b(?:\d{4}[\s-]?){3}\d{4}\b`)
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	// phonePattern only starts at the beginning of a digit run, so a run is
	// masked whole or not at all. Runs too long for it fall to digitRunPattern.
	phonePattern    = regexp.MustCompile(`(^|\D)(?:\+?\d{1,3}[\s.-]?)?\(?\d{2,4}\)?[\s.-]?\d{3,4}[\s.-]?\d{4}\b`)
	digitRunPattern = regexp.MustCompile(`\d{16,}`)

	sensitiveKey = regexp.MustCompile(`(?i)password|token|api_?key|secret|credential`)
)

// Text masks card numbers, emails, long digit runs and phone numbers, in that
// order, then truncates to MaxLength characters.
func Text(s string) string {
	if s == "" {
		return s
	}
	s = cardPattern.ReplaceAllString(s, CardMask)
	s = emailPattern.ReplaceAllString(s, EmailMask)
	s = digitRunPattern.ReplaceAllString(s, PhoneMask)
	s = phonePattern.ReplaceAllString(s, "${1}"+PhoneMask)
	return truncate(s, MaxLength)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// Metadata returns a copy of m with sensitive keys redacted and string values
// masked. Nested maps and slices are walked.
func Metadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if sensitiveKey.MatchString(k) {
			out[k] = RedactedMask
			continue
		}
		out[k] = value(v)
	}
	return out
}

func value(v any) any {
	switch tv := v.(type) {
	case string:
		return Text(tv)
	case map[string]any:
		return Metadata(tv)
	case map[string]string:
		m := make(map[string]any, len(tv))
		for k, s := range tv {
			m[k] = s
		}
		return Metadata(m)
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = value(e)
		}
		return out
	case []string:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = Text(e)
		}
		return out
	default:
		return v
	}
}
