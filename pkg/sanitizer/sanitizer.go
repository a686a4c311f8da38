// Package sanitizer provides input normalization for catalog data.
//
// All functions are idempotent and handle invalid input by returning empty
// values rather than errors. Normalization runs before validation so that
// validators see canonical input.
package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var reVoucherCode = regexp.MustCompile(`[^A-Z0-9_-]+`)

// SanitizeVoucherCode uppercases and strips everything outside [A-Z0-9_-].
// "summer 24!" becomes "SUMMER24".
func SanitizeVoucherCode(input string) string {
	p := Pipeline{
		strings.TrimSpace,
		strings.ToUpper,
		func(s string) string { return reVoucherCode.ReplaceAllString(s, "") },
	}
	return p.Apply(input)
}

// SanitizeTitle collapses whitespace runs and trims the result.
func SanitizeTitle(input string) string {
	return collapseWhitespace(input)
}

// SanitizeDescription collapses whitespace runs and trims the result.
func SanitizeDescription(input string) string {
	return collapseWhitespace(input)
}

// SanitizeSlice applies a strategy to every element, dropping empties and
// duplicates while preserving first-seen order.
func SanitizeSlice(values []string, strategy Strategy) []string {
	seen := make(map[string]struct{})
	out := []string{}

	for _, v := range values {
		s := strategy(v)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out
}

func collapseWhitespace(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}
