package sanitizer

import (
	"regexp"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reNonLetterDigit = regexp.MustCompile(`[^0-9\p{L}]+`)
	reSpaces         = regexp.MustCompile(`\s+`)
)

func trimAndLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// NormalizeAddress prepares free-text addresses for whole-word matching.
func NormalizeAddress(input string) string {
	p := Pipeline{
		trimAndLower,
		func(s string) string { return reNonLetterDigit.ReplaceAllString(s, " ") },
		collapseSpaces,
	}
	return p.Apply(input)
}

func NormalizeName(input string) string {
	return collapseSpaces(input)
}

func NormalizeEmail(input string) string {
	return trimAndLower(input)
}

func NormalizeLanguage(input string) string {
	return collapseSpaces(trimAndLower(input))
}

// NameKey is the comparison form of a person or merchant name.
func NameKey(input string) string {
	return collapseSpaces(trimAndLower(input))
}
