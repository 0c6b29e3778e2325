// Package inputval holds small, dependency-free checks for user input.
package inputval

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the format of HTML date inputs.
const DateLayout = "2006-01-02"

// IsValidEmail reports whether s is a bare address (no display name) with a
// dot-atom local part and a domain of non-empty labels.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t<>\"(),;:") {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return false
	}
	return dotAtom(s[:at]) && dotAtom(s[at+1:]) && !strings.Contains(s[:at], "@")
}

func dotAtom(s string) bool {
	for _, label := range strings.Split(s, ".") {
		if label == "" {
			return false
		}
	}
	return true
}

// IsDigits reports whether s is non-empty and contains only ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// DigitsOnly strips every non-digit from s.
func DigitsOnly(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	return t, err == nil
}

// IsNumber reports whether s parses as a non-negative decimal number.
func IsNumber(s string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil && f >= 0
}
