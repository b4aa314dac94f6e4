package verse

import (
	"strconv"
	"strings"
	"unicode"
)

// Normalize returns the canonical identifier for a record: the type prefix followed by a
// number, e.g. "v1", "c12", "p1".
//
// The number comes from the first source that yields one:
//  1. sourceID, lower-cased with whitespace removed
//  2. label, lower-cased ("Chorus 1" and "c1" both give 1)
//  3. order
//
// The type is authoritative: a label "c1" on a verse normalizes to "v1".
// When a label holds several digit runs, the first one wins ("v1 and 2" gives 1).
func Normalize(sourceID, label string, t Type, order int) string {
	prefix := t.Prefix()

	if sourceID != "" {
		id := strings.ToLower(stripSpace(sourceID))
		if isCanonical(id, prefix) {
			return id
		}
		if digits, ok := firstDigitRun(id); ok {
			return prefix + digits
		}
	}

	if label != "" {
		l := strings.ToLower(strings.TrimSpace(label))
		if isCanonical(l, prefix) {
			return l
		}
		if digits, ok := firstDigitRun(l); ok {
			return prefix + digits
		}
	}

	return prefix + strconv.Itoa(order)
}

// SplitID splits a canonical identifier into its type and number.
func SplitID(id string) (Type, int, bool) {
	if len(id) < 2 {
		return "", 0, false
	}
	t, ok := TypeFromPrefix(id[0])
	if !ok || !allDigits(id[1:]) {
		return "", 0, false
	}
	n, err := strconv.Atoi(id[1:])
	if err != nil {
		return "", 0, false
	}
	return t, n, true
}

// isCanonical reports whether s is prefix followed by one or more digits.
func isCanonical(s, prefix string) bool {
	rest, ok := strings.CutPrefix(s, prefix)
	return ok && rest != "" && allDigits(rest)
}

// firstDigitRun returns the first run of ASCII digits in s.
func firstDigitRun(s string) (string, bool) {
	start := -1
	for i := 0; i < len(s); i++ {
		isDigit := s[i] >= '0' && s[i] <= '9'
		if isDigit && start < 0 {
			start = i
		} else if !isDigit && start >= 0 {
			return s[start:i], true
		}
	}
	if start >= 0 {
		return s[start:], true
	}
	return "", false
}

// recordNumber returns the number a record names through its source ID or label.
func recordNumber(v Verse) (string, bool) {
	if v.SourceID != "" {
		if digits, ok := firstDigitRun(stripSpace(v.SourceID)); ok {
			return digits, true
		}
	}
	if v.Label != "" {
		return firstDigitRun(v.Label)
	}
	return "", false
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
