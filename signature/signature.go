// Package signature parses and matches wildcard byte signatures such as
// "44 89 77 ? F3".
package signature

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrEmptyPattern is returned when a signature string has no tokens.
	ErrEmptyPattern = errors.New("empty pattern")

	// ErrMalformedToken is returned for a token that is neither two hex digits nor a wildcard.
	ErrMalformedToken = errors.New("malformed token")

	// ErrWildcardNotAllowed is returned by ParseBytes when the input contains a wildcard.
	ErrWildcardNotAllowed = errors.New("wildcard not allowed")
)

// Token matches a single byte: either an exact value or any value.
type Token struct {
	Value    byte
	Wildcard bool
}

// Exact returns a token matching only v.
func Exact(v byte) Token {
	return Token{Value: v}
}

// Any returns a wildcard token.
func Any() Token {
	return Token{Wildcard: true}
}

// Matches reports whether b satisfies the token.
func (t Token) Matches(b byte) bool {
	return t.Wildcard || t.Value == b
}

func (t Token) String() string {
	if t.Wildcard {
		return "?"
	}
	return fmt.Sprintf("%02X", t.Value)
}

// Pattern is an ordered sequence of tokens.
type Pattern []Token

// FromBytes builds an exact pattern from raw bytes.
func FromBytes(b []byte) Pattern {
	p := make(Pattern, len(b))
	for i, v := range b {
		p[i] = Exact(v)
	}
	return p
}

// Match reports whether every non-wildcard token equals the corresponding
// byte of window. window may be longer than the pattern.
func (p Pattern) Match(window []byte) bool {
	if len(window) < len(p) {
		return false
	}
	for i, t := range p {
		if !t.Matches(window[i]) {
			return false
		}
	}
	return true
}

// HasWildcard reports whether any token is a wildcard.
func (p Pattern) HasWildcard() bool {
	for _, t := range p {
		if t.Wildcard {
			return true
		}
	}
	return false
}

func (p Pattern) String() string {
	var sb strings.Builder
	for i, t := range p {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.String())
	}
	return sb.String()
}

// Parse converts space separated hex tokens into a Pattern. "?" and "??"
// are wildcards; every other token must be exactly two hex digits.
func Parse(s string) (Pattern, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, ErrEmptyPattern
	}

	pattern := make(Pattern, 0, len(fields))
	for i, field := range fields {
		if field == "?" || field == "??" {
			pattern = append(pattern, Any())
			continue
		}

		if len(field) != 2 {
			return nil, fmt.Errorf("%w %q at index %d", ErrMalformedToken, field, i)
		}

		val, err := strconv.ParseUint(field, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("%w %q at index %d", ErrMalformedToken, field, i)
		}
		pattern = append(pattern, Exact(byte(val)))
	}

	return pattern, nil
}

// MustParse is like Parse but panics on error. Intended for static tables.
func MustParse(s string) Pattern {
	p, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("signature: %q: %v", s, err))
	}
	return p
}

// ParseBytes parses a replacement byte string. Same format as Parse but
// wildcards are rejected.
func ParseBytes(s string) ([]byte, error) {
	p, err := Parse(s)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(p))
	for i, t := range p {
		if t.Wildcard {
			return nil, fmt.Errorf("%w at index %d", ErrWildcardNotAllowed, i)
		}
		out[i] = t.Value
	}
	return out, nil
}
