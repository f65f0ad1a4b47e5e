// Package address parses and validates peermail addresses of the form
// "<numeric-id>*<domain>" and the small value formats exchanged between
// servers (pass codes, hex secrets).
package address

import (
	"errors"
	"regexp"
	"strings"
)

// Separator splits the local id from the domain.
const Separator = "*"

var (
	ErrMalformed     = errors.New("malformed address")
	ErrInvalidID     = errors.New("invalid address id")
	ErrInvalidDomain = errors.New("invalid address domain")
)

var (
	idPattern     = regexp.MustCompile(`^\d+$`)
	domainPattern = regexp.MustCompile(`^[A-Za-z0-9.\-]+$`)
	hexPattern    = regexp.MustCompile(`^[0-9a-f]+$`)
)

// Address is a parsed "<id>*<domain>" value.
type Address struct {
	ID     string
	Domain string
}

// Parse splits s into id and domain. Exactly one separator is allowed.
func Parse(s string) (Address, error) {
	if strings.Count(s, Separator) != 1 {
		return Address{}, ErrMalformed
	}
	id, domain, _ := strings.Cut(s, Separator)
	if !IsNumeric(id) {
		return Address{}, ErrInvalidID
	}
	if !IsDomain(domain) {
		return Address{}, ErrInvalidDomain
	}
	return Address{ID: id, Domain: domain}, nil
}

// New builds an address from a local id and a domain, validating both.
func New(id, domain string) (Address, error) {
	return Parse(id + Separator + domain)
}

func (a Address) String() string {
	return a.ID + Separator + a.Domain
}

// IsNumeric reports whether s is a non-empty run of ASCII digits.
func IsNumeric(s string) bool {
	return idPattern.MatchString(s)
}

// IsDomain reports whether s matches the domain grammar.
func IsDomain(s string) bool {
	return domainPattern.MatchString(s)
}

// IsHex reports whether s is non-empty lowercase hex of exactly n bytes
// when n > 0, or of any even length when n == 0.
func IsHex(s string, n int) bool {
	if !hexPattern.MatchString(s) || len(s)%2 != 0 {
		return false
	}
	return n == 0 || len(s) == 2*n
}
