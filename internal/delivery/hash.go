package delivery

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// Identity is the raw customer data a checkout step may carry
type Identity struct {
	Email      string
	Phone      string
	FirstName  string
	LastName   string
	City       string
	State      string
	ZipCode    string
	Country    string
	ExternalID string
}

// HashedIdentity holds the SHA-256 match keys of an Identity
type HashedIdentity struct {
	Emails      []string
	Phones      []string
	FirstNames  []string
	LastNames   []string
	Cities      []string
	States      []string
	ZipCodes    []string
	Countries   []string
	ExternalIDs []string
}

// Hash normalizes and hashes every non-empty field. Values that already are
// SHA-256 hex digests are kept as they are.
func (id Identity) Hash() HashedIdentity {
	return HashedIdentity{
		Emails:      hashed(id.Email, normalizeText),
		Phones:      hashed(id.Phone, normalizeDigits),
		FirstNames:  hashed(id.FirstName, normalizeText),
		LastNames:   hashed(id.LastName, normalizeText),
		Cities:      hashed(id.City, normalizeCompact),
		States:      hashed(id.State, normalizeCompact),
		ZipCodes:    hashed(id.ZipCode, normalizeDigits),
		Countries:   hashed(id.Country, normalizeCompact),
		ExternalIDs: hashed(id.ExternalID, strings.TrimSpace),
	}
}

// HashValue returns the hex SHA-256 of an already normalized value
func HashValue(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}

// IsHashed reports whether v looks like a hex SHA-256 digest
func IsHashed(v string) bool {
	if len(v) != sha256.Size*2 {
		return false
	}
	for _, r := range v {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}

func hashed(v string, normalize func(string) string) []string {
	if IsHashed(v) {
		return []string{v}
	}
	n := normalize(v)
	if n == "" {
		return nil
	}
	return []string{HashValue(n)}
}

func normalizeText(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// normalizeCompact lower-cases and drops spaces, as the provider expects for city and state
func normalizeCompact(v string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, v)
}

func normalizeDigits(v string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, v)
}
