package ledger

import (
	"net/url"
	"regexp"
	"time"
)

// Hex field widths used throughout the chain (in hex characters,
// two per byte): 32-byte hashes/public keys/seeds and 64-byte signatures.
const (
	HashHexLen = 64
	SigHexLen  = 128
)

var hexRe = regexp.MustCompile(`^[0-9a-fA-F]*$`)

// checkHex accepts any string made of hex characters. Input is
// case-insensitive; callers canonicalize to lowercase before hashing.
func checkHex(field, s string) error {
	if !hexRe.MatchString(s) {
		return rejectf(field, "must contain only hex characters")
	}
	return nil
}

// checkHexN enforces hex content plus an exact character length.
func checkHexN(field, s string, hexLen int) error {
	if err := checkHex(field, s); err != nil {
		return err
	}
	if len(s) != hexLen {
		return rejectf(field, "expected %d hex chars, got %d", hexLen, len(s))
	}
	return nil
}

// checkTimestamp requires an RFC3339 date-time, which always carries an
// explicit UTC offset ("Z" or "+HH:MM"/"-HH:MM"). Bare local times fail.
func checkTimestamp(field, s string) error {
	if s == "" {
		return rejectf(field, "timestamp is required")
	}
	if _, err := time.Parse(time.RFC3339, s); err != nil {
		return rejectf(field, "must be an RFC3339 timestamp with UTC offset")
	}
	return nil
}

// checkURL requires an absolute URL with scheme and host. The scheme is
// not restricted: node endpoints are typically ws:// or wss://.
func checkURL(field, s string) error {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return rejectf(field, "must be an absolute URL with scheme and host")
	}
	return nil
}

// checkNonEmpty rejects empty-string identifiers.
func checkNonEmpty(field, s string) error {
	if s == "" {
		return rejectf(field, "must not be empty")
	}
	return nil
}
