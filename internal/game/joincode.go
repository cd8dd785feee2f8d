package game

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
)

const (
	JoinCodeLength   = 6
	joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// NewJoinCode returns a random 6 character code without easily confused
// characters (no I, O, 0 or 1). It panics if the system random source fails,
// as crypto/rand itself does.
func NewJoinCode() string {
	code, err := joinCodeFrom(rand.Reader)
	if err != nil {
		panic(err)
	}
	return code
}

// joinCodeFrom draws a code from r. The alphabet has 32 symbols, so taking a
// byte modulo its length is unbiased.
func joinCodeFrom(r io.Reader) (string, error) {
	buf := make([]byte, JoinCodeLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("join code: read random bytes: %w", err)
	}
	for i := range buf {
		buf[i] = joinCodeAlphabet[int(buf[i])%len(joinCodeAlphabet)]
	}
	return string(buf), nil
}

// NormalizeJoinCode upper-cases and trims user input.
func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidJoinCode reports whether code, already normalized, could have been
// issued by NewJoinCode.
func ValidJoinCode(code string) bool {
	if len(code) != JoinCodeLength {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(joinCodeAlphabet, r) {
			return false
		}
	}
	return true
}
