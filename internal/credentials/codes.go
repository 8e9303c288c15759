// Package credentials generates invitation codes.
package credentials

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// CodeAlphabet is the set of characters an invitation code is drawn from
const CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeLength is the number of characters in an invitation code
const CodeLength = 8

// GenerateInvitationCode returns a random code of CodeLength characters
func GenerateInvitationCode() (string, error) {
	code := make([]byte, CodeLength)
	max := big.NewInt(int64(len(CodeAlphabet)))

	for i := range code {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = CodeAlphabet[num.Int64()]
	}

	return string(code), nil
}

// NormalizeCode uppercases and trims user input so codes are typed case-insensitively
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsWellFormed reports whether code could have been produced by GenerateInvitationCode
func IsWellFormed(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(CodeAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
