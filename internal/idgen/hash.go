// Package idgen derives short record identifiers from record content.
package idgen

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// base36Alphabet is the character set for base36 encoding (0-9, a-z).
const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// DefaultLength is the hash length used by the local stores.
const DefaultLength = 8

// MaxNonce bounds how many candidates a store tries before giving up on a
// collision.
const MaxNonce = 16

// EncodeBase36 converts a byte slice to a base36 string of the given length,
// zero padded on the left and truncated to the least significant digits.
func EncodeBase36(data []byte, length int) string {
	num := new(big.Int).SetBytes(data)
	base := big.NewInt(36)
	zero := big.NewInt(0)
	mod := new(big.Int)

	chars := make([]byte, 0, length)
	for num.Cmp(zero) > 0 {
		num.DivMod(num, base, mod)
		chars = append(chars, base36Alphabet[mod.Int64()])
	}

	var result strings.Builder
	for i := len(chars) - 1; i >= 0; i-- {
		result.WriteByte(chars[i])
	}

	str := result.String()
	if len(str) < length {
		str = strings.Repeat("0", length-len(str)) + str
	}
	if len(str) > length {
		str = str[len(str)-length:]
	}
	return str
}

// GenerateHashID returns "<prefix>-<hash>" where hash is length base36
// characters of sha256(title, created, nonce). Callers bump nonce when the
// result is already taken. length is expected to be 3-12; other values
// fall back to 8.
func GenerateHashID(prefix, title string, created time.Time, length, nonce int) string {
	if length < 3 || length > 12 {
		length = DefaultLength
	}
	content := fmt.Sprintf("%s|%d|%d", title, created.UnixNano(), nonce)
	hash := sha256.Sum256([]byte(content))

	// A byte is about 1.55 base36 digits.
	numBytes := (length*31)/48 + 1

	return fmt.Sprintf("%s-%s", prefix, EncodeBase36(hash[:numBytes], length))
}
