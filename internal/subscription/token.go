package subscription

import (
	"crypto/rand"
	"fmt"
)

// TokenLength is the fixed length of a confirmation token.
const TokenLength = 25

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateToken returns a confirmation token: TokenLength characters drawn
// uniformly from [A-Za-z0-9] via crypto/rand. Rejection sampling keeps the
// distribution uniform; 248 is the largest multiple of len(tokenAlphabet)
// that fits in a byte.
//
// Randomness exhaustion is not a recoverable condition, so this panics
// instead of returning an error.
func GenerateToken() string {
	const limit = 248

	out := make([]byte, 0, TokenLength)
	buf := make([]byte, 32)
	for len(out) < TokenLength {
		if _, err := rand.Read(buf); err != nil {
			panic(fmt.Sprintf("subscription: crypto/rand unavailable: %v", err))
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == TokenLength {
				break
			}
		}
	}
	return string(out)
}
