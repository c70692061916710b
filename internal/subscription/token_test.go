package subscription

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateTokenShape(t *testing.T) {
	for i := 0; i < 100; i++ {
		token := GenerateToken()
		assert.Len(t, token, TokenLength)
		for _, r := range token {
			assert.True(t, strings.ContainsRune(tokenAlphabet, r),
				"token %q contains %q outside the alphabet", token, r)
		}
	}
}

func TestGenerateTokenUniqueness(t *testing.T) {
	const n = 10_000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		token := GenerateToken()
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token after %d generations: %s", i, token)
		}
		seen[token] = struct{}{}
	}
}
