package generator_test

import (
	"strings"
	"testing"

	"communityboard/pkg/generator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandomID(t *testing.T) {
	for _, length := range []int{1, 24, 100} {
		id, err := generator.GenerateRandomID(length)
		require.NoError(t, err)
		assert.Len(t, id, length)
		assert.Empty(t, strings.Trim(id, "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"))
	}
}

func TestNewSessionTokenUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		token, err := generator.NewSessionToken()
		require.NoError(t, err)
		assert.Len(t, token, generator.SessionTokenLength)

		_, dup := seen[token]
		assert.False(t, dup)
		seen[token] = struct{}{}
	}
}
