package rand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDLength(t *testing.T) {
	for _, n := range []int{1, 16, 64} {
		require.Len(t, RequestID(n), n)
	}
}

func TestRequestIDCharset(t *testing.T) {
	id := RequestID(256)
	for _, c := range id {
		assert.Contains(t, charset, string(c))
	}
}

func TestRequestIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id := RequestID(16)
		require.False(t, seen[id], "duplicate request id %q", id)
		seen[id] = true
	}
}
