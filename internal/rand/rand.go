// Package rand generates request IDs for the Central RPC protocol.
package rand

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var charsetLen = len(charset)

var pool = newSource()

type source struct {
	mut sync.Mutex
	rng *rand.Rand
}

func newSource() *source {
	var seed [16]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		panic("unreachable")
	}
	return &source{
		//nolint:gosec // request IDs are correlation tokens, not secrets
		rng: rand.New(rand.NewPCG(
			binary.LittleEndian.Uint64(seed[:8]),
			binary.LittleEndian.Uint64(seed[8:]),
		)),
	}
}

// RequestID returns a random identifier of the given length used to
// correlate an RPC response with its request.
func RequestID(length int) string {
	buf := make([]byte, length)

	pool.mut.Lock()
	for i := range buf {
		buf[i] = charset[pool.rng.IntN(charsetLen)]
	}
	pool.mut.Unlock()

	return string(buf)
}
