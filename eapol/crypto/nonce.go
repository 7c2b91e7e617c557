package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// A NonceReader produces successive nonces from a randomly initialized key
// counter. IEEE Std 802.11-2016, 12.7.5.
type NonceReader struct {
	mu      sync.Mutex
	counter *big.Int
}

// NewNonceReader seeds a key counter from the station address, the current
// time and random data.
func NewNonceReader(addr [6]byte) (*NonceReader, error) {
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("failed to seed key counter: %w", err)
	}
	// The standard recommends an NTP timestamp; a wall clock one is used.
	data := binary.BigEndian.AppendUint64(addr[:], uint64(time.Now().UnixNano()))
	init := PRF(seed, "Init Counter", data, 256)
	return &NonceReader{counter: new(big.Int).SetBytes(init)}, nil
}

// Next returns a new nonce. Every nonce is the previous one plus one.
func (r *NonceReader) Next() [32]byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counter.Add(r.counter, big.NewInt(1))
	b := r.counter.Bytes()

	var nonce [32]byte
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(nonce[32-len(b):], b)
	return nonce
}
