package ratelimiter

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/binary"
	"sync/atomic"
	"time"
)

// Crockford base32, the ULID alphabet.
const ulidAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var (
	ulidEncoding = base32.NewEncoding(ulidAlphabet).WithPadding(base32.NoPadding)
	ulidFallback uint64
)

// NewULID returns a lexically sortable id for LeaseID and JobID values:
// 48 bits of millisecond timestamp followed by 80 random bits.
func NewULID() string {
	var data [16]byte
	binary.BigEndian.PutUint64(data[:8], uint64(time.Now().UnixMilli())<<16)
	if _, err := rand.Read(data[6:]); err != nil {
		// Randomness unavailable; a process-local counter keeps ids unique
		// within this run.
		binary.BigEndian.PutUint64(data[8:], atomic.AddUint64(&ulidFallback, 1))
	}
	return ulidEncoding.EncodeToString(data[:])
}
