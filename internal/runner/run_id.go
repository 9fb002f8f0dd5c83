package runner

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// Run IDs name run directories: a UTC second timestamp for sortability
// plus a short random suffix so two runs started in the same second never
// collide.
const runIDSuffixBytes = 4

// NewRunID mints an ID like 20240312T151904Z-a1b2c3d4.
func NewRunID() (string, error) {
	return NewRunIDWithRand(time.Now().UTC(), rand.Reader)
}

// NewRunIDWithRand is NewRunID with the clock and entropy source exposed
// for tests.
func NewRunIDWithRand(now time.Time, r io.Reader) (string, error) {
	if r == nil {
		return "", fmt.Errorf("random reader is nil")
	}
	suffix := make([]byte, runIDSuffixBytes)
	if _, err := io.ReadFull(r, suffix); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return FormatRunID(now, hex.EncodeToString(suffix)), nil
}

// FormatRunID joins a timestamp and suffix into the run directory name.
func FormatRunID(now time.Time, suffix string) string {
	return now.UTC().Format("20060102T150405Z") + "-" + suffix
}
