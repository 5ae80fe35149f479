// Package entropy provides the deterministic random sources the simulation
// draws from. Replaying a city from the same seeds reproduces every roll.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"log/slog"
)

// DefaultFastSeed is the fast generator's state before seeding.
const DefaultFastSeed uint32 = 0x12345678

// Source holds two xorshift generators: a 32-bit "fast" one used for
// cosmetic jitter and a 64-bit "slow" one that every simulation roll uses.
type Source struct {
	fast uint32
	slow uint64
}

// New returns a source seeded with the given states. Zero states are
// replaced because xorshift never leaves zero.
func New(fast uint32, slow uint64) *Source {
	s := &Source{}
	s.SetFastSeed(fast)
	s.SetSlowSeed(slow)
	return s
}

// NewSeeded returns a source seeded from crypto/rand, for fresh cities.
func NewSeeded() *Source {
	var buf [12]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen; fall back to the fixed seeds.
		slog.Warn("crypto seed unavailable, using defaults", "error", err)
		return New(DefaultFastSeed, uint64(DefaultFastSeed))
	}
	return New(binary.LittleEndian.Uint32(buf[:4]), binary.LittleEndian.Uint64(buf[4:]))
}

// Fast advances the 32-bit generator (shifts 13, 17, 5).
func (s *Source) Fast() uint32 {
	x := s.fast
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	s.fast = x
	return x
}

// Slow advances the 64-bit generator (shifts 13, 7, 17) and returns its
// high 32 bits.
func (s *Source) Slow() uint32 {
	x := s.slow
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	s.slow = x
	return uint32(x >> 32)
}

// Byte returns the low byte of a slow draw.
func (s *Source) Byte() uint8 {
	return uint8(s.Slow())
}

func (s *Source) FastSeed() uint32 { return s.fast }

// SlowSeed returns the slow generator's state.
func (s *Source) SlowSeed() uint64 { return s.slow }

func (s *Source) SetFastSeed(v uint32) {
	if v == 0 {
		v = DefaultFastSeed
	}
	s.fast = v
}

func (s *Source) SetSlowSeed(v uint64) {
	if v == 0 {
		v = uint64(DefaultFastSeed)
	}
	s.slow = v
}
