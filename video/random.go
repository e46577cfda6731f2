package video

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// Rand is a xorshift64 generator. One instance is derived per effect per
// frame, so a frame replays identically for the same seed and index.
type Rand struct {
	state uint64
}

// NewRand creates a generator. A zero seed is replaced with 1.
func NewRand(seed uint64) *Rand {
	if seed == 0 {
		seed = 1
	}
	return &Rand{state: seed}
}

// Next returns the next 64-bit value.
func (r *Rand) Next() uint64 {
	r.state ^= r.state << 13
	r.state ^= r.state >> 7
	r.state ^= r.state << 17
	return r.state
}

// Float64 returns a value in [0, 1).
func (r *Rand) Float64() float64 {
	return float64(r.Next()>>11) / (1 << 53)
}

// Range returns a value in [0, n). Non-positive n returns 0.
func (r *Rand) Range(n float64) float64 {
	if n <= 0 {
		return 0
	}
	return r.Float64() * n
}

// Signed returns a value in [-n, n).
func (r *Rand) Signed(n float64) float64 {
	return (r.Float64()*2 - 1) * n
}

// Intn returns a value in [0, n). Non-positive n returns 0.
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Next() % uint64(n))
}

// Chance reports true with probability p.
func (r *Rand) Chance(p float64) bool {
	return r.Float64() < p
}

// DeriveSeed mixes a session seed, a frame index and a salt into a 64-bit seed
// using BLAKE2b, giving every effect an independent stream per frame.
func DeriveSeed(session, frame uint64, salt string) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], session)
	binary.LittleEndian.PutUint64(buf[8:16], frame)

	sum := blake2b.Sum256(append(buf[:], salt...))

	seed := binary.LittleEndian.Uint64(sum[:8])
	if seed == 0 {
		seed = 1
	}
	return seed
}

// Hash returns a well-mixed 32-bit hash of a coordinate pair and a salt.
// Used where an artifact must be stable for a row or a pixel within a frame.
func Hash(x, y int, salt uint32) uint32 {
	h := uint32(x)*0x9E3779B1 ^ uint32(y)*0x85EBCA77 ^ salt*0xC2B2AE3D
	h ^= h >> 16
	h *= 0x7FEB352D
	h ^= h >> 15
	h *= 0x846CA68B
	h ^= h >> 16
	return h
}

// HashUnit maps Hash into [0, 1).
func HashUnit(x, y int, salt uint32) float64 {
	return float64(Hash(x, y, salt)) / (1 << 32)
}
