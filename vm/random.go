package vm

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"

	"github.com/google/uuid"
)

// Random is the deterministic random source of one action invocation.
// Replaying the same transaction always yields the same sequence.
type Random struct {
	seed uint64
	rng  *rand.Rand
}

// NewRandom returns a generator seeded with seed.
func NewRandom(seed uint64) *Random {
	return &Random{seed: seed, rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// SeedFor derives the seed of the actionIndex-th action of a transaction.
func SeedFor(txID string, actionIndex int) uint64 {
	h := sha256.New()
	h.Write([]byte(txID))
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], uint64(actionIndex))
	h.Write(idx[:])
	return binary.BigEndian.Uint64(h.Sum(nil)[:8])
}

// Seed returns the seed the generator was created with.
func (r *Random) Seed() uint64 { return r.seed }

// Next returns a uniform integer in [lo, hi). It returns lo when the range
// is empty.
func (r *Random) Next(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.rng.IntN(hi-lo)
}

// Read fills p with pseudo-random bytes. It never fails.
func (r *Random) Read(p []byte) (int, error) {
	var buf [8]byte
	for i := 0; i < len(p); i += 8 {
		binary.LittleEndian.PutUint64(buf[:], r.rng.Uint64())
		copy(p[i:], buf[:])
	}
	return len(p), nil
}

// UUID draws a version 4 UUID from the generator.
func (r *Random) UUID() string {
	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		// Read never fails.
		panic(err)
	}
	return id.String()
}
