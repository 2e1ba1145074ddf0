package analysis

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sync"

	"auction-analytics/internal/model"
)

// SolverCache memoises SolveSchedule results. Runs usually replay the same
// schedule every day, so most lookups are hits. Safe for concurrent use.
type SolverCache struct {
	mu     sync.RWMutex
	store  map[string]model.EquilibriumResult
	hits   uint64
	misses uint64
}

func NewSolverCache() *SolverCache {
	return &SolverCache{store: make(map[string]model.EquilibriumResult)}
}

// Solve returns the cached equilibrium for s, solving on a miss.
// A nil cache solves every time.
func (c *SolverCache) Solve(s model.LimitPriceSet) model.EquilibriumResult {
	if c == nil {
		return SolveSchedule(s)
	}
	key := GenerateCacheKey(s)

	c.mu.RLock()
	res, ok := c.store[key]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		res.ScheduleID = s.ScheduleID
		return res
	}

	res = SolveSchedule(s)
	c.mu.Lock()
	c.store[key] = res
	c.misses++
	c.mu.Unlock()
	return res
}

// Stats reports cache hits and misses since creation.
func (c *SolverCache) Stats() (hits, misses uint64) {
	if c == nil {
		return 0, 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Len is the number of distinct schedules solved.
func (c *SolverCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// GenerateCacheKey hashes the sorted limit prices of s. Two schedules with the
// same prices share a key regardless of identifier or input order.
func GenerateCacheKey(s model.LimitPriceSet) string {
	h := sha256.New()
	var buf [8]byte
	write := func(xs []float64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(xs)))
		h.Write(buf[:])
		for _, x := range xs {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(x))
			h.Write(buf[:])
		}
	}
	write(sortedAsc(s.Asks))
	write(sortedDesc(s.Bids))
	return hex.EncodeToString(h.Sum(nil))
}
