package analysis

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-analytics/internal/model"
)

func mustSet(t *testing.T, id string, asks, bids []float64) model.LimitPriceSet {
	t.Helper()
	s, err := model.NewLimitPriceSet(id, asks, bids)
	require.NoError(t, err)
	return s
}

func TestSolverCache_HitsReuseResult(t *testing.T) {
	c := NewSolverCache()
	a := mustSet(t, "1", []float64{9, 10, 11}, []float64{12, 11, 10})
	b := mustSet(t, "2", []float64{11, 10, 9}, []float64{10, 11, 12})

	first := c.Solve(a)
	second := c.Solve(b)

	assert.Equal(t, "1", first.ScheduleID)
	assert.Equal(t, "2", second.ScheduleID)
	assert.Equal(t, first.Price, second.Price)
	assert.Equal(t, first.Quantity, second.Quantity)

	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	assert.Equal(t, 1, c.Len())
}

func TestSolverCache_Nil(t *testing.T) {
	var c *SolverCache
	res := c.Solve(mustSet(t, "x", []float64{10}, []float64{10}))
	assert.True(t, res.Found)
	assert.Equal(t, "x", res.ScheduleID)
	assert.Equal(t, 0, c.Len())
}

func TestGenerateCacheKey(t *testing.T) {
	a := mustSet(t, "a", []float64{1, 2}, []float64{3})
	b := mustSet(t, "b", []float64{2, 1}, []float64{3})
	// moving a price across sides must change the key
	c := mustSet(t, "c", []float64{1}, []float64{2, 3})

	assert.Equal(t, GenerateCacheKey(a), GenerateCacheKey(b))
	assert.NotEqual(t, GenerateCacheKey(a), GenerateCacheKey(c))
}

func TestSolverCache_Concurrent(t *testing.T) {
	c := NewSolverCache()
	s := mustSet(t, "1", []float64{9, 10, 11}, []float64{12, 11, 10})
	want := SolveSchedule(s)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got := c.Solve(s)
				assert.Equal(t, want.Price, got.Price)
			}
		}()
	}
	wg.Wait()

	hits, misses := c.Stats()
	assert.Equal(t, uint64(16*50), hits+misses)
	assert.Equal(t, 1, c.Len())
}
