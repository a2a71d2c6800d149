package clock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock(t *testing.T) {
	start := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.FixedZone("GST", 4*3600))
	clk := NewFakeClock(start)
	assert.Equal(t, time.UTC, clk.Now().Location())
	assert.True(t, clk.Now().Equal(start))

	assert.Equal(t, start.Add(time.Minute).UTC(), clk.Advance(time.Minute))

	clk.Set(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 2024, clk.Now().Year())
}

func TestFakeClockConcurrentAdvance(t *testing.T) {
	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	clk := NewFakeClock(start)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clk.Advance(time.Second)
			_ = clk.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, start.Add(50*time.Second), clk.Now())
}

func TestSystemClockIsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, NewSystemClock().Now().Location())
}
