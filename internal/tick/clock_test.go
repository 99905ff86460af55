package tick

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestSample_TicRate(t *testing.T) {
	assert.Equal(t, uint16(0), Sample(0))
	assert.Equal(t, uint16(0), Sample(28))
	assert.Equal(t, uint16(1), Sample(29))
	assert.Equal(t, uint16(35), Sample(1000))
	// 65536 ticks is 1872457.14ms; the sample truncates to 16 bits there.
	assert.Equal(t, uint16(0), Sample(1872458))
}

func TestClock_StartsAtZero(t *testing.T) {
	c := NewClock(SourceFunc(func() uint64 { return 0 }))
	assert.Equal(t, uint32(0), c.Now())
}

func TestClock_WrapBoundary(t *testing.T) {
	c := NewClock(nil)
	assert.Equal(t, uint32(65535), c.Advance(65535))
	assert.Equal(t, uint32(65536), c.Advance(0))
	assert.Equal(t, uint32(65537), c.Advance(1))
	assert.Equal(t, uint32(65537), c.Advance(1))
	assert.Equal(t, uint32(65536+65535), c.Advance(65535))
	assert.Equal(t, uint32(2*65536+3), c.Advance(3))
}

func TestClock_NowFollowsSourceAcrossWrap(t *testing.T) {
	ms := uint64(0)
	c := NewClock(SourceFunc(func() uint64 { return ms }))

	ms = 1872400 // sample 65534
	before := c.Now()
	assert.Equal(t, uint32(65534), before)

	ms = 1872458 + 1000 // wrapped, sample 35
	after := c.Now()
	assert.Equal(t, uint32(65536+35), after)
}

func TestClock_HostSourceMonotonic(t *testing.T) {
	c := NewClock(HostSource())
	prev := c.Now()
	for range 1000 {
		now := c.Now()
		assert.GreaterOrEqual(t, now, prev)
		prev = now
	}
}

func TestClock_MonotonicProperty(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 500
	properties := gopter.NewProperties(params)

	properties.Property("ticks never decrease and each wrap adds exactly 65536", prop.ForAll(
		func(samples []uint16) bool {
			c := NewClock(nil)
			var prevTick uint32
			var prevSample uint16
			for i, s := range samples {
				tk := c.Advance(s)
				if i > 0 {
					if tk < prevTick {
						return false
					}
					if s < prevSample && tk != prevTick+(WRAP-uint32(prevSample)+uint32(s)) {
						return false
					}
					if s >= prevSample && tk != prevTick+uint32(s-prevSample) {
						return false
					}
				}
				prevTick, prevSample = tk, s
			}
			return true
		},
		gen.SliceOf(gen.UInt16()),
	))
	properties.TestingRun(t)
}
