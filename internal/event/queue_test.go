package event

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intuitionamiga/doombridge/internal/guestmem"
)

func newTestQueue(t *testing.T, capacity uint32) (*guestmem.Memory, *Queue) {
	t.Helper()
	mem := guestmem.New(guestmem.DEFAULT_MEMORY_SIZE)
	q, err := NewQueue(mem, capacity)
	require.NoError(t, err)
	return mem, q
}

func produce(t *testing.T, mem *guestmem.Memory, q *Queue, recs []RawRecord) int {
	t.Helper()
	n, err := Produce(mem, q.Base(), q.Capacity(), q.HeadAddr(), q.Tail(), recs)
	require.NoError(t, err)
	return n
}

func TestQueue_EndToEndScenario(t *testing.T) {
	mem, q := newTestQueue(t, 64)
	const held = 1
	n := produce(t, mem, q, []RawRecord{
		KeyDown(SCAN_A, 'A'),
		MouseMotion(2, -1, held),
		KeyUp(SCAN_A, 'A'),
	})
	require.Equal(t, 3, n)

	var got Buffer
	drained, err := q.Drain(&got)
	require.NoError(t, err)
	assert.Equal(t, 3, drained)
	assert.Equal(t, []Event{
		{Type: EV_KEYDOWN, Data1: 'A'},
		{Type: EV_MOUSE, Data1: held, Data2: 8, Data3: 4},
		{Type: EV_KEYUP, Data1: 'A'},
	}, got.Events)
	assert.Equal(t, uint32(3), q.Tail())
	assert.Equal(t, uint32(3), q.Head())
}

func TestQueue_RecordsLandAtHeadSlots(t *testing.T) {
	mem, q := newTestQueue(t, 64)
	produce(t, mem, q, []RawRecord{KeyDown(SCAN_A, 'a'), KeyDown(SCAN_Z, 'z')})
	slots, err := mem.Slice(q.Base(), 2*RECORD_SIZE)
	require.NoError(t, err)
	assert.Equal(t, uint32('a'), ReadRecord(slots[0:]).Sym)
	assert.Equal(t, uint32('z'), ReadRecord(slots[RECORD_SIZE:]).Sym)
}

func TestQueue_EmptyPullLeavesHeadUnchanged(t *testing.T) {
	mem, q := newTestQueue(t, 8)
	assert.Equal(t, 0, produce(t, mem, q, nil))
	assert.Equal(t, uint32(0), q.Head())
	n, err := q.Drain(&Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestQueue_OverflowRejectsInsteadOfOverwriting(t *testing.T) {
	mem, q := newTestQueue(t, 8)

	first := make([]RawRecord, 7)
	for i := range first {
		first[i] = KeyDown(0, uint32('a'+i))
	}
	require.Equal(t, 7, produce(t, mem, q, first))
	require.Equal(t, uint32(7), q.Pending())

	// head - tail == capacity - 1: exactly one free slot remains.
	more := []RawRecord{KeyDown(0, 'x'), KeyDown(0, 'y'), KeyDown(0, 'z')}
	assert.Equal(t, 1, produce(t, mem, q, more))
	assert.Equal(t, uint32(8), q.Pending())

	// Full: nothing more is accepted.
	assert.Equal(t, 0, produce(t, mem, q, more[1:]))

	var got Buffer
	_, err := q.Drain(&got)
	require.NoError(t, err)
	require.Len(t, got.Events, 8)
	for i := range 7 {
		assert.Equal(t, int32('a'+i), got.Events[i].Data1)
	}
	assert.Equal(t, int32('x'), got.Events[7].Data1)
}

func TestQueue_WrapsAcrossSlotBoundary(t *testing.T) {
	mem, q := newTestQueue(t, 4)
	var seq int32
	for range 10 {
		recs := []RawRecord{KeyDown(0, uint32(seq)), KeyDown(0, uint32(seq+1)), KeyDown(0, uint32(seq+2))}
		require.Equal(t, 3, produce(t, mem, q, recs))
		var got Buffer
		_, err := q.Drain(&got)
		require.NoError(t, err)
		for i, ev := range got.Events {
			assert.Equal(t, seq+int32(i), ev.Data1)
		}
		seq += 3
	}
	assert.Equal(t, uint32(30), q.Tail())
}

func TestQueue_CursorWrapAt32Bits(t *testing.T) {
	mem, q := newTestQueue(t, 8)
	q.tail = 0xFFFFFFFE
	mem.Write32(q.HeadAddr(), 0xFFFFFFFE)

	require.Equal(t, 4, produce(t, mem, q, []RawRecord{
		KeyDown(0, 1), KeyDown(0, 2), KeyDown(0, 3), KeyDown(0, 4),
	}))
	assert.Equal(t, uint32(2), q.Head())

	var got Buffer
	n, err := q.Drain(&got)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []int32{1, 2, 3, 4}, data1s(got.Events))
}

func TestQueue_CorruptHeadFailsFast(t *testing.T) {
	mem, q := newTestQueue(t, 8)
	mem.Write32(q.HeadAddr(), 9)
	_, err := q.Drain(&Buffer{})
	assert.True(t, errors.Is(err, ErrQueueCorrupt))

	_, err = Produce(mem, q.Base(), q.Capacity(), q.HeadAddr(), 0, []RawRecord{KeyDown(0, 1)})
	assert.ErrorIs(t, err, ErrQueueCorrupt)
}

func TestQueue_BadCapacity(t *testing.T) {
	mem := guestmem.New(guestmem.DEFAULT_MEMORY_SIZE)
	_, err := NewQueue(mem, 48)
	assert.ErrorIs(t, err, ErrBadCapacity)
	_, err = Produce(mem, 0x2000, 0, 0x2000, 0, nil)
	assert.ErrorIs(t, err, ErrBadCapacity)
}

func data1s(evs []Event) []int32 {
	out := make([]int32, len(evs))
	for i, ev := range evs {
		out[i] = ev.Data1
	}
	return out
}

// One pull per cycle, one drain per pull, any producer batch sizes: the drained
// stream is exactly the produced stream, in order, with nothing lost or repeated.
func TestQueue_FIFONoLossProperty(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	properties.Property("drain order equals produce order", prop.ForAll(
		func(batches []uint8, capExp uint8) bool {
			capacity := uint32(1) << (capExp % 7)
			mem := guestmem.New(guestmem.DEFAULT_MEMORY_SIZE)
			q, err := NewQueue(mem, capacity)
			if err != nil {
				return false
			}
			var backlog []RawRecord
			var next, want uint32
			var got Buffer
			for _, b := range batches {
				for range int(b % 20) {
					backlog = append(backlog, KeyDown(0, next))
					next++
				}
				n, err := Produce(mem, q.Base(), q.Capacity(), q.HeadAddr(), q.Tail(), backlog)
				if err != nil {
					return false
				}
				backlog = backlog[n:]
				if _, err := q.Drain(&got); err != nil {
					return false
				}
			}
			for len(backlog) > 0 {
				n, _ := Produce(mem, q.Base(), q.Capacity(), q.HeadAddr(), q.Tail(), backlog)
				backlog = backlog[n:]
				if _, err := q.Drain(&got); err != nil {
					return false
				}
			}
			for _, ev := range got.Events {
				if ev.Data1 != int32(want) {
					return false
				}
				want++
			}
			return want == next
		},
		gen.SliceOf(gen.UInt8()),
		gen.UInt8(),
	))
	properties.TestingRun(t)
}

// Randomised hand-off: the producer may run several pulls before the consumer
// drains, which the frame loop never does, but unread slots must still survive
// because the producer refuses to lap the tail.
func TestQueue_OverflowFuzzNeverCorruptsUnread(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := range 200 {
		capacity := uint32(1) << (1 + rng.Intn(6))
		mem := guestmem.New(guestmem.DEFAULT_MEMORY_SIZE)
		q, err := NewQueue(mem, capacity)
		require.NoError(t, err)

		var next, want uint32
		for range 100 {
			if rng.Intn(3) > 0 {
				burst := make([]RawRecord, rng.Intn(int(capacity)*2+1))
				for i := range burst {
					burst[i] = KeyDown(0, next+uint32(i))
				}
				n, err := Produce(mem, q.Base(), q.Capacity(), q.HeadAddr(), q.Tail(), burst)
				require.NoError(t, err)
				require.LessOrEqual(t, q.Pending(), capacity, "trial %d", trial)
				next += uint32(n)
				continue
			}
			var got Buffer
			_, err := q.Drain(&got)
			require.NoError(t, err)
			for _, ev := range got.Events {
				require.Equal(t, int32(want), ev.Data1, "trial %d", trial)
				want++
			}
		}
	}
}
