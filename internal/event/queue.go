package event

import (
	"errors"
	"fmt"

	"github.com/intuitionamiga/doombridge/internal/guestmem"
)

// MAX_EVENTS is the default queue capacity.
const MAX_EVENTS = 64

var (
	ErrQueueCorrupt = errors.New("event queue: head is more than capacity ahead of tail")
	ErrBadCapacity  = errors.New("event queue: capacity must be a non-zero power of two")
)

func validCapacity(n uint32) bool {
	return n != 0 && n&(n-1) == 0
}

// Produce is the host half of PULL_EVENTS. It writes as many of recs as fit at the
// guest's head slot, advances the head cursor at headAddr and returns how many were
// written. Slots between tail and head are never touched: once head-tail reaches
// capacity, the remaining records are refused and stay with the caller.
func Produce(mem *guestmem.Memory, base, capacity, headAddr, tail uint32, recs []RawRecord) (int, error) {
	if !validCapacity(capacity) {
		return 0, fmt.Errorf("%w: %d", ErrBadCapacity, capacity)
	}
	head, ok := mem.Read32WithFault(headAddr)
	if !ok {
		return 0, &guestmem.Fault{Op: "read head", Addr: headAddr, Size: 4}
	}
	used := head - tail
	if used > capacity {
		return 0, fmt.Errorf("%w: head=%d tail=%d", ErrQueueCorrupt, head, tail)
	}
	n := min(uint32(len(recs)), capacity-used)
	if n == 0 {
		return 0, nil
	}
	slots, err := mem.Slice(base, capacity*RECORD_SIZE)
	if err != nil {
		return 0, err
	}
	mask := capacity - 1
	for i := range n {
		slot := (head + i) & mask
		recs[i].Put(slots[slot*RECORD_SIZE:])
	}
	mem.Write32(headAddr, head+n)
	return int(n), nil
}

// Queue is the guest half: the record ring and head cursor live in guest memory,
// the tail is private to the guest and only travels to the host by value.
type Queue struct {
	mem      *guestmem.Memory
	base     uint32
	headAddr uint32
	capacity uint32
	tail     uint32
}

// NewQueue allocates the ring and head cursor in guest memory.
func NewQueue(mem *guestmem.Memory, capacity uint32) (*Queue, error) {
	if !validCapacity(capacity) {
		return nil, fmt.Errorf("%w: %d", ErrBadCapacity, capacity)
	}
	base, err := mem.Alloc(capacity*RECORD_SIZE, 8)
	if err != nil {
		return nil, fmt.Errorf("allocate event ring: %w", err)
	}
	headAddr, err := mem.Alloc(4, 4)
	if err != nil {
		return nil, fmt.Errorf("allocate head cursor: %w", err)
	}
	mem.Write32(headAddr, 0)
	return &Queue{mem: mem, base: base, headAddr: headAddr, capacity: capacity}, nil
}

func (q *Queue) Base() uint32     { return q.base }
func (q *Queue) HeadAddr() uint32 { return q.headAddr }
func (q *Queue) Capacity() uint32 { return q.capacity }
func (q *Queue) Tail() uint32     { return q.tail }

// Head is the producer's cursor as last written by the host.
func (q *Queue) Head() uint32 {
	return q.mem.Read32(q.headAddr)
}

// Pending is the number of records written but not yet drained.
func (q *Queue) Pending() uint32 {
	return q.Head() - q.tail
}

// DrainRaw hands every record in [tail, head) to fn, oldest first, then moves tail
// up to head. It must run exactly once after each PULL_EVENTS.
func (q *Queue) DrainRaw(fn func(RawRecord)) (int, error) {
	head := q.Head()
	n := head - q.tail
	if n > q.capacity {
		return 0, fmt.Errorf("%w: head=%d tail=%d", ErrQueueCorrupt, head, q.tail)
	}
	slots, err := q.mem.Slice(q.base, q.capacity*RECORD_SIZE)
	if err != nil {
		return 0, err
	}
	mask := q.capacity - 1
	for ; q.tail != head; q.tail++ {
		slot := q.tail & mask
		fn(ReadRecord(slots[slot*RECORD_SIZE:]))
	}
	return int(n), nil
}

// Drain translates pending records and posts the resulting events in order.
func (q *Queue) Drain(p Poster) (int, error) {
	return q.DrainRaw(func(r RawRecord) {
		if ev, ok := Translate(r); ok {
			p.PostEvent(ev)
		}
	})
}
