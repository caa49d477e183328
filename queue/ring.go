package queue

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ardnew/softrmii/pkg"
)

// HeaderSize is the size of the in-band record header: the logical payload
// length followed by the physical footprint, both little-endian int32.
const HeaderSize = 8

// none marks an absent head or tail offset.
const none = -1

// Record is a handle to a record inside a Ring's arena.
//
// A Record is only a view. It is invalidated the instant it is consumed,
// and the zero Record refers to nothing.
type Record struct {
	ring *Ring
	off  int
}

// Valid returns true if the record refers to a ring.
func (r Record) Valid() bool {
	return r.ring != nil
}

// Offset returns the arena offset of the record header.
func (r Record) Offset() int {
	return r.off
}

// Len returns the logical payload length (dataBytes).
func (r Record) Len() int {
	return r.ring.dataBytes(r.off)
}

// Footprint returns the physical size including header and padding (memBytes).
func (r Record) Footprint() int {
	return r.ring.memBytes(r.off)
}

// Bytes returns the record payload without copying.
func (r Record) Bytes() []byte {
	start := r.off + HeaderSize
	return r.ring.arena[start : start+r.Len() : start+r.Len()]
}

// String returns a human-readable description of the record placement.
func (r Record) String() string {
	if !r.Valid() {
		return "<none>"
	}
	return fmt.Sprintf("%d -> %d [%d] : %d bytes",
		r.off, r.off+r.Footprint(), r.Footprint(), r.Len())
}

// Ring is a fixed-capacity circular arena holding variably-sized records.
//
// Allocations that would straddle the end of the arena pad the previous
// record instead, so every live record is contiguous. The most recent
// reservation may be truncated with Commit once its real size is known.
//
// Ring is not synchronized. A producer calling Reserve/Commit and a consumer
// calling Consume from different contexts must be serialized by the caller.
type Ring struct {
	arena []byte
	head  int
	tail  int
}

// New creates an empty ring over the given arena. Trailing bytes beyond the
// last whole word are unused.
func New(arena []byte) *Ring {
	return &Ring{
		arena: arena[:len(arena)&^3],
		head:  none,
		tail:  none,
	}
}

// NewSize creates an empty ring over a newly allocated arena of size bytes.
func NewSize(size int) *Ring {
	return New(make([]byte, size))
}

// Cap returns the arena capacity in bytes.
func (q *Ring) Cap() int {
	return len(q.arena)
}

// Empty returns true if the ring holds no records.
func (q *Ring) Empty() bool {
	return q.head == none
}

// Reset discards all records.
func (q *Ring) Reset() {
	q.head = none
	q.tail = none
}

// align4 rounds n up to a multiple of four.
func align4(n int) int {
	return (n + 3) &^ 3
}

// Reserve allocates a record able to hold maxSize payload bytes and makes it
// the tail. It returns pkg.ErrAllocationExhausted, leaving the ring
// unchanged, if no contiguous region is available.
func (q *Ring) Reserve(maxSize int) (Record, error) {
	if maxSize < 0 {
		return Record{}, fmt.Errorf("reserve %d bytes: %w", maxSize, pkg.ErrAllocationExhausted)
	}
	required := align4(HeaderSize + maxSize)
	size := len(q.arena)

	if q.tail == none {
		if required > size {
			return Record{}, fmt.Errorf("reserve %d bytes: %w", maxSize, pkg.ErrAllocationExhausted)
		}
		q.place(0, maxSize, required)
		q.head = 0
		return Record{ring: q, off: 0}, nil
	}

	rpos := q.head
	wpos := (q.tail + q.memBytes(q.tail)) % size

	// A non-empty ring whose write position meets its read position is full.
	if wpos == rpos {
		return Record{}, fmt.Errorf("reserve %d bytes: %w", maxSize, pkg.ErrAllocationExhausted)
	}

	if rpos < wpos {
		if required <= size-wpos {
			q.place(wpos, maxSize, required)
			return Record{ring: q, off: wpos}, nil
		}
		if required > rpos {
			return Record{}, fmt.Errorf("reserve %d bytes: %w", maxSize, pkg.ErrAllocationExhausted)
		}
		// Pad the tail over the unused end of the arena and wrap.
		q.setMemBytes(q.tail, q.memBytes(q.tail)+size-wpos)
		q.place(0, maxSize, required)
		return Record{ring: q, off: 0}, nil
	}

	if required > rpos-wpos {
		return Record{}, fmt.Errorf("reserve %d bytes: %w", maxSize, pkg.ErrAllocationExhausted)
	}
	q.place(wpos, maxSize, required)
	return Record{ring: q, off: wpos}, nil
}

// place writes a new tail record header at off.
func (q *Ring) place(off, dataBytes, memBytes int) {
	q.setDataBytes(off, dataBytes)
	q.setMemBytes(off, memBytes)
	q.tail = off
}

// Commit truncates the tail record r to actual payload bytes.
//
// The footprint shrinks by whole words only, so it stays a multiple of four
// and still covers the header plus actual bytes. A record never grows.
// Committing anything but the tail, or growing it, panics with
// pkg.ErrProgramming.
func (q *Ring) Commit(r Record, actual int) {
	pkg.Assert(r.ring == q && q.tail != none && r.off == q.tail,
		"commit of non-tail record at %d", r.off)
	data := q.dataBytes(r.off)
	pkg.Assert(actual >= 0 && actual <= data,
		"commit of %d bytes to a %d byte record", actual, data)

	q.setMemBytes(r.off, q.memBytes(r.off)-((data-actual)&^3))
	q.setDataBytes(r.off, actual)
}

// Peek returns the oldest record, if any.
func (q *Ring) Peek() (Record, bool) {
	if q.head == none {
		return Record{}, false
	}
	return Record{ring: q, off: q.head}, true
}

// Tail returns the most recently reserved record, if any.
func (q *Ring) Tail() (Record, bool) {
	if q.tail == none {
		return Record{}, false
	}
	return Record{ring: q, off: q.tail}, true
}

// Consume releases the oldest record. It is a no-op on an empty ring.
func (q *Ring) Consume() {
	if q.head == none {
		return
	}
	if q.head == q.tail {
		q.head = none
		q.tail = none
		return
	}
	q.head = (q.head + q.memBytes(q.head)) % len(q.arena)
}

// Walk calls fn for each live record from head to tail until fn returns false.
func (q *Ring) Walk(fn func(Record) bool) {
	if q.head == none {
		return
	}
	off := q.head
	for {
		if !fn(Record{ring: q, off: off}) || off == q.tail {
			return
		}
		off = (off + q.memBytes(off)) % len(q.arena)
	}
}

// Len returns the number of live records.
func (q *Ring) Len() int {
	n := 0
	q.Walk(func(Record) bool {
		n++
		return true
	})
	return n
}

// Used returns the total footprint of all live records.
func (q *Ring) Used() int {
	n := 0
	q.Walk(func(r Record) bool {
		n += r.Footprint()
		return true
	})
	return n
}

// Dump writes one line per live record to w.
func (q *Ring) Dump(w io.Writer) {
	if q.head == none {
		fmt.Fprintln(w, "<empty>")
		return
	}
	q.Walk(func(r Record) bool {
		fmt.Fprintln(w, r.String())
		return true
	})
}

func (q *Ring) dataBytes(off int) int {
	return int(int32(binary.LittleEndian.Uint32(q.arena[off:])))
}

func (q *Ring) memBytes(off int) int {
	return int(int32(binary.LittleEndian.Uint32(q.arena[off+4:])))
}

func (q *Ring) setDataBytes(off, n int) {
	binary.LittleEndian.PutUint32(q.arena[off:], uint32(int32(n)))
}

func (q *Ring) setMemBytes(off, n int) {
	binary.LittleEndian.PutUint32(q.arena[off+4:], uint32(int32(n)))
}
