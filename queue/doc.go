// Package queue provides a circular record store over a fixed byte arena.
//
// Each record carries an 8-byte in-band header (logical length, physical
// footprint) followed by its payload. Records are allocated at the tail,
// consumed from the head, and always occupy a contiguous region: when an
// allocation does not fit between the write position and the arena end, the
// previous tail absorbs the remainder and the new record starts at offset 0.
//
// # Usage
//
//	q := queue.NewSize(8192)
//
//	rec, err := q.Reserve(1552)
//	if err != nil {
//	    // pkg.ErrAllocationExhausted: retry after the consumer drains
//	}
//	n := capture(rec.Bytes())
//	q.Commit(rec, n)
//
//	for rec, ok := q.Peek(); ok; rec, ok = q.Peek() {
//	    process(rec.Bytes())
//	    q.Consume()
//	}
//
// # Concurrency
//
// A [Ring] performs no locking. The link driver serializes its producer and
// consumer with a spin lock; other callers must do the same.
package queue
