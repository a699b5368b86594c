// Package shmring is a single-producer, single-consumer byte ring. The
// producer and consumer may run on different goroutines without locks;
// Readable and Writable deliver coalesced wakeups.
package shmring

import "sync/atomic"

// Ring is a single-producer, single-consumer byte ring.
type Ring struct {
	buf  []byte
	mask uint32
	rd   atomic.Uint32 // consumer index (monotonic)
	wr   atomic.Uint32 // producer index (monotonic)

	readable chan struct{} // coalesced: data written
	writable chan struct{} // coalesced: space freed
}

// New allocates a ring of the given power-of-two size (>= 2).
func New(size int) *Ring {
	if size < 2 || (size&(size-1)) != 0 {
		panic("shmring: size must be power of two >= 2")
	}
	return &Ring{
		buf:      make([]byte, size),
		mask:     uint32(size - 1),
		readable: make(chan struct{}, 1),
		writable: make(chan struct{}, 1),
	}
}

func (r *Ring) size() uint32 { return uint32(len(r.buf)) }

// Cap returns the ring size in bytes.
func (r *Ring) Cap() int { return len(r.buf) }

// Space returns the number of bytes the producer may write.
func (r *Ring) Space() int {
	rd := r.rd.Load()
	wr := r.wr.Load()
	return int(r.size() - (wr - rd))
}

// Available returns the number of bytes the consumer may read.
func (r *Ring) Available() int {
	rd := r.rd.Load()
	wr := r.wr.Load()
	return int(wr - rd)
}

// WriteFrom copies as much of src as fits and returns the count. Producer only.
func (r *Ring) WriteFrom(src []byte) (n int) {
	if len(src) == 0 {
		return 0
	}
	rd := r.rd.Load()
	wr := r.wr.Load()
	space := int(r.size() - (wr - rd))
	if space <= 0 {
		return 0
	}
	n = min(space, len(src))

	wrIdx := wr & r.mask
	first := min(int(r.size()-wrIdx), n)
	copy(r.buf[wrIdx:wrIdx+uint32(first)], src[:first])
	if second := n - first; second > 0 {
		copy(r.buf[:second], src[first:n])
	}
	r.wr.Store(wr + uint32(n)) // release

	notify(r.readable)
	return n
}

// ReadInto copies up to len(dst) bytes out of the ring. Consumer only.
func (r *Ring) ReadInto(dst []byte) (n int) {
	if len(dst) == 0 {
		return 0
	}
	rd := r.rd.Load()
	wr := r.wr.Load() // acquire
	avail := int(wr - rd)
	if avail <= 0 {
		return 0
	}
	n = min(avail, len(dst))

	rdIdx := rd & r.mask
	first := min(int(r.size()-rdIdx), n)
	copy(dst[:first], r.buf[rdIdx:rdIdx+uint32(first)])
	if second := n - first; second > 0 {
		copy(dst[first:n], r.buf[:second])
	}
	r.rd.Store(rd + uint32(n)) // release

	notify(r.writable)
	return n
}

// Reset discards everything currently readable. Consumer only.
func (r *Ring) Reset() int {
	rd := r.rd.Load()
	wr := r.wr.Load()
	r.rd.Store(wr)
	if wr != rd {
		notify(r.writable)
	}
	return int(wr - rd)
}

// Readable signals that data was written since the last receive. Tokens
// coalesce, so a receiver must drain with ReadInto until it returns 0.
func (r *Ring) Readable() <-chan struct{} { return r.readable }

// Writable signals that the consumer freed space since the last receive.
func (r *Ring) Writable() <-chan struct{} { return r.writable }

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
