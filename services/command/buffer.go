package command

import "wstl-go/types"

// Capacity is the longest command a handshake window can carry.
const Capacity = 16

// Buffer assembles one host command. Characters past Capacity are dropped
// and raise the sticky FlagCommandOverflow on the shared flag set.
type Buffer struct {
	buf      [Capacity]byte
	n        int
	overflow bool
	flags    *types.Flags
}

func NewBuffer(flags *types.Flags) *Buffer {
	if flags == nil {
		flags = new(types.Flags)
	}
	return &Buffer{flags: flags}
}

// Clear empties the buffer for a new window. FlagCommandOverflow stays set.
func (b *Buffer) Clear() {
	b.n = 0
	b.overflow = false
}

// Append stores c, or drops it and flags an overflow when full.
func (b *Buffer) Append(c byte) {
	if b.n < Capacity {
		b.buf[b.n] = c
		b.n++
		return
	}
	b.markOverflow()
}

// Write appends every byte of p. It never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	for _, c := range p {
		b.Append(c)
	}
	return len(p), nil
}

func (b *Buffer) markOverflow() {
	b.overflow = true
	b.flags.Set(types.FlagCommandOverflow)
}

func (b *Buffer) Len() int { return b.n }

// Bytes returns the buffered command. The slice is reused after Clear.
func (b *Buffer) Bytes() []byte { return b.buf[:b.n] }

// Overflowed reports whether characters were dropped since the last Clear.
func (b *Buffer) Overflowed() bool { return b.overflow }
