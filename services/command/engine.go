// Package command implements the host command protocol: a fixed-capacity
// input buffer, a timeout-bounded handshake window and opcode dispatch.
//
// One exchange looks like this on the wire:
//
//	device -> host   'X'                      readiness sentinel
//	host   -> device 'B' YYYYMMDDHHmmSS [pad] at most 16 bytes
//	                 (window closes after Timeout)
//	device -> host   dump words, for 'D' only
package command

import (
	"context"
	"io"
	"time"

	"wstl-go/errcode"
	"wstl-go/services/uartio"
	"wstl-go/types"
	"wstl-go/x/conv"
	"wstl-go/x/shmring"
)

// DefaultSentinel is the readiness byte sent when a window opens.
const DefaultSentinel = 'X'

// Handler executes decoded commands. The session controller implements it.
type Handler interface {
	Begin(args []byte) bool
	End(args []byte) bool
	Dump(w io.Writer) error
}

type Config struct {
	// Timeout is how long the window stays open. Default 5 s.
	Timeout time.Duration
	// Sentinel defaults to 'X'.
	Sentinel byte
	// RingSize is the receive ring size, a power of two. Default 64.
	RingSize int
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.Sentinel == 0 {
		c.Sentinel = DefaultSentinel
	}
	if c.RingSize <= 0 {
		c.RingSize = 64
	}
}

// Engine owns the command buffer and the receive ring. All methods run on
// the main loop.
type Engine struct {
	port  uartio.Port
	h     Handler
	flags *types.Flags
	cfg   Config

	buf  *Buffer
	ring *shmring.Ring
	tmp  [Capacity]byte
}

func NewEngine(port uartio.Port, h Handler, flags *types.Flags, cfg Config) *Engine {
	cfg.defaults()
	if flags == nil {
		flags = new(types.Flags)
	}
	return &Engine{
		port:  port,
		h:     h,
		flags: flags,
		cfg:   cfg,
		buf:   NewBuffer(flags),
		ring:  shmring.New(cfg.RingSize),
	}
}

// Buffer exposes the command buffer.
func (e *Engine) Buffer() *Buffer { return e.buf }

// Exchange runs one handshake window and dispatches what arrived. It
// blocks for Timeout unless ctx ends first. Receive is disabled again
// before any command executes.
func (e *Engine) Exchange(ctx context.Context) (Command, error) {
	e.buf.Clear()
	win := uartio.Open(ctx, e.port, e.ring)

	e.tmp[0] = e.cfg.Sentinel
	if _, err := e.port.Write(e.tmp[:1]); err != nil {
		win.Close()
		return nil, &errcode.E{C: errcode.BusError, Op: "exchange", Msg: "sentinel", Err: err}
	}

	timer := time.NewTimer(e.cfg.Timeout)
	defer timer.Stop()
wait:
	for {
		select {
		case <-win.Readable():
			e.drain(win)
		case <-win.Done():
			break wait
		case <-timer.C:
			break wait
		case <-ctx.Done():
			break wait
		}
	}

	dropped, err := win.Close()
	e.drain(win)
	if dropped > 0 {
		e.buf.markOverflow()
	}
	if err != nil {
		println("[cmd] receive error:", err.Error())
	}
	return e.Dispatch()
}

func (e *Engine) drain(win *uartio.Window) {
	for {
		n := win.Read(e.tmp[:])
		if n == 0 {
			return
		}
		e.buf.Write(e.tmp[:n])
	}
}

// Dispatch executes the buffered command and clears the buffer. Nothing
// runs for an empty buffer or after an overflow; an unknown opcode sets
// FlagCommandError.
func (e *Engine) Dispatch() (Command, error) {
	if e.buf.Len() == 0 {
		return nil, nil
	}
	if e.buf.Overflowed() {
		var nb [20]byte
		println("[cmd] overflow, discarded", string(conv.Utoa(nb[:], uint64(e.buf.Len()))), "bytes")
		e.buf.Clear()
		return nil, errcode.CommandOverflow
	}

	defer e.buf.Clear()
	cmd := Parse(e.buf.Bytes())
	switch c := cmd.(type) {
	case Dump:
		if err := e.h.Dump(e.port); err != nil {
			return cmd, &errcode.E{C: errcode.Of(err), Op: "dump", Err: err}
		}
	case Begin:
		if !e.h.Begin(c.Args) {
			println("[cmd] begin ignored")
		}
	case End:
		if !e.h.End(c.Args) {
			println("[cmd] end ignored")
		}
	case Unknown:
		e.flags.Set(types.FlagCommandError)
		println("[cmd] unknown opcode", c.Op)
		return cmd, errcode.CommandError
	}
	return cmd, nil
}
