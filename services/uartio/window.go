// Package uartio runs a bounded serial receive window. While a Window is
// open a single pump goroutine is the only writer into its ring and the
// caller is the only reader. Close joins the pump before returning, so
// nothing touches the ring once the window has closed.
package uartio

import (
	"context"
	"errors"

	"wstl-go/x/shmring"
)

// Port is the serial transport. uartx.UART and sim.UART satisfy it.
type Port interface {
	Write(p []byte) (int, error)
	RecvSomeContext(ctx context.Context, p []byte) (int, error)
}

// Receiver is implemented by ports whose receive path can be gated.
// Bytes arriving while RX is disabled are lost.
type Receiver interface {
	EnableRX()
	DisableRX()
}

// Window is one open receive interval.
type Window struct {
	port   Port
	ring   *shmring.Ring
	cancel context.CancelFunc
	done   chan struct{}

	// owned by the pump until done is closed
	dropped int
	err     error
}

// Open enables receive (if supported), discards stale ring contents and
// starts the pump. The window stays open until Close or ctx ends.
func Open(ctx context.Context, port Port, ring *shmring.Ring) *Window {
	ring.Reset()
	if rx, ok := port.(Receiver); ok {
		rx.EnableRX()
	}
	cctx, cancel := context.WithCancel(ctx)
	w := &Window{
		port:   port,
		ring:   ring,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go w.pump(cctx)
	return w
}

func (w *Window) pump(ctx context.Context) {
	defer close(w.done)
	var buf [16]byte
	for {
		n, err := w.port.RecvSomeContext(ctx, buf[:])
		if n > 0 {
			w.dropped += n - w.ring.WriteFrom(buf[:n])
		}
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
				w.err = err
			}
			return
		}
	}
}

// Readable fires when the pump has delivered bytes.
func (w *Window) Readable() <-chan struct{} { return w.ring.Readable() }

// Done is closed once the pump has exited.
func (w *Window) Done() <-chan struct{} { return w.done }

// Read drains up to len(p) received bytes.
func (w *Window) Read(p []byte) int { return w.ring.ReadInto(p) }

// Close stops the pump, waits for it to exit and disables receive. It
// reports how many bytes were lost to a full ring and any transport error.
// Bytes still in the ring remain readable after Close.
func (w *Window) Close() (dropped int, err error) {
	w.cancel()
	<-w.done
	if rx, ok := w.port.(Receiver); ok {
		rx.DisableRX()
	}
	return w.dropped, w.err
}
