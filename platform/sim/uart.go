package sim

import (
	"context"
	"sync"
)

// UART is a host-side serial port. Bytes injected while receive is disabled
// are dropped, like a UART whose RX interrupt is masked.
type UART struct {
	mu      sync.Mutex
	rx      []byte
	tx      []byte
	rd      chan struct{}
	enabled bool

	// OnWrite, if set, sees every device write. It runs without locks held
	// and may call Inject to script a host reply.
	OnWrite func(p []byte)

	Dropped int
}

func NewUART() *UART { return &UART{rd: make(chan struct{}, 1)} }

// Inject delivers bytes from the host.
func (u *UART) Inject(b []byte) {
	u.mu.Lock()
	if !u.enabled {
		u.Dropped += len(b)
		u.mu.Unlock()
		return
	}
	u.rx = append(u.rx, b...)
	u.mu.Unlock()
	select {
	case u.rd <- struct{}{}:
	default:
	}
}

// TX returns a copy of everything the device wrote.
func (u *UART) TX() []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]byte(nil), u.tx...)
}

func (u *UART) ResetTX() { u.mu.Lock(); u.tx = u.tx[:0]; u.mu.Unlock() }

// Enabled reports whether the receive path is open.
func (u *UART) Enabled() bool { u.mu.Lock(); defer u.mu.Unlock(); return u.enabled }

func (u *UART) EnableRX() {
	u.mu.Lock()
	u.enabled = true
	u.rx = u.rx[:0]
	u.mu.Unlock()
}

func (u *UART) DisableRX() {
	u.mu.Lock()
	u.enabled = false
	u.mu.Unlock()
}

func (u *UART) Write(p []byte) (int, error) {
	u.mu.Lock()
	u.tx = append(u.tx, p...)
	hook := u.OnWrite
	u.mu.Unlock()
	if hook != nil {
		hook(append([]byte(nil), p...))
	}
	return len(p), nil
}

func (u *UART) RecvSomeContext(ctx context.Context, p []byte) (int, error) {
	for {
		u.mu.Lock()
		if len(u.rx) > 0 {
			n := copy(p, u.rx)
			u.rx = u.rx[n:]
			u.mu.Unlock()
			return n, nil
		}
		u.mu.Unlock()
		select {
		case <-u.rd:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}
