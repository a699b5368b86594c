package sim

import (
	"sync"
	"time"

	"wstl-go/x/timex"

	"tinygo.org/x/drivers"
)

// Sensor emulates a MAX30205 on an I2C bus. One-shot conversions finish
// ConvTime after the trigger on the supplied clock.
type Sensor struct {
	mu  sync.Mutex
	clk timex.Clock

	Addr     uint16
	ConvTime time.Duration

	raw    uint16
	cfg    byte
	ptr    byte
	doneAt time.Time

	failNext  bool
	Triggers  int
	LastWrite []byte
}

var _ drivers.I2C = (*Sensor)(nil)

func NewSensor(clk timex.Clock) *Sensor {
	return &Sensor{clk: clk, Addr: 0x48, ConvTime: 44 * time.Millisecond}
}

// SetRaw sets the value the next conversion will latch.
func (s *Sensor) SetRaw(v uint16) { s.mu.Lock(); s.raw = v; s.mu.Unlock() }

// FailNext makes the next Tx return an error.
func (s *Sensor) FailNext() { s.mu.Lock(); s.failNext = true; s.mu.Unlock() }

func (s *Sensor) Tx(addr uint16, w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		s.failNext = false
		return ErrInjected
	}
	if addr != s.Addr {
		return ErrNack
	}
	if len(w) > 0 {
		s.ptr = w[0]
		s.LastWrite = append(s.LastWrite[:0], w...)
	}
	if len(w) > 1 && s.ptr == 0x01 {
		s.cfg = w[1]
		if s.cfg&0x80 != 0 {
			s.Triggers++
			s.doneAt = s.clk.Now().Add(s.ConvTime)
		}
	}
	if s.cfg&0x80 != 0 && !s.clk.Now().Before(s.doneAt) {
		s.cfg &^= 0x80
	}
	switch s.ptr {
	case 0x00:
		if len(r) > 0 {
			r[0] = byte(s.raw >> 8)
		}
		if len(r) > 1 {
			r[1] = byte(s.raw)
		}
	case 0x01:
		if len(r) > 0 {
			r[0] = s.cfg
		}
	}
	return nil
}
