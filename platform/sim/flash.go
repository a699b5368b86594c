package sim

import (
	"errors"
	"sync"
	"time"

	"wstl-go/x/timex"

	"tinygo.org/x/drivers"
)

// Flash emulates an AT25DN512C behind an SPI bus and its chip-select line.
// It implements drivers.SPI and the High/Low pin used for chip select.
//
// Protocol violations (bytes clocked while powered down or still settling,
// a program while busy, bytes outside a chip-select bracket) are counted
// rather than failing the transfer, the way real silicon would silently
// return 0xFF.
type Flash struct {
	mu  sync.Mutex
	clk timex.Clock

	ID          uint32
	ProgramTime time.Duration // tPP for one page program
	StatusTime  time.Duration // tWRSR
	WakeDelay   time.Duration // tXUDPD
	ResumeDelay time.Duration // tRDPD

	mem [64 * 1024]byte
	otp [128]byte

	sr1 byte

	selected bool
	pos      int
	op       byte
	addr     uint32
	data     []byte
	wrsr     byte

	deep, ultra bool
	wakeAt      time.Time
	waking      bool
	busyUntil   time.Time
	wel         bool

	// FailAfter makes the Nth Tx from now (1-based) return an error.
	failIn int

	Transactions int // completed chip-select brackets
	Violations   int
	Programs     int
	Ops          []byte // first byte of the most recent brackets, oldest first
}

const maxOps = 256

var _ drivers.SPI = (*Flash)(nil)

// ErrInjected is returned by a Tx armed with FailNextTx.
var ErrInjected = errors.New("sim: injected bus error")

// NewFlash returns an erased, awake, unprotected device.
func NewFlash(clk timex.Clock) *Flash {
	f := &Flash{
		clk:         clk,
		ID:          0x1F6501,
		ProgramTime: 2 * time.Millisecond,
		StatusTime:  5 * time.Millisecond,
		WakeDelay:   70 * time.Microsecond,
		ResumeDelay: 8 * time.Microsecond,
	}
	for i := range f.mem {
		f.mem[i] = 0xFF
	}
	for i := 64; i < len(f.otp); i++ {
		f.otp[i] = byte(0xA0 + i - 64)
	}
	return f
}

// ---- test hooks ----

// FailNextTx arms the nth Tx call from now (1 = the next one) to fail.
func (f *Flash) FailNextTx(n int) { f.mu.Lock(); f.failIn = n; f.mu.Unlock() }

// Selected reports whether chip select is currently asserted.
func (f *Flash) Selected() bool { f.mu.Lock(); defer f.mu.Unlock(); return f.selected }

// SetProtected sets or clears BP0 directly.
func (f *Flash) SetProtected(on bool) {
	f.mu.Lock()
	if on {
		f.sr1 |= 0x04
	} else {
		f.sr1 &^= 0x04
	}
	f.mu.Unlock()
}

// Word returns the stored big-endian word at a word index.
func (f *Flash) Word(i uint16) uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := uint32(i) * 2
	return uint16(f.mem[a])<<8 | uint16(f.mem[a+1])
}

// Preload programs words from index 0 without timing.
func (f *Flash) Preload(words ...uint16) {
	f.mu.Lock()
	for i, w := range words {
		f.mem[2*i] = byte(w >> 8)
		f.mem[2*i+1] = byte(w)
	}
	f.mu.Unlock()
}

// PowerDown reports the emulated power mode.
func (f *Flash) PowerDown() (deep, ultra bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deep, f.ultra
}

// ---- chip select ----

// Low asserts chip select.
func (f *Flash) Low() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settle()
	f.selected = true
	f.pos = 0
	f.op = 0
	f.addr = 0
	f.data = f.data[:0]
}

// High deasserts chip select and commits the bracket.
func (f *Flash) High() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.selected {
		return
	}
	f.selected = false
	if f.pos == 0 {
		// Pulse with no clocks: ultra-deep exit trigger.
		if f.ultra && !f.waking {
			f.startWake(f.WakeDelay)
		}
		return
	}
	f.Transactions++
	if len(f.Ops) == maxOps {
		copy(f.Ops, f.Ops[1:])
		f.Ops = f.Ops[:maxOps-1]
	}
	f.Ops = append(f.Ops, f.op)
	if f.asleep() {
		if f.deep && !f.waking && f.op == 0xAB && f.pos == 1 {
			f.startWake(f.ResumeDelay)
			return
		}
		f.Violations++
		return
	}
	f.commit()
}

// ---- drivers.SPI ----

func (f *Flash) Tx(w, r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIn > 0 {
		f.failIn--
		if f.failIn == 0 {
			return ErrInjected
		}
	}
	if !f.selected {
		f.Violations++
		return nil
	}
	n := len(w)
	if len(r) > n {
		n = len(r)
	}
	for i := 0; i < n; i++ {
		var in byte
		if i < len(w) {
			in = w[i]
		}
		out := f.clock(in)
		if i < len(r) {
			r[i] = out
		}
	}
	return nil
}

func (f *Flash) Transfer(b byte) (byte, error) {
	var r [1]byte
	err := f.Tx([]byte{b}, r[:])
	return r[0], err
}

// ---- internals (f.mu held) ----

func (f *Flash) settle() {
	if f.waking && !f.clk.Now().Before(f.wakeAt) {
		f.waking = false
		f.deep = false
		f.ultra = false
	}
}

func (f *Flash) asleep() bool { return f.deep || f.ultra }

func (f *Flash) startWake(d time.Duration) {
	f.waking = true
	f.wakeAt = f.clk.Now().Add(d)
}

func (f *Flash) busy() bool { return f.clk.Now().Before(f.busyUntil) }

func (f *Flash) status1() byte {
	s := f.sr1 &^ 0x03
	if f.busy() {
		s |= 0x01
	}
	if f.wel {
		s |= 0x02
	}
	return s
}

// clock shifts one byte in and returns the byte shifted out.
func (f *Flash) clock(in byte) byte {
	pos := f.pos
	f.pos++
	if pos == 0 {
		f.op = in
	}
	if f.asleep() {
		return 0xFF
	}
	if f.busy() && f.op != 0x05 {
		return 0xFF
	}
	switch f.op {
	case 0x03: // read array
		if pos >= 1 && pos <= 3 {
			f.addr = f.addr<<8 | uint32(in)
			return 0xFF
		}
		if pos >= 4 {
			a := (f.addr + uint32(pos-4)) % uint32(len(f.mem))
			return f.mem[a]
		}
	case 0x05: // status, bytes repeat
		if pos >= 1 {
			if pos%2 == 1 {
				return f.status1()
			}
			if f.busy() {
				return 0x01
			}
			return 0x00
		}
	case 0x9F:
		switch pos {
		case 1:
			return byte(f.ID >> 16)
		case 2:
			return byte(f.ID >> 8)
		case 3:
			return byte(f.ID)
		}
		return 0x00
	case 0x77: // OTP: 3 address bytes, 2 dummy
		if pos >= 1 && pos <= 3 {
			f.addr = f.addr<<8 | uint32(in)
			return 0xFF
		}
		if pos >= 6 {
			return f.otp[(f.addr+uint32(pos-6))%uint32(len(f.otp))]
		}
	case 0x02:
		if pos >= 1 && pos <= 3 {
			f.addr = f.addr<<8 | uint32(in)
		} else if pos >= 4 {
			f.data = append(f.data, in)
		}
	case 0x01:
		if pos == 1 {
			f.wrsr = in
		}
	}
	return 0xFF
}

func (f *Flash) commit() {
	if f.busy() && f.op != 0x05 {
		f.Violations++
		return
	}
	switch f.op {
	case 0x06:
		f.wel = true
	case 0x04:
		f.wel = false
	case 0x02:
		if !f.wel || f.sr1&0x04 != 0 || len(f.data) == 0 {
			f.wel = false
			return
		}
		page := f.addr &^ 0xFF
		for i, b := range f.data {
			a := page | ((f.addr + uint32(i)) & 0xFF)
			f.mem[a%uint32(len(f.mem))] &= b
		}
		f.Programs++
		f.wel = false
		f.busyUntil = f.clk.Now().Add(f.ProgramTime)
	case 0x01:
		if !f.wel {
			return
		}
		f.sr1 = (f.sr1 &^ 0x84) | (f.wrsr & 0x84)
		f.wel = false
		f.busyUntil = f.clk.Now().Add(f.StatusTime)
	case 0xB9:
		f.deep = true
	case 0x79:
		f.ultra = true
	}
}
