// Package at25dn drives the Adesto AT25DN512C serial flash as a
// word-addressed sample store.
//
// The driver never busy-waits on the hot path. Every bus operation is one
// chip-select bracket, and the bracket is released on every return path.
// Status register contents are cached: RefreshStatus is the only call that
// fills the cache, and any write invalidates it.
//
// Waking from ultra-deep power-down is two-phase:
//
//	d.BeginExitUltraDeepPowerDown()  // issues the wake trigger only
//	clock.Sleep(d.ReadyIn())          // caller owns the settling delay
//	v, err := d.ReadWord(addr)       // errcode.NotReady if called too early
package at25dn

import (
	"io"
	"time"

	"wstl-go/errcode"
	"wstl-go/x/conv"
	"wstl-go/x/mathx"
	"wstl-go/x/timex"

	"tinygo.org/x/drivers"
)

// Pin is the chip-select line. machine.Pin satisfies it.
type Pin interface {
	High()
	Low()
}

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// ExpectedID defaults to IDAT25DN512C.
	ExpectedID uint32
	// CapacityWords defaults to CapacityWords; clamped to 1..65535.
	CapacityWords uint32
	// WakeDelay is tXUDPD. Default 70 µs.
	WakeDelay time.Duration
	// ResumeDelay is tRDPD. Default 8 µs.
	ResumeDelay time.Duration
	// Clock defaults to timex.System.
	Clock timex.Clock
}

// Device is an AT25DN512C on an SPI bus.
type Device struct {
	spi drivers.SPI
	cs  Pin
	cfg Config
	clk timex.Clock

	power   PowerState
	waking  bool
	wakeAt  time.Time
	wakeFor time.Duration

	sr1, sr2 byte
	srValid  bool

	cursor uint16
	id     uint32

	otp       [otpSize]byte
	otpLoaded bool

	// Fixed buffers to avoid per-call heap allocations.
	w       [6]byte
	r       [3]byte
	scratch [64]byte
}

// New creates a Device. It does not touch the bus; call Initialize.
// The device is assumed powered down until then.
func New(spi drivers.SPI, cs Pin, cfg Config) *Device {
	if cfg.ExpectedID == 0 {
		cfg.ExpectedID = IDAT25DN512C
	}
	if cfg.CapacityWords == 0 {
		cfg.CapacityWords = CapacityWords
	}
	cfg.CapacityWords = mathx.Clamp(cfg.CapacityWords, 1, 0xFFFF)
	if cfg.WakeDelay <= 0 {
		cfg.WakeDelay = DefaultWakeDelay
	}
	if cfg.ResumeDelay <= 0 {
		cfg.ResumeDelay = DefaultResumeDelay
	}
	if cfg.Clock == nil {
		cfg.Clock = timex.System
	}
	cs.High()
	return &Device{
		spi:   spi,
		cs:    cs,
		cfg:   cfg,
		clk:   cfg.Clock,
		power: PowerUltraDeepDown,
	}
}

// Initialize wakes the device, verifies its identification, clears block
// protection if set and positions the cursor after the last written word.
//
// It blocks once for the wake delay; it is meant for the boot path only.
// On an identification mismatch it returns errcode.DeviceNotFound and leaves
// the device awake so diagnostics can still run.
func (d *Device) Initialize() error {
	// Power-on state is unknown: pulse for ultra-deep, then resume for deep.
	d.pulse()
	d.clk.Sleep(d.cfg.WakeDelay)
	d.w[0] = opResumeDeep
	if err := d.transact(d.w[:1], nil); err != nil {
		return errcode.Wrap(errcode.BusError, "at25dn.init", err)
	}
	d.clk.Sleep(d.cfg.ResumeDelay)
	d.power = PowerAwake
	d.waking = false
	d.srValid = false

	id, err := d.ReadMFDID()
	if err != nil {
		return err
	}
	if id != d.cfg.ExpectedID {
		return &errcode.E{C: errcode.DeviceNotFound, Op: "at25dn.init", Msg: "id " + hex(id)}
	}

	if err := d.RefreshStatus(); err != nil {
		return err
	}
	if d.protected() {
		if err := d.WriteStatusRegister1(0); err != nil {
			return err
		}
		if err := d.waitIdle(100, time.Millisecond); err != nil {
			return err
		}
	}
	_, err = d.Scan()
	return err
}

// Terminate issues deep power-down. The chip-select line is left released.
func (d *Device) Terminate() error {
	return d.enterPowerDown(opDeepPowerDown, PowerDeepDown)
}

// Cursor returns the next word index LogTemperature will write.
func (d *Device) Cursor() uint16 { return d.cursor }

// Capacity returns the array size in words.
func (d *Device) Capacity() uint32 { return d.cfg.CapacityWords }

// ---- bus plumbing ----

// transact runs one chip-select bracket: write w, then clock in len(r) bytes.
func (d *Device) transact(w, r []byte) error {
	d.cs.Low()
	defer d.cs.High()
	if len(w) > 0 {
		if err := d.spi.Tx(w, nil); err != nil {
			return err
		}
	}
	if len(r) > 0 {
		if err := d.spi.Tx(nil, r); err != nil {
			return err
		}
	}
	return nil
}

// pulse toggles chip select with no clocks: the ultra-deep exit trigger.
func (d *Device) pulse() {
	d.cs.Low()
	d.cs.High()
}

func (d *Device) putAddr(word uint16) {
	a := uint32(word) * 2
	d.w[1] = byte(a >> 16)
	d.w[2] = byte(a >> 8)
	d.w[3] = byte(a)
}

// ready enforces the power state machine before any bus traffic.
func (d *Device) ready() error {
	switch d.power {
	case PowerDeepDown, PowerUltraDeepDown:
		if !d.waking {
			return errcode.PoweredDown
		}
		if d.clk.Now().Sub(d.wakeAt) < d.wakeFor {
			return errcode.NotReady
		}
		d.waking = false
		d.power = PowerAwake
		d.srValid = false
	}
	return nil
}

// idle is ready plus the cached busy state.
func (d *Device) idle() error {
	if err := d.ready(); err != nil {
		return err
	}
	if d.power == PowerBusy {
		return errcode.BusBusy
	}
	return nil
}

func (d *Device) protected() bool {
	return d.srValid && d.sr1&sr1BlockProt != 0
}

// waitIdle polls status; boot path only.
func (d *Device) waitIdle(polls int, every time.Duration) error {
	for i := 0; i < polls; i++ {
		busy, err := d.Busy()
		if err != nil || !busy {
			return err
		}
		d.clk.Sleep(every)
	}
	return errcode.Timeout
}

// ---- diagnostics ----

// ReadMFDID reads the JEDEC manufacturer and device ID as 0xMMDDDD.
func (d *Device) ReadMFDID() (uint32, error) {
	if err := d.idle(); err != nil {
		return 0, err
	}
	d.w[0] = opReadMFDID
	if err := d.transact(d.w[:1], d.r[:3]); err != nil {
		return 0, errcode.Wrap(errcode.BusError, "at25dn.mfdid", err)
	}
	d.id = uint32(d.r[0])<<16 | uint32(d.r[1])<<8 | uint32(d.r[2])
	return d.id, nil
}

// PrintMFDID writes "MFDID:" plus the last read ID as hex and CRLF.
func (d *Device) PrintMFDID(w io.Writer) error {
	var line [16]byte
	out := append(line[:0], "MFDID:"...)
	out = append(out, hex(d.id)...)
	out = append(out, '\r', '\n')
	_, err := w.Write(out)
	return err
}

func hex(v uint32) string {
	var buf [8]byte
	return string(conv.U32Hex(buf[:], v))
}

// LoadOTP reads the 128-byte OTP security register once. Later calls are
// served from the cache without bus traffic.
func (d *Device) LoadOTP() error {
	if d.otpLoaded {
		return nil
	}
	if err := d.idle(); err != nil {
		return err
	}
	d.w[0] = opReadOTP
	d.w[1], d.w[2], d.w[3] = 0, 0, 0
	d.w[4], d.w[5] = 0, 0 // two dummy bytes
	if err := d.transact(d.w[:6], d.otp[:]); err != nil {
		return errcode.Wrap(errcode.BusError, "at25dn.otp", err)
	}
	d.otpLoaded = true
	return nil
}

// FactoryOTP returns the factory-programmed half of the OTP register.
// ok is false until LoadOTP succeeded.
func (d *Device) FactoryOTP() (id [otpSize - otpFactoryOff]byte, ok bool) {
	if !d.otpLoaded {
		return id, false
	}
	copy(id[:], d.otp[otpFactoryOff:])
	return id, true
}
