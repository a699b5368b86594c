// Package max30205 provides a driver for the MAX30205 body-temperature
// sensor. It exposes a two-phase one-shot API:
//
//	d.Trigger()             // start a conversion from shutdown (fast)
//	raw, err := d.Collect() // ErrNotReady while the conversion runs
//
// Read performs trigger + bounded polling. Between conversions the part
// stays in shutdown to keep the supply current near 3.5 µA.
package max30205

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
)

// Address is the I2C address with A0..A2 tied to ground.
const Address = 0x48

const (
	regTemp   = 0x00
	regConfig = 0x01
	regTHyst  = 0x02
	regTOS    = 0x03

	cfgShutdown = 0x01
	cfgTimeout  = 0x40 // disables the bus timeout; keeps SMBus-style resets away
	cfgOneShot  = 0x80
)

var (
	ErrTimeout  = errors.New("max30205: timeout")
	ErrNotReady = errors.New("max30205: not ready")
)

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Address defaults to 0x48 if zero.
	Address uint16
	// ConversionTime is waited once after Trigger in Read. Default 50 ms.
	ConversionTime time.Duration
	// PollInterval between Collect attempts in Read. Default 5 ms.
	PollInterval time.Duration
	// MaxPolls bounds Read. Default 10.
	MaxPolls int
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Device wraps an I2C connection to a MAX30205.
type Device struct {
	bus     drivers.I2C
	Address uint16

	cfg Config
	w   [2]byte
	r   [2]byte
	raw uint16
}

// New creates a Device. The I2C bus must already be configured.
func New(bus drivers.I2C) Device {
	return Device{bus: bus, Address: Address}
}

// Configure applies cfg and puts the sensor into shutdown.
func (d *Device) Configure(cfgs ...Config) error {
	var c Config
	if len(cfgs) > 0 {
		c = cfgs[0]
	}
	if c.Address != 0 {
		d.Address = c.Address
	}
	if c.ConversionTime <= 0 {
		c.ConversionTime = 50 * time.Millisecond
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Millisecond
	}
	if c.MaxPolls <= 0 {
		c.MaxPolls = 10
	}
	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}
	d.cfg = c
	return d.Shutdown()
}

// Shutdown stops continuous conversion.
func (d *Device) Shutdown() error {
	d.w[0] = regConfig
	d.w[1] = cfgShutdown | cfgTimeout
	return d.bus.Tx(d.Address, d.w[:2], nil)
}

// Trigger starts one conversion. The part returns to shutdown when done.
func (d *Device) Trigger() error {
	if d.cfg.Sleep == nil {
		if err := d.Configure(); err != nil {
			return err
		}
	}
	d.w[0] = regConfig
	d.w[1] = cfgShutdown | cfgTimeout | cfgOneShot
	return d.bus.Tx(d.Address, d.w[:2], nil)
}

// Collect returns the raw two's-complement reading if the conversion has
// finished, ErrNotReady otherwise. Any bus error is returned as-is.
func (d *Device) Collect() (uint16, error) {
	d.w[0] = regConfig
	if err := d.bus.Tx(d.Address, d.w[:1], d.r[:1]); err != nil {
		return 0, err
	}
	if d.r[0]&cfgOneShot != 0 {
		return 0, ErrNotReady
	}
	d.w[0] = regTemp
	if err := d.bus.Tx(d.Address, d.w[:1], d.r[:2]); err != nil {
		return 0, err
	}
	d.raw = uint16(d.r[0])<<8 | uint16(d.r[1])
	return d.raw, nil
}

// Read runs one full conversion and returns the raw reading.
func (d *Device) Read() (uint16, error) {
	if err := d.Trigger(); err != nil {
		return 0, err
	}
	d.cfg.Sleep(d.cfg.ConversionTime)
	for i := 0; ; i++ {
		raw, err := d.Collect()
		if err != ErrNotReady {
			return raw, err
		}
		if i >= d.cfg.MaxPolls {
			return 0, ErrTimeout
		}
		d.cfg.Sleep(d.cfg.PollInterval)
	}
}

// Raw returns the last collected reading.
func (d *Device) Raw() uint16 { return d.raw }

// Fixed-point conversion helpers. One LSB is 1/256 °C.

// MilliCelsius converts a raw reading to thousandths of °C.
func MilliCelsius(raw uint16) int32 {
	return (int32(int16(raw)) * 1000) / 256
}

// DeciCelsius converts a raw reading to tenths of °C.
func DeciCelsius(raw uint16) int32 {
	return (int32(int16(raw)) * 10) / 256
}

// Celsius returns °C (float). Prefer the fixed-point helpers on MCU targets.
func Celsius(raw uint16) float32 {
	return float32(int16(raw)) / 256
}
