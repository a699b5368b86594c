// Package session implements the logging session controller: an
// {Idle, Logging} state machine that gates per-tick sampling and hands
// storage to the store driver.
package session

import (
	"io"
	"time"

	"wstl-go/errcode"
	"wstl-go/types"
)

// Store is the part of the store driver the controller uses.
type Store interface {
	LogTemperature(reading uint16) types.Result
	Busy() (bool, error)
	Cursor() uint16
	ReadWords(addr uint16, dst []uint16) error
}

// Sensor returns one raw temperature reading per call.
type Sensor interface {
	Read() (uint16, error)
}

type State uint8

const (
	Idle State = iota
	Logging
)

func (s State) String() string {
	if s == Logging {
		return "logging"
	}
	return "idle"
}

// Session records one Begin/End pair and the word range it wrote.
type Session struct {
	Start, End  types.Timestamp
	First, Last uint16 // [First, Last) once ended
}

type Config struct {
	// BusyRetries bounds the Busy poll before a sample. Default 10.
	BusyRetries int
	// BusyBackoff is slept between polls. Default 1 ms.
	BusyBackoff time.Duration
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

func (c *Config) defaults() {
	if c.BusyRetries <= 0 {
		c.BusyRetries = 10
	}
	if c.BusyBackoff <= 0 {
		c.BusyBackoff = time.Millisecond
	}
	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}
}

// Controller shares the flag set with the command engine. It is driven
// from the main loop only.
type Controller struct {
	store  Store
	sensor Sensor
	flags  *types.Flags
	cfg    Config

	state   State
	sess    Session
	hasSess bool

	words [32]uint16
	out   [64]byte
}

func New(store Store, sensor Sensor, flags *types.Flags, cfg Config) *Controller {
	cfg.defaults()
	if flags == nil {
		flags = new(types.Flags)
	}
	return &Controller{store: store, sensor: sensor, flags: flags, cfg: cfg}
}

func (c *Controller) State() State { return c.state }

// Session returns the current or most recent session.
func (c *Controller) Session() (Session, bool) { return c.sess, c.hasSess }

func stamp(args []byte) (types.Timestamp, bool) {
	if len(args) < types.StampLen {
		return types.Timestamp{}, false
	}
	ts, err := types.ParseTimestamp(args[:types.StampLen])
	return ts, err == nil
}

// Begin enters Logging when args start with 14 ASCII digits. It is
// ignored while already Logging.
func (c *Controller) Begin(args []byte) bool {
	if c.state == Logging {
		return false
	}
	ts, ok := stamp(args)
	if !ok {
		return false
	}
	c.sess = Session{Start: ts, First: c.store.Cursor()}
	c.hasSess = true
	c.state = Logging
	c.flags.Set(types.FlagLogging)
	println("[session] begin", ts.String())
	return true
}

// End returns to Idle. The end stamp is syntax-checked only.
func (c *Controller) End(args []byte) bool {
	if c.state != Logging {
		return false
	}
	ts, ok := stamp(args)
	if !ok {
		return false
	}
	c.sess.End = ts
	c.sess.Last = c.store.Cursor()
	c.state = Idle
	c.flags.Clear(types.FlagLogging)
	println("[session] end", ts.String())
	return true
}

// Tick takes and stores one sample while Logging. LogTemperature runs
// exactly once per Logging tick; a failed sensor read stores SensorFault.
func (c *Controller) Tick() (types.Sample, bool) {
	if c.state != Logging {
		return types.Sample{}, false
	}
	reading, err := c.sensor.Read()
	if err != nil {
		c.flags.Set(types.FlagTempError)
		reading = types.SensorFault
	}
	c.waitIdle()

	s := types.Sample{Addr: c.store.Cursor(), Reading: reading}
	s.Result = c.store.LogTemperature(reading)
	if !s.Result.OK() {
		c.flags.Set(types.FlagMemError)
	}
	return s, true
}

// waitIdle polls Busy with the configured budget. It reports whether the
// store went idle.
func (c *Controller) waitIdle() bool {
	for i := 0; ; i++ {
		busy, err := c.store.Busy()
		if err != nil {
			return false
		}
		if !busy {
			return true
		}
		if i >= c.cfg.BusyRetries {
			return false
		}
		c.cfg.Sleep(c.cfg.BusyBackoff)
	}
}

// DumpRange returns the words a dump would send: the running session,
// else the last ended one, else everything written so far.
func (c *Controller) DumpRange() (from, to uint16) {
	switch {
	case c.state == Logging:
		return c.sess.First, c.store.Cursor()
	case c.hasSess:
		return c.sess.First, c.sess.Last
	default:
		return 0, c.store.Cursor()
	}
}

// Dump writes DumpRange to w as big-endian words with no framing.
func (c *Controller) Dump(w io.Writer) error {
	from, to := c.DumpRange()
	if from >= to {
		return nil
	}
	if !c.waitIdle() {
		c.flags.Set(types.FlagMemError)
		return &errcode.E{C: errcode.BusBusy, Op: "dump"}
	}
	for addr := uint32(from); addr < uint32(to); {
		n := min(uint32(len(c.words)), uint32(to)-addr)
		if err := c.store.ReadWords(uint16(addr), c.words[:n]); err != nil {
			c.flags.Set(types.FlagMemError)
			return err
		}
		for i, v := range c.words[:n] {
			c.out[2*i] = byte(v >> 8)
			c.out[2*i+1] = byte(v)
		}
		if _, err := w.Write(c.out[:2*n]); err != nil {
			return err
		}
		addr += n
	}
	return nil
}
