// Package logger is the firmware main loop. Each tick it wakes the store,
// records one sample while a session runs, opens one handshake window and
// powers the store back down.
package logger

import (
	"context"
	"io"
	"time"

	"wstl-go/bus"
	"wstl-go/services/command"
	"wstl-go/services/config"
	"wstl-go/services/session"
	"wstl-go/services/uartio"
	"wstl-go/types"
	"wstl-go/x/conv"
	"wstl-go/x/timex"
)

// Store is the store driver as seen by the main loop.
type Store interface {
	session.Store
	Initialize() error
	BeginExitUltraDeepPowerDown() error
	ReadyIn() time.Duration
	EnterUltraDeepPowerDown() error
	PrintMFDID(w io.Writer) error
}

type Deps struct {
	Store  Store
	Sensor session.Sensor
	Port   uartio.Port
	// Console receives boot diagnostics. Optional.
	Console io.Writer
	// Clock defaults to timex.System.
	Clock timex.Clock
}

type App struct {
	d    Deps
	cfg  config.Logger
	conn *bus.Connection

	flags types.Flags
	ctl   *session.Controller
	eng   *command.Engine
	ticks uint32
}

func New(d Deps, cfg config.Logger, conn *bus.Connection) *App {
	if d.Clock == nil {
		d.Clock = timex.System
	}
	a := &App{d: d, cfg: cfg, conn: conn}
	a.ctl = session.New(d.Store, d.Sensor, &a.flags, session.Config{
		BusyRetries: cfg.Loop.BusyRetries,
		BusyBackoff: cfg.Loop.Backoff(),
		Sleep:       d.Clock.Sleep,
	})
	a.eng = command.NewEngine(d.Port, a.ctl, &a.flags, command.Config{
		Timeout:  cfg.Loop.Handshake(),
		Sentinel: cfg.Loop.Sentinel[0],
	})
	return a
}

func (a *App) Flags() types.Flags { return a.flags }
func (a *App) Session() *session.Controller { return a.ctl }

// Init identifies the store and parks it in ultra-deep power-down. A
// missing store sets FlagMemError; the loop keeps running regardless.
func (a *App) Init() error {
	err := a.d.Store.Initialize()
	if a.d.Console != nil {
		a.d.Store.PrintMFDID(a.d.Console)
	}
	if err != nil {
		a.flags.Set(types.FlagMemError)
		println("[logger] store init:", err.Error())
	} else if perr := a.d.Store.EnterUltraDeepPowerDown(); perr != nil {
		a.flags.Set(types.FlagMemError)
		println("[logger] store power down:", perr.Error())
	}
	a.publishState()
	return err
}

// Cycle runs one tick. It returns early only when ctx ends.
func (a *App) Cycle(ctx context.Context) error {
	a.ticks++

	if err := a.wake(); err != nil {
		a.flags.Set(types.FlagMemError)
		println("[logger] store wake:", err.Error())
	}

	if s, ok := a.ctl.Tick(); ok {
		if a.conn != nil {
			a.conn.Publish(bus.NewMessage(TopicSample, s, false))
		}
		if !s.Result.OK() {
			var nb [20]byte
			println("[logger] sample at", string(conv.Utoa(nb[:], uint64(s.Addr))), "result", uint8(s.Result))
		}
	}

	if _, err := a.eng.Exchange(ctx); err != nil {
		println("[logger] exchange:", err.Error())
	}

	a.sleepStore()
	a.publishState()
	return ctx.Err()
}

func (a *App) wake() error {
	if err := a.d.Store.BeginExitUltraDeepPowerDown(); err != nil {
		return err
	}
	a.d.Clock.Sleep(a.d.Store.ReadyIn())
	return nil
}

// sleepStore lets a pending program cycle finish, then powers down.
func (a *App) sleepStore() {
	for i := 0; i < a.cfg.Loop.BusyRetries; i++ {
		busy, err := a.d.Store.Busy()
		if err != nil || !busy {
			break
		}
		a.d.Clock.Sleep(a.cfg.Loop.Backoff())
	}
	if err := a.d.Store.EnterUltraDeepPowerDown(); err != nil {
		a.flags.Set(types.FlagMemError)
		println("[logger] store power down:", err.Error())
	}
}

func (a *App) publishState() {
	if a.conn == nil {
		return
	}
	a.conn.Publish(bus.NewMessage(TopicFlags, a.flags, true))
	a.conn.Publish(bus.NewMessage(TopicState, a.ctl.State(), true))
}

// Run calls Cycle once per tick interval until ctx ends.
func (a *App) Run(ctx context.Context) error {
	tick := time.NewTicker(a.cfg.Loop.Tick())
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			println("[logger] stopping")
			return ctx.Err()
		case <-tick.C:
			if err := a.Cycle(ctx); err != nil {
				return err
			}
		}
	}
}
