package at25dn

import (
	"time"

	"wstl-go/errcode"
)

// PowerState is the driver's view of the device power mode.
type PowerState uint8

const (
	PowerAwake         PowerState = iota // standby, accepts any instruction
	PowerBusy                            // internal program/write-status cycle running
	PowerDeepDown                        // after 0xB9; only resume (0xABh) is legal
	PowerUltraDeepDown                   // after 0x79; only a chip-select pulse is legal
)

func (s PowerState) String() string {
	switch s {
	case PowerAwake:
		return "awake"
	case PowerBusy:
		return "busy"
	case PowerDeepDown:
		return "deep_power_down"
	case PowerUltraDeepDown:
		return "ultra_deep_power_down"
	default:
		return "unknown"
	}
}

// PowerState reports the current power mode. A pending wake is reported as
// the power-down state until the settling time has been observed by a bus call.
func (d *Device) PowerState() PowerState { return d.power }

// EnterUltraDeepPowerDown issues the lowest-power sequence. All bus traffic
// is rejected with errcode.PoweredDown until BeginExitUltraDeepPowerDown.
// A busy device ignores the instruction, so errcode.BusBusy is returned.
func (d *Device) EnterUltraDeepPowerDown() error {
	return d.enterPowerDown(opUltraDeepPower, PowerUltraDeepDown)
}

func (d *Device) enterPowerDown(op byte, to PowerState) error {
	if d.power == to && !d.waking {
		return nil
	}
	if err := d.idle(); err != nil {
		return err
	}
	d.w[0] = op
	if err := d.transact(d.w[:1], nil); err != nil {
		return errcode.Wrap(errcode.BusError, "at25dn.power_down", err)
	}
	d.power = to
	d.waking = false
	d.srValid = false
	return nil
}

// BeginExitUltraDeepPowerDown issues the wake trigger and returns at once.
// From ultra-deep power-down the trigger is a chip-select pulse; from deep
// power-down it is the resume instruction. The caller must wait ReadyIn
// before the next bus operation; earlier calls fail with errcode.NotReady.
func (d *Device) BeginExitUltraDeepPowerDown() error {
	switch d.power {
	case PowerUltraDeepDown:
		d.pulse()
		d.startWake(d.cfg.WakeDelay)
	case PowerDeepDown:
		d.w[0] = opResumeDeep
		if err := d.transact(d.w[:1], nil); err != nil {
			return errcode.Wrap(errcode.BusError, "at25dn.resume", err)
		}
		d.startWake(d.cfg.ResumeDelay)
	}
	return nil
}

func (d *Device) startWake(settle time.Duration) {
	d.waking = true
	d.wakeAt = d.clk.Now()
	d.wakeFor = settle
}

// ReadyIn returns how long the caller must still wait after a wake trigger.
// Zero when no wake is pending or the settling time has elapsed.
func (d *Device) ReadyIn() time.Duration {
	if !d.waking {
		return 0
	}
	left := d.wakeFor - d.clk.Now().Sub(d.wakeAt)
	if left < 0 {
		return 0
	}
	return left
}
