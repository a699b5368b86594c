package at25dn

import "wstl-go/errcode"

// RefreshStatus reads both status register bytes into the cache. It is the
// only operation that populates the cache. The read is legal while the
// device is busy and updates the busy state from the RDY/BSY bit.
func (d *Device) RefreshStatus() error {
	if err := d.ready(); err != nil {
		return err
	}
	d.w[0] = opReadStatus
	if err := d.transact(d.w[:1], d.r[:2]); err != nil {
		d.srValid = false
		return errcode.Wrap(errcode.BusError, "at25dn.status", err)
	}
	d.sr1, d.sr2 = d.r[0], d.r[1]
	d.srValid = true
	if d.sr1&sr1Busy != 0 {
		d.power = PowerBusy
	} else {
		d.power = PowerAwake
	}
	return nil
}

// GetStatusRegister1 returns the cached byte 1. ok is false when the cache
// has been invalidated since the last RefreshStatus.
func (d *Device) GetStatusRegister1() (v byte, ok bool) { return d.sr1, d.srValid }

// GetStatusRegister2 returns the cached byte 2.
func (d *Device) GetStatusRegister2() (v byte, ok bool) { return d.sr2, d.srValid }

// WriteStatusRegister1 sets write enable and writes byte 1. The write starts
// an internal cycle, so the device is busy afterwards and the cache is invalid.
func (d *Device) WriteStatusRegister1(v byte) error {
	if err := d.idle(); err != nil {
		return err
	}
	if err := d.writeEnable(); err != nil {
		return err
	}
	d.srValid = false
	d.w[0] = opWriteStatus1
	d.w[1] = v
	if err := d.transact(d.w[:2], nil); err != nil {
		return errcode.Wrap(errcode.BusError, "at25dn.write_status", err)
	}
	d.power = PowerBusy
	return nil
}

// Busy refreshes the status and reports the RDY/BSY bit. Callers use it to
// build their own bounded retry policy.
func (d *Device) Busy() (bool, error) {
	if err := d.RefreshStatus(); err != nil {
		return false, err
	}
	return d.power == PowerBusy, nil
}

// WriteProtected reports block protection from the cache.
func (d *Device) WriteProtected() (protected, ok bool) {
	return d.sr1&sr1BlockProt != 0, d.srValid
}

func (d *Device) writeEnable() error {
	d.w[0] = opWriteEnable
	if err := d.transact(d.w[:1], nil); err != nil {
		return errcode.Wrap(errcode.BusError, "at25dn.write_enable", err)
	}
	return nil
}
