package at25dn

import (
	"wstl-go/errcode"
	"wstl-go/types"
)

// ReadWord reads one big-endian word at a word index.
func (d *Device) ReadWord(addr uint16) (uint16, error) {
	if err := d.idle(); err != nil {
		return 0, err
	}
	if uint32(addr) >= d.cfg.CapacityWords {
		return 0, &errcode.E{C: errcode.Error, Op: "at25dn.read", Msg: "address out of range"}
	}
	d.w[0] = opReadArray
	d.putAddr(addr)
	if err := d.transact(d.w[:4], d.r[:2]); err != nil {
		return 0, errcode.Wrap(errcode.BusError, "at25dn.read", err)
	}
	return uint16(d.r[0])<<8 | uint16(d.r[1]), nil
}

// ReadWords fills dst with consecutive words starting at addr. Each chunk
// of up to 32 words is one read-array transaction.
func (d *Device) ReadWords(addr uint16, dst []uint16) error {
	if len(dst) == 0 {
		return nil
	}
	if err := d.idle(); err != nil {
		return err
	}
	if uint32(addr)+uint32(len(dst)) > d.cfg.CapacityWords {
		return &errcode.E{C: errcode.Error, Op: "at25dn.read", Msg: "range past end of array"}
	}
	for len(dst) > 0 {
		n := len(dst)
		if n > len(d.scratch)/2 {
			n = len(d.scratch) / 2
		}
		raw := d.scratch[:2*n]
		d.w[0] = opReadArray
		d.putAddr(addr)
		if err := d.transact(d.w[:4], raw); err != nil {
			return errcode.Wrap(errcode.BusError, "at25dn.read", err)
		}
		for i := 0; i < n; i++ {
			dst[i] = uint16(raw[2*i])<<8 | uint16(raw[2*i+1])
		}
		dst = dst[n:]
		addr += uint16(n)
	}
	return nil
}

// WriteWord programs one word. It fails with errcode.WriteProtected, without
// touching the bus, when the cached status shows block protection. It never
// waits for a previous cycle: a cached busy state yields errcode.BusBusy and
// callers decide whether to poll Busy.
func (d *Device) WriteWord(addr uint16, v uint16) error {
	if uint32(addr) >= d.cfg.CapacityWords {
		return errcode.StoreFull
	}
	if err := d.idle(); err != nil {
		return err
	}
	if d.protected() {
		return errcode.WriteProtected
	}
	if err := d.writeEnable(); err != nil {
		return err
	}
	d.srValid = false
	d.w[0] = opProgram
	d.putAddr(addr)
	d.w[4] = byte(v >> 8)
	d.w[5] = byte(v)
	if err := d.transact(d.w[:6], nil); err != nil {
		return errcode.Wrap(errcode.BusError, "at25dn.write", err)
	}
	d.power = PowerBusy
	return nil
}

// Scan moves the cursor to the first erased word so a power cycle never
// reuses written slots. It returns the new cursor.
func (d *Device) Scan() (uint16, error) {
	var words [32]uint16
	capw := d.cfg.CapacityWords
	for base := uint32(0); base < capw; base += uint32(len(words)) {
		n := uint32(len(words))
		if base+n > capw {
			n = capw - base
		}
		if err := d.ReadWords(uint16(base), words[:n]); err != nil {
			return d.cursor, err
		}
		for i := uint32(0); i < n; i++ {
			if words[i] == erasedWord {
				d.cursor = uint16(base + i)
				return d.cursor, nil
			}
		}
	}
	d.cursor = uint16(capw)
	return d.cursor, nil
}

// LogTemperature is the per-tick hot path: refresh status, check busy and
// protection, write one word at the cursor and advance it. Failures are
// reported in the result byte rather than as errors; the cursor only moves
// on success.
//
// A reading equal to the erased pattern is stored as 0xFFFE so Scan can
// still find the end of the log.
func (d *Device) LogTemperature(reading uint16) types.Result {
	if err := d.ready(); err != nil {
		return types.ResultAsleep
	}
	if uint32(d.cursor) >= d.cfg.CapacityWords {
		return types.ResultFull
	}
	if err := d.RefreshStatus(); err != nil {
		return types.ResultBusError
	}
	if d.power == PowerBusy {
		return types.ResultBusy
	}
	if d.protected() {
		return types.ResultWriteProtected
	}
	if reading == erasedWord {
		reading = erasedWord - 1
	}
	if err := d.WriteWord(d.cursor, reading); err != nil {
		return resultOf(err)
	}
	d.cursor++
	return types.ResultOK
}

func resultOf(err error) types.Result {
	switch errcode.Of(err) {
	case errcode.OK:
		return types.ResultOK
	case errcode.BusBusy:
		return types.ResultBusy
	case errcode.WriteProtected:
		return types.ResultWriteProtected
	case errcode.StoreFull:
		return types.ResultFull
	case errcode.NotReady, errcode.PoweredDown:
		return types.ResultAsleep
	default:
		return types.ResultBusError
	}
}
