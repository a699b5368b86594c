package types

// Flags is the process-wide device status bitset. It lives for the whole run
// and is only cleared at power-on. Bit positions follow the firmware status byte
// layout so a host can decode a raw flags byte.
type Flags uint8

const (
	FlagLogging         Flags = 1 << 0 // a session is active
	FlagMemError        Flags = 1 << 1 // store returned an error or failed identification
	FlagTempError       Flags = 1 << 2 // temperature sensor failed a read
	FlagCommandOverflow Flags = 1 << 3 // a handshake window received more than the buffer holds
	FlagCommandError    Flags = 1 << 4 // unrecognised opcode
)

func (f Flags) Has(flag Flags) bool { return f&flag != 0 }

func (f *Flags) Set(flag Flags)   { *f |= flag }
func (f *Flags) Clear(flag Flags) { *f &^= flag }

// Errors reports whether any sticky error bit is set.
func (f Flags) Errors() bool {
	return f&(FlagMemError|FlagTempError|FlagCommandOverflow|FlagCommandError) != 0
}

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var buf [64]byte
	out := buf[:0]
	add := func(s string) {
		if len(out) > 0 {
			out = append(out, '|')
		}
		out = append(out, s...)
	}
	if f.Has(FlagLogging) {
		add("logging")
	}
	if f.Has(FlagMemError) {
		add("mem_error")
	}
	if f.Has(FlagTempError) {
		add("temp_error")
	}
	if f.Has(FlagCommandOverflow) {
		add("command_overflow")
	}
	if f.Has(FlagCommandError) {
		add("command_error")
	}
	return string(out)
}
