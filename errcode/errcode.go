package errcode

// Code is a stable error identifier shared by the drivers, the command engine
// and the host tool. It is a string newtype, comparable, allocation-free, and
// implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Store driver
	DeviceNotFound Code = "device_not_found"
	WriteProtected Code = "write_protected"
	BusBusy        Code = "bus_busy"
	BusError       Code = "bus_error"
	NotReady       Code = "not_ready"    // wake trigger issued, settling time not elapsed
	PoweredDown    Code = "powered_down" // bus traffic while the device is powered down
	StoreFull      Code = "store_full"

	// Command / session
	CommandOverflow Code = "command_overflow"
	CommandError    Code = "command_error"
	InvalidStamp    Code = "invalid_timestamp"

	// Sampling path
	TempSensorError Code = "temp_sensor_error"
	MemoryError     Code = "memory_error"

	InvalidConfig Code = "invalid_config"
	Timeout       Code = "timeout"

	Error Code = "error" // generic fallback
)

// E keeps an operation name and a cause alongside a Code.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, code) match a wrapped E by its code.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Wrap attaches op and cause to a code. A nil cause still yields an error.
func Wrap(c Code, op string, err error) error {
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}
