package types

// Result is the flag byte returned by the store's hot-path log call.
// Zero means the word was written and the cursor advanced.
type Result uint8

const (
	ResultOK             Result = 0
	ResultBusy           Result = 1 << 0 // store still busy from a previous write
	ResultWriteProtected Result = 1 << 1 // status register reports block protection
	ResultBusError       Result = 1 << 2 // a bus transaction failed
	ResultFull           Result = 1 << 3 // cursor reached the end of the array
	ResultAsleep         Result = 1 << 4 // store powered down or still settling
)

func (r Result) OK() bool { return r == ResultOK }

func (r Result) Has(flag Result) bool { return r&flag != 0 }

// SensorFault is written in place of a reading when the sensor fails, so
// every tick of a session still occupies exactly one word.
const SensorFault uint16 = 0x8000

// Sample is one tick's reading plus the store result for it.
type Sample struct {
	Addr    uint16 // word index the reading was written to (valid when Result is OK)
	Reading uint16
	Result  Result
}
