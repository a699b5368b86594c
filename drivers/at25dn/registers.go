package at25dn

import "time"

// Instruction set (AT25DN512C datasheet, table 6-1).
const (
	opReadArray      = 0x03
	opProgram        = 0x02
	opWriteEnable    = 0x06
	opWriteDisable   = 0x04
	opReadStatus     = 0x05 // returns byte 1 then byte 2
	opWriteStatus1   = 0x01
	opDeepPowerDown  = 0xB9
	opResumeDeep     = 0xAB
	opUltraDeepPower = 0x79
	opReadOTP        = 0x77
	opReadMFDID      = 0x9F
)

// Status register byte 1.
const (
	sr1Busy       = 1 << 0 // RDY/BSY: 1 while an internal operation is in progress
	sr1WriteEn    = 1 << 1 // WEL
	sr1BlockProt  = 1 << 2 // BP0: whole array protected
	sr1WPPin      = 1 << 4 // WPP: 0 while the WP pin is asserted
	sr1ProgErr    = 1 << 5 // EPE: last erase/program failed
	sr1ProtLocked = 1 << 7 // BPL
)

// Status register byte 2.
const (
	sr2Busy = 1 << 0
)

// IDAT25DN512C is the JEDEC manufacturer/device ID (1Fh 65h 01h).
const IDAT25DN512C uint32 = 0x1F6501

// Geometry.
const (
	CapacityWords = 32768 // 512 Kbit / 16 bit
	pageSize      = 256
	otpSize       = 128
	otpFactoryOff = 64
	erasedWord    = 0xFFFF
)

// Timing.
const (
	// tXUDPD: chip-select pulse to standby after ultra-deep power-down.
	DefaultWakeDelay = 70 * time.Microsecond
	// tRDPD: resume from deep power-down.
	DefaultResumeDelay = 8 * time.Microsecond
)
