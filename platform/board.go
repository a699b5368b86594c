// Package platform wires the board peripherals the logger needs. The
// rp2040 build uses machine and uartx; every other build gets the sim
// emulators so the firmware loop runs on a workstation.
package platform

import (
	"io"

	"wstl-go/x/timex"

	"tinygo.org/x/drivers"
)

// Pin is a push-pull output.
type Pin interface {
	High()
	Low()
}

// Board holds configured peripherals.
type Board struct {
	Name string

	SPI     drivers.SPI // store bus
	StoreCS Pin
	I2C     drivers.I2C // temperature sensor bus
	UART    Port        // host link
	LED     Pin
	Console io.Writer
	Clock   timex.Clock
}
