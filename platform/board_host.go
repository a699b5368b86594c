//go:build !rp2040

package platform

import (
	"os"

	"wstl-go/platform/sim"
	"wstl-go/services/config"
	"wstl-go/x/conv"
	"wstl-go/x/timex"
)

// BoardName selects the embedded config.
const BoardName = "host"

// Open builds a simulated board on the system clock. The emulated sensor
// reads a constant 21.5 °C.
func Open(cfg config.Logger) (*Board, error) {
	clk := timex.System
	flash := sim.NewFlash(clk)
	sensor := sim.NewSensor(clk)
	sensor.SetRaw(0x1580)
	uart := sim.NewUART()
	uart.OnWrite = func(p []byte) {
		var nb [20]byte
		println("[sim] uart tx", string(conv.Utoa(nb[:], uint64(len(p)))), "bytes")
	}
	return &Board{
		Name:    BoardName,
		SPI:     flash,
		StoreCS: flash,
		I2C:     sensor,
		UART:    uart,
		LED:     &sim.Pin{},
		Console: os.Stdout,
		Clock:   clk,
	}, nil
}
