//go:build rp2040

package platform

import (
	"context"
	"machine"
	"os"
	"sync/atomic"
	"time"

	"wstl-go/services/config"
	"wstl-go/types"
	"wstl-go/x/timex"

	uartx "github.com/jangala-dev/tinygo-uartx"
)

// BoardName selects the embedded config.
const BoardName = "pico"

// Pico wiring.
const (
	pinStoreCS = machine.GP17
	pinLED     = machine.LED
)

// Open configures the peripherals described by cfg.
func Open(cfg config.Logger) (*Board, error) {
	spi := machine.SPI0
	if err := spi.Configure(machine.SPIConfig{
		Frequency: 8 * machine.MHz,
		SCK:       machine.SPI0_SCK_PIN,
		SDO:       machine.SPI0_SDO_PIN,
		SDI:       machine.SPI0_SDI_PIN,
		Mode:      0,
	}); err != nil {
		return nil, err
	}
	cs := pinStoreCS
	cs.Configure(machine.PinConfig{Mode: machine.PinOutput})
	cs.High()

	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	}); err != nil {
		return nil, err
	}

	led := pinLED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	led.Low()

	u := uartx.UART0
	if err := u.Configure(uartx.UARTConfig{
		BaudRate: cfg.UART.Baud,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	}); err != nil {
		return nil, err
	}
	port := &rp2Port{u: u}
	if err := port.setFormat(cfg.UART.Format()); err != nil {
		return nil, err
	}

	return &Board{
		Name:    BoardName,
		SPI:     spi,
		StoreCS: cs,
		I2C:     i2c,
		UART:    port,
		LED:     led,
		Console: os.Stdout,
		Clock:   timex.System,
	}, nil
}

// rp2Port adapts uartx to Port. uartx keeps its RX interrupt running, so
// the gate discards whatever arrived while the window was closed.
type rp2Port struct {
	u    *uartx.UART
	open atomic.Bool
	junk [16]byte
}

func (p *rp2Port) Write(b []byte) (int, error) { return p.u.Write(b) }

func (p *rp2Port) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	if !p.open.Load() {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return p.u.RecvSomeContext(ctx, buf)
}

func (p *rp2Port) EnableRX() {
	for {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		n, _ := p.u.RecvSomeContext(ctx, p.junk[:])
		cancel()
		if n == 0 {
			break
		}
	}
	p.open.Store(true)
}

func (p *rp2Port) DisableRX() { p.open.Store(false) }

func (p *rp2Port) setFormat(f types.SerialFormat) error {
	var par uartx.UARTParity
	switch f.Parity {
	case types.ParityEven:
		par = uartx.ParityEven
	case types.ParityOdd:
		par = uartx.ParityOdd
	default:
		par = uartx.ParityNone
	}
	return p.u.SetFormat(f.DataBits, f.StopBits, par)
}
