package main

import (
	"context"
	"time"

	"wstl-go/bus"
	"wstl-go/drivers/at25dn"
	"wstl-go/drivers/max30205"
	"wstl-go/platform"
	"wstl-go/services/config"
	"wstl-go/services/indicator"
	"wstl-go/services/logger"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[main] boot", platform.BoardName)

	cfg, err := config.Load(platform.BoardName)
	if err != nil {
		println("[main] config:", err.Error())
		return
	}
	board, err := platform.Open(cfg)
	if err != nil {
		println("[main] board:", err.Error())
		return
	}

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, board.Name)
	b := bus.NewBus(8)
	config.NewConfigService().Start(ctx, b.NewConnection("config"))
	if cfg.Indicator.Enabled {
		indicator.New(board.LED).Start(ctx, b.NewConnection("indicator"))
	}

	store := at25dn.New(board.SPI, board.StoreCS, at25dn.Config{
		ExpectedID:    cfg.Store.ExpectedID,
		CapacityWords: cfg.Store.CapacityWords,
		WakeDelay:     cfg.Store.WakeDelay(),
		ResumeDelay:   cfg.Store.ResumeDelay(),
		Clock:         board.Clock,
	})
	temp := max30205.New(board.I2C)
	if err := temp.Configure(max30205.Config{Sleep: board.Clock.Sleep}); err != nil {
		println("[main] sensor:", err.Error())
	}

	app := logger.New(logger.Deps{
		Store:   store,
		Sensor:  &temp,
		Port:    board.UART,
		Console: board.Console,
		Clock:   board.Clock,
	}, cfg, b.NewConnection("logger"))

	if err := app.Init(); err != nil {
		println("[main] store:", err.Error())
	}
	println("[main] cursor", store.Cursor(), "flags", app.Flags().String())
	app.Run(ctx)
}
