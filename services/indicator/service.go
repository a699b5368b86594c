// Package indicator blinks an LED for logger events: one short pulse per
// stored sample and two when a sticky error flag is set.
package indicator

import (
	"context"
	"time"

	"wstl-go/bus"
	"wstl-go/services/config"
	"wstl-go/services/logger"
	"wstl-go/types"
)

// LED is the indicator output. machine.Pin and sim.Pin satisfy it.
type LED interface {
	High()
	Low()
}

type Service struct {
	led     LED
	enabled bool
	blink   time.Duration
	sleep   func(time.Duration)
}

func New(led LED) *Service {
	return &Service{led: led, blink: 20 * time.Millisecond, sleep: time.Sleep}
}

func (s *Service) pulse(n int) {
	for i := 0; i < n; i++ {
		if i > 0 {
			s.sleep(s.blink)
		}
		s.led.High()
		s.sleep(s.blink)
		s.led.Low()
	}
}

func (s *Service) applyConfig(payload any) {
	var c config.Indicator
	if err := config.DecodeJSON(payload, &c); err != nil {
		println("[indicator] bad config:", err.Error())
		return
	}
	s.enabled = c.Enabled
	if c.BlinkMs > 0 {
		s.blink = time.Duration(c.BlinkMs) * time.Millisecond
	}
	if !s.enabled {
		s.led.Low()
	}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(config.Topic("indicator"))
	sampleSub := conn.Subscribe(logger.TopicSample)
	flagSub := conn.Subscribe(logger.TopicFlags)
	defer conn.Disconnect()

	var last types.Flags
	for {
		select {
		case <-ctx.Done():
			s.led.Low()
			return
		case msg := <-cfgSub.Channel():
			s.applyConfig(msg.Payload)
		case msg := <-sampleSub.Channel():
			if smp, ok := msg.Payload.(types.Sample); ok && s.enabled && smp.Result.OK() {
				s.pulse(1)
			}
		case msg := <-flagSub.Channel():
			f, ok := msg.Payload.(types.Flags)
			if !ok {
				continue
			}
			// Only newly raised error bits blink.
			if s.enabled && (f&^last).Errors() {
				s.pulse(2)
			}
			last = f
		}
	}
}

// Start launches the indicator loop.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
