package indicator

import (
	"context"
	"sync"
	"testing"
	"time"

	"wstl-go/bus"
	"wstl-go/services/config"
	"wstl-go/services/logger"
	"wstl-go/types"
)

type fakeLED struct {
	mu    sync.Mutex
	on    bool
	rises int
}

func (l *fakeLED) High() { l.mu.Lock(); l.on = true; l.rises++; l.mu.Unlock() }
func (l *fakeLED) Low()  { l.mu.Lock(); l.on = false; l.mu.Unlock() }
func (l *fakeLED) Rises() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rises
}

func waitRises(t *testing.T, l *fakeLED, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if l.Rises() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("rises = %d, want %d", l.Rises(), want)
}

func start(t *testing.T, enabled bool) (*fakeLED, *bus.Connection) {
	t.Helper()
	b := bus.NewBus(8)
	pub := b.NewConnection("test")
	pub.Publish(bus.NewMessage(config.Topic("indicator"), map[string]any{"enabled": enabled, "blink_ms": 1}, true))

	led := &fakeLED{}
	svc := New(led)
	svc.sleep = func(time.Duration) {}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	svc.Start(ctx, b.NewConnection("indicator"))
	// Let the retained config land before events.
	time.Sleep(20 * time.Millisecond)
	return led, pub
}

func TestIndicator_PulsesPerSample(t *testing.T) {
	led, pub := start(t, true)
	pub.Publish(bus.NewMessage(logger.TopicSample, types.Sample{Addr: 0, Reading: 0x1980}, false))
	waitRises(t, led, 1)
	pub.Publish(bus.NewMessage(logger.TopicSample, types.Sample{Result: types.ResultBusy}, false))
	time.Sleep(20 * time.Millisecond)
	waitRises(t, led, 1)
}

func TestIndicator_DoubleBlinkOnNewError(t *testing.T) {
	led, pub := start(t, true)
	f := types.FlagLogging | types.FlagTempError
	pub.Publish(bus.NewMessage(logger.TopicFlags, f, true))
	waitRises(t, led, 2)
	pub.Publish(bus.NewMessage(logger.TopicFlags, f, true))
	time.Sleep(20 * time.Millisecond)
	waitRises(t, led, 2)
}

func TestIndicator_DisabledStaysDark(t *testing.T) {
	led, pub := start(t, false)
	pub.Publish(bus.NewMessage(logger.TopicSample, types.Sample{}, false))
	pub.Publish(bus.NewMessage(logger.TopicFlags, types.FlagMemError, true))
	time.Sleep(30 * time.Millisecond)
	if led.Rises() != 0 {
		t.Fatalf("rises = %d", led.Rises())
	}
}

func TestIndicator_LoggingToggleDoesNotReblink(t *testing.T) {
	led, pub := start(t, true)
	pub.Publish(bus.NewMessage(logger.TopicFlags, types.FlagTempError, true))
	waitRises(t, led, 2)

	pub.Publish(bus.NewMessage(logger.TopicFlags, types.FlagTempError|types.FlagLogging, true))
	pub.Publish(bus.NewMessage(logger.TopicFlags, types.FlagTempError, true))
	time.Sleep(20 * time.Millisecond)
	waitRises(t, led, 2)

	pub.Publish(bus.NewMessage(logger.TopicFlags, types.FlagTempError|types.FlagMemError, true))
	waitRises(t, led, 4)
}
