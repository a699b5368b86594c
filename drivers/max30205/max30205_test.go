package max30205

import (
	"errors"
	"testing"
	"time"

	"wstl-go/platform/sim"
	"wstl-go/x/timex"
)

func newSensor(t *testing.T) (*Device, *sim.Sensor, *timex.Manual) {
	t.Helper()
	clk := timex.NewManual(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	s := sim.NewSensor(clk)
	d := New(s)
	if err := d.Configure(Config{Sleep: clk.Sleep}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	return &d, s, clk
}

func TestConfigure_EntersShutdown(t *testing.T) {
	_, s, _ := newSensor(t)
	if len(s.LastWrite) != 2 || s.LastWrite[0] != regConfig || s.LastWrite[1]&cfgShutdown == 0 {
		t.Fatalf("last write = % X", s.LastWrite)
	}
}

func TestTriggerCollect_TwoPhase(t *testing.T) {
	d, s, clk := newSensor(t)
	s.SetRaw(0x1980) // 25.5 °C

	if err := d.Trigger(); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if _, err := d.Collect(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Collect before conversion: %v", err)
	}
	clk.Advance(s.ConvTime)
	raw, err := d.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if raw != 0x1980 || d.Raw() != 0x1980 {
		t.Fatalf("raw = %04X", raw)
	}
	if got := DeciCelsius(raw); got != 255 {
		t.Fatalf("DeciCelsius = %d", got)
	}
}

func TestRead_FullCycle(t *testing.T) {
	d, s, _ := newSensor(t)
	s.SetRaw(0x0A00) // 10 °C
	raw, err := d.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if MilliCelsius(raw) != 10000 {
		t.Fatalf("MilliCelsius = %d", MilliCelsius(raw))
	}
	if s.Triggers != 1 {
		t.Fatalf("triggers = %d", s.Triggers)
	}
}

func TestRead_TimesOut(t *testing.T) {
	d, s, _ := newSensor(t)
	s.ConvTime = time.Hour
	if _, err := d.Read(); !errors.Is(err, ErrTimeout) {
		t.Fatalf("Read: %v, want timeout", err)
	}
}

func TestRead_BusError(t *testing.T) {
	d, s, _ := newSensor(t)
	s.FailNext()
	if _, err := d.Read(); err == nil {
		t.Fatal("expected bus error")
	}
}

func TestConversions_Negative(t *testing.T) {
	raw := uint16(0xFF00) // -1 °C
	if DeciCelsius(raw) != -10 || MilliCelsius(raw) != -1000 || Celsius(raw) != -1 {
		t.Fatalf("negative conversion: %d %d %v", DeciCelsius(raw), MilliCelsius(raw), Celsius(raw))
	}
}
