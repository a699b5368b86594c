package session

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"wstl-go/errcode"
	"wstl-go/types"
)

// fakeStore is an in-memory word array with scriptable busy/result.
type fakeStore struct {
	words     []uint16
	busyPolls int // Busy reports true this many times
	busyCalls int
	logs      int
	result    types.Result
	readErr   error
}

func (s *fakeStore) LogTemperature(v uint16) types.Result {
	s.logs++
	if s.result != types.ResultOK {
		return s.result
	}
	s.words = append(s.words, v)
	return types.ResultOK
}

func (s *fakeStore) Busy() (bool, error) {
	s.busyCalls++
	if s.busyPolls > 0 {
		s.busyPolls--
		return true, nil
	}
	return false, nil
}

func (s *fakeStore) Cursor() uint16 { return uint16(len(s.words)) }

func (s *fakeStore) ReadWords(addr uint16, dst []uint16) error {
	if s.readErr != nil {
		return s.readErr
	}
	copy(dst, s.words[addr:])
	return nil
}

type fakeSensor struct {
	raw uint16
	err error
}

func (f *fakeSensor) Read() (uint16, error) { return f.raw, f.err }

func newController(st *fakeStore, se *fakeSensor) (*Controller, *types.Flags) {
	flags := new(types.Flags)
	return New(st, se, flags, Config{Sleep: func(time.Duration) {}}), flags
}

func TestBegin_RequiresFourteenDigits(t *testing.T) {
	cases := []struct {
		args string
		want bool
	}{
		{"20230101000000", true},
		{"20230101000000#", true},
		{"2023010100000", false},
		{"2023010100000a", false},
		{"", false},
		{" 20230101000000", false},
	}
	for _, c := range cases {
		ctl, flags := newController(&fakeStore{}, &fakeSensor{})
		got := ctl.Begin([]byte(c.args))
		if got != c.want || (ctl.State() == Logging) != c.want || flags.Has(types.FlagLogging) != c.want {
			t.Errorf("Begin(%q) = %v state=%v flags=%v", c.args, got, ctl.State(), flags)
		}
	}
}

func TestTick_OnlyWhileLogging(t *testing.T) {
	st := &fakeStore{}
	ctl, _ := newController(st, &fakeSensor{raw: 0x1980})

	if _, ok := ctl.Tick(); ok || st.logs != 0 {
		t.Fatal("Tick while Idle must not log")
	}
	ctl.Begin([]byte("20230101000000"))
	for i := 0; i < 3; i++ {
		s, ok := ctl.Tick()
		if !ok || !s.Result.OK() || s.Addr != uint16(i) {
			t.Fatalf("tick %d: %+v ok=%v", i, s, ok)
		}
	}
	if st.logs != 3 {
		t.Fatalf("logs = %d", st.logs)
	}
	ctl.End([]byte("20230101000300"))
	ctl.Tick()
	if st.logs != 3 {
		t.Fatal("Tick after End must not log")
	}
}

func TestTick_SensorFaultStillLogsMarker(t *testing.T) {
	st := &fakeStore{}
	ctl, flags := newController(st, &fakeSensor{err: errors.New("nack")})
	ctl.Begin([]byte("20230101000000"))

	s, _ := ctl.Tick()
	if s.Reading != types.SensorFault || st.words[0] != types.SensorFault {
		t.Fatalf("sample = %+v", s)
	}
	if !flags.Has(types.FlagTempError) || flags.Has(types.FlagMemError) {
		t.Fatalf("flags = %v", flags)
	}
}

func TestTick_BoundedBusyPoll(t *testing.T) {
	st := &fakeStore{busyPolls: 3}
	ctl, flags := newController(st, &fakeSensor{raw: 1})
	ctl.Begin([]byte("20230101000000"))
	if s, _ := ctl.Tick(); !s.Result.OK() {
		t.Fatalf("result = %v", s.Result)
	}
	if st.busyCalls != 4 || *flags != types.FlagLogging {
		t.Fatalf("busyCalls=%d flags=%v", st.busyCalls, flags)
	}

	// Busy beyond the budget: the log call still happens once and fails soft.
	st.busyPolls = 100
	st.busyCalls = 0
	st.result = types.ResultBusy
	s, _ := ctl.Tick()
	if st.busyCalls != 11 || st.logs != 2 {
		t.Fatalf("busyCalls=%d logs=%d", st.busyCalls, st.logs)
	}
	if !s.Result.Has(types.ResultBusy) || !flags.Has(types.FlagMemError) {
		t.Fatalf("result=%v flags=%v", s.Result, flags)
	}
}

func TestBeginEnd_IgnoredInWrongState(t *testing.T) {
	ctl, _ := newController(&fakeStore{}, &fakeSensor{})
	if ctl.End([]byte("20230101000000")) {
		t.Fatal("End while Idle must be ignored")
	}
	ctl.Begin([]byte("20230101000000"))
	if ctl.Begin([]byte("20990101000000")) {
		t.Fatal("Begin while Logging must be ignored")
	}
	if ctl.End([]byte("bad")) || ctl.State() != Logging {
		t.Fatal("End with a bad stamp must be ignored")
	}
	if ctl.End([]byte("2023010100000a")) || ctl.State() != Logging {
		t.Fatal("End with a non-digit in a full-length stamp must be ignored")
	}
	if ctl.End([]byte("20230101 00000")) || ctl.State() != Logging {
		t.Fatal("End with a space in the stamp must be ignored")
	}
	sess, _ := ctl.Session()
	if sess.Start.String() != "20230101000000" {
		t.Fatalf("start = %s", sess.Start)
	}
}

func TestDump_Ranges(t *testing.T) {
	st := &fakeStore{words: []uint16{0xAAAA, 0xBBBB}}
	ctl, _ := newController(st, &fakeSensor{raw: 0x1234})

	// No session yet: everything written so far.
	var buf bytes.Buffer
	if err := ctl.Dump(&buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0xAA, 0xAA, 0xBB, 0xBB}) {
		t.Fatalf("dump = % X", buf.Bytes())
	}

	// Running session: words since Begin only.
	ctl.Begin([]byte("20230101000000"))
	ctl.Tick()
	ctl.Tick()
	buf.Reset()
	ctl.Dump(&buf)
	if !bytes.Equal(buf.Bytes(), []byte{0x12, 0x34, 0x12, 0x34}) {
		t.Fatalf("dump = % X", buf.Bytes())
	}

	// Ended session keeps its range even if the cursor moves on.
	ctl.End([]byte("20230101000200"))
	st.words = append(st.words, 0xCCCC)
	buf.Reset()
	ctl.Dump(&buf)
	if buf.Len() != 4 {
		t.Fatalf("dump after End = % X", buf.Bytes())
	}
}

func TestDump_LargeRangeChunks(t *testing.T) {
	st := &fakeStore{}
	for i := 0; i < 70; i++ {
		st.words = append(st.words, uint16(i))
	}
	ctl, _ := newController(st, &fakeSensor{})
	var buf bytes.Buffer
	if err := ctl.Dump(&buf); err != nil {
		t.Fatal(err)
	}
	b := buf.Bytes()
	if len(b) != 140 || b[139] != 69 || b[138] != 0 {
		t.Fatalf("len=%d tail=% X", len(b), b[len(b)-2:])
	}
}

func TestDump_ReadErrorSetsMemError(t *testing.T) {
	st := &fakeStore{words: []uint16{1}, readErr: errcode.BusError}
	ctl, flags := newController(st, &fakeSensor{})
	if err := ctl.Dump(&bytes.Buffer{}); !errors.Is(err, errcode.BusError) {
		t.Fatalf("err = %v", err)
	}
	if !flags.Has(types.FlagMemError) {
		t.Fatal("MemError not set")
	}
}
