package errcode

import (
	"errors"
	"testing"
)

func TestOf(t *testing.T) {
	if got := Of(nil); got != OK {
		t.Fatalf("Of(nil) = %q", got)
	}
	if got := Of(WriteProtected); got != WriteProtected {
		t.Fatalf("Of(code) = %q", got)
	}
	if got := Of(errors.New("x")); got != Error {
		t.Fatalf("Of(plain) = %q", got)
	}
	w := Wrap(BusError, "store.read", errors.New("spi nack"))
	if got := Of(w); got != BusError {
		t.Fatalf("Of(wrapped) = %q", got)
	}
}

func TestWrapIsAndUnwrap(t *testing.T) {
	cause := errors.New("spi nack")
	w := Wrap(BusError, "store.write", cause)
	if !errors.Is(w, BusError) {
		t.Fatal("errors.Is(wrapped, BusError) = false")
	}
	if errors.Is(w, WriteProtected) {
		t.Fatal("wrapped error matched an unrelated code")
	}
	if !errors.Is(w, cause) {
		t.Fatal("cause not reachable through Unwrap")
	}
	if got, want := w.Error(), "store.write: bus_error: spi nack"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
