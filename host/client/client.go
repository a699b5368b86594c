// Package client speaks the logger's serial protocol from the host side.
// Every exchange waits for the device's readiness sentinel and then sends
// one command before the handshake window closes.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goburrow/serial"
	"github.com/golang/glog"
)

// StampLayout formats a time as the 14-digit command timestamp.
const StampLayout = "20060102150405"

// MaxCommand is the longest command the device accepts.
const MaxCommand = 16

// ErrNoSentinel is returned when the device never signals readiness.
var ErrNoSentinel = errors.New("client: no readiness sentinel")

// Client wraps a serial port. Reads must time out (return 0 bytes) when
// the line is quiet, as goburrow/serial ports do with Config.Timeout.
type Client struct {
	rw       io.ReadWriter
	Sentinel byte
	buf      [256]byte
}

func New(rw io.ReadWriter) *Client {
	return &Client{rw: rw, Sentinel: 'X'}
}

// WaitReady reads until the sentinel arrives or ctx ends. Bytes before the
// sentinel (boot diagnostics) are discarded.
func (c *Client) WaitReady(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrNoSentinel, err)
		}
		n, err := c.rw.Read(c.buf[:])
		for _, b := range c.buf[:n] {
			if b == c.Sentinel {
				glog.V(2).Info("sentinel received")
				return nil
			}
		}
		if n > 0 {
			glog.V(2).Infof("skipped %q", c.buf[:n])
		}
		if err != nil && !isQuiet(err) {
			return err
		}
	}
}

// Send waits for readiness and writes cmd.
func (c *Client) Send(ctx context.Context, cmd []byte) error {
	if len(cmd) == 0 || len(cmd) > MaxCommand {
		return fmt.Errorf("client: command length %d out of range", len(cmd))
	}
	if err := c.WaitReady(ctx); err != nil {
		return err
	}
	glog.V(2).Infof("send %q", cmd)
	_, err := c.rw.Write(cmd)
	return err
}

func stamped(op byte, t time.Time) []byte {
	return append([]byte{op}, t.UTC().Format(StampLayout)...)
}

// Begin starts a session stamped with t.
func (c *Client) Begin(ctx context.Context, t time.Time) error {
	return c.Send(ctx, stamped('B', t))
}

// End stops the session stamped with t.
func (c *Client) End(ctx context.Context, t time.Time) error {
	return c.Send(ctx, stamped('E', t))
}

// Dump requests the stored words. The device answers once its window
// closes, so Dump waits up to ctx for the first byte and then reads until
// the line goes quiet.
func (c *Client) Dump(ctx context.Context) ([]uint16, error) {
	if err := c.Send(ctx, []byte{'D'}); err != nil {
		return nil, err
	}
	var raw []byte
	for {
		n, err := c.rw.Read(c.buf[:])
		raw = append(raw, c.buf[:n]...)
		if err != nil && !isQuiet(err) {
			return nil, err
		}
		if n == 0 {
			if len(raw) > 0 {
				break
			}
			if ctx.Err() != nil {
				return nil, nil
			}
		}
	}
	return Words(raw)
}

// Words decodes big-endian 16-bit words.
func Words(raw []byte) ([]uint16, error) {
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("client: odd dump length %d", len(raw))
	}
	out := make([]uint16, len(raw)/2)
	for i := range out {
		out[i] = uint16(raw[2*i])<<8 | uint16(raw[2*i+1])
	}
	return out, nil
}

type timeout interface{ Timeout() bool }

// isQuiet treats read timeouts as an idle line.
func isQuiet(err error) bool {
	if errors.Is(err, serial.ErrTimeout) {
		return true
	}
	var t timeout
	return errors.As(err, &t) && t.Timeout()
}
