package types

import "errors"

// StampLen is the number of digits in a YYYYMMDDHHmmSS timestamp.
const StampLen = 14

// ErrInvalidStamp is returned when a timestamp has the wrong length or a
// non-digit character.
var ErrInvalidStamp = errors.New("invalid timestamp")

// Timestamp is a validated 14-digit decimal string (YYYYMMDDHHmmSS).
// Only the digit syntax is checked; calendar ranges are not.
type Timestamp [StampLen]byte

// ParseTimestamp validates b digit by digit. b must hold exactly StampLen bytes.
func ParseTimestamp(b []byte) (Timestamp, error) {
	var ts Timestamp
	if len(b) != StampLen {
		return ts, ErrInvalidStamp
	}
	for i, c := range b {
		if c < '0' || c > '9' {
			return Timestamp{}, ErrInvalidStamp
		}
		ts[i] = c
	}
	return ts, nil
}

// IsZero reports whether ts was never set.
func (ts Timestamp) IsZero() bool { return ts[0] == 0 }

func (ts Timestamp) String() string {
	if ts.IsZero() {
		return ""
	}
	return string(ts[:])
}
