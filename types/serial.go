package types

// ------------------------
// Serial
// ------------------------

type Parity uint8

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

func (p Parity) String() string {
	switch p {
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	default:
		return "none"
	}
}

func (p Parity) MarshalJSON() ([]byte, error) { return []byte(`"` + p.String() + `"`), nil }

func (p *Parity) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case `"even"`:
		*p = ParityEven
	case `"odd"`:
		*p = ParityOdd
	default:
		*p = ParityNone
	}
	return nil
}

// SerialFormat describes the host link framing. Zero values mean 8N1.
type SerialFormat struct {
	Baud     uint32 `json:"baud"`
	DataBits uint8  `json:"data_bits,omitempty"`
	StopBits uint8  `json:"stop_bits,omitempty"`
	Parity   Parity `json:"parity,omitempty"`
}
