package command

// Opcodes sent by the host as the first command byte.
const (
	OpDump  = 'D'
	OpBegin = 'B'
	OpEnd   = 'E'
)

// Command is one decoded host request: Dump, Begin, End or Unknown.
type Command interface {
	isCommand()
}

// Dump asks for the stored words of the current or last session.
type Dump struct{}

// Begin starts a session. Args holds everything after the opcode; the
// session controller validates the leading 14-digit timestamp.
type Begin struct{ Args []byte }

// End stops the running session. Args as for Begin.
type End struct{ Args []byte }

// Unknown carries an unrecognised opcode.
type Unknown struct{ Op byte }

func (Dump) isCommand()    {}
func (Begin) isCommand()   {}
func (End) isCommand()     {}
func (Unknown) isCommand() {}

// Parse decodes a command by its leading byte. It returns nil for an empty
// input. Args alias b.
func Parse(b []byte) Command {
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case OpDump:
		return Dump{}
	case OpBegin:
		return Begin{Args: b[1:]}
	case OpEnd:
		return End{Args: b[1:]}
	default:
		return Unknown{Op: b[0]}
	}
}
