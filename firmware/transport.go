package firmware

import "context"

// ConnectionType identifies the physical link used to reach a device. It is
// an opaque value passed through to the Enumerator/Transport implementation
// — the pipeline never inspects it beyond passing it along.
type ConnectionType int

// Connection types supported by the register protocol.
const (
	ConnectionAny ConnectionType = iota
	ConnectionUSB
	ConnectionEthernet
)

func (c ConnectionType) String() string {
	switch c {
	case ConnectionUSB:
		return "USB"
	case ConnectionEthernet:
		return "Ethernet"
	default:
		return "Any"
	}
}

// DeviceFamily identifies a product family for enumeration purposes (e.g.
// "T7"). Declared as a distinct type so callers can't accidentally pass a
// register address where a family is expected.
type DeviceFamily string

// Direction selects whether a RegisterOp is a data-register read or write.
type Direction int

// Data directions for a compound register transaction.
const (
	DirectionRead Direction = iota
	DirectionWrite
)

// RegisterOp is one element of a compound rwMany transaction: a single
// register access against either a control register (pointer/key) or the
// data register, batched so the whole sequence commits as one transport
// frame.
type RegisterOp struct {
	Address   uint32
	Direction Direction
	Value     uint32 // used for DirectionWrite
}

// Transport is a single, already-open connection to one T7-family device.
// Implementations are expected to be safe for use from one goroutine at a
// time; the pipeline never issues overlapping calls against the same
// Transport.
type Transport interface {
	// WriteRegister writes a single 32-bit register.
	WriteRegister(ctx context.Context, addr uint32, value uint32) error

	// ReadRegister reads a single 32-bit register.
	ReadRegister(ctx context.Context, addr uint32) (uint32, error)

	// RWMany issues a single compound transport frame containing every op
	// in order: e.g. [write ptr] [write key] [read|write data x N]. The
	// number of data ops in one call is bounded by the transport's frame
	// limit; flashOp is responsible for chunking to stay under it. The
	// returned slice holds one value per DirectionRead op, in order;
	// DirectionWrite ops contribute nothing to it.
	RWMany(ctx context.Context, ops []RegisterOp) ([]uint32, error)

	// Close releases the underlying connection. Safe to call more than
	// once; a second call should be a no-op returning nil.
	Close() error
}

// Enumerator discovers and opens T7-family devices on a bus.
type Enumerator interface {
	// ListSerials returns the serial numbers of every device of the given
	// family currently visible over the given connection type.
	ListSerials(ctx context.Context, family DeviceFamily, conn ConnectionType) ([]string, error)

	// Open establishes a new Transport to the named device. Returns an
	// error if the device is not present or the open fails.
	Open(ctx context.Context, family DeviceFamily, conn ConnectionType, serial string) (Transport, error)
}
