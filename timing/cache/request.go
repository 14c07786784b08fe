package cache

// Op is the kind of access a request performs.
type Op uint8

// Request operations.
const (
	OpRead Op = iota
	OpWrite
)

func (o Op) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	default:
		return "unknown"
	}
}

// Request is one cycle's decoded request.
type Request struct {
	// Valid is false on idle cycles. An invalid request never hits and
	// never changes the storage.
	Valid bool
	// Op selects read or write.
	Op Op
	// Address selects the line (low bits) and, if tags are in use, the tag.
	Address uint64
	// WriteData is the word stored by a write. Ignored for reads.
	WriteData uint64
}

// IdleRequest returns a request that does nothing.
func IdleRequest() Request {
	return Request{}
}

// ReadRequest returns a valid read of addr.
func ReadRequest(addr uint64) Request {
	return Request{Valid: true, Op: OpRead, Address: addr}
}

// WriteRequest returns a valid write of data to addr.
func WriteRequest(addr, data uint64) Request {
	return Request{Valid: true, Op: OpWrite, Address: addr, WriteData: data}
}

// Decoder turns raw request fields into a Request.
type Decoder struct {
	config Config
}

// NewDecoder creates a decoder for the given geometry.
func NewDecoder(config Config) *Decoder {
	return &Decoder{config: config}
}

// Decode extracts a Request from the raw request fields. Address and data
// are truncated to their configured widths; nothing else is checked.
func (d *Decoder) Decode(valid, write bool, addr, data uint64) Request {
	req := Request{
		Valid:     valid,
		Op:        OpRead,
		Address:   addr & d.config.AddressMask(),
		WriteData: data & d.config.DataMask(),
	}
	if write {
		req.Op = OpWrite
	}
	return req
}
