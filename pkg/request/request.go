// Package request defines the memory reference that flows through the
// simulator: its coordinate vector, its mutable command-chain state, and the
// ordered buffer type every stage of the pipeline stages it through.
package request

// Clock is a DRAM-cycle timestamp. It is always an explicit value passed
// between components rather than read from an ambient global, per the
// simulator's single clock-per-tick design.
type Clock int64

// NumLevels is the length of an AddrVec: the fixed hierarchy
// channel -> pseudochannel -> narrowio -> wideio -> rank -> bankgroup -> bank
// -> row -> column.
const NumLevels = 9

// Level indices into an AddrVec.
const (
	LevelChannel = iota
	LevelPseudoChannel
	LevelNarrowIO
	LevelWideIO
	LevelRank
	LevelBankGroup
	LevelBank
	LevelRow
	LevelColumn
)

// Unspecified marks a coordinate as "unspecified / broadcast", used by
// maintenance commands that scope to a level above the leaf.
const Unspecified int32 = -1

// AddrVec is the decomposed linear address: one coordinate per hierarchy
// level. Any coordinate may be Unspecified.
type AddrVec [NumLevels]int32

// Channel, PseudoChannel, ... are convenience accessors mirroring the
// hierarchy names used throughout the rest of the codebase.
func (v AddrVec) Channel() int32      { return v[LevelChannel] }
func (v AddrVec) PseudoChannel() int32 { return v[LevelPseudoChannel] }
func (v AddrVec) Rank() int32         { return v[LevelRank] }
func (v AddrVec) BankGroup() int32    { return v[LevelBankGroup] }
func (v AddrVec) Bank() int32         { return v[LevelBank] }
func (v AddrVec) Row() int32          { return v[LevelRow] }
func (v AddrVec) Column() int32       { return v[LevelColumn] }

// Type identifies the high-level access kind requested by the front-end.
// The convention (0 = Read, 1 = Write) mirrors Request::Type in the source
// this simulator is modeled on.
type Type int

const (
	Read Type = iota
	Write
)

// PayloadWords is the fixed payload size for writes and NDP launch
// fragments: exactly 8 64-bit words when present.
const PayloadWords = 8

// Payload is the optional fixed-size data payload carried by a write or an
// NDP launch/control request.
type Payload [PayloadWords]uint64

// Callback fires exactly once when a request completes (reads only; writes
// are retired silently on final-command issue).
type Callback func(*Request)

// Request is the memory reference that moves through buffers, schedulers,
// and the DRAM device model. Fields documented "immutable after enqueue"
// are set once by the front end; the rest are mutated by the scheduler and
// controller while the request is in flight.
type Request struct {
	// Immutable after enqueue.
	Kind           Type
	Addr           int64
	AddrVec        AddrVec
	SourceID       int
	IsNDPReq       bool
	IsTraceCoreReq bool
	NDPID          int
	ArriveClk      Clock
	Callback       Callback
	HasPayload     bool
	Payload        Payload

	// Mutated through the pipeline.
	Command      int
	FinalCommand int
	DepartClk    Clock
	IsStatUpdated bool
	IsDBCmd      bool
	IsActived    bool
}

// New creates a Request with no command resolved yet (Command and
// FinalCommand are -1); the controller resolves Read/Write to a concrete
// final command based on NDP routing unless the caller sets FinalCommand.
func New(kind Type, addr int64, vec AddrVec, sourceID int, cb Callback) *Request {
	return &Request{
		Kind:         kind,
		Addr:         addr,
		AddrVec:      vec,
		SourceID:     sourceID,
		Callback:     cb,
		Command:      -1,
		FinalCommand: -1,
		ArriveClk:    -1,
		DepartClk:    -1,
	}
}
