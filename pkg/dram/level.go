package dram

import "github.com/hanloveland/ramulator2-sub000/pkg/request"

// Level names a tier of the DRAM node tree. The tree spans channel down to
// bank; row and column are address components tracked as the bank node's
// open-row identity rather than nodes of their own.
type Level int

const (
	Channel Level = iota
	PseudoChannel
	NarrowIO
	WideIO
	Rank
	BankGroup
	Bank
	numTreeLevels
)

// String returns a human-readable level name, used in fatal-abort messages.
func (l Level) String() string {
	switch l {
	case Channel:
		return "channel"
	case PseudoChannel:
		return "pseudochannel"
	case NarrowIO:
		return "narrowio"
	case WideIO:
		return "wideio"
	case Rank:
		return "rank"
	case BankGroup:
		return "bankgroup"
	case Bank:
		return "bank"
	default:
		return "unknown"
	}
}

// addrVecIndex maps a tree Level onto its slot in request.AddrVec; row and
// column live past the tree's leaf and are handled separately.
func addrVecIndex(l Level) int { return int(l) }

// depth returns how many levels deep coordinate vec specifies, counting a
// trailing Unspecified(-1) as "not specified at or below this point".
func depth(vec request.AddrVec) int {
	d := 0
	for i := 0; i < int(numTreeLevels); i++ {
		if vec[i] == request.Unspecified {
			break
		}
		d = i + 1
	}
	return d
}
