// internal/scanner/types.go
package scanner

import (
	"strconv"

	"github.com/tamzrod/modbus-scanner/internal/register"
)

// Block is one contiguous run of raw addresses read in a single request.
// Geometry only: no semantics.
type Block struct {
	Index int // zero-based
	Start int // raw start address
	Count int
}

// End returns the last raw address covered by b (inclusive).
func (b Block) End() int { return b.Start + b.Count - 1 }

// Value is a single decoded reading: Bit or Word.
type Value interface {
	String() string
	isValue()
}

// Bit is a coil or discrete input value.
type Bit bool

// Word is a 16-bit holding or input register value.
type Word uint16

func (Bit) isValue()  {}
func (Word) isValue() {}

func (b Bit) String() string  { return strconv.FormatBool(bool(b)) }
func (w Word) String() string { return strconv.FormatUint(uint64(w), 10) }

// Values is the decoded payload of one read: Bits or Words.
// Which one is decided by the category at the call site.
type Values interface {
	Len() int
	At(i int) Value
}

// Bits is the payload of FC 1 and FC 2.
type Bits []bool

// Words is the payload of FC 3 and FC 4.
type Words []uint16

func (v Bits) Len() int        { return len(v) }
func (v Bits) At(i int) Value  { return Bit(v[i]) }
func (v Words) Len() int       { return len(v) }
func (v Words) At(i int) Value { return Word(v[i]) }

// Reading is one discovered value at its Modbus address.
type Reading struct {
	Address int // raw address + category offset
	Value   Value
}

// Result is the ordered outcome of scanning one category.
// Readings are in scan order (address ascending).
type Result struct {
	Category register.Category
	Readings []Reading

	BlocksTotal   int
	BlocksFailed  int
	BlocksScanned int
}

// Progress is emitted once per processed block.
type Progress struct {
	Category register.Category
	Block    Block
	Total    int

	ModbusStart int
	ModbusEnd   int

	Err error // non-nil when the block contributed nothing
}
