// internal/register/category.go
package register

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCategory is returned for anything outside the four Modbus data categories.
var ErrInvalidCategory = errors.New("register: invalid category")

// Category is one of the four standard Modbus data categories.
type Category uint8

const (
	Coil Category = iota + 1
	DiscreteInput
	Holding
	Input
)

// All lists every category in fixed scan order.
var All = []Category{Coil, DiscreteInput, Holding, Input}

// Info is the immutable addressing info for one category.
type Info struct {
	Name         string // CLI name
	Title        string // report heading
	Description  string
	Offset       uint16
	FunctionCode uint8
	Bits         bool // boolean values (FC 1/2) vs 16-bit registers (FC 3/4)
	MaxQuantity  int
}

var infos = map[Category]Info{
	Coil: {
		Name:         "coil",
		Title:        "Coil",
		Description:  "Coil (bit R/W)",
		Offset:       OffsetCoil,
		FunctionCode: FCReadCoils,
		Bits:         true,
		MaxQuantity:  MaxBitsPerRead,
	},
	DiscreteInput: {
		Name:         "discrete",
		Title:        "Discrete",
		Description:  "Input Discrete (bit R)",
		Offset:       OffsetDiscreteInput,
		FunctionCode: FCReadDiscreteInputs,
		Bits:         true,
		MaxQuantity:  MaxBitsPerRead,
	},
	Holding: {
		Name:         "holding",
		Title:        "Holding",
		Description:  "Holding Registers (16-bit R/W)",
		Offset:       OffsetHolding,
		FunctionCode: FCReadHoldingRegisters,
		MaxQuantity:  MaxRegistersPerRead,
	},
	Input: {
		Name:         "input",
		Title:        "Input",
		Description:  "Input Registers (16-bit R)",
		Offset:       OffsetInput,
		FunctionCode: FCReadInputRegisters,
		MaxQuantity:  MaxRegistersPerRead,
	},
}

// Lookup returns the addressing info for c.
func Lookup(c Category) (Info, error) {
	s, ok := infos[c]
	if !ok {
		return Info{}, fmt.Errorf("%w: %d", ErrInvalidCategory, uint8(c))
	}
	return s, nil
}

// Address maps c to its Modbus addressing offset and read function code.
func Address(c Category) (offset uint16, fc uint8, err error) {
	s, err := Lookup(c)
	if err != nil {
		return 0, 0, err
	}
	return s.Offset, s.FunctionCode, nil
}

// Parse resolves a CLI name (coil, discrete, holding, input). Case-insensitive.
func Parse(name string) (Category, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, c := range All {
		if infos[c].Name == n {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCategory, name)
}

// ParseList resolves names in order. An empty list yields All.
func ParseList(names []string) ([]Category, error) {
	if len(names) == 0 {
		return append([]Category(nil), All...), nil
	}
	out := make([]Category, 0, len(names))
	for _, n := range names {
		c, err := Parse(n)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Names returns the CLI names of all categories in scan order.
func Names() []string {
	out := make([]string, 0, len(All))
	for _, c := range All {
		out = append(out, infos[c].Name)
	}
	return out
}

func (c Category) String() string {
	if s, ok := infos[c]; ok {
		return s.Name
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// Upper is the label used in live headers and progress lines.
func (c Category) Upper() string {
	return strings.ToUpper(c.String())
}

// ModbusRange returns the first and last Modbus address of c over the raw range.
func (c Category) ModbusRange() (first, last int, err error) {
	s, err := Lookup(c)
	if err != nil {
		return 0, 0, err
	}
	return int(s.Offset), int(s.Offset) + RawAddressCount - 1, nil
}
