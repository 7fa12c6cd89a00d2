// internal/register/constants.go
package register

// Address space constants.
// These values define the scan geometry and MUST NOT be configurable.

// ---- RAW RANGE ----

// RawAddressCount is the size of the raw address space scanned per category.
// Raw addresses run from 0 to RawAddressCount-1.
const RawAddressCount = 9999

// ---- OFFSETS ----

const OffsetCoil uint16 = 1
const OffsetDiscreteInput uint16 = 10001
const OffsetHolding uint16 = 40001
const OffsetInput uint16 = 30001

// ---- FUNCTION CODES ----

const FCReadCoils uint8 = 1
const FCReadDiscreteInputs uint8 = 2
const FCReadHoldingRegisters uint8 = 3
const FCReadInputRegisters uint8 = 4

// ---- LIMITS ----

// MaxBitsPerRead is the protocol limit for one FC 1/2 request.
const MaxBitsPerRead = 2000

// MaxRegistersPerRead is the protocol limit for one FC 3/4 request.
const MaxRegistersPerRead = 125
