// internal/scanner/scanner.go
package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/modbus-scanner/internal/register"
	smodbus "github.com/tamzrod/modbus-scanner/internal/scanner/modbus"
)

// Client abstracts the Modbus reads needed by the scanner.
// The unit id is bound when the client is built.
type Client interface {
	ReadCoils(addr, qty uint16) ([]bool, error)              // FC 1
	ReadDiscreteInputs(addr, qty uint16) ([]bool, error)     // FC 2
	ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) // FC 3
	ReadInputRegisters(addr, qty uint16) ([]uint16, error)   // FC 4
}

type readFunc func(c Client, addr, qty uint16) (Values, error)

// readers dispatches on category. The payload type is fixed per entry.
var readers = map[register.Category]readFunc{
	register.Coil: func(c Client, addr, qty uint16) (Values, error) {
		v, err := c.ReadCoils(addr, qty)
		return Bits(v), err
	},
	register.DiscreteInput: func(c Client, addr, qty uint16) (Values, error) {
		v, err := c.ReadDiscreteInputs(addr, qty)
		return Bits(v), err
	},
	register.Holding: func(c Client, addr, qty uint16) (Values, error) {
		v, err := c.ReadHoldingRegisters(addr, qty)
		return Words(v), err
	},
	register.Input: func(c Client, addr, qty uint16) (Values, error) {
		v, err := c.ReadInputRegisters(addr, qty)
		return Words(v), err
	},
}

// Observer receives live scan events in program order.
type Observer interface {
	Found(c register.Category, r Reading)
	BlockDone(p Progress)
}

// BlockError records a block that yielded no readings.
// It is reported to the observer and logged, never returned from Scan.
type BlockError struct {
	Category register.Category
	Block    Block
	Err      error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("scanner: %s block %d (raw %d-%d): %v",
		e.Category, e.Block.Index+1, e.Block.Start, e.Block.End(), e.Err)
}

func (e *BlockError) Unwrap() error { return e.Err }

// Config is the immutable runtime config the scanner needs.
type Config struct {
	BlockSize int
	Delay     time.Duration

	// RawCount defaults to register.RawAddressCount.
	RawCount int
}

// Scanner sweeps one category at a time. Strictly sequential:
// one request in flight, Delay between consecutive blocks.
type Scanner struct {
	cfg    Config
	client Client
	obs    Observer
	log    logrus.FieldLogger

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a scanner with immutable config.
func New(cfg Config, client Client, obs Observer, log logrus.FieldLogger) (*Scanner, error) {
	if client == nil {
		return nil, errors.New("scanner: client required")
	}
	if cfg.BlockSize <= 0 {
		return nil, errors.New("scanner: block size must be > 0")
	}
	if cfg.Delay < 0 {
		return nil, errors.New("scanner: delay must be >= 0")
	}
	if cfg.RawCount == 0 {
		cfg.RawCount = register.RawAddressCount
	}
	if cfg.RawCount < 0 || cfg.RawCount > register.RawAddressCount {
		return nil, fmt.Errorf("scanner: raw count %d out of range", cfg.RawCount)
	}
	if obs == nil {
		obs = nopObserver{}
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Scanner{
		cfg:    cfg,
		client: client,
		obs:    obs,
		log:    log,
		sleep:  Sleep,
	}, nil
}

// Scan reads every block of cat in order and returns what was found.
// A failing block is skipped (no retry). On cancellation Scan returns the
// readings gathered so far together with ctx.Err().
func (s *Scanner) Scan(ctx context.Context, cat register.Category) (Result, error) {
	info, err := register.Lookup(cat)
	if err != nil {
		return Result{Category: cat}, err
	}
	read, ok := readers[cat]
	if !ok {
		return Result{Category: cat}, fmt.Errorf("%w: no reader for %s", register.ErrInvalidCategory, cat)
	}

	blocks, err := Partition(s.cfg.RawCount, s.cfg.BlockSize)
	if err != nil {
		return Result{Category: cat}, err
	}

	res := Result{
		Category:    cat,
		BlocksTotal: len(blocks),
		Readings:    make([]Reading, 0, s.cfg.RawCount),
	}
	offset := int(info.Offset)

	for i, b := range blocks {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		p := Progress{
			Category:    cat,
			Block:       b,
			Total:       len(blocks),
			ModbusStart: b.Start + offset,
			ModbusEnd:   b.End() + offset,
		}

		vals, err := read(s.client, uint16(b.Start), uint16(b.Count))
		if err != nil {
			p.Err = &BlockError{Category: cat, Block: b, Err: err}
			res.BlocksFailed++
			s.log.WithFields(blockFields(cat, b, err)).WithError(err).Debug("block read failed, skipping")
		} else {
			// never trust the device to honour the requested quantity
			n := vals.Len()
			if n > b.Count {
				n = b.Count
			}
			for j := 0; j < n; j++ {
				r := Reading{Address: b.Start + j + offset, Value: vals.At(j)}
				res.Readings = append(res.Readings, r)
				s.obs.Found(cat, r)
			}
		}
		res.BlocksScanned++
		s.obs.BlockDone(p)

		// no trailing delay after the final block
		if i == len(blocks)-1 {
			break
		}
		if err := s.sleep(ctx, s.cfg.Delay); err != nil {
			return res, err
		}
	}

	return res, nil
}

// blockFields describes a skipped block for the log.
// Device exceptions carry their code; transport errors do not.
func blockFields(cat register.Category, b Block, err error) logrus.Fields {
	f := logrus.Fields{
		"category":  cat.String(),
		"block":     b.Index + 1,
		"raw_start": b.Start,
		"count":     b.Count,
	}
	if code, ok := smodbus.ExceptionCode(err); ok {
		f["exception_code"] = code
	}
	return f
}

// Sleep waits d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type nopObserver struct{}

func (nopObserver) Found(register.Category, Reading) {}
func (nopObserver) BlockDone(Progress)               {}
