// internal/scanner/scanner_test.go
package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	gbmodbus "github.com/goburrow/modbus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-scanner/internal/register"
)

type fakeClient struct {
	failAt map[uint16]bool // raw start addresses that fail
	calls  []uint16
	value  uint16
}

func (f *fakeClient) check(addr uint16) error {
	f.calls = append(f.calls, addr)
	if f.failAt[addr] {
		return errors.New("illegal data address")
	}
	return nil
}

func (f *fakeClient) ReadCoils(addr, qty uint16) ([]bool, error) {
	if err := f.check(addr); err != nil {
		return nil, err
	}
	out := make([]bool, qty)
	for i := range out {
		out[i] = (int(addr)+i)%2 == 0
	}
	return out, nil
}

func (f *fakeClient) ReadDiscreteInputs(addr, qty uint16) ([]bool, error) {
	if err := f.check(addr); err != nil {
		return nil, err
	}
	return make([]bool, qty), nil
}

func (f *fakeClient) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	if err := f.check(addr); err != nil {
		return nil, err
	}
	out := make([]uint16, qty)
	for i := range out {
		out[i] = f.value
	}
	return out, nil
}

func (f *fakeClient) ReadInputRegisters(addr, qty uint16) ([]uint16, error) {
	if err := f.check(addr); err != nil {
		return nil, err
	}
	out := make([]uint16, qty)
	for i := range out {
		out[i] = addr + uint16(i)
	}
	return out, nil
}

type recorder struct {
	found    []Reading
	progress []Progress
}

func (r *recorder) Found(_ register.Category, rd Reading) {
	r.found = append(r.found, rd)
}

func (r *recorder) BlockDone(p Progress) {
	r.progress = append(r.progress, p)
}

func newTestScanner(t *testing.T, cfg Config, c Client, obs Observer) *Scanner {
	t.Helper()
	s, err := New(cfg, c, obs, nil)
	require.NoError(t, err)
	return s
}

func TestScan_FullRangeAllCategories(t *testing.T) {
	for _, cat := range register.All {
		t.Run(cat.String(), func(t *testing.T) {
			s := newTestScanner(t, Config{BlockSize: 50}, &fakeClient{}, nil)

			res, err := s.Scan(context.Background(), cat)
			require.NoError(t, err)
			require.Len(t, res.Readings, register.RawAddressCount)

			offset, _, err := register.Address(cat)
			require.NoError(t, err)
			for i, r := range res.Readings {
				if r.Address != int(offset)+i {
					t.Fatalf("reading %d: address %d, want %d", i, r.Address, int(offset)+i)
				}
			}
			assert.Equal(t, 200, res.BlocksTotal)
			assert.Equal(t, 200, res.BlocksScanned)
			assert.Zero(t, res.BlocksFailed)
		})
	}
}

func TestScan_ValueTypesFollowCategory(t *testing.T) {
	s := newTestScanner(t, Config{BlockSize: 10, RawCount: 10}, &fakeClient{value: 7}, nil)

	res, err := s.Scan(context.Background(), register.Coil)
	require.NoError(t, err)
	assert.Equal(t, Bit(true), res.Readings[0].Value)
	assert.Equal(t, Bit(false), res.Readings[1].Value)

	res, err = s.Scan(context.Background(), register.Holding)
	require.NoError(t, err)
	assert.Equal(t, Word(7), res.Readings[0].Value)
	assert.Equal(t, "7", res.Readings[0].Value.String())
}

func TestScan_FailingBlockIsSkipped(t *testing.T) {
	fc := &fakeClient{failAt: map[uint16]bool{100: true}}
	rec := &recorder{}
	s := newTestScanner(t, Config{BlockSize: 50}, fc, rec)

	res, err := s.Scan(context.Background(), register.Input)
	require.NoError(t, err)

	assert.Len(t, res.Readings, register.RawAddressCount-50)
	assert.Equal(t, 1, res.BlocksFailed)
	assert.Len(t, fc.calls, 200, "no retry, no abort")

	for _, r := range res.Readings {
		raw := r.Address - int(register.OffsetInput)
		if raw >= 100 && raw < 150 {
			t.Fatalf("reading from failed block leaked: %d", r.Address)
		}
		// fake returns the raw address as value
		assert.Equal(t, Word(raw), r.Value)
	}

	var be *BlockError
	require.Len(t, rec.progress, 200)
	require.True(t, errors.As(rec.progress[2].Err, &be))
	assert.Equal(t, 100, be.Block.Start)
	assert.NoError(t, rec.progress[3].Err)
}

func TestScan_ScenarioBlock5000Holding(t *testing.T) {
	rec := &recorder{}
	fc := &fakeClient{}
	s := newTestScanner(t, Config{BlockSize: 5000}, fc, rec)

	res, err := s.Scan(context.Background(), register.Holding)
	require.NoError(t, err)
	require.Len(t, res.Readings, 9999)
	assert.Equal(t, 40001, res.Readings[0].Address)
	assert.Equal(t, 49999, res.Readings[9998].Address)
	for _, r := range res.Readings {
		assert.Equal(t, Word(0), r.Value)
	}

	assert.Equal(t, []uint16{0, 5000}, fc.calls)
	require.Len(t, rec.progress, 2)
	assert.Equal(t, 45001, rec.progress[1].ModbusStart)
	assert.Equal(t, 49999, rec.progress[1].ModbusEnd)
	assert.Equal(t, 4999, rec.progress[1].Block.Count)
	assert.Len(t, rec.found, 9999)
}

func TestScan_DelayBetweenBlocksOnly(t *testing.T) {
	s := newTestScanner(t, Config{BlockSize: 1000, Delay: 4 * time.Second}, &fakeClient{}, nil)

	var sleeps []time.Duration
	s.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	_, err := s.Scan(context.Background(), register.Coil)
	require.NoError(t, err)
	// 10 blocks, 9 gaps
	assert.Len(t, sleeps, 9)
	assert.Equal(t, 4*time.Second, sleeps[0])
}

func TestScan_CancelKeepsPartialReadings(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newTestScanner(t, Config{BlockSize: 100}, &fakeClient{}, nil)
	n := 0
	s.sleep = func(ctx context.Context, _ time.Duration) error {
		n++
		if n == 3 {
			cancel()
		}
		return ctx.Err()
	}

	res, err := s.Scan(ctx, register.Holding)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, res.Readings, 300)
	assert.Equal(t, 3, res.BlocksScanned)
}

func TestScan_InvalidCategory(t *testing.T) {
	s := newTestScanner(t, Config{BlockSize: 10}, &fakeClient{}, nil)
	_, err := s.Scan(context.Background(), register.Category(42))
	assert.ErrorIs(t, err, register.ErrInvalidCategory)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{BlockSize: 0}, &fakeClient{}, nil, nil)
	assert.Error(t, err)

	_, err = New(Config{BlockSize: 1, Delay: -time.Second}, &fakeClient{}, nil, nil)
	assert.Error(t, err)

	_, err = New(Config{BlockSize: 1}, nil, nil, nil)
	assert.Error(t, err)

	_, err = New(Config{BlockSize: 1, RawCount: 20000}, &fakeClient{}, nil, nil)
	assert.Error(t, err)
}

func TestSleep_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)

	assert.NoError(t, Sleep(context.Background(), 0))
}

func TestScan_SkippedBlockLogsExceptionCode(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	c := &exceptionClient{}
	s, err := New(Config{BlockSize: 5000}, c, nil, logger)
	require.NoError(t, err)

	res, err := s.Scan(context.Background(), register.Holding)
	require.NoError(t, err)
	assert.Len(t, res.Readings, 4999)

	entries := hook.AllEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "block read failed, skipping", entries[0].Message)
	assert.Equal(t, uint8(2), entries[0].Data["exception_code"])
	assert.Equal(t, 1, entries[0].Data["block"])
}

func TestBlockFields_PlainErrorHasNoExceptionCode(t *testing.T) {
	f := blockFields(register.Coil, Block{Index: 3, Start: 150, Count: 50}, errors.New("i/o timeout"))
	assert.Equal(t, 4, f["block"])
	assert.Equal(t, 150, f["raw_start"])
	_, ok := f["exception_code"]
	assert.False(t, ok)
}

// exceptionClient rejects the first holding block with "illegal data address".
type exceptionClient struct {
	fakeClient
}

func (c *exceptionClient) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	if addr == 0 {
		return nil, &gbmodbus.ModbusError{FunctionCode: 3, ExceptionCode: 2}
	}
	return make([]uint16, qty), nil
}
