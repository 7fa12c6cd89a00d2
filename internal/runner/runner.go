// internal/runner/runner.go
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/modbus-scanner/internal/output"
	"github.com/tamzrod/modbus-scanner/internal/register"
	"github.com/tamzrod/modbus-scanner/internal/report"
	"github.com/tamzrod/modbus-scanner/internal/scanner"
	"github.com/tamzrod/modbus-scanner/internal/session"
)

// TimestampLayout is used for category headers and the final banner.
const TimestampLayout = "2006-01-02 15:04:05"

// ConnectionError means the target could not be reached. Fatal: nothing was scanned.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("runner: unable to connect to %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Options is everything one run needs. Out is owned by the caller.
type Options struct {
	Target     scanner.Target
	BlockSize  int
	Delay      time.Duration
	Categories []register.Category
	Realtime   bool

	Dial scanner.Dialer
	Out  *output.Writer
	Log  logrus.FieldLogger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Run connects, sweeps every requested category, releases the connection
// and emits the final report.
//
// Cancelling ctx stops the sweep; the partial session is still reported and
// Run returns nil. Only a failed connection (or a broken setup) is an error.
func Run(ctx context.Context, opts Options) (*session.Session, error) {
	if opts.Out == nil {
		return nil, errors.New("runner: output writer required")
	}
	if opts.Dial == nil {
		opts.Dial = scanner.Build(opts.Target)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		opts.Log = l
	}
	if len(opts.Categories) == 0 {
		opts.Categories = register.All
	}

	s := session.New(
		opts.Target.Host,
		opts.Target.Port,
		opts.Target.UnitID,
		opts.BlockSize,
		opts.Delay,
		opts.Categories,
	)
	log := opts.Log.WithField("endpoint", opts.Target.Endpoint())

	// --------------------
	// Connect (fail fast)
	// --------------------

	client, closeClient, err := opts.Dial()
	if err != nil {
		_ = opts.Out.Console(fmt.Sprintf("Error: unable to connect to %s:%d", opts.Target.Host, opts.Target.Port))
		return s, &ConnectionError{Endpoint: opts.Target.Endpoint(), Err: err}
	}
	log.WithField("unit_id", opts.Target.UnitID).Info("connected")

	// --------------------
	// Sweep (connection released on every path)
	// --------------------

	if err := sweep(ctx, opts, s, client, closeClient, log); err != nil {
		return s, err
	}

	// --------------------
	// Final report
	// --------------------

	if err := emitReport(opts, s); err != nil {
		return s, err
	}
	return s, nil
}

func sweep(
	ctx context.Context,
	opts Options,
	s *session.Session,
	client scanner.Client,
	closeClient func() error,
	log logrus.FieldLogger,
) error {
	defer func() {
		if closeClient == nil {
			return
		}
		if err := closeClient(); err != nil {
			log.WithError(err).Warn("close failed")
		}
	}()

	obs := &liveObserver{out: opts.Out, realtime: opts.Realtime, log: log}
	sc, err := scanner.New(scanner.Config{
		BlockSize: opts.BlockSize,
		Delay:     opts.Delay,
	}, client, obs, log)
	if err != nil {
		return err
	}

	for i, cat := range opts.Categories {
		// pacing carries across categories: the last block of one
		// category and the first block of the next are still Delay apart
		if i > 0 {
			if err := scanner.Sleep(ctx, opts.Delay); err != nil {
				interrupted(opts, s, log, cat)
				return nil
			}
		}
		if ctx.Err() != nil {
			interrupted(opts, s, log, cat)
			return nil
		}

		header(opts, cat)
		log.WithField("category", cat.String()).Info("category scan started")

		res, err := sc.Scan(ctx, cat)
		s.Store(res)

		if err != nil {
			if ctx.Err() != nil {
				interrupted(opts, s, log, cat)
				return nil
			}
			return fmt.Errorf("runner: scan %s: %w", cat, err)
		}

		log.WithFields(logrus.Fields{
			"category":      cat.String(),
			"readings":      len(res.Readings),
			"blocks_failed": res.BlocksFailed,
		}).Info("category scan finished")

		_ = opts.Out.Console(fmt.Sprintf("[%s] Scanning complete. Registers read: %d", cat.Upper(), len(res.Readings)))
		_ = opts.Out.Linef("---- End of %s scan, registers read: %d ----", cat.Upper(), len(res.Readings))
	}
	return nil
}

func header(opts Options, cat register.Category) {
	_ = opts.Out.Line("")
	_ = opts.Out.Line("============================")
	_ = opts.Out.Linef("Category: %s - %s", cat.Upper(), opts.Now().Format(TimestampLayout))
	_ = opts.Out.Line(report.ReferenceTable())
	_ = opts.Out.Line("----------------------------")
}

func interrupted(opts Options, s *session.Session, log logrus.FieldLogger, at register.Category) {
	s.Interrupted = true
	log.WithField("category", at.String()).Warn("scan interrupted")
	_ = opts.Out.Console("")
	_ = opts.Out.Console("Scan interrupted by user. Exiting...")
}

func emitReport(opts Options, s *session.Session) error {
	text := report.Render(s)

	if err := opts.Out.Console("\nFinal Summary Report:"); err != nil {
		return err
	}
	if err := opts.Out.Console(text); err != nil {
		return err
	}

	if !opts.Out.HasFile() {
		return nil
	}

	banner := fmt.Sprintf("\n===== FINAL SUMMARY REPORT - %s =====\n", opts.Now().Format(TimestampLayout))
	if err := opts.Out.File(banner + text + "\n"); err != nil {
		return fmt.Errorf("runner: write report: %w", err)
	}
	return opts.Out.Console(fmt.Sprintf("\nFinal summary report appended in %s", opts.Out.Path()))
}

// liveObserver streams scanner events to the shared writer.
type liveObserver struct {
	out      *output.Writer
	realtime bool
	log      logrus.FieldLogger
	failed   bool
}

func (o *liveObserver) Found(_ register.Category, r scanner.Reading) {
	if !o.realtime {
		return
	}
	o.check(o.out.Linef("Found: %d -> %s", r.Address, r.Value))
}

func (o *liveObserver) BlockDone(p scanner.Progress) {
	line := fmt.Sprintf("[%s] Scanning block %d/%d (RAW %d-%d -> Modbus %d-%d)",
		p.Category.Upper(), p.Block.Index+1, p.Total,
		p.Block.Start, p.Block.End(), p.ModbusStart, p.ModbusEnd)
	o.check(o.out.Progress(line, !o.realtime))
}

// check logs the first output failure only; the scan itself goes on.
func (o *liveObserver) check(err error) {
	if err == nil || o.failed {
		return
	}
	o.failed = true
	o.log.WithError(err).Error("output write failed")
}
