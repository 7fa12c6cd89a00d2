// cmd/mbscan/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tamzrod/modbus-scanner/internal/config"
	"github.com/tamzrod/modbus-scanner/internal/output"
	"github.com/tamzrod/modbus-scanner/internal/runner"
	"github.com/tamzrod/modbus-scanner/internal/scanner"
)

const (
	exitOK      = 0
	exitFailure = 1
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

func execute(args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, logger: newLogger(stderr)}
	cmd := c.command()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		var ce *runner.ConnectionError
		if errors.As(err, &ce) {
			c.logger.WithError(ce.Err).WithField("endpoint", ce.Endpoint).Error("connection failed")
		} else {
			c.logger.Error(err)
		}
		return exitFailure
	}
	return exitOK
}

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.WarnLevel)
	return l
}

type cli struct {
	stdout io.Writer
	logger *logrus.Logger

	configPath string
	ip         string
	port       int
	slave      int
	block      int
	delay      float64
	categories []string
	outputPath string
	realtime   bool
	timeoutMs  int
	verbose    bool
}

func (c *cli) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mbscan --ip <IP_TARGET> [flags] [category...]",
		Short: "Scan the full register space of a Modbus TCP device",
		Long: `Scans RAW addresses 0-9998 of the selected Modbus register categories:

  coil      Coil (bit R/W)                  Modbus 00001-09999  FC 01
  discrete  Input Discrete (bit R)          Modbus 10001-19999  FC 02
  holding   Holding Registers (16-bit R/W)  Modbus 40001-49999  FC 03
  input     Input Registers (16-bit R)      Modbus 30001-39999  FC 04

Addresses are read in blocks with a delay after each block so that slow
devices are not overloaded. Results are printed as they are found and, with
--output, appended to a plain text file followed by a final summary report.`,
		Example: `  mbscan --ip 192.168.1.100 --port 502 --slave 1 --block 50 --delay 4.0 --category holding input --output output.txt
  mbscan --config plant.yaml --category coil`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.resolve(cmd, args)
			if err != nil {
				return err
			}
			return c.run(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&c.configPath, "config", "", "YAML profile with target/scan/output settings (flags override it)")
	f.StringVar(&c.ip, "ip", "", "IP address of the Modbus device")
	f.IntVar(&c.port, "port", config.DefaultPort, "Modbus port")
	f.IntVar(&c.slave, "slave", config.DefaultSlave, "Slave ID")
	f.IntVar(&c.block, "block", config.DefaultBlock, "Block size for scanning")
	f.Float64Var(&c.delay, "delay", config.DefaultDelay, "Delay in seconds after each block")
	f.StringSliceVar(&c.categories, "category", nil,
		"Categories to scan (coil, discrete, holding, input). If omitted, all categories are scanned. "+
			"Extra positional arguments are treated as more categories")
	f.StringVar(&c.outputPath, "output", "", "Plain text output file, appended to (if omitted, prints to screen only)")
	f.BoolVar(&c.realtime, "realtime", true, "Print every found value as it is read")
	f.IntVar(&c.timeoutMs, "timeout", config.DefaultTimeoutMs, "Per-request timeout in milliseconds")
	f.BoolVarP(&c.verbose, "verbose", "v", false, "Debug logging, including Modbus frames")

	return cmd
}

// resolve builds the effective config: defaults < --config file < flags set on the command line.
func (c *cli) resolve(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.Default()
	if c.configPath != "" {
		loaded, err := config.Load(c.configPath)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	f := cmd.Flags()
	if f.Changed("ip") {
		cfg.Target.IP = c.ip
	}
	if f.Changed("port") {
		cfg.Target.Port = c.port
	}
	if f.Changed("slave") {
		cfg.Target.Slave = c.slave
	}
	if f.Changed("timeout") {
		cfg.Target.TimeoutMs = c.timeoutMs
	}
	if f.Changed("block") {
		cfg.Scan.Block = c.block
	}
	if f.Changed("delay") {
		cfg.Scan.Delay = c.delay
	}
	if f.Changed("category") || len(args) > 0 {
		cfg.Scan.Categories = append(append([]string(nil), c.categories...), args...)
	}
	if f.Changed("output") {
		cfg.Output.Path = c.outputPath
	}
	if f.Changed("realtime") {
		rt := c.realtime
		cfg.Output.Realtime = &rt
	}

	if err := config.Validate(&cfg); err != nil {
		return nil, err
	}
	config.Normalize(&cfg)

	return &cfg, nil
}

func (c *cli) run(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}

	// --------------------
	// Logging
	// --------------------

	if c.verbose {
		c.logger.SetLevel(logrus.DebugLevel)
	}
	for _, w := range config.Warnings(cfg) {
		c.logger.Warn(w)
	}

	var wire *log.Logger
	if c.verbose {
		pw := c.logger.WriterLevel(logrus.DebugLevel)
		defer pw.Close()
		wire = log.New(pw, "modbus: ", 0)
	}

	// --------------------
	// Interrupt: caught once, a second one terminates
	// --------------------

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		stop()
	}()

	// --------------------
	// Output (single owner)
	// --------------------

	out, err := output.Open(c.stdout, cfg.Output.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			c.logger.WithError(err).Warn("output close failed")
		}
	}()

	cats, err := cfg.CategoryList()
	if err != nil {
		return err
	}

	target := scanner.Target{
		Host:       cfg.Target.IP,
		Port:       cfg.Target.Port,
		UnitID:     uint8(cfg.Target.Slave),
		Timeout:    cfg.Timeout(),
		WireLogger: wire,
	}

	c.logger.WithFields(logrus.Fields{
		"endpoint":   target.Endpoint(),
		"unit_id":    target.UnitID,
		"block":      cfg.Scan.Block,
		"delay":      cfg.DelayDuration().String(),
		"categories": strings.Join(cfg.Scan.Categories, ","),
	}).Debug("starting scan")

	s, err := runner.Run(ctx, runner.Options{
		Target:     target,
		BlockSize:  cfg.Scan.Block,
		Delay:      cfg.DelayDuration(),
		Categories: cats,
		Realtime:   cfg.RealtimeEnabled(),
		Dial:       scanner.Build(target),
		Out:        out,
		Log:        c.logger,
	})
	if err != nil {
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"readings":    s.Total(),
		"interrupted": s.Interrupted,
	}).Debug(fmt.Sprintf("scan of %s finished", target.Endpoint()))
	return nil
}
