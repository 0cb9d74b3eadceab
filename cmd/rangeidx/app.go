// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/gaissmai/rangeidx"
	"github.com/gaissmai/rangeidx/csvload"
)

const appName = "rangeidx"

const (
	flagConfig      = "config"
	flagFile        = "file"
	flagRangeColumn = "range-column"
	flagEncoding    = "encoding"
	flagComma       = "comma"
	flagStrategy    = "strategy"
	flagConcurrency = "concurrency"
	flagLogFile     = "log-file"
	flagDebug       = "debug"
	flagNoColor     = "no-color"
)

// env is the state shared by all commands, set up in the Before hook.
type env struct {
	stdout io.Writer
	stderr io.Writer

	cfg settings
	lg  *zap.Logger

	// closes the log file
	closeLog func() error

	hit, miss, bold *color.Color
}

func globalFlags() []cli.Flag {
	def := defaultSettings()

	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "YAML config file, flags override its values",
			EnvVars: []string{"RANGEIDX_CONFIG"},
		},
		&cli.StringFlag{
			Name:    flagFile,
			Aliases: []string{"f"},
			Usage:   "CSV `FILE` with the ranges",
			EnvVars: []string{"RANGEIDX_FILE"},
		},
		&cli.StringFlag{
			Name:  flagRangeColumn,
			Usage: "header name of the range column",
			Value: def.CSV.RangeColumn,
		},
		&cli.StringFlag{
			Name:  flagEncoding,
			Usage: "CSV file encoding, latin-1 or utf-8",
			Value: def.CSV.Encoding,
		},
		&cli.StringFlag{
			Name:  flagComma,
			Usage: "CSV field delimiter",
			Value: def.CSV.Comma,
		},
		&cli.StringFlag{
			Name:  flagStrategy,
			Usage: "in-bucket search strategy, one of " + strategyNames(),
			Value: def.Strategy,
		},
		&cli.IntFlag{
			Name:  flagConcurrency,
			Usage: "parallel bucket builds",
			Value: def.Concurrency,
		},
		&cli.StringFlag{
			Name:  flagLogFile,
			Usage: "log to rotated `FILE` instead of stderr",
		},
		&cli.BoolFlag{
			Name:  flagDebug,
			Usage: "enable debug logging",
		},
		&cli.BoolFlag{
			Name:  flagNoColor,
			Usage: "disable colored output",
		},
	}
}

func strategyNames() string {
	names := make([]string, 0, len(rangeidx.Strategies))
	for _, s := range rangeidx.Strategies {
		names = append(names, s.String())
	}
	return strings.Join(names, ", ")
}

// newApp wires the commands, stdout and stderr are
// replaced by buffers in tests.
func newApp(stdout, stderr io.Writer) *cli.App {
	e := &env{stdout: stdout, stderr: stderr}

	app := cli.NewApp()
	app.Name = appName
	app.Usage = "most specific IP range lookups"
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Flags = globalFlags()
	app.Commands = []*cli.Command{
		lookupCommand(e),
		statsCommand(e),
		dumpCommand(e),
		verifyCommand(e),
		genCommand(e),
		benchCommand(e),
	}

	// exit codes are handled in main
	app.ExitErrHandler = func(*cli.Context, error) {}

	app.Before = e.setup
	app.After = e.teardown

	return app
}

func (e *env) setup(c *cli.Context) error {
	cfg, err := readSettings(c.String(flagConfig))
	if err != nil {
		return err
	}
	cfg.mergeFlags(c)
	e.cfg = cfg

	e.lg, e.closeLog = newLogger(e.stderr, cfg.LogFile, cfg.Debug)
	e.cfg.CSV.Logger = e.lg

	e.hit = color.New(color.FgGreen)
	e.miss = color.New(color.FgRed)
	e.bold = color.New(color.Bold)
	if cfg.NoColor || !isTerminal(e.stdout) {
		for _, col := range []*color.Color{e.hit, e.miss, e.bold} {
			col.DisableColor()
		}
	} else {
		for _, col := range []*color.Color{e.hit, e.miss, e.bold} {
			col.EnableColor()
		}
	}

	return nil
}

func (e *env) teardown(*cli.Context) error {
	if e.lg == nil {
		return nil
	}

	// syncing stderr fails on some platforms, ignore it
	_ = e.lg.Sync()
	return e.closeLog()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// loadIndex reads the CSV file and builds the index.
func (e *env) loadIndex() (*rangeidx.Index[csvload.Row], csvload.Stats, error) {
	if e.cfg.File == "" {
		return nil, csvload.Stats{}, errors.Errorf("missing range file, use --%s or the config file", flagFile)
	}

	opts, err := e.cfg.options()
	if err != nil {
		return nil, csvload.Stats{}, err
	}

	recs, stats, err := csvload.LoadFile(e.cfg.File, e.cfg.CSV)
	if err != nil {
		return nil, stats, err
	}

	start := time.Now()
	x, err := rangeidx.New(recs, opts...)
	if err != nil {
		return nil, stats, errors.Wrap(err, "build index")
	}

	e.lg.Info("index built",
		zap.String("strategy", x.Strategy().String()),
		zap.Int("ipv4", x.Len4()),
		zap.Int("ipv6", x.Len6()),
		zap.Int("buckets4", len(x.Stats(true))),
		zap.Int("buckets6", len(x.Stats(false))),
		zap.Duration("took", time.Since(start)),
	)

	return x, stats, nil
}
