package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/born-ml/qweights/internal/config"
	"github.com/born-ml/qweights/internal/logger"
	"github.com/born-ml/qweights/internal/parallel"
	"github.com/born-ml/qweights/internal/quant"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
)

// app holds the global flags and the state derived from them.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	logFormat  string
	workers    int
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	a := &app{stdout: stdout, stderr: stderr}
	return &cli.Command{
		Name:      "qweights",
		Usage:     "Binarize weight tensors and apply the straight-through estimator",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "path to config.yaml",
				Value:       config.DefaultPath(),
				Destination: &a.configPath,
			},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (overrides config)", Destination: &a.logLevel},
			&cli.StringFlag{Name: "log-format", Usage: "text or json (overrides config)", Destination: &a.logFormat},
			&cli.IntFlag{Name: "workers", Usage: "worker goroutines, 1 disables parallelism (0 = config or NumCPU)", Destination: &a.workers},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			a.forwardCmd(),
			a.backwardCmd(),
			a.paramsCmd(),
			a.versionCmd(),
		},
	}
}

// run is the per-invocation state shared by subcommands.
type run struct {
	file config.File
	log  logger.Logger
	par  parallel.Config
}

// setup loads the config file, applies global flag overrides and builds the
// logger. Every record carries a fresh run_id.
func (a *app) setup() (*run, error) {
	file, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.logLevel != "" {
		file.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		file.LogFormat = a.logFormat
	}
	if a.workers != 0 {
		file.Workers = &a.workers
	}

	level, err := file.Level()
	if err != nil {
		return nil, err
	}
	format, err := file.Format()
	if err != nil {
		return nil, err
	}
	par, err := file.Parallel()
	if err != nil {
		return nil, err
	}

	log := logger.New(a.stderr, format, level).With("run_id", uuid.NewString())
	log.Debug("config loaded", "path", a.configPath, "workers", par.NumWorkers, "parallel", par.Enabled)
	return &run{file: file, log: log, par: par}, nil
}

// quantFlags are the per-command overrides of the quantizer options.
type quantFlags struct {
	bits    int
	scaling string
}

func (f *quantFlags) flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "bits", Aliases: []string{"b"}, Usage: "bit width: 1 or 32", Destination: &f.bits},
		&cli.StringFlag{Name: "scaling", Aliases: []string{"s"}, Usage: "scaling mode: none, scalar or channel_mean", Destination: &f.scaling},
	}
}

// quantizer resolves defaults, then the config file, then flags set on cmd.
func (f *quantFlags) quantizer(cmd *cli.Command, r *run) (*quant.Quantizer, error) {
	params := r.file.Params()
	if cmd.IsSet("bits") {
		params[quant.KeyBitWidth] = strconv.Itoa(f.bits)
	}
	if cmd.IsSet("scaling") {
		params[quant.KeyScalingMode] = f.scaling
	}
	cfg, err := quant.ParseParams(params)
	if err != nil {
		return nil, err
	}
	q, err := quant.New(cfg, quant.WithParallel(r.par))
	if err != nil {
		return nil, err
	}
	r.log.Debug("quantizer ready", "config", cfg.String())
	return q, nil
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
