package main

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/born-ml/qweights/internal/quant"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
)

func (a *app) paramsCmd() *cli.Command {
	var (
		qf     quantFlags
		asJSON bool
	)
	return &cli.Command{
		Name:      "params",
		Usage:     "Print the effective quantizer options",
		ArgsUsage: "[key=value ...]",
		Flags: append([]cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print as a JSON object", Destination: &asJSON},
		}, qf.flags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			r, err := a.setup()
			if err != nil {
				return err
			}
			q, err := qf.quantizer(cmd, r)
			if err != nil {
				return err
			}

			// Host-style options (act_bit=1 scaling_factor=scalar) apply last.
			params := q.Config().Params()
			for _, arg := range cmd.Args().Slice() {
				k, v, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("params: expected key=value, got %q", arg)
				}
				key := quant.CanonicalKey(k)
				if key == "" {
					return &quant.ConfigError{Field: k, Value: v, Details: "unknown option"}
				}
				params[key] = v
			}
			cfg, err := quant.ParseParams(params)
			if err != nil {
				return err
			}
			params = cfg.Params()

			if asJSON {
				data, err := json.MarshalIndent(params, "", "  ")
				if err != nil {
					return err
				}
				printf(a.stdout, "%s\n", data)
				return nil
			}
			for _, k := range slices.Sorted(maps.Keys(params)) {
				printf(a.stdout, "%s=%s\n", k, params[k])
			}
			return nil
		},
	}
}
