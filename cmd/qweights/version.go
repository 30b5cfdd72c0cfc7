package main

import (
	"context"
	"runtime"
	"strings"

	"github.com/born-ml/qweights/internal/backend/cpu"
	"github.com/born-ml/qweights/internal/version"
	"github.com/urfave/cli/v3"
)

func (a *app) versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			info := version.Resolve()
			printf(a.stdout, "version:    %s\n", info.Version)
			if info.Commit != "" {
				printf(a.stdout, "commit:     %s\n", info.Commit)
			}
			if info.BuildTime != "" {
				printf(a.stdout, "build time: %s\n", info.BuildTime)
			}
			printf(a.stdout, "go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

			features := "none"
			if f := cpu.Features(); len(f) > 0 {
				features = strings.Join(f, " ")
			}
			printf(a.stdout, "cpu:        %s\n", features)
			return nil
		},
	}
}
