package main

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"strings"
	"time"

	"github.com/born-ml/qweights/internal/quant"
	"github.com/born-ml/qweights/internal/serialization"
	"github.com/born-ml/qweights/internal/tensor"
	"github.com/born-ml/qweights/internal/tensorio"
	"github.com/urfave/cli/v3"
)

func (a *app) forwardCmd() *cli.Command {
	var (
		qf      quantFlags
		inPath  string
		outPath string
	)
	return &cli.Command{
		Name:  "forward",
		Usage: "Quantize a weight tensor",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Usage: "input tensor (JSON)", Required: true, Destination: &inPath},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output tensor, - for stdout", Value: "-", Destination: &outPath},
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
			if isSafeTensors(inPath) {
				return a.forwardDict(r, q, inPath, outPath)
			}
			x, err := tensorio.ReadFile(inPath)
			if err != nil {
				return err
			}

			start := time.Now()
			y, err := q.Forward(x)
			if err != nil {
				r.log.Error("forward failed", "error", err)
				return err
			}
			r.log.Info("forward",
				"config", q.Config().String(),
				"shape", x.Shape().String(),
				"dtype", x.DType().String(),
				"elapsed", time.Since(start),
			)
			return a.writeTensor(outPath, y)
		},
	}
}

func (a *app) backwardCmd() *cli.Command {
	var (
		qf        quantFlags
		gradPath  string
		inputPath string
		outPath   string
	)
	return &cli.Command{
		Name:  "backward",
		Usage: "Apply the straight-through estimator to an output gradient",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "grad", Aliases: []string{"g"}, Usage: "output gradient (JSON)", Required: true, Destination: &gradPath},
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "forward input (JSON)", Required: true, Destination: &inputPath},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "input gradient, - for stdout", Value: "-", Destination: &outPath},
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
			if isSafeTensors(inputPath) {
				return a.backwardDict(r, q, gradPath, inputPath, outPath)
			}
			g, err := tensorio.ReadFile(gradPath)
			if err != nil {
				return err
			}
			x, err := tensorio.ReadFile(inputPath)
			if err != nil {
				return err
			}

			start := time.Now()
			dx, err := q.Backward(g, x)
			if err != nil {
				r.log.Error("backward failed", "error", err)
				return err
			}
			r.log.Info("backward",
				"config", q.Config().String(),
				"shape", x.Shape().String(),
				"elapsed", time.Since(start),
			)
			return a.writeTensor(outPath, dx)
		},
	}
}

func (a *app) writeTensor(path string, t *tensor.RawTensor) error {
	if path == "" || path == "-" {
		return tensorio.Encode(a.stdout, t)
	}
	return tensorio.WriteFile(path, t)
}

func isSafeTensors(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".safetensors")
}

// forwardDict quantizes every float tensor of a SafeTensors file. Other
// tensors are copied unchanged. The quantizer options are added to the
// output metadata.
func (a *app) forwardDict(r *run, q *quant.Quantizer, inPath, outPath string) error {
	if !isSafeTensors(outPath) {
		return fmt.Errorf("forward: --out must be a .safetensors file when --in is, got %q", outPath)
	}
	sd, err := serialization.ReadFile(inPath)
	if err != nil {
		return err
	}

	start := time.Now()
	out := &serialization.StateDict{
		Tensors:  make(map[string]*tensor.RawTensor, len(sd.Tensors)),
		Metadata: maps.Clone(sd.Metadata),
	}
	if out.Metadata == nil {
		out.Metadata = make(map[string]string)
	}
	maps.Copy(out.Metadata, q.Config().Params())

	var quantized int
	for _, name := range sd.Names() {
		x := sd.Tensors[name]
		if !x.DType().IsFloat() {
			r.log.Warn("skipping non-float tensor", "tensor", name, "dtype", x.DType().String())
			out.Tensors[name] = x
			continue
		}
		y, err := q.Forward(x)
		if err != nil {
			r.log.Error("forward failed", "tensor", name, "error", err)
			return fmt.Errorf("tensor %s: %w", name, err)
		}
		out.Tensors[name] = y
		quantized++
	}

	r.log.Info("forward",
		"config", q.Config().String(),
		"tensors", len(sd.Tensors),
		"quantized", quantized,
		"elapsed", time.Since(start),
	)
	return serialization.WriteFile(outPath, out)
}

// backwardDict applies the estimator to every float tensor of a SafeTensors
// input, pairing gradients by name. Non-float inputs and unpaired gradients
// are skipped with a warning.
func (a *app) backwardDict(r *run, q *quant.Quantizer, gradPath, inputPath, outPath string) error {
	if !isSafeTensors(gradPath) || !isSafeTensors(outPath) {
		return fmt.Errorf("backward: --grad and --out must be .safetensors files when --input is")
	}
	grads, err := serialization.ReadFile(gradPath)
	if err != nil {
		return err
	}
	inputs, err := serialization.ReadFile(inputPath)
	if err != nil {
		return err
	}

	start := time.Now()
	out := &serialization.StateDict{Tensors: make(map[string]*tensor.RawTensor, len(inputs.Tensors))}
	for _, name := range inputs.Names() {
		x := inputs.Tensors[name]
		if !x.DType().IsFloat() {
			r.log.Warn("skipping non-float tensor", "tensor", name, "dtype", x.DType().String())
			continue
		}
		g, ok := grads.Tensors[name]
		if !ok {
			return fmt.Errorf("backward: no gradient for tensor %s", name)
		}
		dx, err := q.Backward(g, x)
		if err != nil {
			r.log.Error("backward failed", "tensor", name, "error", err)
			return fmt.Errorf("tensor %s: %w", name, err)
		}
		out.Tensors[name] = dx
	}
	for _, name := range grads.Names() {
		if _, ok := inputs.Tensors[name]; !ok {
			r.log.Warn("skipping gradient without input", "tensor", name)
		}
	}

	r.log.Info("backward", "tensors", len(out.Tensors), "elapsed", time.Since(start))
	return serialization.WriteFile(outPath, out)
}
