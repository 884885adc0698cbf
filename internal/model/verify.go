// Package model checks exported encoder/decoder graphs against their manifest.
package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/example/go-melotts/internal/onnx"
)

type VerifyOptions struct {
	ManifestPath  string
	EncoderPath   string
	DecoderPath   string
	ORTLibrary    string
	ORTAPIVersion uint32
	Stdout        io.Writer
	Stderr        io.Writer
}

// runSmoke loads a graph and runs it once on the given inputs.
var runSmoke = runSmokeImpl

// VerifyONNX resolves the encoder and decoder graphs, builds zero-valued
// inputs from the manifest node descriptions and runs each graph once.
func VerifyONNX(ctx context.Context, opts VerifyOptions) error {
	if opts.ManifestPath == "" && (opts.EncoderPath == "" || opts.DecoderPath == "") {
		return errors.New("manifest path or both graph paths are required")
	}

	if opts.ORTAPIVersion == 0 {
		opts.ORTAPIVersion = onnx.DefaultAPIVersion
	}

	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}

	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}

	bundle, err := onnx.ResolveBundle(onnx.BundleOptions{
		ManifestPath: opts.ManifestPath,
		EncoderPath:  opts.EncoderPath,
		DecoderPath:  opts.DecoderPath,
	})
	if err != nil {
		return fmt.Errorf("resolve graphs: %w", err)
	}

	var failures []string

	for _, session := range bundle.Sessions() {
		inputs, err := zeroInputs(session)
		if err == nil {
			err = runSmoke(ctx, session, onnx.RunnerConfig{
				LibraryPath: opts.ORTLibrary,
				APIVersion:  opts.ORTAPIVersion,
			}, inputs)
		}

		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "FAIL %s: %v\n", session.Name, err)
			failures = append(failures, session.Name)

			continue
		}

		_, _ = fmt.Fprintf(opts.Stdout, "PASS %s (%s)\n", session.Name, session.Path)
	}

	if len(failures) > 0 {
		return fmt.Errorf("verify failed for %d graph(s): %s", len(failures), strings.Join(failures, ", "))
	}

	return nil
}

// zeroInputs builds one zero tensor per declared input. Symbolic dims
// become 1.
func zeroInputs(session onnx.Session) (map[string]*onnx.Tensor, error) {
	if len(session.Inputs) == 0 {
		return nil, errors.New("no input metadata in manifest")
	}

	inputs := make(map[string]*onnx.Tensor, len(session.Inputs))
	for _, input := range session.Inputs {
		t, err := onnx.NewZeroTensor(input.DType, input.Shape)
		if err != nil {
			return nil, fmt.Errorf("input %q invalid: %w", input.Name, err)
		}

		inputs[input.Name] = t
	}

	return inputs, nil
}

func runSmokeImpl(ctx context.Context, session onnx.Session, cfg onnx.RunnerConfig, inputs map[string]*onnx.Tensor) error {
	runner, err := onnx.NewRunner(session, cfg)
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}
	defer runner.Close()

	outputs, err := runner.Run(ctx, inputs)
	if err != nil {
		return fmt.Errorf("run inference: %w", err)
	}

	for _, out := range session.Outputs {
		if _, ok := outputs[out.Name]; !ok {
			return fmt.Errorf("declared output %q missing", out.Name)
		}
	}

	return nil
}
