package onnx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
)

// GraphRunner is the minimal runner contract required by Engine methods.
// Tests substitute fakes that never touch ORT.
type GraphRunner interface {
	Run(ctx context.Context, inputs map[string]*Tensor) (map[string]*Tensor, error)
	Name() string
	Close()
}

// EngineOptions configures NewEngine.
type EngineOptions struct {
	Bundle Bundle
	Runner RunnerConfig
	// DecoderFallback supplies the decoder window geometry when the manifest
	// does not declare static shapes for the decoder graph.
	DecoderFallback DecoderShape
}

// Engine owns the encoder and decoder graph runners of one voice model.
type Engine struct {
	runners map[string]GraphRunner
	bundle  Bundle
	decoder DecoderShape
}

func NewEngine(opts EngineOptions) (*Engine, error) {
	shape, err := ResolveDecoderShape(opts.Bundle.Decoder, opts.DecoderFallback)
	if err != nil {
		return nil, err
	}

	runners := make(map[string]GraphRunner, 2)
	for _, meta := range opts.Bundle.Sessions() {
		r, err := NewRunner(meta, opts.Runner)
		if err != nil {
			closeRunners(runners)
			return nil, err
		}
		runners[meta.Name] = r
	}

	slog.Info("onnx engine ready",
		"encoder", opts.Bundle.Encoder.Path,
		"decoder", opts.Bundle.Decoder.Path,
		"decoder_channels", shape.Channels,
		"decoder_frames", shape.Frames,
		"decoder_samples", shape.Samples,
	)

	return &Engine{runners: runners, bundle: opts.Bundle, decoder: shape}, nil
}

// NewEngineWithRunners builds an Engine from externally provided graph runners.
func NewEngineWithRunners(runners map[string]GraphRunner, bundle Bundle, shape DecoderShape) *Engine {
	internal := make(map[string]GraphRunner, len(runners))
	maps.Copy(internal, runners)

	return &Engine{runners: internal, bundle: bundle, decoder: shape}
}

// DecoderShape returns the fixed decoder geometry resolved at load time.
func (e *Engine) DecoderShape() DecoderShape {
	return e.decoder
}

// Close releases every runner. Safe to call multiple times.
func (e *Engine) Close() {
	closeRunners(e.runners)
	e.runners = nil
}

func (e *Engine) runner(name string) (GraphRunner, error) {
	r, ok := e.runners[name]
	if !ok {
		return nil, fmt.Errorf("%s graph not loaded", name)
	}
	return r, nil
}

func closeRunners(runners map[string]GraphRunner) {
	for _, r := range runners {
		r.Close()
	}
}

func requireOutput(outputs map[string]*Tensor, graph, name string) (*Tensor, error) {
	t, ok := outputs[name]
	if !ok || t == nil {
		return nil, fmt.Errorf("%s: missing %q in output", graph, name)
	}
	return t, nil
}

var errEmptySpeaker = errors.New("speaker embedding is empty")
