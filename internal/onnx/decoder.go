package onnx

import (
	"context"
	"fmt"
)

// Decoder graph node names.
const (
	decInputLatent  = "z_p"
	decInputSpeaker = "g"
	decOutputAudio  = "audio"
)

// DefaultHopLength is the number of audio samples the decoder emits per
// latent frame.
const DefaultHopLength = 512

// DecoderShape is the fixed geometry of the decoder graph: it consumes a
// [1, Channels, Frames] latent window and emits Samples audio samples.
type DecoderShape struct {
	Channels int
	Frames   int
	Samples  int
}

// InputLen is the element count of one decoder input window.
func (s DecoderShape) InputLen() int {
	return s.Channels * s.Frames
}

func (s DecoderShape) Validate() error {
	if s.Channels < 1 || s.Frames < 1 || s.Samples < 1 {
		return fmt.Errorf("invalid decoder shape: channels=%d frames=%d samples=%d", s.Channels, s.Frames, s.Samples)
	}
	return nil
}

// ResolveDecoderShape reads the static z_p and audio shapes declared for the
// decoder graph, filling undeclared dimensions from fallback.
func ResolveDecoderShape(meta Session, fallback DecoderShape) (DecoderShape, error) {
	shape := fallback

	if node, ok := meta.Input(decInputLatent); ok {
		if dims, ok := staticShape(node.Shape); ok && len(dims) == 3 {
			shape.Channels = int(dims[1])
			shape.Frames = int(dims[2])
		}
	}

	if node, ok := meta.Output(decOutputAudio); ok {
		if dims, ok := staticShape(node.Shape); ok {
			count, err := elementCount(dims)
			if err != nil {
				return DecoderShape{}, fmt.Errorf("decoder audio shape: %w", err)
			}
			shape.Samples = count
		}
	}

	if shape.Samples == 0 && shape.Frames > 0 {
		shape.Samples = shape.Frames * DefaultHopLength
	}

	if err := shape.Validate(); err != nil {
		return DecoderShape{}, err
	}

	return shape, nil
}

// Decode runs the decoder graph on one latent window laid out as
// [Channels][Frames] and returns the fixed-size audio chunk.
func (e *Engine) Decode(ctx context.Context, window []float32, speaker []float32) ([]float32, error) {
	runner, err := e.runner(GraphDecoder)
	if err != nil {
		return nil, err
	}

	if len(window) != e.decoder.InputLen() {
		return nil, fmt.Errorf("decoder: window has %d values, want %d", len(window), e.decoder.InputLen())
	}

	zp, err := NewTensor(window, []int64{1, int64(e.decoder.Channels), int64(e.decoder.Frames)})
	if err != nil {
		return nil, fmt.Errorf("decoder: z_p: %w", err)
	}

	g, err := speakerTensor(speaker)
	if err != nil {
		return nil, fmt.Errorf("decoder: %w", err)
	}

	outputs, err := runner.Run(ctx, map[string]*Tensor{
		decInputLatent:  zp,
		decInputSpeaker: g,
	})
	if err != nil {
		return nil, fmt.Errorf("decoder: run: %w", err)
	}

	audio, err := requireOutput(outputs, GraphDecoder, decOutputAudio)
	if err != nil {
		return nil, err
	}

	pcm, err := ExtractFloat32(audio)
	if err != nil {
		return nil, fmt.Errorf("decoder: extract audio: %w", err)
	}

	if len(pcm) != e.decoder.Samples {
		return nil, fmt.Errorf("decoder: produced %d samples, want %d", len(pcm), e.decoder.Samples)
	}

	return pcm, nil
}
