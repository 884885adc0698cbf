package tts

import (
	"context"
)

// EncodeParams are the scalar encoder controls.
type EncodeParams struct {
	NoiseScale  float32
	LengthScale float32
	NoiseScaleW float32
	SDPRatio    float32
}

// EncodeResult is one sentence worth of encoder output.
type EncodeResult struct {
	Latent      Latent
	AudioLength int
}

// DecoderGeometry is the fixed decoder contract: a [Channels, Frames] latent
// window in, Samples audio samples out.
type DecoderGeometry struct {
	Channels int
	Frames   int
	Samples  int
}

func (g DecoderGeometry) InputLen() int {
	return g.Channels * g.Frames
}

// Runtime abstracts encoder and decoder graph execution so the pipeline can
// run against ONNX Runtime or a test double.
type Runtime interface {
	Encode(ctx context.Context, seq SymbolSequence, speaker SpeakerEmbedding, params EncodeParams) (EncodeResult, error)
	Decode(ctx context.Context, window []float32, speaker SpeakerEmbedding) ([]float32, error)
	DecoderGeometry() DecoderGeometry
	Close()
}
