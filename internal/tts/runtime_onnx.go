package tts

import (
	"context"

	"github.com/example/go-melotts/internal/onnx"
)

type onnxRuntime struct {
	engine *onnx.Engine
}

func newONNXRuntime(engine *onnx.Engine) Runtime {
	return &onnxRuntime{engine: engine}
}

func (r *onnxRuntime) Encode(ctx context.Context, seq SymbolSequence, speaker SpeakerEmbedding, params EncodeParams) (EncodeResult, error) {
	out, err := r.engine.Encode(ctx, onnx.EncodeInput{
		Phones:      seq.Phones,
		Tones:       seq.Tones,
		Languages:   seq.Languages,
		Speaker:     speaker,
		NoiseScale:  params.NoiseScale,
		LengthScale: params.LengthScale,
		NoiseScaleW: params.NoiseScaleW,
		SDPRatio:    params.SDPRatio,
	})
	if err != nil {
		return EncodeResult{}, err
	}

	return EncodeResult{
		Latent: Latent{
			Data:     out.Latent,
			Channels: out.Channels,
			Frames:   out.Frames,
		},
		AudioLength: out.AudioLength,
	}, nil
}

func (r *onnxRuntime) Decode(ctx context.Context, window []float32, speaker SpeakerEmbedding) ([]float32, error) {
	return r.engine.Decode(ctx, window, speaker)
}

func (r *onnxRuntime) DecoderGeometry() DecoderGeometry {
	s := r.engine.DecoderShape()
	return DecoderGeometry{Channels: s.Channels, Frames: s.Frames, Samples: s.Samples}
}

func (r *onnxRuntime) Close() {
	if r.engine != nil {
		r.engine.Close()
	}
}
