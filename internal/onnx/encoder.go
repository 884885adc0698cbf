package onnx

import (
	"context"
	"fmt"
)

// Encoder graph node names.
const (
	encInputPhone       = "phone"
	encInputTone        = "tone"
	encInputLanguage    = "language"
	encInputSpeaker     = "g"
	encInputNoiseScale  = "noise_scale"
	encInputLengthScale = "length_scale"
	encInputNoiseScaleW = "noise_scale_w"
	encInputSDPRatio    = "sdp_ratio"
	encOutputLatent     = "z_p"
	encOutputAudioLen   = "audio_len"
)

// EncodeInput is one sentence worth of encoder inputs.
type EncodeInput struct {
	Phones    []int64
	Tones     []int64
	Languages []int64
	Speaker   []float32

	NoiseScale  float32
	LengthScale float32
	NoiseScaleW float32
	SDPRatio    float32
}

// EncodeOutput carries the latent z_p [1, Channels, Frames] in channel-major
// order and the number of audio samples the sentence should produce. Other
// encoder outputs such as pronoun_lens are ignored.
type EncodeOutput struct {
	Latent      []float32
	Channels    int
	Frames      int
	AudioLength int
}

// Encode runs the encoder graph once.
func (e *Engine) Encode(ctx context.Context, in EncodeInput) (EncodeOutput, error) {
	runner, err := e.runner(GraphEncoder)
	if err != nil {
		return EncodeOutput{}, err
	}

	n := len(in.Phones)
	if n == 0 {
		return EncodeOutput{}, fmt.Errorf("encoder: empty symbol sequence")
	}
	if len(in.Tones) != n || len(in.Languages) != n {
		return EncodeOutput{}, fmt.Errorf("encoder: sequence lengths differ (phone=%d tone=%d language=%d)",
			n, len(in.Tones), len(in.Languages))
	}
	if len(in.Speaker) == 0 {
		return EncodeOutput{}, fmt.Errorf("encoder: %w", errEmptySpeaker)
	}

	inputs := make(map[string]*Tensor, 8)
	ids := map[string][]int64{
		encInputPhone:    in.Phones,
		encInputTone:     in.Tones,
		encInputLanguage: in.Languages,
	}
	for name, seq := range ids {
		t, err := NewIDTensor(seq, e.inputDType(name))
		if err != nil {
			return EncodeOutput{}, fmt.Errorf("encoder: input %q: %w", name, err)
		}
		inputs[name] = t
	}

	g, err := speakerTensor(in.Speaker)
	if err != nil {
		return EncodeOutput{}, fmt.Errorf("encoder: %w", err)
	}
	inputs[encInputSpeaker] = g

	scalars := map[string]float32{
		encInputNoiseScale:  in.NoiseScale,
		encInputLengthScale: in.LengthScale,
		encInputNoiseScaleW: in.NoiseScaleW,
		encInputSDPRatio:    in.SDPRatio,
	}
	for name, v := range scalars {
		t, err := NewTensor([]float32{v}, []int64{1})
		if err != nil {
			return EncodeOutput{}, fmt.Errorf("encoder: input %q: %w", name, err)
		}
		inputs[name] = t
	}

	outputs, err := runner.Run(ctx, inputs)
	if err != nil {
		return EncodeOutput{}, fmt.Errorf("encoder: run: %w", err)
	}

	return decodeEncoderOutputs(outputs)
}

func decodeEncoderOutputs(outputs map[string]*Tensor) (EncodeOutput, error) {
	zp, err := requireOutput(outputs, GraphEncoder, encOutputLatent)
	if err != nil {
		return EncodeOutput{}, err
	}

	shape := zp.Shape()
	if len(shape) != 3 || shape[0] != 1 {
		return EncodeOutput{}, fmt.Errorf("encoder: z_p shape %v, want [1, C, T]", shape)
	}

	latent, err := ExtractFloat32(zp)
	if err != nil {
		return EncodeOutput{}, fmt.Errorf("encoder: extract z_p: %w", err)
	}

	audioLenT, err := requireOutput(outputs, GraphEncoder, encOutputAudioLen)
	if err != nil {
		return EncodeOutput{}, err
	}

	audioLen, err := ExtractInt64(audioLenT)
	if err != nil {
		return EncodeOutput{}, fmt.Errorf("encoder: extract audio_len: %w", err)
	}
	if len(audioLen) == 0 || audioLen[0] < 0 {
		return EncodeOutput{}, fmt.Errorf("encoder: invalid audio_len %v", audioLen)
	}

	return EncodeOutput{
		Latent:      latent,
		Channels:    int(shape[1]),
		Frames:      int(shape[2]),
		AudioLength: int(audioLen[0]),
	}, nil
}

// inputDType returns the manifest dtype of an id input; MeloTTS exports use
// int32 ids, which is also the default when no manifest is available.
func (e *Engine) inputDType(name string) TensorDType {
	node, ok := e.bundle.Encoder.Input(name)
	if !ok || node.DType == "" {
		return DTypeInt32
	}
	dtype, err := canonicalDType(node.DType)
	if err != nil {
		return DTypeInt32
	}
	return dtype
}

func speakerTensor(speaker []float32) (*Tensor, error) {
	if len(speaker) == 0 {
		return nil, errEmptySpeaker
	}
	return NewTensor(speaker, []int64{1, int64(len(speaker)), 1})
}
