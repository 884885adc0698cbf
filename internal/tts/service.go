package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/go-melotts/internal/audio"
	"github.com/example/go-melotts/internal/config"
	"github.com/example/go-melotts/internal/lexicon"
	"github.com/example/go-melotts/internal/onnx"
	"github.com/example/go-melotts/internal/text"
)

// Phonemizer converts one sentence into phone and tone ids.
type Phonemizer interface {
	Convert(sentence string) (phones, tones []int64)
}

// Options are the per-service pipeline settings.
type Options struct {
	Language    string
	LanguageID  int64
	Speed       float64
	SampleRate  int
	NoiseScale  float32
	NoiseScaleW float32
	SDPRatio    float32
	// SentenceLen is the minimum unit size used by the sentence splitter.
	SentenceLen int
	// SentencePauseMS is silence appended after each sentence, scaled by 1/speed.
	SentencePauseMS int
	Voice           string
}

// OptionsFromConfig validates the synth section of cfg.
func OptionsFromConfig(cfg config.SynthConfig) (Options, error) {
	lang, err := config.NormalizeLanguage(cfg.Language)
	if err != nil {
		return Options{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	opts := Options{
		Language:        lang,
		LanguageID:      cfg.LanguageID,
		Speed:           cfg.Speed,
		SampleRate:      cfg.SampleRate,
		NoiseScale:      float32(cfg.NoiseScale),
		NoiseScaleW:     float32(cfg.NoiseScaleW),
		SDPRatio:        float32(cfg.SDPRatio),
		SentenceLen:     cfg.SentenceLen,
		SentencePauseMS: cfg.SentencePauseMS,
		Voice:           strings.TrimSpace(cfg.Voice),
	}

	if err := opts.validate(); err != nil {
		return Options{}, err
	}

	return opts, nil
}

func (o Options) validate() error {
	if o.Speed <= 0 {
		return fmt.Errorf("%w: speed must be positive, got %v", ErrConfig, o.Speed)
	}
	if o.SampleRate < 1 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrConfig, o.SampleRate)
	}
	if o.SentencePauseMS < 0 {
		return fmt.Errorf("%w: sentence pause must not be negative, got %d", ErrConfig, o.SentencePauseMS)
	}
	return nil
}

// Request is one synthesis call. Zero fields fall back to the service
// defaults.
type Request struct {
	Text  string
	Voice string
	Speed float64
}

// Service runs the encoder/decoder pipeline. Calls are serialized: the
// runtime sessions are not shared between concurrent syntheses.
type Service struct {
	mu sync.Mutex

	runtime  Runtime
	lexicon  Phonemizer
	speaker  SpeakerEmbedding
	voices   *VoiceManager
	embCache map[string]SpeakerEmbedding
	opts     Options

	tracer  trace.Tracer
	metrics pipelineMetrics
}

// NewService loads the lexicon, speaker embedding and both ONNX graphs
// described by cfg.
func NewService(cfg config.Config) (*Service, error) {
	opts, err := OptionsFromConfig(cfg.Synth)
	if err != nil {
		return nil, err
	}

	lex, err := lexicon.Load(cfg.Paths.Lexicon, cfg.Paths.Tokens)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceLoad, err)
	}

	voices, err := loadVoices(cfg.Paths.Voices)
	if err != nil {
		return nil, err
	}

	var speaker SpeakerEmbedding
	if opts.Voice == "" {
		speaker, err = LoadSpeakerEmbedding(cfg.Paths.Speaker)
		if err != nil {
			return nil, err
		}
	}

	info, err := onnx.Bootstrap(cfg.Runtime)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceLoad, err)
	}

	bundle, err := onnx.ResolveBundle(onnx.BundleOptions{
		ManifestPath: cfg.Paths.Manifest,
		EncoderPath:  cfg.Paths.Encoder,
		DecoderPath:  cfg.Paths.Decoder,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceLoad, err)
	}

	engine, err := onnx.NewEngine(onnx.EngineOptions{
		Bundle: bundle,
		Runner: onnx.RunnerConfig{
			LibraryPath: info.LibraryPath,
			APIVersion:  cfg.Runtime.ORTAPIVersion,
		},
		DecoderFallback: onnx.DecoderShape{
			Channels: cfg.Synth.DecoderChannels,
			Frames:   cfg.Synth.DecoderFrames,
			Samples:  cfg.Synth.DecoderSamples,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceLoad, err)
	}

	svc := NewServiceWithRuntime(newONNXRuntime(engine), lex, speaker, opts)
	svc.voices = voices

	if opts.Voice != "" {
		if _, err := svc.speakerFor(opts.Voice); err != nil {
			svc.Close()
			return nil, err
		}
	}

	return svc, nil
}

// NewServiceWithRuntime assembles a Service from already loaded parts.
func NewServiceWithRuntime(rt Runtime, lex Phonemizer, speaker SpeakerEmbedding, opts Options) *Service {
	return &Service{
		runtime:  rt,
		lexicon:  lex,
		speaker:  speaker,
		embCache: make(map[string]SpeakerEmbedding),
		opts:     opts,
		tracer:   defaultTracer(),
		metrics:  newPipelineMetrics(defaultMeter()),
	}
}

// WithVoices attaches a voice manifest for per-request voice selection.
func (s *Service) WithVoices(vm *VoiceManager) *Service {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.voices = vm
	return s
}

func loadVoices(path string) (*VoiceManager, error) {
	if path == "" {
		return nil, nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("voice manifest not found", "path", path)
		return nil, nil
	}

	vm, err := NewVoiceManager(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceLoad, err)
	}

	return vm, nil
}

// Options returns the service defaults.
func (s *Service) Options() Options {
	return s.opts
}

// ListVoices returns the voices of the attached manifest, if any.
func (s *Service) ListVoices() []Voice {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.voices == nil {
		return nil
	}
	return s.voices.ListVoices()
}

// Close releases the runtime sessions.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runtime != nil {
		s.runtime.Close()
		s.runtime = nil
	}
}

// SynthesizeWAV runs Synthesize and encodes the waveform as WAV.
func (s *Service) SynthesizeWAV(ctx context.Context, req Request) ([]byte, error) {
	samples, err := s.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}

	wav, err := audio.EncodeWAV(samples, s.opts.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	return wav, nil
}

// Synthesize converts text into one waveform. Sentences are processed in
// order and any failure aborts the call without partial output.
func (s *Service) Synthesize(ctx context.Context, req Request) (samples []float32, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "tts.Synthesize")
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		attrs := metric.WithAttributes(attribute.String("status", status))
		s.metrics.requests.Add(ctx, 1, attrs)
		s.metrics.synthTime.Record(ctx, time.Since(start).Seconds(), attrs)
		span.End()
	}()

	if s.runtime == nil {
		return nil, fmt.Errorf("%w: service is closed", ErrConfig)
	}

	input, err := text.Normalize(req.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	speed := s.opts.Speed
	if req.Speed != 0 {
		speed = req.Speed
	}
	if speed <= 0 {
		return nil, fmt.Errorf("%w: speed must be positive, got %v", ErrConfig, speed)
	}

	speaker, err := s.speakerFor(req.Voice)
	if err != nil {
		return nil, err
	}

	geom := s.runtime.DecoderGeometry()
	if geom.Channels < 1 || geom.Frames < 1 || geom.Samples < 1 {
		return nil, fmt.Errorf("%w: decoder geometry %+v", ErrConfig, geom)
	}

	params := EncodeParams{
		NoiseScale:  s.opts.NoiseScale,
		LengthScale: float32(1 / speed),
		NoiseScaleW: s.opts.NoiseScaleW,
		SDPRatio:    s.opts.SDPRatio,
	}
	pause := audio.SilenceSamples(float64(s.opts.SentencePauseMS)/speed, s.opts.SampleRate)

	sentences := text.SplitSentences(input, s.opts.SentenceLen, s.opts.Language)
	span.SetAttributes(
		attribute.Int("melotts.sentences", len(sentences)),
		attribute.Float64("melotts.speed", speed),
	)

	wave := NewWaveform()
	for i, sentence := range sentences {
		out, err := s.synthesizeSentence(ctx, i, sentence, speaker, params, geom)
		if err != nil {
			return nil, fmt.Errorf("sentence %d: %w", i, err)
		}

		wave.AppendSentence(out)
		wave.AppendSilence(pause)
	}

	s.metrics.samples.Add(ctx, int64(wave.Len()))
	slog.Debug("synthesis done",
		"sentences", wave.Sentences(),
		"samples", wave.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return wave.Samples(), nil
}

func (s *Service) synthesizeSentence(
	ctx context.Context,
	index int,
	sentence string,
	speaker SpeakerEmbedding,
	params EncodeParams,
	geom DecoderGeometry,
) ([]float32, error) {
	ctx, span := s.tracer.Start(ctx, "tts.sentence", trace.WithAttributes(attribute.Int("melotts.sentence", index)))
	defer span.End()

	phones, tones := s.lexicon.Convert(sentence)
	seq := BuildSymbols(PhonemeTrack{Phones: phones, Tones: tones}, s.opts.LanguageID)
	s.metrics.sentences.Add(ctx, 1)

	encStart := time.Now()
	res, err := s.runtime.Encode(ctx, seq, speaker, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInference, err)
	}
	encElapsed := time.Since(encStart)
	s.metrics.encodeTime.Record(ctx, encElapsed.Seconds())

	lat := res.Latent
	if lat.Channels != geom.Channels {
		return nil, fmt.Errorf("%w: latent has %d channels, decoder expects %d", ErrShapeMismatch, lat.Channels, geom.Channels)
	}

	windows, err := ScheduleWindows(lat.Frames, geom.Frames)
	if err != nil {
		return nil, err
	}

	buf := make([]float32, geom.InputLen())
	trim := NewSampleTrimmer(res.AudioLength)
	out := make([]float32, 0, sentenceCapacity(res.AudioLength, len(windows), geom.Samples))

	decStart := time.Now()
	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("window %d: %w", w.Index, err)
		}

		if err := FillWindow(buf, lat, w, geom.Frames); err != nil {
			return nil, fmt.Errorf("window %d: %w", w.Index, err)
		}

		winStart := time.Now()
		chunk, err := s.runtime.Decode(ctx, buf, speaker)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w: %w", w.Index, ErrInference, err)
		}
		s.metrics.decodeTime.Record(ctx, time.Since(winStart).Seconds())

		if len(chunk) != geom.Samples {
			return nil, fmt.Errorf("window %d: %w: decoder returned %d samples, want %d",
				w.Index, ErrShapeMismatch, len(chunk), geom.Samples)
		}

		out = append(out, trim.Take(chunk)...)
	}
	s.metrics.windows.Add(ctx, int64(len(windows)))

	if trim.Remaining() > 0 {
		slog.Warn("decoder output shorter than target audio length",
			"sentence", index,
			"target", res.AudioLength,
			"emitted", trim.Emitted(),
		)
	}

	span.SetAttributes(
		attribute.Int("melotts.symbols", seq.Len()),
		attribute.Int("melotts.frames", lat.Frames),
		attribute.Int("melotts.windows", len(windows)),
	)
	slog.Debug("sentence synthesized",
		"sentence", index,
		"text", sentence,
		"symbols", seq.Len(),
		"frames", lat.Frames,
		"windows", len(windows),
		"samples", len(out),
		"encode_ms", encElapsed.Milliseconds(),
		"decode_ms", time.Since(decStart).Milliseconds(),
	)

	return out, nil
}

// speakerFor returns the embedding for a voice id, falling back to the
// configured default voice and then to the default embedding.
func (s *Service) speakerFor(voice string) (SpeakerEmbedding, error) {
	voice = strings.TrimSpace(voice)
	if voice == "" {
		voice = s.opts.Voice
	}

	if voice == "" {
		if len(s.speaker) == 0 {
			return nil, fmt.Errorf("%w: no speaker embedding loaded", ErrConfig)
		}
		return s.speaker, nil
	}

	if g, ok := s.embCache[voice]; ok {
		return g, nil
	}

	if s.voices == nil {
		return nil, fmt.Errorf("%w: voice %q requested but no voice manifest is loaded", ErrConfig, voice)
	}

	g, err := s.voices.LoadEmbedding(voice)
	if err != nil {
		return nil, fmt.Errorf("voice %q: %w", voice, err)
	}

	s.embCache[voice] = g
	return g, nil
}

// sentenceCapacity bounds the preallocation for one sentence by what the
// decoder can emit, so a corrupt audio_len cannot force a huge allocation.
func sentenceCapacity(audioLength, windows, samples int) int {
	return min(max(audioLength, 0), windows*samples)
}
