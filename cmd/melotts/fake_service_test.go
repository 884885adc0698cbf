package main

import (
	"context"
	"testing"

	"github.com/example/go-melotts/internal/audio"
	"github.com/example/go-melotts/internal/config"
	"github.com/example/go-melotts/internal/tts"
)

type fakeService struct {
	samples []float32
	err     error
	voices  []tts.Voice
	rate    int

	calls  int
	reqs   []tts.Request
	closed bool
	// vary makes every call return a different waveform.
	vary bool
}

func (f *fakeService) Synthesize(_ context.Context, req tts.Request) ([]float32, error) {
	f.calls++
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	out := append([]float32(nil), f.samples...)
	if f.vary && len(out) > 0 {
		out[0] += float32(f.calls)
	}
	return out, nil
}

func (f *fakeService) SynthesizeWAV(ctx context.Context, req tts.Request) ([]byte, error) {
	samples, err := f.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}
	return audio.EncodeWAV(samples, f.Options().SampleRate)
}

func (f *fakeService) ListVoices() []tts.Voice { return f.voices }

func (f *fakeService) Options() tts.Options {
	rate := f.rate
	if rate == 0 {
		rate = 44100
	}
	return tts.Options{SampleRate: rate, Speed: 1}
}

func (f *fakeService) Close() { f.closed = true }

// withFakeService swaps openService for the duration of the test.
func withFakeService(t *testing.T, svc *fakeService) *config.Config {
	t.Helper()

	orig := openService
	origCfg := activeCfg
	t.Cleanup(func() {
		openService = orig
		activeCfg = origCfg
	})

	var seen config.Config
	openService = func(cfg config.Config) (synthService, error) {
		seen = cfg
		return svc, nil
	}

	return &seen
}
