package main

import (
	"context"

	"github.com/example/go-melotts/internal/config"
	"github.com/example/go-melotts/internal/tts"
)

// synthService is the part of tts.Service the commands use.
type synthService interface {
	Synthesize(ctx context.Context, req tts.Request) ([]float32, error)
	SynthesizeWAV(ctx context.Context, req tts.Request) ([]byte, error)
	ListVoices() []tts.Voice
	Options() tts.Options
	Close()
}

var openService = func(cfg config.Config) (synthService, error) {
	svc, err := tts.NewService(cfg)
	if err != nil {
		return nil, err
	}
	return svc, nil
}
