package tts

import "errors"

// Pipeline failure classes. Errors returned by Service wrap one of these
// unless the context was cancelled. Any of them aborts the whole call.
var (
	ErrResourceLoad  = errors.New("resource load failed")
	ErrInference     = errors.New("inference failed")
	ErrPersistence   = errors.New("persisting waveform failed")
	ErrConfig        = errors.New("invalid configuration")
	ErrShapeMismatch = errors.New("latent shape mismatch")
)
