// Package testutil provides shared skip helpers for integration tests.
//
// Each helper calls t.Skipf with a clear human-readable reason when the named
// prerequisite is absent, so integration tests remain runnable in partial
// environments without failing noisily.
//
// Typical usage:
//
//	func TestMyIntegration(t *testing.T) {
//	    testutil.RequireONNXRuntime(t)
//	    files := testutil.RequireModelFiles(t)
//	    ...
//	}
package testutil

import (
	"os"
	"testing"
)

// Environment variables naming a local MeloTTS model bundle for integration tests.
const (
	EnvEncoder = "MELOTTS_TEST_ENCODER"
	EnvDecoder = "MELOTTS_TEST_DECODER"
	EnvLexicon = "MELOTTS_TEST_LEXICON"
	EnvTokens  = "MELOTTS_TEST_TOKENS"
	EnvSpeaker = "MELOTTS_TEST_G"
)

// ModelFiles are the on-disk artifacts of one exported voice model.
type ModelFiles struct {
	Encoder string
	Decoder string
	Lexicon string
	Tokens  string
	Speaker string
}

// RequireONNXRuntime skips the test if no ONNX Runtime shared library can be
// located. It checks (in order): the ORT_LIBRARY_PATH env var, then the
// MELOTTS_ORT_LIB env var, then common system library paths.
func RequireONNXRuntime(tb testing.TB) {
	tb.Helper()

	for _, env := range []string{"ORT_LIBRARY_PATH", "MELOTTS_ORT_LIB"} {
		if p := os.Getenv(env); p != "" {
			// #nosec G703 -- Integration tests intentionally accept explicit env-provided local library paths.
			if _, err := os.Stat(p); err == nil {
				return
			}

			tb.Skipf("ONNX Runtime library not found at %s=%q", env, p)
			return
		}
	}

	candidates := []string{
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/x86_64-linux-gnu/libonnxruntime.so",
		"/opt/homebrew/lib/libonnxruntime.dylib",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return
		}
	}

	tb.Skipf("ONNX Runtime shared library not found; set ORT_LIBRARY_PATH or MELOTTS_ORT_LIB")
}

// RequireModelFiles skips the test unless every model artifact is named by
// its MELOTTS_TEST_* variable and exists on disk.
func RequireModelFiles(tb testing.TB) ModelFiles {
	tb.Helper()

	files := ModelFiles{
		Encoder: os.Getenv(EnvEncoder),
		Decoder: os.Getenv(EnvDecoder),
		Lexicon: os.Getenv(EnvLexicon),
		Tokens:  os.Getenv(EnvTokens),
		Speaker: os.Getenv(EnvSpeaker),
	}

	for env, p := range map[string]string{
		EnvEncoder: files.Encoder,
		EnvDecoder: files.Decoder,
		EnvLexicon: files.Lexicon,
		EnvTokens:  files.Tokens,
		EnvSpeaker: files.Speaker,
	} {
		if p == "" {
			tb.Skipf("model file not configured; set %s", env)
			return ModelFiles{}
		}

		if _, err := os.Stat(p); err != nil {
			tb.Skipf("model file %s=%q not available: %v", env, p, err)
			return ModelFiles{}
		}
	}

	return files
}
