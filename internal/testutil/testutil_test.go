package testutil_test

import (
	"path/filepath"
	"testing"

	"github.com/example/go-melotts/internal/testutil"
)

func TestRequireONNXRuntime_SkipsWhenAbsent(t *testing.T) {
	t.Setenv("ORT_LIBRARY_PATH", "/nonexistent/libonnxruntime.so")

	skipped := false
	fakeT := &skipTracker{TB: t, onSkip: func() { skipped = true }}
	testutil.RequireONNXRuntime(fakeT)
	if !skipped {
		t.Error("expected RequireONNXRuntime to skip when library is absent")
	}
}

func TestRequireModelFiles_SkipsWhenUnset(t *testing.T) {
	for _, env := range []string{testutil.EnvEncoder, testutil.EnvDecoder, testutil.EnvLexicon, testutil.EnvTokens, testutil.EnvSpeaker} {
		t.Setenv(env, "")
	}

	skipped := false
	fakeT := &skipTracker{TB: t, onSkip: func() { skipped = true }}
	files := testutil.RequireModelFiles(fakeT)
	if !skipped {
		t.Error("expected RequireModelFiles to skip when variables are unset")
	}

	if files != (testutil.ModelFiles{}) {
		t.Errorf("expected zero ModelFiles, got %+v", files)
	}
}

func TestRequireModelFiles_SkipsWhenMissingOnDisk(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.onnx")
	for _, env := range []string{testutil.EnvEncoder, testutil.EnvDecoder, testutil.EnvLexicon, testutil.EnvTokens, testutil.EnvSpeaker} {
		t.Setenv(env, missing)
	}

	skipped := false
	fakeT := &skipTracker{TB: t, onSkip: func() { skipped = true }}
	testutil.RequireModelFiles(fakeT)
	if !skipped {
		t.Error("expected RequireModelFiles to skip when files are missing")
	}
}

func TestAssertValidWAV_AcceptsMinimalFile(t *testing.T) {
	testutil.AssertValidWAV(t, minimalWAV(44100, 4), 44100)
}

// skipTracker is a minimal testing.TB implementation that intercepts Skipf calls.
type skipTracker struct {
	testing.TB
	onSkip func()
}

func (s *skipTracker) Helper() {}

func (s *skipTracker) Skipf(_ string, _ ...any) {
	s.onSkip()
	// Do NOT call s.TB.Skip; that would actually skip the outer test.
}

func minimalWAV(sampleRate uint32, samples int) []byte {
	dataSize := uint32(samples * 2)
	b := make([]byte, 44+int(dataSize))
	copy(b[0:4], "RIFF")
	putU32(b[4:8], 36+dataSize)
	copy(b[8:12], "WAVE")
	copy(b[12:16], "fmt ")
	putU32(b[16:20], 16)
	putU16(b[20:22], 1)
	putU16(b[22:24], 1)
	putU32(b[24:28], sampleRate)
	putU32(b[28:32], sampleRate*2)
	putU16(b[32:34], 2)
	putU16(b[34:36], 16)
	copy(b[36:40], "data")
	putU32(b[40:44], dataSize)
	return b
}

func putU16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
