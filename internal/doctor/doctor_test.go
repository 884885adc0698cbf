package doctor_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/go-melotts/internal/doctor"
)

var errNotFound = errors.New("library not found")

func ok(summary string) doctor.ResourceFunc {
	return func() (string, error) { return summary, nil }
}

func hasFailureContaining(failures []string, substr string) bool {
	for _, f := range failures {
		if strings.Contains(f, substr) {
			return true
		}
	}

	return false
}

func TestRun_AllChecksPass(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "encoder.onnx")
	if err := os.WriteFile(model, []byte("onnx"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := doctor.Config{
		RuntimeVersion: func() (string, error) { return "1.23.0", nil },
		MinAPIVersion:  23,
		ModelFiles:     []string{model},
		Lexicon:        ok("412 entries, 112 symbols"),
		Speaker:        ok("256 values"),
	}

	var out strings.Builder
	result := doctor.Run(cfg, &out)

	if result.Failed() {
		t.Fatalf("expected all checks to pass; failures: %v", result.Failures())
	}

	for _, want := range []string{"onnxruntime: 1.23.0", "encoder.onnx", "412 entries", "256 values"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	if strings.Contains(out.String(), "voice manifest") {
		t.Error("nil voice check should be skipped")
	}
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name string
		cfg  doctor.Config
		want string
	}{
		{
			name: "runtime missing",
			cfg:  doctor.Config{RuntimeVersion: func() (string, error) { return "", errNotFound }},
			want: "onnxruntime",
		},
		{
			name: "runtime too old",
			cfg: doctor.Config{
				RuntimeVersion: func() (string, error) { return "1.16.0", nil },
				MinAPIVersion:  23,
			},
			want: "onnxruntime version",
		},
		{
			name: "model missing",
			cfg:  doctor.Config{ModelFiles: []string{"/nonexistent/decoder.onnx"}},
			want: "decoder.onnx",
		},
		{
			name: "lexicon unreadable",
			cfg:  doctor.Config{Lexicon: func() (string, error) { return "", errors.New("bad token line 3") }},
			want: "lexicon",
		},
		{
			name: "speaker wrong size",
			cfg:  doctor.Config{Speaker: func() (string, error) { return "", errors.New("shorter than 256") }},
			want: "speaker embedding",
		},
		{
			name: "voices invalid",
			cfg:  doctor.Config{Voices: func() (string, error) { return "", errors.New("duplicate voice id") }},
			want: "voice manifest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			result := doctor.Run(tt.cfg, &out)

			if !result.Failed() {
				t.Fatal("expected failure")
			}

			if !hasFailureContaining(result.Failures(), tt.want) {
				t.Errorf("expected failure mentioning %q, got: %v", tt.want, result.Failures())
			}

			if !strings.Contains(out.String(), doctor.FailMark) {
				t.Errorf("output should contain fail marker:\n%s", out.String())
			}
		})
	}
}

func TestRun_UnknownRuntimeVersionPasses(t *testing.T) {
	var out strings.Builder
	result := doctor.Run(doctor.Config{
		RuntimeVersion: func() (string, error) { return "", nil },
		MinAPIVersion:  23,
	}, &out)

	if result.Failed() {
		t.Fatalf("unexpected failures: %v", result.Failures())
	}

	if !strings.Contains(out.String(), "version unknown") {
		t.Errorf("expected unknown-version note:\n%s", out.String())
	}
}

func TestResult_AddFailure(t *testing.T) {
	var r doctor.Result
	r.AddFailure("model verify: encoder failed")

	if !r.Failed() || len(r.Failures()) != 1 {
		t.Fatalf("unexpected result: %v", r.Failures())
	}
}
