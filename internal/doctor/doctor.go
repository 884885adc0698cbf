// Package doctor provides environment preflight checks for melotts.
package doctor

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// VersionFunc returns a version string or an error if the component is unavailable.
type VersionFunc func() (string, error)

// ResourceFunc loads a resource and returns a short summary of it.
type ResourceFunc func() (string, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// RuntimeVersion detects the ONNX Runtime shared library.
	RuntimeVersion VersionFunc
	// MinAPIVersion is the ORT C API level the runner requests. The library
	// minor version must be at least this value.
	MinAPIVersion uint32
	// ModelFiles are paths that must exist on disk.
	ModelFiles []string
	// Lexicon parses lexicon and token table.
	Lexicon ResourceFunc
	// Speaker reads the default speaker embedding.
	Speaker ResourceFunc
	// Voices loads the voice manifest; nil skips the check.
	Voices ResourceFunc
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	if cfg.RuntimeVersion != nil {
		ver, err := cfg.RuntimeVersion()
		switch {
		case err != nil:
			res.fail(fmt.Sprintf("onnxruntime: %v", err))
			fmt.Fprintf(w, "%s onnxruntime: not found (%v)\n", FailMark, err)
		case ver == "":
			fmt.Fprintf(w, "%s onnxruntime: found (version unknown)\n", PassMark)
		default:
			if verErr := checkRuntimeVersion(ver, cfg.MinAPIVersion); verErr != nil {
				res.fail(fmt.Sprintf("onnxruntime version: %v", verErr))
				fmt.Fprintf(w, "%s onnxruntime %s: %v\n", FailMark, ver, verErr)
			} else {
				fmt.Fprintf(w, "%s onnxruntime: %s\n", PassMark, ver)
			}
		}
	}

	for _, path := range cfg.ModelFiles {
		if _, err := os.Stat(path); err != nil {
			res.fail(fmt.Sprintf("model file %q: %v", path, err))
			fmt.Fprintf(w, "%s model file %s: not found\n", FailMark, path)
		} else {
			fmt.Fprintf(w, "%s model file: %s\n", PassMark, path)
		}
	}

	checkResource(&res, w, "lexicon", cfg.Lexicon)
	checkResource(&res, w, "speaker embedding", cfg.Speaker)
	checkResource(&res, w, "voice manifest", cfg.Voices)

	return res
}

func checkResource(res *Result, w io.Writer, name string, fn ResourceFunc) {
	if fn == nil {
		return
	}

	summary, err := fn()
	if err != nil {
		res.fail(fmt.Sprintf("%s: %v", name, err))
		fmt.Fprintf(w, "%s %s: %v\n", FailMark, name, err)
		return
	}

	fmt.Fprintf(w, "%s %s: %s\n", PassMark, name, summary)
}

// checkRuntimeVersion returns an error unless ver is 1.x with x >= minAPI.
// ver is expected to be a string like "1.23.2".
func checkRuntimeVersion(ver string, minAPI uint32) error {
	major, minor, err := parseMajorMinor(ver)
	if err != nil {
		return fmt.Errorf("cannot parse %q: %w", ver, err)
	}
	if major != 1 {
		return fmt.Errorf("requires onnxruntime 1.x, got %d", major)
	}
	if minAPI > 0 && uint32(minor) < minAPI {
		return fmt.Errorf("requires onnxruntime >=1.%d for API %d, got 1.%d", minAPI, minAPI, minor)
	}
	return nil
}

func parseMajorMinor(ver string) (major, minor int, err error) {
	parts := strings.SplitN(strings.TrimPrefix(strings.TrimSpace(ver), "v"), ".", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("unexpected version format %q", ver)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad major in %q: %w", ver, err)
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad minor in %q: %w", ver, err)
	}
	return major, minor, nil
}
