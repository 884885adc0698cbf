// Package bench provides benchmarking primitives for the melotts bench command.
package bench

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/example/go-melotts/internal/tts"
)

// Synthesizer is the part of tts.Service a benchmark drives.
type Synthesizer interface {
	Synthesize(ctx context.Context, req tts.Request) ([]float32, error)
}

// RunResult holds the timing and audio metadata for a single synthesis run.
type RunResult struct {
	Index       int
	Cold        bool // first run
	Duration    time.Duration
	WAVDuration time.Duration
	RTF         float64
	Samples     int
	Digest      string
}

// Stats holds aggregate timing statistics across all runs.
type Stats struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// Options configures Run.
type Options struct {
	Runs       int
	SampleRate int
	Request    tts.Request
}

// Run synthesizes the same request opts.Runs times and records timing,
// real-time factor and an output digest per run.
func Run(ctx context.Context, synth Synthesizer, opts Options) ([]RunResult, error) {
	if opts.Runs < 1 {
		return nil, fmt.Errorf("runs must be >= 1, got %d", opts.Runs)
	}
	if opts.SampleRate < 1 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", opts.SampleRate)
	}

	results := make([]RunResult, 0, opts.Runs)
	for i := range opts.Runs {
		start := time.Now()
		samples, err := synth.Synthesize(ctx, opts.Request)
		elapsed := time.Since(start)
		if err != nil {
			return results, fmt.Errorf("run %d: %w", i+1, err)
		}

		audioDur := SamplesDuration(len(samples), opts.SampleRate)
		results = append(results, RunResult{
			Index:       i,
			Cold:        i == 0,
			Duration:    elapsed,
			WAVDuration: audioDur,
			RTF:         CalcRTF(elapsed, audioDur),
			Samples:     len(samples),
			Digest:      Digest(samples),
		})
	}

	return results, nil
}

// Durations extracts the wall-clock durations of runs.
func Durations(runs []RunResult) []time.Duration {
	out := make([]time.Duration, len(runs))
	for i, r := range runs {
		out[i] = r.Duration
	}
	return out
}

// MeanRTF averages the real-time factor over runs.
func MeanRTF(runs []RunResult) float64 {
	if len(runs) == 0 {
		return 0
	}
	var sum float64
	for _, r := range runs {
		sum += r.RTF
	}
	return sum / float64(len(runs))
}

// ComputeStats calculates min, max and mean over a slice of durations.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}
	mn, mx := durations[0], durations[0]
	var sum time.Duration
	for _, d := range durations {
		mn = min(mn, d)
		mx = max(mx, d)
		sum += d
	}
	return Stats{
		Min:  mn,
		Max:  mx,
		Mean: sum / time.Duration(len(durations)),
	}
}

// CalcRTF returns synthesis_duration / audio_duration.
// Returns 0 if audioDur is zero to avoid division by zero.
func CalcRTF(synthDur, audioDur time.Duration) float64 {
	if audioDur <= 0 {
		return 0
	}
	return float64(synthDur) / float64(audioDur)
}

// SamplesDuration converts a mono sample count to playback time.
func SamplesDuration(n, sampleRate int) time.Duration {
	if n <= 0 || sampleRate <= 0 {
		return 0
	}
	return time.Duration(int64(n) * int64(time.Second) / int64(sampleRate))
}

// Digest is a hex SHA-256 over the little-endian bit patterns of samples.
func Digest(samples []float32) string {
	h := sha256.New()
	var buf [4]byte
	for _, s := range samples {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(s))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ErrNondeterministic reports runs that produced different audio.
var ErrNondeterministic = errors.New("runs produced different audio")

// CheckIdentical returns ErrNondeterministic if any run's digest differs from
// the first.
func CheckIdentical(runs []RunResult) error {
	for _, r := range runs[min(1, len(runs)):] {
		if r.Digest != runs[0].Digest {
			return fmt.Errorf("%w: run %d (%d samples) vs run 1 (%d samples)",
				ErrNondeterministic, r.Index+1, r.Samples, runs[0].Samples)
		}
	}
	return nil
}

// CheckRTFThreshold returns an error if meanRTF > threshold.
// A threshold of 0 disables the gate.
func CheckRTFThreshold(meanRTF, threshold float64) error {
	if threshold <= 0 {
		return nil
	}
	if meanRTF > threshold {
		return fmt.Errorf("mean RTF %.3f exceeds threshold %.3f", meanRTF, threshold)
	}
	return nil
}

// FormatTable writes a human-readable ASCII table of bench results to w.
func FormatTable(runs []RunResult, stats Stats, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%-5s  %-5s  %10s  %12s  %8s  %s\n", "Run", "Cold", "MS", "Audio(ms)", "RTF", "Digest")
	fmt.Fprintln(sb, strings.Repeat("-", 64))

	for _, r := range runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}
		fmt.Fprintf(sb, "%-5d  %-5s  %10.1f  %12.1f  %8.3f  %.12s\n",
			r.Index+1,
			cold,
			float64(r.Duration.Milliseconds()),
			float64(r.WAVDuration.Milliseconds()),
			r.RTF,
			r.Digest,
		)
	}

	fmt.Fprintln(sb, strings.Repeat("-", 64))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  (min)\n", "", "", float64(stats.Min.Milliseconds()))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  (mean)\n", "", "", float64(stats.Mean.Milliseconds()))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  (max)\n", "", "", float64(stats.Max.Milliseconds()))

	fmt.Fprint(w, sb.String())
}

type jsonReport struct {
	Runs  []jsonRun `json:"runs"`
	Stats jsonStats `json:"stats"`
}

type jsonRun struct {
	Index      int     `json:"index"`
	Cold       bool    `json:"cold"`
	DurationMS float64 `json:"duration_ms"`
	AudioMS    float64 `json:"audio_ms"`
	RTF        float64 `json:"rtf"`
	Samples    int     `json:"samples"`
	Digest     string  `json:"digest"`
}

type jsonStats struct {
	MinMS  float64 `json:"min_ms"`
	MeanMS float64 `json:"mean_ms"`
	MaxMS  float64 `json:"max_ms"`
}

// FormatJSON writes a JSON report of bench results to w.
func FormatJSON(runs []RunResult, stats Stats, w io.Writer) error {
	jr := jsonReport{
		Runs: make([]jsonRun, len(runs)),
		Stats: jsonStats{
			MinMS:  float64(stats.Min.Milliseconds()),
			MeanMS: float64(stats.Mean.Milliseconds()),
			MaxMS:  float64(stats.Max.Milliseconds()),
		},
	}
	for i, r := range runs {
		jr.Runs[i] = jsonRun{
			Index:      r.Index,
			Cold:       r.Cold,
			DurationMS: float64(r.Duration.Milliseconds()),
			AudioMS:    float64(r.WAVDuration.Milliseconds()),
			RTF:        r.RTF,
			Samples:    r.Samples,
			Digest:     r.Digest,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jr)
}
