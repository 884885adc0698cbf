package audio

import "fmt"

// Output WAV layout: mono 16-bit PCM at a caller-chosen sample rate.
const (
	Channels = 1
	BitDepth = 16
)

// Silence returns n zero samples.
func Silence(n int) []float32 {
	if n < 1 {
		return nil
	}
	return make([]float32, n)
}

// SilenceSamples converts a pause in milliseconds to a sample count at rate.
func SilenceSamples(ms float64, sampleRate int) int {
	if ms <= 0 || sampleRate < 1 {
		return 0
	}
	return int(ms * float64(sampleRate) / 1000)
}

// Clip returns a copy of samples limited to [-1, 1].
func Clip(samples []float32) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		switch {
		case s > 1:
			out[i] = 1
		case s < -1:
			out[i] = -1
		default:
			out[i] = s
		}
	}
	return out
}

// Duration returns the playback length of n samples in seconds.
func Duration(n, sampleRate int) float64 {
	if sampleRate < 1 {
		return 0
	}
	return float64(n) / float64(sampleRate)
}

func validateSampleRate(sampleRate int) error {
	if sampleRate < 1 {
		return fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	return nil
}
