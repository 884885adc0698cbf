package tts

import "github.com/example/go-melotts/internal/audio"

// SampleTrimmer caps the audio kept from successive decoder chunks at a
// target length. Each chunk contributes min(len(chunk), target-emitted)
// samples, never fewer than zero.
type SampleTrimmer struct {
	target  int
	emitted int
}

func NewSampleTrimmer(target int) *SampleTrimmer {
	return &SampleTrimmer{target: max(target, 0)}
}

// Take returns the usable prefix of chunk and advances the emitted count.
func (t *SampleTrimmer) Take(chunk []float32) []float32 {
	n := UsableLength(len(chunk), t.target, t.emitted)
	t.emitted += n
	return chunk[:n]
}

// Emitted is the number of samples handed out so far.
func (t *SampleTrimmer) Emitted() int {
	return t.emitted
}

// Remaining is the number of samples still owed to reach the target.
func (t *SampleTrimmer) Remaining() int {
	return t.target - t.emitted
}

// UsableLength is min(slice, target-emitted) clamped at zero.
func UsableLength(slice, target, emitted int) int {
	return max(min(slice, target-emitted), 0)
}

// Waveform accumulates per-sentence audio in sentence order.
type Waveform struct {
	samples   []float32
	sentences int
}

func NewWaveform() *Waveform {
	return &Waveform{}
}

// AppendSentence appends one finished sentence.
func (w *Waveform) AppendSentence(samples []float32) {
	w.samples = append(w.samples, samples...)
	w.sentences++
}

// AppendSilence appends n zero samples.
func (w *Waveform) AppendSilence(n int) {
	w.samples = append(w.samples, audio.Silence(n)...)
}

func (w *Waveform) Len() int {
	return len(w.samples)
}

func (w *Waveform) Sentences() int {
	return w.sentences
}

// Samples returns the assembled audio. The Waveform must not be used after.
func (w *Waveform) Samples() []float32 {
	return w.samples
}
