package tts

import (
	"errors"
	"reflect"
	"testing"
)

func TestBuildSymbols(t *testing.T) {
	tests := []struct {
		name      string
		track     PhonemeTrack
		wantPhone []int64
		wantTone  []int64
	}{
		{
			name:      "three phones",
			track:     PhonemeTrack{Phones: []int64{5, 9, 2}, Tones: []int64{1, 0, 1}},
			wantPhone: []int64{0, 5, 0, 9, 0, 2, 0},
			wantTone:  []int64{0, 1, 0, 0, 0, 1, 0},
		},
		{
			name:      "single phone",
			track:     PhonemeTrack{Phones: []int64{7}, Tones: []int64{3}},
			wantPhone: []int64{0, 7, 0},
			wantTone:  []int64{0, 3, 0},
		},
		{
			name:      "empty track",
			wantPhone: []int64{0},
			wantTone:  []int64{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := BuildSymbols(tt.track, DefaultLanguageID)

			if !reflect.DeepEqual(seq.Phones, tt.wantPhone) {
				t.Fatalf("phones = %v, want %v", seq.Phones, tt.wantPhone)
			}

			if !reflect.DeepEqual(seq.Tones, tt.wantTone) {
				t.Fatalf("tones = %v, want %v", seq.Tones, tt.wantTone)
			}

			if len(seq.Languages) != seq.Len() {
				t.Fatalf("languages has %d entries, want %d", len(seq.Languages), seq.Len())
			}

			for i, id := range seq.Languages {
				if id != DefaultLanguageID {
					t.Fatalf("languages[%d] = %d, want %d", i, id, DefaultLanguageID)
				}
			}
		})
	}
}

func TestBuildSymbolsLanguageID(t *testing.T) {
	seq := BuildSymbols(PhonemeTrack{Phones: []int64{1}, Tones: []int64{0}}, 7)

	if !reflect.DeepEqual(seq.Languages, []int64{7, 7, 7}) {
		t.Fatalf("unexpected languages: %v", seq.Languages)
	}
}

func TestScheduleWindows(t *testing.T) {
	tests := []struct {
		name   string
		frames int
		decLen int
		want   []Window
	}{
		{
			name:   "uneven",
			frames: 130,
			decLen: 64,
			want:   []Window{{0, 0, 64}, {1, 64, 64}, {2, 128, 2}},
		},
		{
			name:   "exact multiple",
			frames: 128,
			decLen: 64,
			want:   []Window{{0, 0, 64}, {1, 64, 64}},
		},
		{
			name:   "shorter than one window",
			frames: 10,
			decLen: 64,
			want:   []Window{{0, 0, 10}},
		},
		{
			name:   "no frames",
			frames: 0,
			decLen: 64,
			want:   []Window{{0, 0, 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScheduleWindows(tt.frames, tt.decLen)
			if err != nil {
				t.Fatalf("ScheduleWindows failed: %v", err)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScheduleWindowsInvalidLength(t *testing.T) {
	for _, decLen := range []int{0, -1} {
		if _, err := ScheduleWindows(10, decLen); !errors.Is(err, ErrConfig) {
			t.Fatalf("decLen %d: expected ErrConfig, got %v", decLen, err)
		}
	}
}

func TestFillWindow(t *testing.T) {
	lat := Latent{
		Data:     []float32{1, 2, 3, 4, 5, 10, 20, 30, 40, 50},
		Channels: 2,
		Frames:   5,
	}

	dst := make([]float32, 2*3)
	for i := range dst {
		dst[i] = -1
	}

	windows, _ := ScheduleWindows(lat.Frames, 3)

	if err := FillWindow(dst, lat, windows[0], 3); err != nil {
		t.Fatalf("FillWindow failed: %v", err)
	}
	if want := []float32{1, 2, 3, 10, 20, 30}; !reflect.DeepEqual(dst, want) {
		t.Fatalf("window 0 = %v, want %v", dst, want)
	}

	if err := FillWindow(dst, lat, windows[1], 3); err != nil {
		t.Fatalf("FillWindow failed: %v", err)
	}
	if want := []float32{4, 5, 0, 40, 50, 0}; !reflect.DeepEqual(dst, want) {
		t.Fatalf("window 1 = %v, want %v", dst, want)
	}
}

func TestFillWindowErrors(t *testing.T) {
	lat := Latent{Data: make([]float32, 8), Channels: 2, Frames: 4}

	tests := []struct {
		name string
		dst  []float32
		lat  Latent
		w    Window
	}{
		{name: "buffer size", dst: make([]float32, 5), lat: lat, w: Window{Len: 2}},
		{name: "past end", dst: make([]float32, 4), lat: lat, w: Window{Start: 3, Len: 2}},
		{name: "longer than decoder", dst: make([]float32, 4), lat: lat, w: Window{Len: 3}},
		{name: "short latent", dst: make([]float32, 4), lat: Latent{Data: make([]float32, 3), Channels: 2, Frames: 4}, w: Window{Len: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := FillWindow(tt.dst, tt.lat, tt.w, 2); !errors.Is(err, ErrShapeMismatch) {
				t.Fatalf("expected ErrShapeMismatch, got %v", err)
			}
		})
	}
}

func TestUsableLength(t *testing.T) {
	tests := []struct {
		slice, target, emitted, want int
	}{
		{512, 1100, 0, 512},
		{512, 1100, 512, 512},
		{512, 1100, 1024, 76},
		{512, 1100, 1100, 0},
		{512, 100, 200, 0},
		{0, 10, 0, 0},
	}

	for _, tt := range tests {
		if got := UsableLength(tt.slice, tt.target, tt.emitted); got != tt.want {
			t.Errorf("UsableLength(%d, %d, %d) = %d, want %d", tt.slice, tt.target, tt.emitted, got, tt.want)
		}
	}
}

func TestSampleTrimmer(t *testing.T) {
	trim := NewSampleTrimmer(1100)
	chunk := make([]float32, 512)

	var sizes []int
	for range 3 {
		sizes = append(sizes, len(trim.Take(chunk)))
	}

	if !reflect.DeepEqual(sizes, []int{512, 512, 76}) {
		t.Fatalf("unexpected slice sizes: %v", sizes)
	}

	if trim.Emitted() != 1100 || trim.Remaining() != 0 {
		t.Fatalf("emitted=%d remaining=%d", trim.Emitted(), trim.Remaining())
	}

	if n := len(trim.Take(chunk)); n != 0 {
		t.Fatalf("expected nothing after target, got %d", n)
	}
}

func TestSampleTrimmerNegativeTarget(t *testing.T) {
	trim := NewSampleTrimmer(-5)

	if n := len(trim.Take(make([]float32, 4))); n != 0 {
		t.Fatalf("expected 0 samples, got %d", n)
	}
}

func TestWaveform(t *testing.T) {
	w := NewWaveform()
	w.AppendSentence([]float32{1, 2})
	w.AppendSilence(2)
	w.AppendSilence(-1)
	w.AppendSentence(nil)
	w.AppendSentence([]float32{3})

	if w.Sentences() != 3 {
		t.Fatalf("expected 3 sentences, got %d", w.Sentences())
	}

	if want := []float32{1, 2, 0, 0, 3}; !reflect.DeepEqual(w.Samples(), want) {
		t.Fatalf("samples = %v, want %v", w.Samples(), want)
	}
}
