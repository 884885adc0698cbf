package tts

import "fmt"

// Latent is the encoder output z_p for batch size 1, stored channel-major:
// element (c, t) lives at Data[c*Frames+t].
type Latent struct {
	Data     []float32
	Channels int
	Frames   int
}

// Window is a half-open frame range [Start, Start+Len) of a latent.
type Window struct {
	Index int
	Start int
	Len   int
}

// ScheduleWindows partitions frames into ceil(frames/decLen) consecutive
// windows of decLen frames, the last one possibly shorter. A latent with no
// frames still yields one empty window so every sentence reaches the decoder.
func ScheduleWindows(frames, decLen int) ([]Window, error) {
	if decLen <= 0 {
		return nil, fmt.Errorf("%w: decoder window length %d", ErrConfig, decLen)
	}

	if frames <= 0 {
		return []Window{{Index: 0, Start: 0, Len: 0}}, nil
	}

	count := (frames + decLen - 1) / decLen
	windows := make([]Window, count)
	for i := range windows {
		start := i * decLen
		windows[i] = Window{
			Index: i,
			Start: start,
			Len:   min(decLen, frames-start),
		}
	}

	return windows, nil
}

// FillWindow writes window w of the latent into dst, laid out as
// [Channels][decLen]. Frames past the window length are zeroed.
func FillWindow(dst []float32, lat Latent, w Window, decLen int) error {
	if len(dst) != lat.Channels*decLen {
		return fmt.Errorf("%w: window buffer has %d values, want %d", ErrShapeMismatch, len(dst), lat.Channels*decLen)
	}
	if w.Len < 0 || w.Len > decLen || w.Start < 0 || w.Start+w.Len > lat.Frames {
		return fmt.Errorf("%w: window %d [%d,%d) outside latent of %d frames",
			ErrShapeMismatch, w.Index, w.Start, w.Start+w.Len, lat.Frames)
	}
	if len(lat.Data) != lat.Channels*lat.Frames {
		return fmt.Errorf("%w: latent has %d values, want %d", ErrShapeMismatch, len(lat.Data), lat.Channels*lat.Frames)
	}

	clear(dst)
	for c := range lat.Channels {
		src := lat.Data[c*lat.Frames+w.Start : c*lat.Frames+w.Start+w.Len]
		copy(dst[c*decLen:], src)
	}

	return nil
}
