package tts

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// SpeakerEmbeddingSize is the number of float32 values in a speaker
// embedding blob.
const SpeakerEmbeddingSize = 256

// SpeakerEmbedding is the voice conditioning vector g, shared read-only by
// the encoder and every decoder call.
type SpeakerEmbedding []float32

// LoadSpeakerEmbedding reads a raw little-endian float32 blob of exactly
// SpeakerEmbeddingSize values.
func LoadSpeakerEmbedding(path string) (SpeakerEmbedding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: speaker embedding: %w", ErrResourceLoad, err)
	}

	g, err := ReadSpeakerEmbedding(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return g, nil
}

// ReadSpeakerEmbedding decodes a speaker embedding from r and rejects short
// or oversized input.
func ReadSpeakerEmbedding(r io.Reader) (SpeakerEmbedding, error) {
	g := make(SpeakerEmbedding, SpeakerEmbeddingSize)

	if err := binary.Read(r, binary.LittleEndian, []float32(g)); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: speaker embedding shorter than %d float32 values", ErrResourceLoad, SpeakerEmbeddingSize)
		}
		return nil, fmt.Errorf("%w: speaker embedding: %w", ErrResourceLoad, err)
	}

	var extra [1]byte
	if n, _ := r.Read(extra[:]); n > 0 {
		return nil, fmt.Errorf("%w: speaker embedding longer than %d float32 values", ErrResourceLoad, SpeakerEmbeddingSize)
	}

	return g, nil
}
