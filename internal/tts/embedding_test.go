package tts

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeEmbedding(t *testing.T, path string, values []float32) {
	t.Helper()

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, values); err != nil {
		t.Fatalf("encode embedding: %v", err)
	}

	writeFile(t, path, buf.String())
}

func TestLoadSpeakerEmbedding(t *testing.T) {
	values := make([]float32, SpeakerEmbeddingSize)
	for i := range values {
		values[i] = float32(i) / 10
	}

	path := filepath.Join(t.TempDir(), "g.bin")
	writeEmbedding(t, path, values)

	g, err := LoadSpeakerEmbedding(path)
	if err != nil {
		t.Fatalf("LoadSpeakerEmbedding failed: %v", err)
	}

	if len(g) != SpeakerEmbeddingSize {
		t.Fatalf("expected %d values, got %d", SpeakerEmbeddingSize, len(g))
	}

	if g[0] != 0 || g[255] != 25.5 {
		t.Fatalf("unexpected values g[0]=%v g[255]=%v", g[0], g[255])
	}
}

func TestLoadSpeakerEmbeddingErrors(t *testing.T) {
	dir := t.TempDir()

	short := filepath.Join(dir, "short.bin")
	writeEmbedding(t, short, make([]float32, SpeakerEmbeddingSize-1))

	long := filepath.Join(dir, "long.bin")
	writeEmbedding(t, long, make([]float32, SpeakerEmbeddingSize+1))

	odd := filepath.Join(dir, "odd.bin")
	writeFile(t, odd, "abc")

	for _, path := range []string{short, long, odd, filepath.Join(dir, "missing.bin")} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, err := LoadSpeakerEmbedding(path)
			if !errors.Is(err, ErrResourceLoad) {
				t.Fatalf("expected ErrResourceLoad, got %v", err)
			}
		})
	}
}
