package tts

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestVoiceManagerListAndResolve(t *testing.T) {
	for _, name := range []string{"voices.json", "voices.yaml"} {
		t.Run(name, func(t *testing.T) {
			tmp := t.TempDir()
			voiceFile := filepath.Join(tmp, "zh.bin")
			writeEmbedding(t, voiceFile, make([]float32, SpeakerEmbeddingSize))

			manifest := `{"voices": [{"id": "zh-female", "path": "zh.bin", "language": "ZH", "license": "MIT"}]}`
			if filepath.Ext(name) == ".yaml" {
				manifest = "voices:\n  - id: zh-female\n    path: zh.bin\n    language: ZH\n    license: MIT\n"
			}

			manifestPath := filepath.Join(tmp, name)
			writeFile(t, manifestPath, manifest)

			mgr, err := NewVoiceManager(manifestPath)
			if err != nil {
				t.Fatalf("NewVoiceManager: %v", err)
			}

			voices := mgr.ListVoices()
			if len(voices) != 1 || voices[0].ID != "zh-female" || voices[0].Language != "ZH" {
				t.Fatalf("unexpected voices: %+v", voices)
			}

			resolved, err := mgr.ResolvePath("zh-female")
			if err != nil {
				t.Fatalf("ResolvePath: %v", err)
			}

			if resolved != voiceFile {
				t.Fatalf("expected %q, got %q", voiceFile, resolved)
			}

			g, err := mgr.LoadEmbedding("zh-female")
			if err != nil {
				t.Fatalf("LoadEmbedding: %v", err)
			}

			if len(g) != SpeakerEmbeddingSize {
				t.Fatalf("expected %d values, got %d", SpeakerEmbeddingSize, len(g))
			}
		})
	}
}

func TestNewVoiceManagerErrors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		manifest string
	}{
		{name: "invalid json", file: "m.json", manifest: "{bad json"},
		{name: "invalid yaml", file: "m.yml", manifest: "voices: [unclosed"},
		{name: "empty id", file: "m.json", manifest: `{"voices":[{"id":"","path":"v.bin"}]}`},
		{name: "empty path", file: "m.json", manifest: `{"voices":[{"id":"v1","path":""}]}`},
		{name: "duplicate id", file: "m.yaml", manifest: "voices:\n  - {id: v1, path: a.bin}\n  - {id: v1, path: b.bin}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			writeFile(t, path, tt.manifest)

			if _, err := NewVoiceManager(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	if _, err := NewVoiceManager(""); err == nil {
		t.Fatal("expected error for empty path")
	}

	if _, err := NewVoiceManager(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing manifest")
	}
}

func TestVoiceManagerResolveErrors(t *testing.T) {
	tmp := t.TempDir()
	manifestPath := filepath.Join(tmp, "voices.json")
	writeFile(t, manifestPath, `{"voices":[{"id":"v1","path":"missing.bin"}]}`)

	mgr, err := NewVoiceManager(manifestPath)
	if err != nil {
		t.Fatalf("NewVoiceManager: %v", err)
	}

	if _, err := mgr.ResolvePath("unknown"); err == nil {
		t.Fatal("expected error for unknown voice id")
	}

	if _, err := mgr.ResolvePath("v1"); err == nil {
		t.Fatal("expected error for missing voice file")
	}

	if _, err := mgr.LoadEmbedding("v1"); !errors.Is(err, ErrResourceLoad) {
		t.Fatalf("expected ErrResourceLoad, got %v", err)
	}
}

func TestListVoicesReturnsCopy(t *testing.T) {
	manifestPath := filepath.Join(t.TempDir(), "voices.json")
	writeFile(t, manifestPath, `{"voices":[{"id":"v1","path":"v.bin"}]}`)

	mgr, err := NewVoiceManager(manifestPath)
	if err != nil {
		t.Fatalf("NewVoiceManager: %v", err)
	}

	first := mgr.ListVoices()
	first[0].ID = "mutated"

	if mgr.ListVoices()[0].ID != "v1" {
		t.Fatal("ListVoices did not return an independent copy")
	}
}
