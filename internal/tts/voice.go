package tts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Voice maps a voice id to its speaker embedding file.
type Voice struct {
	ID       string `json:"id" yaml:"id"`
	Path     string `json:"path" yaml:"path"`
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
	License  string `json:"license,omitempty" yaml:"license,omitempty"`
}

type voiceManifest struct {
	Voices []Voice `json:"voices" yaml:"voices"`
}

type VoiceManager struct {
	manifestPath string
	baseDir      string
	voices       []Voice
	byID         map[string]Voice
}

// NewVoiceManager reads a voice manifest. Files ending in .yaml or .yml are
// decoded as YAML, anything else as JSON.
func NewVoiceManager(manifestPath string) (*VoiceManager, error) {
	if manifestPath == "" {
		return nil, errors.New("manifest path is required")
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read voice manifest: %w", err)
	}

	var manifest voiceManifest

	switch strings.ToLower(filepath.Ext(manifestPath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &manifest)
	default:
		err = json.Unmarshal(data, &manifest)
	}
	if err != nil {
		return nil, fmt.Errorf("decode voice manifest: %w", err)
	}

	mgr := &VoiceManager{
		manifestPath: manifestPath,
		baseDir:      filepath.Dir(manifestPath),
		voices:       append([]Voice(nil), manifest.Voices...),
		byID:         make(map[string]Voice, len(manifest.Voices)),
	}

	for _, v := range manifest.Voices {
		if v.ID == "" {
			return nil, errors.New("voice manifest contains empty id")
		}

		if v.Path == "" {
			return nil, fmt.Errorf("voice %q has empty path", v.ID)
		}

		if _, exists := mgr.byID[v.ID]; exists {
			return nil, fmt.Errorf("duplicate voice id %q", v.ID)
		}

		mgr.byID[v.ID] = v
	}

	return mgr, nil
}

func (m *VoiceManager) ListVoices() []Voice {
	return append([]Voice(nil), m.voices...)
}

func (m *VoiceManager) Voice(id string) (Voice, bool) {
	v, ok := m.byID[id]
	return v, ok
}

func (m *VoiceManager) ResolvePath(id string) (string, error) {
	v, ok := m.byID[id]
	if !ok {
		return "", fmt.Errorf("unknown voice id %q", id)
	}

	resolved := v.Path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(m.baseDir, resolved)
	}

	resolved = filepath.Clean(resolved)

	_, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("voice file for %q: %w", id, err)
	}

	return resolved, nil
}

// LoadEmbedding resolves and reads the speaker embedding of a voice.
func (m *VoiceManager) LoadEmbedding(id string) (SpeakerEmbedding, error) {
	path, err := m.ResolvePath(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceLoad, err)
	}
	return LoadSpeakerEmbedding(path)
}
