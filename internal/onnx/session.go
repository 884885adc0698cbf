package onnx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Graph names used in the model manifest.
const (
	GraphEncoder = "encoder"
	GraphDecoder = "decoder"
)

type NodeInfo struct {
	Name  string `json:"name"`
	DType string `json:"dtype"`
	Shape []any  `json:"shape"`
}

type Session struct {
	Name string
	Path string

	Inputs  []NodeInfo
	Outputs []NodeInfo
}

// Input returns the declared input node with the given name.
func (s Session) Input(name string) (NodeInfo, bool) {
	return findNode(s.Inputs, name)
}

// Output returns the declared output node with the given name.
func (s Session) Output(name string) (NodeInfo, bool) {
	return findNode(s.Outputs, name)
}

func findNode(nodes []NodeInfo, name string) (NodeInfo, bool) {
	for _, n := range nodes {
		if n.Name == name {
			return n, true
		}
	}
	return NodeInfo{}, false
}

type onnxManifest struct {
	Graphs []onnxGraph `json:"graphs"`
}

type onnxGraph struct {
	Name     string     `json:"name"`
	Filename string     `json:"filename"`
	Inputs   []NodeInfo `json:"inputs"`
	Outputs  []NodeInfo `json:"outputs"`
}

// BundleOptions locates the encoder and decoder graphs. Explicit paths
// override the manifest filenames; the manifest is optional when both paths
// are given and only contributes node metadata.
type BundleOptions struct {
	ManifestPath string
	EncoderPath  string
	DecoderPath  string
}

// Bundle is the resolved encoder/decoder pair.
type Bundle struct {
	Encoder Session
	Decoder Session
}

// Sessions returns the bundle graphs in load order.
func (b Bundle) Sessions() []Session {
	return []Session{b.Encoder, b.Decoder}
}

func ResolveBundle(opts BundleOptions) (Bundle, error) {
	known := map[string]Session{}

	if opts.ManifestPath != "" {
		sessions, err := readManifest(opts.ManifestPath)
		switch {
		case err == nil:
			for _, s := range sessions {
				known[s.Name] = s
			}
		case errors.Is(err, os.ErrNotExist) && opts.EncoderPath != "" && opts.DecoderPath != "":
			slog.Debug("model manifest not found, using explicit graph paths", "manifest", opts.ManifestPath)
		default:
			return Bundle{}, err
		}
	}

	encoder, err := resolveGraph(known, GraphEncoder, opts.EncoderPath)
	if err != nil {
		return Bundle{}, err
	}

	decoder, err := resolveGraph(known, GraphDecoder, opts.DecoderPath)
	if err != nil {
		return Bundle{}, err
	}

	for _, g := range []Session{encoder, decoder} {
		slog.Debug("resolved ONNX graph",
			"name", g.Name,
			"path", g.Path,
			"inputs", nodeNames(g.Inputs),
			"outputs", nodeNames(g.Outputs),
		)
	}

	return Bundle{Encoder: encoder, Decoder: decoder}, nil
}

func resolveGraph(known map[string]Session, name, override string) (Session, error) {
	s, ok := known[name]
	if !ok {
		s = Session{Name: name}
	}

	if override != "" {
		s.Path = filepath.Clean(override)
	}

	if s.Path == "" {
		return Session{}, fmt.Errorf("no %s graph path configured", name)
	}

	if _, err := os.Stat(s.Path); err != nil {
		return Session{}, fmt.Errorf("%s graph: %w", name, err)
	}

	return s, nil
}

func readManifest(manifestPath string) ([]Session, error) {
	if manifestPath == "" {
		return nil, errors.New("manifest path is required")
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read ONNX manifest: %w", err)
	}

	var manifest onnxManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decode ONNX manifest: %w", err)
	}

	if len(manifest.Graphs) == 0 {
		return nil, errors.New("ONNX manifest has no graphs")
	}

	baseDir := filepath.Dir(manifestPath)
	seen := make(map[string]bool, len(manifest.Graphs))
	out := make([]Session, 0, len(manifest.Graphs))

	for _, g := range manifest.Graphs {
		if g.Name == "" {
			return nil, errors.New("manifest graph has empty name")
		}

		if g.Filename == "" {
			return nil, fmt.Errorf("manifest graph %q has empty filename", g.Name)
		}

		if seen[g.Name] {
			return nil, fmt.Errorf("duplicate session name %q in manifest", g.Name)
		}
		seen[g.Name] = true

		sessionPath := g.Filename
		if !filepath.IsAbs(sessionPath) {
			sessionPath = filepath.Join(baseDir, g.Filename)
		}

		out = append(out, Session{
			Name:    g.Name,
			Path:    filepath.Clean(sessionPath),
			Inputs:  append([]NodeInfo(nil), g.Inputs...),
			Outputs: append([]NodeInfo(nil), g.Outputs...),
		})
	}

	return out, nil
}

func nodeNames(nodes []NodeInfo) string {
	if len(nodes) == 0 {
		return ""
	}

	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name)
	}

	return strings.Join(names, ",")
}
