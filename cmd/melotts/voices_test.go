package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/go-melotts/internal/tts"
)

func TestPrintVoices(t *testing.T) {
	var buf bytes.Buffer

	err := printVoices(&buf, []tts.Voice{
		{ID: "zh-female", Path: "zh.bin", Language: "ZH", License: "MIT"},
		{ID: "en", Path: "en.bin"},
	})
	if err != nil {
		t.Fatalf("printVoices: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %q", buf.String())
	}

	if !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[1], "zh-female") || !strings.Contains(lines[2], "en.bin") {
		t.Fatalf("unexpected table:\n%s", buf.String())
	}
}

func TestVoicesCmd_ListsManifest(t *testing.T) {
	orig := activeCfg
	t.Cleanup(func() { activeCfg = orig })

	dir := t.TempDir()
	manifest := filepath.Join(dir, "voices.yaml")

	err := os.WriteFile(manifest, []byte("voices:\n  - id: demo\n    path: demo.bin\n    language: ZH\n"), 0o644)
	if err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	var out bytes.Buffer

	root := NewRootCmd()
	root.SetArgs([]string{"voices", "--voices", manifest})
	root.SetOut(&out)

	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if !strings.Contains(out.String(), "demo") || !strings.Contains(out.String(), "demo.bin") {
		t.Fatalf("expected demo voice in output, got %q", out.String())
	}
}

func TestVoicesCmd_MissingManifest(t *testing.T) {
	orig := activeCfg
	t.Cleanup(func() { activeCfg = orig })

	root := NewRootCmd()
	root.SetArgs([]string{"voices", "--voices", filepath.Join(t.TempDir(), "missing.yaml")})
	root.SetOut(&bytes.Buffer{})

	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Fatal("expected error for missing manifest")
	}
}
