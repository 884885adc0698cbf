package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthCmd_ProbesServer(t *testing.T) {
	orig := activeCfg
	t.Cleanup(func() { activeCfg = orig })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	var out bytes.Buffer

	root := NewRootCmd()
	root.SetArgs([]string{"health", "--addr", strings.TrimPrefix(srv.URL, "http://")})
	root.SetOut(&out)

	if err := root.Execute(); err != nil {
		t.Fatalf("health: %v", err)
	}

	if strings.TrimSpace(out.String()) != "ok" {
		t.Fatalf("expected ok, got %q", out.String())
	}
}

func TestHealthCmd_FailsWhenUnreachable(t *testing.T) {
	orig := activeCfg
	t.Cleanup(func() { activeCfg = orig })

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	root := NewRootCmd()
	root.SetArgs([]string{"health", "--addr", addr, "--timeout", "500ms"})
	root.SetOut(&bytes.Buffer{})

	if err := root.Execute(); err == nil {
		t.Fatal("expected probe failure")
	}
}
