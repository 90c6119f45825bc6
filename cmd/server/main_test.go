package main

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-auth-service/internal/config"
	"github.com/tbourn/go-auth-service/internal/identity"
)

func TestNewBackend_Local(t *testing.T) {
	cfg := config.Config{Identity: config.IdentityConfig{
		Backend:        config.BackendLocal,
		DBPath:         filepath.Join(t.TempDir(), "auth.db"),
		JWTSecret:      strings.Repeat("s", 32),
		AccessTokenTTL: time.Minute,
	}}

	backend, closeFn, err := newBackend(cfg)
	if err != nil {
		t.Fatalf("newBackend: %v", err)
	}
	defer closeFn()

	store, ok := backend.(*identity.LocalStore)
	if !ok {
		t.Fatalf("expected *identity.LocalStore, got %T", backend)
	}
	if !store.DB.Migrator().HasTable("users") {
		t.Fatalf("users table not migrated")
	}
}

func TestNewBackend_LocalBadPath(t *testing.T) {
	cfg := config.Config{Identity: config.IdentityConfig{
		Backend:   config.BackendLocal,
		DBPath:    filepath.Join(t.TempDir(), "missing", "auth.db"),
		JWTSecret: strings.Repeat("s", 32),
	}}
	if _, _, err := newBackend(cfg); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

func TestNewBackend_Supabase(t *testing.T) {
	cfg := config.Config{Identity: config.IdentityConfig{
		Backend:         config.BackendSupabase,
		SupabaseURL:     "https://proj.supabase.co",
		SupabaseAnonKey: "anon",
		UpstreamTimeout: time.Second,
	}}

	backend, closeFn, err := newBackend(cfg)
	if err != nil {
		t.Fatalf("newBackend: %v", err)
	}
	closeFn()
	if _, ok := backend.(*identity.SupabaseClient); !ok {
		t.Fatalf("expected *identity.SupabaseClient, got %T", backend)
	}
}

func TestServe_ListenFailureIsReturned(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	// Port already taken: ListenAndServe fails immediately.
	srv := &http.Server{Addr: ln.Addr().String(), Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- serve(context.Background(), srv) }()

	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "listen") {
			t.Fatalf("expected listen error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return on listen failure")
	}
}

func TestServe_ShutsDownOnContextCancel(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
