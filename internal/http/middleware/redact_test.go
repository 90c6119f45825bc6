package middleware

import (
	"net/http"
	"strings"
	"testing"
)

func TestRedactor_Text(t *testing.T) {
	r := newRedactor(nil)

	in := "email=a.b+tag@example.com&password=Secret1!&id=123e4567-e89b-12d3-a456-426614174000" +
		"&t=eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.sig_-x"
	out := r.text(in)

	for _, leaked := range []string{"a.b+tag@example.com", "Secret1!", "123e4567-e89b", "eyJhbGci"} {
		if strings.Contains(out, leaked) {
			t.Fatalf("%q leaked in %q", leaked, out)
		}
	}
	for _, want := range []string{"[REDACTED:email]", "password=[REDACTED]", "[REDACTED:id]", "[REDACTED:token]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
	if r.text("") != "" {
		t.Fatalf("empty input must stay empty")
	}
}

func TestRedactor_Headers(t *testing.T) {
	r := newRedactor([]string{" X-Api-Key "})
	h := http.Header{}
	h.Set("Authorization", "Bearer secret")
	h.Set("Apikey", "anon-key")
	h.Set("X-Api-Key", "shhh")
	h.Set("X-Custom", "ping a@b.com")
	h.Set("Accept", "application/json")

	got := r.headers(h)
	for _, k := range []string{"Authorization", "Apikey", "X-Api-Key"} {
		if got[k] != "[REDACTED]" {
			t.Fatalf("%s not masked: %q", k, got[k])
		}
	}
	if got["X-Custom"] != "ping [REDACTED:email]" {
		t.Fatalf("X-Custom not scrubbed: %q", got["X-Custom"])
	}
	if got["Accept"] != "application/json" {
		t.Fatalf("Accept altered: %q", got["Accept"])
	}
}
