package util

import (
	"strings"
	"testing"
)

func TestNewIDPrefix(t *testing.T) {
	id := NewID("cmt")
	if !strings.HasPrefix(id, "cmt_") {
		t.Fatalf("NewID(cmt) = %q", id)
	}
	if NewID("cmt") == id {
		t.Fatal("expected unique ids")
	}
}

func TestNewIDWithoutPrefix(t *testing.T) {
	if id := NewID(""); strings.Contains(id, "_") {
		t.Fatalf("NewID(\"\") = %q", id)
	}
}

func TestNewSecret(t *testing.T) {
	secret := NewSecret()
	if len(secret) != 32 {
		t.Fatalf("NewSecret() length = %d", len(secret))
	}
	if NewSecret() == secret {
		t.Fatal("expected unique secrets")
	}
}
