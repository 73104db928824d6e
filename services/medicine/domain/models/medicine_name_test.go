package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/ghuser/medshelf/services/medicine/domain"
)

func TestNewMedicineName(t *testing.T) {
	t.Run("trims surrounding whitespace", func(t *testing.T) {
		n, err := NewMedicineName("  Paracetamol  ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n.String() != "Paracetamol" {
			t.Fatalf("expected %q, got %q", "Paracetamol", n.String())
		}
	})

	t.Run("255 characters allowed", func(t *testing.T) {
		s := strings.Repeat("x", 255)
		if _, err := NewMedicineName(s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("multibyte counted as runes", func(t *testing.T) {
		s := strings.Repeat("é", 255)
		if _, err := NewMedicineName(s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	for _, in := range []string{"", "   ", "\t\n"} {
		t.Run("blank "+strings.ReplaceAll(in, "\n", `\n`), func(t *testing.T) {
			_, err := NewMedicineName(in)
			if err == nil || err.Error() != "name is required" {
				t.Fatalf("expected 'name is required', got %v", err)
			}
			if !errors.Is(err, domain.ErrInvalidMedicine) {
				t.Fatal("expected ErrInvalidMedicine")
			}
		})
	}

	t.Run("256 characters rejected", func(t *testing.T) {
		if _, err := NewMedicineName(strings.Repeat("x", 256)); err == nil {
			t.Fatal("expected error, got nil")
		}
	})

	t.Run("control characters rejected", func(t *testing.T) {
		if _, err := NewMedicineName("Ibu\x00profen"); err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}
