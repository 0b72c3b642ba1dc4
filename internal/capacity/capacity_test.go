// internal/capacity/capacity_test.go
package capacity

import (
	"errors"
	"strings"
	"testing"

	"github.com/tamzrod/recipe-sync/internal/config"
	"github.com/tamzrod/recipe-sync/internal/fault"
)

func settings(intSize, floatSize, boolSize int) config.Settings {
	return config.Settings{
		Int:   config.Area{Address: 100, Size: intSize},
		Float: config.Area{Address: 1000, Size: floatSize},
		Bool:  config.Area{Address: 5000, Size: boolSize},
	}
}

func TestCheck_Boundary(t *testing.T) {
	// 10 rows => 20 int words, 80 float words
	if err := Check(10, settings(20, 80, 0)); err != nil {
		t.Fatalf("exact fit rejected: %v", err)
	}

	err := Check(11, settings(20, 1000, 0))
	if err == nil {
		t.Fatalf("expected int overflow, got nil")
	}
	if !errors.Is(err, fault.Of(fault.CapacityExceeded)) {
		t.Fatalf("kind mismatch: got=%v", fault.KindOf(err))
	}
	if !strings.Contains(err.Error(), "int area") || !strings.Contains(err.Error(), "required=22") || !strings.Contains(err.Error(), "available=20") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestCheck_FloatOverflow(t *testing.T) {
	err := Check(10, settings(100, 79, 0))
	if err == nil || !strings.Contains(err.Error(), "float area") {
		t.Fatalf("expected float overflow, got %v", err)
	}
}

func TestCheck_IntReportedFirst(t *testing.T) {
	err := Check(10, settings(1, 1, 0))
	if err == nil || !strings.Contains(err.Error(), "int area") {
		t.Fatalf("expected int area first, got %v", err)
	}
}

func TestCheck_EmptyRecipe(t *testing.T) {
	if err := Check(0, settings(0, 0, 0)); err != nil {
		t.Fatalf("empty recipe rejected: %v", err)
	}
}

func TestCheck_Concurrent(t *testing.T) {
	s := settings(20, 80, 0)
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() { done <- Check(10, s) }()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}
