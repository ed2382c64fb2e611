package utils

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateOrderNumber(t *testing.T) {
	at := time.Date(2026, 8, 28, 14, 30, 45, 0, time.UTC)

	number, err := GenerateOrderNumber(at)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(number) != 16 {
		t.Fatalf("length = %d, want 16", len(number))
	}
	if !strings.HasPrefix(number, "202608281430") {
		t.Fatalf("number %q does not start with the minute timestamp", number)
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			t.Fatalf("number %q contains a non-digit", number)
		}
	}
}

func TestGenerateOrderNumberSuffixVaries(t *testing.T) {
	at := time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		number, err := GenerateOrderNumber(at)
		if err != nil {
			t.Fatal(err)
		}
		seen[number] = true
	}

	// 50 draws over 10000 suffixes should practically never collapse to one.
	if len(seen) < 2 {
		t.Fatal("expected varying random suffixes")
	}
}
