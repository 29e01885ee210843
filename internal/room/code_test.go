package room

import (
	"context"
	"strings"
	"testing"
)

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode() error = %v", err)
		}

		if len(code) != codeLength {
			t.Errorf("code %q has length %d, want %d", code, len(code), codeLength)
		}

		for _, c := range code {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Errorf("code %q contains invalid character %q", code, c)
			}
		}

		seen[code] = true
	}

	if len(seen) < 95 {
		t.Errorf("generated %d distinct codes out of 100, expected near-total uniqueness", len(seen))
	}
}

type codeExistsStore struct {
	Store
	taken map[string]bool
	calls int
}

func (s *codeExistsStore) CodeExists(_ context.Context, code string) (bool, error) {
	s.calls++
	// Simulate collisions on the first two attempts.
	if s.calls <= 2 {
		s.taken[code] = true
		return true, nil
	}
	return s.taken[code], nil
}

func TestGenerateUniqueCodeRetries(t *testing.T) {
	store := &codeExistsStore{taken: make(map[string]bool)}

	code, err := GenerateUniqueCode(context.Background(), store)
	if err != nil {
		t.Fatalf("GenerateUniqueCode() error = %v", err)
	}

	if store.calls != 3 {
		t.Errorf("expected 3 existence checks, got %d", store.calls)
	}

	if store.taken[code] {
		t.Errorf("returned code %q was marked as taken", code)
	}
}
