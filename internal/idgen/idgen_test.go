package idgen

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	id := New()
	if len(id) != 36 {
		t.Errorf("len = %d, want 36", len(id))
	}
	if strings.Count(id, "-") != 4 {
		t.Errorf("id %q should have 4 dashes", id)
	}
}

func TestWithPrefix(t *testing.T) {
	id := WithPrefix("acc_")
	if !strings.HasPrefix(id, "acc_") {
		t.Errorf("id %q missing prefix", id)
	}
	if len(id) != len("acc_")+24 {
		t.Errorf("len = %d, want prefix + 24 hex chars", len(id))
	}
	for _, r := range id[len("acc_"):] {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Errorf("non-hex char %q in id %q", r, id)
		}
	}
}

func TestUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := WithPrefix("apr_")
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
