package morphology

import (
	"strings"
	"testing"
)

func TestProfileLookupIsCaseInsensitive(t *testing.T) {
	upper, err := Profile("  Wide-Scanner ")
	if err != nil {
		t.Fatalf("resolve wide-scanner: %v", err)
	}
	lower, err := Profile("wide-scanner")
	if err != nil {
		t.Fatalf("resolve wide-scanner: %v", err)
	}
	if upper != lower {
		t.Fatalf("expected identical profiles, got %+v and %+v", upper, lower)
	}
}

func TestUnknownProfileListsAvailable(t *testing.T) {
	_, err := Profile("giant")
	if err == nil {
		t.Fatal("expected unknown profile error")
	}
	for _, name := range ProfileNames() {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("error %q does not mention %s", err, name)
		}
	}
}

func TestProfilesStartWithinBounds(t *testing.T) {
	names := ProfileNames()
	if len(names) != 4 || names[0] != DefaultProfile {
		t.Fatalf("unexpected profile names: %v", names)
	}
	for _, name := range names {
		m, err := Profile(name)
		if err != nil {
			t.Fatalf("resolve %s: %v", name, err)
		}
		if !m.WithinBounds() {
			t.Fatalf("profile %s out of bounds: %+v", name, m)
		}
		if m.Clamped() != m {
			t.Fatalf("profile %s changes when clamped", name)
		}
	}
}
