package idgen

import (
	"regexp"
	"testing"
)

func TestKinds(t *testing.T) {
	for _, tc := range []struct {
		name   string
		gen    func() string
		prefix string
	}{
		{"refresh", Refresh, RefreshPrefix},
		{"session", Session, SessionPrefix},
		{"snapshot", Snapshot, SnapshotPrefix},
	} {
		t.Run(tc.name, func(t *testing.T) {
			pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(tc.prefix) + `[a-zA-Z0-9]{10}$`)
			for i := 0; i < 100; i++ {
				if id := tc.gen(); !pattern.MatchString(id) {
					t.Fatalf("%s() = %q, does not match %s", tc.name, id, pattern)
				}
			}
		})
	}
}

func TestGenerateWithPrefix_Length(t *testing.T) {
	id, err := GenerateWithPrefix("x-")
	if err != nil {
		t.Fatalf("GenerateWithPrefix() error: %v", err)
	}
	if len(id) != len("x-")+Length {
		t.Errorf("length = %d, want %d (id=%q)", len(id), len("x-")+Length, id)
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	const count = 10_000
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		id := Refresh()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate ID %q after %d generations", id, i)
		}
		seen[id] = struct{}{}
	}
}
