package storage

import (
	"strings"
	"testing"

	"github.com/siggame/Cerveau-sub002/pkg/api"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	svc, err := NewService(t.TempDir())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	in := &api.Gamelog{
		GameName:    "duel",
		GameSession: "abc-123",
		Epoch:       1700000000000,
		Deltas: []any{
			map[string]any{"currentTurn": float64(0)},
			map[string]any{"currentTurn": float64(1)},
		},
		Winners: []int{0},
		Losers:  []int{1},
	}

	name, err := svc.Save(in)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if want := svc.Filename("duel", "abc-123", 1700000000000); name != want {
		t.Errorf("Save returned %q, want %q", name, want)
	}
	if !strings.HasSuffix(name, ".json.gz") {
		t.Errorf("filename %q lacks .json.gz suffix", name)
	}

	out, err := svc.Load(name)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.GameName != in.GameName || out.GameSession != in.GameSession || out.Epoch != in.Epoch {
		t.Errorf("round-trip header mismatch: %+v", out)
	}
	if len(out.Deltas) != 2 {
		t.Fatalf("round-trip deltas = %d, want 2", len(out.Deltas))
	}
	if len(out.Winners) != 1 || out.Winners[0] != 0 {
		t.Errorf("round-trip winners = %v", out.Winners)
	}
}

func TestFilenameIsDeterministic(t *testing.T) {
	svc, err := NewService(t.TempDir())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	a := svc.Filename("duel", "s", 42)
	b := svc.Filename("duel", "s", 42)
	if a != b {
		t.Errorf("Filename not deterministic: %q vs %q", a, b)
	}
}

func TestPathRejectsTraversal(t *testing.T) {
	svc, err := NewService(t.TempDir())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	for _, bad := range []string{"", "../etc/passwd", "a/b.json.gz", ".hidden"} {
		if _, err := svc.Path(bad); err == nil {
			t.Errorf("Path(%q) accepted, want error", bad)
		}
	}
	if _, err := svc.Path("1-duel-s.json.gz"); err != nil {
		t.Errorf("Path rejected a plain filename: %v", err)
	}
}
