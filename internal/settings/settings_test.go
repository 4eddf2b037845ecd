package settings

import (
	"strings"
	"testing"
)

func testSchema() Schema {
	return Schema{
		"maxTurns": {
			Default:     int64(100),
			Description: "turn ceiling before secondary win conditions",
			Min:         Bound(1),
			Max:         Bound(10000),
		},
		"playerStartingTime": {
			Default:     int64(60e9),
			Description: "per-player time budget in nanoseconds",
			Min:         Bound(0),
		},
		"difficulty": {
			Default:     0.5,
			Description: "0..1",
			Min:         Bound(0),
			Max:         Bound(1),
		},
		"allowSpectators": {
			Default:     false,
			Description: "whether observers may join",
		},
		"mapName": {
			Default:     "default",
			Description: "named map to load",
		},
	}
}

func TestValidate_DefaultsWhenEmpty(t *testing.T) {
	got, err := testSchema().Validate(nil)
	if err != nil {
		t.Fatalf("Validate(nil) error: %v", err)
	}
	if got["maxTurns"] != int64(100) || got["mapName"] != "default" || got["allowSpectators"] != false {
		t.Errorf("defaults not applied: %v", got)
	}
}

func TestValidate_Overrides(t *testing.T) {
	got, err := testSchema().Validate(map[string]string{
		"maxTurns":        "20",
		"difficulty":      "0.9",
		"allowSpectators": "true",
		"mapName":         "arena",
	})
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if got["maxTurns"] != int64(20) {
		t.Errorf("maxTurns = %v, want 20", got["maxTurns"])
	}
	if got["difficulty"] != 0.9 {
		t.Errorf("difficulty = %v, want 0.9", got["difficulty"])
	}
	if got["allowSpectators"] != true || got["mapName"] != "arena" {
		t.Errorf("overrides not applied: %v", got)
	}
	// untouched keys keep defaults
	if got["playerStartingTime"] != int64(60e9) {
		t.Errorf("playerStartingTime = %v, want default", got["playerStartingTime"])
	}
}

func TestValidate_UnknownKeyIsHardError(t *testing.T) {
	_, err := testSchema().Validate(map[string]string{"zurnTimit": "3"})
	if err == nil || !strings.Contains(err.Error(), "unknown key") {
		t.Errorf("unknown key should be a hard error, got %v", err)
	}
}

// Out-of-range values fail outright; configuration is never clamped the way
// runtime sanitization is.
func TestValidate_OutOfRangeIsHardError(t *testing.T) {
	if _, err := testSchema().Validate(map[string]string{"maxTurns": "0"}); err == nil {
		t.Error("below-minimum value should be a hard error")
	}
	if _, err := testSchema().Validate(map[string]string{"difficulty": "1.5"}); err == nil {
		t.Error("above-maximum value should be a hard error")
	}
}

func TestValidate_UnparseableIsHardError(t *testing.T) {
	if _, err := testSchema().Validate(map[string]string{"maxTurns": "lots"}); err == nil {
		t.Error("non-integer override should be a hard error")
	}
	if _, err := testSchema().Validate(map[string]string{"allowSpectators": "yep"}); err == nil {
		t.Error("non-boolean override should be a hard error")
	}
}
