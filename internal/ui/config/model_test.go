package config

import (
	"testing"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
)

func TestRowsFor(t *testing.T) {
	cfg, err := model.DefaultUrgencyConfig().WithTagCoefficient("urgent", 3)
	if err != nil {
		t.Fatal(err)
	}

	rows := rowsFor(cfg)
	scalars := len(cfg.Coefficients())
	if len(rows) != scalars+len(cfg.TagCoefficients) {
		t.Fatalf("rows = %d, want %d", len(rows), scalars+len(cfg.TagCoefficients))
	}
	for i := 1; i < scalars; i++ {
		if rows[i-1].name >= rows[i].name {
			t.Errorf("scalar rows not sorted: %q before %q", rows[i-1].name, rows[i].name)
		}
		if rows[i].tag {
			t.Errorf("row %q marked as tag", rows[i].name)
		}
	}

	found := false
	for _, r := range rows[scalars:] {
		if !r.tag {
			t.Errorf("row %q should be a tag coefficient", r.name)
		}
		if r.name == "urgent" && r.value == 3 {
			found = true
		}
	}
	if !found {
		t.Error("tag coefficient urgent missing")
	}
}

func TestValidateFloat(t *testing.T) {
	for _, ok := range []string{"1", "-0.5", " 2.25 "} {
		if err := validateFloat(ok); err != nil {
			t.Errorf("validateFloat(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "abc", "1,5"} {
		if validateFloat(bad) == nil {
			t.Errorf("validateFloat(%q) should fail", bad)
		}
	}
}
