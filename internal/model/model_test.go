package model

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// ============================================================
// Task
// ============================================================

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{"H", PriorityHigh, false},
		{"medium", PriorityMedium, false},
		{" l ", PriorityLow, false},
		{"", PriorityNone, false},
		{"urgent", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePriority(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePriority(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePriority(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTagSet(t *testing.T) {
	var task Task
	task.AddTag("work", " home ", "work", "")
	if want := []string{"home", "work"}; !reflect.DeepEqual(task.Tags, want) {
		t.Fatalf("Tags = %v, want %v", task.Tags, want)
	}
	task.RemoveTag("work", "missing")
	if want := []string{"home"}; !reflect.DeepEqual(task.Tags, want) {
		t.Fatalf("Tags = %v, want %v", task.Tags, want)
	}
	if !task.HasTag("home") || task.HasTag("work") {
		t.Error("HasTag disagrees with Tags")
	}
}

func TestCloneIsDeep(t *testing.T) {
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	orig := Task{
		Tags: []string{"a"},
		Due:  &due,
		UDAs: map[string]string{"estimate": "3"},
	}
	c := orig.Clone()
	c.Tags[0] = "b"
	*c.Due = due.Add(time.Hour)
	c.UDAs["estimate"] = "5"

	if orig.Tags[0] != "a" || !orig.Due.Equal(due) || orig.UDAs["estimate"] != "3" {
		t.Error("mutating the clone changed the original")
	}
}

func TestValidate(t *testing.T) {
	due := time.Now()
	tests := []struct {
		name string
		task Task
		ok   bool
	}{
		{"valid", Task{Description: "x", Status: StatusPending}, true},
		{"empty description", Task{Description: "  ", Status: StatusPending}, false},
		{"bad status", Task{Description: "x", Status: "open"}, false},
		{"self dependency", Task{UUID: "u1", Description: "x", Status: StatusPending, Depends: []string{"u1"}}, false},
		{"recurring without due", Task{Description: "x", Status: StatusRecurring, Recur: "weekly"}, false},
		{"recurring", Task{Description: "x", Status: StatusRecurring, Recur: "weekly", Due: &due}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if tt.ok && err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidTask) {
				t.Fatalf("Validate err = %v, want ErrInvalidTask", err)
			}
		})
	}
}

func TestProjectMatches(t *testing.T) {
	tests := []struct {
		project, prefix string
		want            bool
	}{
		{"home", "home", true},
		{"home.garden", "home", true},
		{"homework", "home", false},
		{"work", "", true},
		{"", "home", false},
	}
	for _, tt := range tests {
		if got := ProjectMatches(tt.project, tt.prefix); got != tt.want {
			t.Errorf("ProjectMatches(%q, %q) = %v, want %v", tt.project, tt.prefix, got, tt.want)
		}
	}
}

// ============================================================
// Hero
// ============================================================

func TestStatsAddClamps(t *testing.T) {
	s := DefaultStats()
	s = s.Add(StatSTR, 50)
	if got := s.Get(StatSTR); got != MaxStat {
		t.Errorf("STR = %d, want %d", got, MaxStat)
	}
	if got := s.Get(StatDEX); got != BaseStat {
		t.Errorf("DEX = %d, want %d", got, BaseStat)
	}
}

func TestParseStat(t *testing.T) {
	if st, err := ParseStat("wis"); err != nil || st != StatWIS {
		t.Errorf("ParseStat(wis) = %q, %v", st, err)
	}
	if _, err := ParseStat("luck"); err == nil {
		t.Error("ParseStat(luck) should fail")
	}
}

// ============================================================
// Urgency configuration
// ============================================================

func TestWithCoefficient(t *testing.T) {
	base := DefaultUrgencyConfig()

	next, err := base.WithCoefficient("due", 20)
	if err != nil {
		t.Fatal(err)
	}
	if next.Due != 20 || base.Due != 12 {
		t.Errorf("due: next=%v base=%v", next.Due, base.Due)
	}

	if _, err := base.WithCoefficient("due", math.Inf(1)); err == nil {
		t.Error("infinite coefficient should be rejected")
	}
	if _, err := base.WithCoefficient("age_max_days", 0); err == nil {
		t.Error("zero age horizon should be rejected")
	}
	if _, err := base.WithCoefficient("nope", 1); err == nil {
		t.Error("unknown coefficient should be rejected")
	}

	tagged, err := base.WithTagCoefficient("home", 2)
	if err != nil {
		t.Fatal(err)
	}
	if tagged, err = tagged.WithProjectCoefficient("work", 1.5); err != nil {
		t.Fatal(err)
	}
	if tagged, err = tagged.WithUDACoefficient("estimate", 0.5); err != nil {
		t.Fatal(err)
	}
	if base.TagCoefficients != nil || base.ProjectCoefficients != nil || base.UDACoefficients != nil {
		t.Error("With* helpers mutated the receiver")
	}
	if tagged.TagCoefficients["home"] != 2 || tagged.ProjectCoefficients["work"] != 1.5 || tagged.UDACoefficients["estimate"] != 0.5 {
		t.Errorf("weights not set: %+v", tagged)
	}
}

func TestWeightHelpersValidate(t *testing.T) {
	base := DefaultUrgencyConfig()
	helpers := map[string]func(string, float64) (UrgencyConfig, error){
		"tag":     base.WithTagCoefficient,
		"project": base.WithProjectCoefficient,
		"uda":     base.WithUDACoefficient,
	}
	for kind, with := range helpers {
		for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
			got, err := with("x", v)
			if err == nil {
				t.Errorf("%s weight %v accepted", kind, v)
			}
			if !reflect.DeepEqual(got, base) {
				t.Errorf("%s: rejected weight changed the config", kind)
			}
		}
		if _, err := with("", 1); err == nil {
			t.Errorf("%s weight without a name accepted", kind)
		}
	}
}

// ============================================================
// Config file
// ============================================================

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !reflect.DeepEqual(cfg.Urgency, DefaultUrgencyConfig()) {
		t.Errorf("urgency = %+v, want defaults", cfg.Urgency)
	}
	if cfg.HeroName != "Adventurer" {
		t.Errorf("HeroName = %q", cfg.HeroName)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultAppConfig()
	cfg.HeroName = "Ada"
	urg, err := cfg.Urgency.WithTagCoefficient("someday", -4)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Urgency = urg
	cfg.Urgency.Due = 15
	cfg.XP.BaseXP = 25
	cfg.Backup.Keep = 3
	cfg.Data.DBPath = "/tmp/tg.db"

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if got.HeroName != "Ada" {
		t.Errorf("HeroName = %q", got.HeroName)
	}
	if got.Urgency.Due != 15 || got.Urgency.TagCoefficients["someday"] != -4 {
		t.Errorf("urgency = %+v", got.Urgency)
	}
	if got.XP.BaseXP != 25 || got.Backup.Keep != 3 || got.Data.DBPath != "/tmp/tg.db" {
		t.Errorf("config = %+v", got)
	}
}

func TestConfigRoundTripKeepsWeightNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultAppConfig()
	cfg.Urgency.ProjectCoefficients = map[string]float64{"home": 1, "home.garden": 2}
	cfg.Urgency.TagCoefficients = map[string]float64{"Urgent": 3, "v1.2": -1}
	cfg.Urgency.UDACoefficients = map[string]float64{"Estimate": 0.5}

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !reflect.DeepEqual(got.Urgency.ProjectCoefficients, cfg.Urgency.ProjectCoefficients) {
		t.Errorf("projects = %v, want %v", got.Urgency.ProjectCoefficients, cfg.Urgency.ProjectCoefficients)
	}
	if !reflect.DeepEqual(got.Urgency.TagCoefficients, cfg.Urgency.TagCoefficients) {
		t.Errorf("tags = %v, want %v", got.Urgency.TagCoefficients, cfg.Urgency.TagCoefficients)
	}
	if !reflect.DeepEqual(got.Urgency.UDACoefficients, cfg.Urgency.UDACoefficients) {
		t.Errorf("udas = %v, want %v", got.Urgency.UDACoefficients, cfg.Urgency.UDACoefficients)
	}

	// Saving again is stable.
	if err := SaveConfig(path, got); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	again, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !reflect.DeepEqual(again.Urgency, got.Urgency) {
		t.Errorf("second round trip changed urgency: %+v", again.Urgency)
	}
}

func TestLoadConfigWeightLists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := "urgency:\n  project_coefficients:\n    - name: work.reports\n      weight: 4\n  tag_coefficients:\n    - weight: 1\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("weight without a name should be rejected")
	}

	raw = "urgency:\n  project_coefficients:\n    - name: work.reports\n      weight: 4\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Urgency.ProjectCoefficients["work.reports"] != 4 || cfg.Urgency.TagCoefficients != nil {
		t.Errorf("urgency = %+v", cfg.Urgency)
	}
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("hero_name: Bob\nurgency:\n  due: 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HeroName != "Bob" || cfg.Urgency.Due != 9 {
		t.Errorf("overrides lost: %+v", cfg)
	}
	if cfg.Urgency.Blocking != DefaultUrgencyConfig().Blocking {
		t.Errorf("blocking = %v, want default", cfg.Urgency.Blocking)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("urgency:\n  age_max_days: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("negative age horizon should be rejected")
	}
}
