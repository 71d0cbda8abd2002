package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/tests/testutil"
)

// ====================================================================
// Helpers
// ====================================================================

// setup selects a fresh config and database through the environment and
// returns their directory.
func setup(t *testing.T) string {
	t.Helper()
	path := testutil.NewTestConfig(t, nil)
	t.Setenv(configEnv, path)
	configFlag = ""
	return filepath.Dir(path)
}

// resetFlags restores every flag to its default so runs do not leak into
// each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	out, err := tryRun(args...)
	if err != nil {
		t.Fatalf("taskgeek %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func tryRun(args ...string) (string, error) {
	register()
	resetFlags(rootCmd)
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// ====================================================================
// Task commands
// ====================================================================

func TestAddListDone(t *testing.T) {
	setup(t)

	out := run(t, "add", "Write", "report", "project:work", "priority:H", "+urgent")
	if !strings.Contains(out, "Created task 1.") {
		t.Errorf("add output = %q", out)
	}
	run(t, "add", "Water", "plants", "project:home")

	out = run(t, "list", "project:work")
	if !strings.Contains(out, "Write report") {
		t.Errorf("list missing task:\n%s", out)
	}
	if strings.Contains(out, "Water plants") {
		t.Errorf("list should filter by project:\n%s", out)
	}
	if !strings.Contains(out, "1 task(s)") {
		t.Errorf("list count missing:\n%s", out)
	}

	out = run(t, "next", "--limit", "1")
	if !strings.Contains(out, "Write report") || strings.Contains(out, "Water plants") {
		t.Errorf("next should show the most urgent task only:\n%s", out)
	}

	out = run(t, "done", "1")
	if !strings.Contains(out, `Completed "Write report". +`) {
		t.Errorf("done output = %q", out)
	}

	out = run(t, "list")
	if strings.Contains(out, "Write report") {
		t.Errorf("completed task still listed:\n%s", out)
	}
	out = run(t, "list", "status:completed")
	if !strings.Contains(out, "Write report") {
		t.Errorf("status:completed should list the task:\n%s", out)
	}
}

func TestInfoShowsBreakdown(t *testing.T) {
	setup(t)
	run(t, "add", "Plan", "trip", "priority:M", "+travel")
	run(t, "annotate", "1", "book", "hotel")

	out := run(t, "info", "1")
	for _, want := range []string{"Plan trip", "priority", "tags", "book hotel", "total"} {
		if !strings.Contains(out, want) {
			t.Errorf("info missing %q:\n%s", want, out)
		}
	}
}

func TestModifyStartStopDelete(t *testing.T) {
	setup(t)
	run(t, "add", "Fix", "bug")

	if out := run(t, "modify", "1", "project:code", "+bug"); !strings.Contains(out, `Modified "Fix bug"`) {
		t.Errorf("modify output = %q", out)
	}
	if out := run(t, "list", "+ACTIVE"); !strings.Contains(out, "No matches.") {
		t.Errorf("task should not be active yet:\n%s", out)
	}
	run(t, "start", "1")
	if out := run(t, "list", "+ACTIVE"); !strings.Contains(out, "Fix bug") {
		t.Errorf("started task should be active:\n%s", out)
	}
	run(t, "stop", "1")

	if out := run(t, "delete", "1"); !strings.Contains(out, "Deleted") {
		t.Errorf("delete output = %q", out)
	}
	if out := run(t, "list"); !strings.Contains(out, "No matches.") {
		t.Errorf("deleted task still listed:\n%s", out)
	}
}

func TestUnknownTaskFails(t *testing.T) {
	setup(t)
	if _, err := tryRun("done", "42"); err == nil {
		t.Error("completing a missing task should fail")
	}
	if _, err := tryRun("list", "priority:X"); err == nil {
		t.Error("an invalid filter should fail")
	}
}

// ====================================================================
// Hero, presets, config
// ====================================================================

func TestHeroRenameAndHistory(t *testing.T) {
	setup(t)
	run(t, "add", "Stretch", "+health")
	run(t, "done", "1")

	out := run(t, "hero", "--rename", "Ada")
	for _, want := range []string{"Ada", "Level 1", "Stretch", "STR"} {
		if !strings.Contains(out, want) {
			t.Errorf("hero sheet missing %q:\n%s", want, out)
		}
	}
}

func TestPresets(t *testing.T) {
	setup(t)
	run(t, "add", "Email", "boss", "+work")
	run(t, "add", "Buy", "milk", "+errand")

	run(t, "preset", "save", "work", "+work")
	if out := run(t, "preset", "list"); !strings.Contains(out, "work") {
		t.Errorf("preset list = %q", out)
	}

	out := run(t, "list", "--preset", "work")
	if !strings.Contains(out, "Email boss") || strings.Contains(out, "Buy milk") {
		t.Errorf("preset filter not applied:\n%s", out)
	}

	run(t, "preset", "delete", "work")
	if out := run(t, "preset", "list"); !strings.Contains(out, "No presets.") {
		t.Errorf("preset not deleted: %q", out)
	}

	if _, err := tryRun("preset", "save", "bad", "due.before:notadate"); err == nil {
		t.Error("saving an unparsable filter should fail")
	}
}

func TestConfigSetUrgency(t *testing.T) {
	setup(t)

	run(t, "config", "set-urgency", "due", "20")
	run(t, "config", "set-urgency", "tag.someday", "-5")

	cfg, err := model.LoadConfig(configPath())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Urgency.Due != 20 {
		t.Errorf("due = %v, want 20", cfg.Urgency.Due)
	}
	if cfg.Urgency.TagCoefficients["someday"] != -5 {
		t.Errorf("tag.someday = %v, want -5", cfg.Urgency.TagCoefficients["someday"])
	}

	out := run(t, "config", "show", "--urgency")
	if !strings.Contains(out, "tag.someday") {
		t.Errorf("config show missing tag weight:\n%s", out)
	}

	if _, err := tryRun("config", "set-urgency", "bogus", "1"); err == nil {
		t.Error("unknown coefficient should fail")
	}
	if _, err := tryRun("config", "set-urgency", "due", "NaN"); err == nil {
		t.Error("non-finite coefficient should fail")
	}
	if _, err := tryRun("config", "set-urgency", "tag.someday", "NaN"); err == nil {
		t.Error("non-finite tag weight should fail")
	}
}

func TestConfigSetUrgencyDottedNames(t *testing.T) {
	setup(t)

	run(t, "config", "set-urgency", "project.home.garden", "2")
	run(t, "config", "set-urgency", "tag.Urgent", "3")
	run(t, "add", "Weed", "project:home.garden", "+Urgent")

	// Later commands still load the config.
	out := run(t, "list")
	if !strings.Contains(out, "Weed") {
		t.Errorf("list after dotted weight:\n%s", out)
	}

	cfg, err := model.LoadConfig(configPath())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got := cfg.Urgency.ProjectCoefficients["home.garden"]; got != 2 {
		t.Errorf("project.home.garden = %v, want 2", got)
	}
	if got := cfg.Urgency.TagCoefficients["Urgent"]; got != 3 {
		t.Errorf("tag.Urgent = %v, want 3 (weights %v)", got, cfg.Urgency.TagCoefficients)
	}
}

func TestWithUrgency(t *testing.T) {
	base := model.DefaultUrgencyConfig()
	tests := []struct {
		name    string
		key     string
		check   func(model.UrgencyConfig) bool
		wantErr bool
	}{
		{"scalar", "blocking", func(c model.UrgencyConfig) bool { return c.Blocking == 3 }, false},
		{"tag", "tag.home", func(c model.UrgencyConfig) bool { return c.TagCoefficients["home"] == 3 }, false},
		{"project", "project.work", func(c model.UrgencyConfig) bool { return c.ProjectCoefficients["work"] == 3 }, false},
		{"uda", "uda.estimate", func(c model.UrgencyConfig) bool { return c.UDACoefficients["estimate"] == 3 }, false},
		{"empty key", "tag.", nil, true},
		{"unknown prefix", "color.red", nil, true},
		{"unknown scalar", "nope", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := withUrgency(base, tt.key, 3)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("withUrgency: %v", err)
			}
			if !tt.check(got) {
				t.Errorf("coefficient %s not applied", tt.key)
			}
		})
	}
	if len(base.TagCoefficients) != 0 {
		t.Error("base config was mutated")
	}
}

// ====================================================================
// Export, import, backup
// ====================================================================

func TestExportImport(t *testing.T) {
	dir := setup(t)
	run(t, "add", "Read", "book", "project:fun", "+reading")
	run(t, "add", "Call", "mum")

	file := filepath.Join(dir, "tasks.json")
	run(t, "export", "json", "--output", file)
	if info, err := os.Stat(file); err != nil || info.Size() == 0 {
		t.Fatalf("export file missing: %v", err)
	}

	if out := run(t, "export", "csv", "project:fun"); !strings.Contains(out, "Read book") || strings.Contains(out, "Call mum") {
		t.Errorf("csv export = %q", out)
	}
	if out := run(t, "export", "yaml"); !strings.Contains(out, "description: Read book") {
		t.Errorf("yaml export = %q", out)
	}

	setup(t)
	out := run(t, "import", file)
	if !strings.Contains(out, "Imported 2 task(s).") {
		t.Errorf("import output = %q", out)
	}
	if out := run(t, "list"); !strings.Contains(out, "Read book") || !strings.Contains(out, "Call mum") {
		t.Errorf("imported tasks not listed:\n%s", out)
	}
}

func TestLocalBackupRoundTrip(t *testing.T) {
	dir := setup(t)
	run(t, "add", "Keep", "me")
	run(t, "add", "Finish", "me")
	run(t, "done", "2")

	backups := filepath.Join(dir, "backups")
	run(t, "backup", "push", "--dir", backups)
	matches, err := filepath.Glob(filepath.Join(backups, "*"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one snapshot file, got %v (%v)", matches, err)
	}

	run(t, "delete", "1")
	if out := run(t, "list"); !strings.Contains(out, "No matches.") {
		t.Fatalf("task not deleted:\n%s", out)
	}

	out := run(t, "backup", "pull", "--file", matches[0], "--yes")
	if !strings.Contains(out, "Restored 2 task(s)") {
		t.Errorf("pull output = %q", out)
	}
	if out := run(t, "list"); !strings.Contains(out, "Keep me") {
		t.Errorf("restored task not listed:\n%s", out)
	}
}

func TestBackupWithoutSecretsFails(t *testing.T) {
	setup(t)
	if _, err := tryRun("backup", "push"); err == nil {
		t.Error("push without client secrets should fail")
	}
}

// ====================================================================
// Reports and rendering
// ====================================================================

func TestReports(t *testing.T) {
	setup(t)
	run(t, "add", "One", "project:a")
	run(t, "add", "Two", "project:a.b")
	run(t, "done", "1")

	if out := run(t, "report", "history"); !strings.Contains(out, "total") {
		t.Errorf("history report = %q", out)
	}
	if out := run(t, "report", "burndown", "--interval", "weekly"); !strings.Contains(out, "Pending") {
		t.Errorf("burndown report = %q", out)
	}
	if out := run(t, "report", "summary"); !strings.Contains(out, "Tasks") {
		t.Errorf("summary report = %q", out)
	}
	if _, err := tryRun("report", "burndown", "--interval", "hourly"); err == nil {
		t.Error("unknown interval should fail")
	}
}

func TestSpan(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5min"},
		{3 * time.Hour, "3h"},
		{2 * 24 * time.Hour, "2d"},
		{15 * 24 * time.Hour, "2w"},
		{60 * 24 * time.Hour, "2mo"},
		{800 * 24 * time.Hour, "2y"},
	}
	for _, tt := range tests {
		if got := span(tt.d); got != tt.want {
			t.Errorf("span(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-3 * time.Hour)
	if got := relative(&past, now); got != "-3h" {
		t.Errorf("relative(past) = %q, want -3h", got)
	}
	if got := relative(nil, now); got != "" {
		t.Errorf("relative(nil) = %q, want empty", got)
	}
}

func TestConfigPathPrecedence(t *testing.T) {
	t.Setenv(configEnv, "/tmp/env.yaml")
	configFlag = ""
	if got := configPath(); got != "/tmp/env.yaml" {
		t.Errorf("env path = %q", got)
	}
	configFlag = "/tmp/flag.yaml"
	defer func() { configFlag = "" }()
	if got := configPath(); got != "/tmp/flag.yaml" {
		t.Errorf("flag path = %q", got)
	}
}
