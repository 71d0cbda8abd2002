package model

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/viper"
)

// XPConfig holds the coefficients of the XP reward and leveling formulas.
type XPConfig struct {
	BaseXP             float64 `mapstructure:"base_xp" yaml:"base_xp"`
	UrgencyFactor      float64 `mapstructure:"urgency_factor" yaml:"urgency_factor"`
	PriorityHighMult   float64 `mapstructure:"priority_high_multiplier" yaml:"priority_high_multiplier"`
	PriorityMediumMult float64 `mapstructure:"priority_medium_multiplier" yaml:"priority_medium_multiplier"`
	PriorityLowMult    float64 `mapstructure:"priority_low_multiplier" yaml:"priority_low_multiplier"`
	EarlyMultiplier    float64 `mapstructure:"early_multiplier" yaml:"early_multiplier"`
	OnTimeMultiplier   float64 `mapstructure:"on_time_multiplier" yaml:"on_time_multiplier"`
	LateMultiplier     float64 `mapstructure:"late_multiplier" yaml:"late_multiplier"`
	StreakBonusPerDay  int     `mapstructure:"streak_bonus_per_day" yaml:"streak_bonus_per_day"`
	StreakBonusCap     int     `mapstructure:"streak_bonus_cap" yaml:"streak_bonus_cap"`
	LevelBase          int     `mapstructure:"level_base" yaml:"level_base"`
	LevelCubic         int     `mapstructure:"level_cubic" yaml:"level_cubic"`

	// TagStats maps a tag to the ability it trains. Viper lowercases keys,
	// so tags are matched case-insensitively.
	TagStats map[string]string `mapstructure:"tag_stats" yaml:"tag_stats"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme              string `mapstructure:"theme" yaml:"theme"`
	RefreshIntervalSec int    `mapstructure:"refresh_interval_sec" yaml:"refresh_interval_sec"`
	DefaultReport      string `mapstructure:"default_report" yaml:"default_report"`
	DateFormat         string `mapstructure:"date_format" yaml:"date_format"`
}

// DataConfig locates the local database.
type DataConfig struct {
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// BackupConfig holds Google Drive backup settings.
type BackupConfig struct {
	ClientSecretsPath string `mapstructure:"client_secrets_path" yaml:"client_secrets_path"`
	Folder            string `mapstructure:"folder" yaml:"folder"`
	Keep              int    `mapstructure:"keep" yaml:"keep"`
}

// SchedulerConfig controls background housekeeping.
type SchedulerConfig struct {
	IntervalSec  int `mapstructure:"interval_sec" yaml:"interval_sec"`
	DueSoonHours int `mapstructure:"due_soon_hours" yaml:"due_soon_hours"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	HeroName  string          `mapstructure:"hero_name" yaml:"hero_name"`
	Urgency   UrgencyConfig   `mapstructure:"urgency" yaml:"urgency"`
	XP        XPConfig        `mapstructure:"xp" yaml:"xp"`
	Display   DisplayConfig   `mapstructure:"display" yaml:"display"`
	Data      DataConfig      `mapstructure:"data" yaml:"data"`
	Backup    BackupConfig    `mapstructure:"backup" yaml:"backup"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
}

// ConfigDir returns ~/.config/taskgeek.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "taskgeek")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskgeek/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultXPConfig returns the stock reward and leveling coefficients.
func DefaultXPConfig() XPConfig {
	return XPConfig{
		BaseXP:             10,
		UrgencyFactor:      1.0,
		PriorityHighMult:   1.5,
		PriorityMediumMult: 1.25,
		PriorityLowMult:    1.1,
		EarlyMultiplier:    1.2,
		OnTimeMultiplier:   1.1,
		LateMultiplier:     0.75,
		StreakBonusPerDay:  2,
		StreakBonusCap:     7,
		LevelBase:          100,
		LevelCubic:         8,
		TagStats: map[string]string{
			"exercise": string(StatSTR),
			"health":   string(StatCON),
			"errand":   string(StatDEX),
			"study":    string(StatINT),
			"work":     string(StatINT),
			"reading":  string(StatWIS),
			"social":   string(StatCHA),
		},
	}
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		HeroName: "Adventurer",
		Urgency:  DefaultUrgencyConfig(),
		XP:       DefaultXPConfig(),
		Display: DisplayConfig{
			Theme:              "default",
			RefreshIntervalSec: 60,
			DefaultReport:      "next",
			DateFormat:         "2006-01-02",
		},
		Data: DataConfig{
			DBPath: filepath.Join(ConfigDir(), "taskgeek.db"),
		},
		Backup: BackupConfig{
			ClientSecretsPath: filepath.Join(ConfigDir(), "credentials.json"),
			Folder:            "appDataFolder",
			Keep:              10,
		},
		Scheduler: SchedulerConfig{
			IntervalSec:  60,
			DueSoonHours: 24,
		},
	}
}

// setDefaults registers every default so missing keys resolve to sensible
// values.
func setDefaults(v *viper.Viper) {
	d := DefaultAppConfig()
	v.SetDefault("hero_name", d.HeroName)
	for name, value := range d.Urgency.Coefficients() {
		v.SetDefault("urgency."+name, value)
	}
	v.SetDefault("xp.base_xp", d.XP.BaseXP)
	v.SetDefault("xp.urgency_factor", d.XP.UrgencyFactor)
	v.SetDefault("xp.priority_high_multiplier", d.XP.PriorityHighMult)
	v.SetDefault("xp.priority_medium_multiplier", d.XP.PriorityMediumMult)
	v.SetDefault("xp.priority_low_multiplier", d.XP.PriorityLowMult)
	v.SetDefault("xp.early_multiplier", d.XP.EarlyMultiplier)
	v.SetDefault("xp.on_time_multiplier", d.XP.OnTimeMultiplier)
	v.SetDefault("xp.late_multiplier", d.XP.LateMultiplier)
	v.SetDefault("xp.streak_bonus_per_day", d.XP.StreakBonusPerDay)
	v.SetDefault("xp.streak_bonus_cap", d.XP.StreakBonusCap)
	v.SetDefault("xp.level_base", d.XP.LevelBase)
	v.SetDefault("xp.level_cubic", d.XP.LevelCubic)
	v.SetDefault("display.theme", d.Display.Theme)
	v.SetDefault("display.refresh_interval_sec", d.Display.RefreshIntervalSec)
	v.SetDefault("display.default_report", d.Display.DefaultReport)
	v.SetDefault("display.date_format", d.Display.DateFormat)
	v.SetDefault("data.db_path", d.Data.DBPath)
	v.SetDefault("backup.client_secrets_path", d.Backup.ClientSecretsPath)
	v.SetDefault("backup.folder", d.Backup.Folder)
	v.SetDefault("backup.keep", d.Backup.Keep)
	v.SetDefault("scheduler.interval_sec", d.Scheduler.IntervalSec)
	v.SetDefault("scheduler.due_soon_hours", d.Scheduler.DueSoonHours)
}

// weightEntry is how a per-tag, per-project or per-UDA coefficient is
// stored on disk. Viper treats map keys as config paths, splitting them on
// dots and lowercasing them, so the names travel as values instead.
type weightEntry struct {
	Name   string  `mapstructure:"name"`
	Weight float64 `mapstructure:"weight"`
}

// urgencyWeights is the list-shaped part of the urgency section.
type urgencyWeights struct {
	Tags     []weightEntry `mapstructure:"tag_coefficients"`
	Projects []weightEntry `mapstructure:"project_coefficients"`
	UDAs     []weightEntry `mapstructure:"uda_coefficients"`
}

func weightMap(entries []weightEntry) (map[string]float64, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	m := make(map[string]float64, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("urgency weight without a name")
		}
		m[e.Name] = e.Weight
	}
	return m, nil
}

func weightList(m map[string]float64) []map[string]any {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]map[string]any, 0, len(names))
	for _, name := range names {
		out = append(out, map[string]any{"name": name, "weight": m[name]})
	}
	return out
}

// urgencySection renders c in its on-disk shape.
func urgencySection(c UrgencyConfig) map[string]any {
	out := make(map[string]any)
	for name, value := range c.Coefficients() {
		out[name] = value
	}
	out["tag_coefficients"] = weightList(c.TagCoefficients)
	out["project_coefficients"] = weightList(c.ProjectCoefficients)
	out["uda_coefficients"] = weightList(c.UDACoefficients)
	return out
}

func loadWeights(v *viper.Viper, c *UrgencyConfig) error {
	var w urgencyWeights
	if err := v.UnmarshalKey("urgency", &w); err != nil {
		return err
	}
	var err error
	if c.TagCoefficients, err = weightMap(w.Tags); err != nil {
		return err
	}
	if c.ProjectCoefficients, err = weightMap(w.Projects); err != nil {
		return err
	}
	c.UDACoefficients, err = weightMap(w.UDAs)
	return err
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return DefaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := loadWeights(v, &cfg.Urgency); err != nil {
		return nil, fmt.Errorf("parsing urgency weights in %s: %w", path, err)
	}
	if err := cfg.Urgency.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.XP.LevelBase <= 0 && cfg.XP.LevelCubic <= 0 {
		return nil, fmt.Errorf("config %s: level curve must be positive", path)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("hero_name", cfg.HeroName)
	v.Set("urgency", urgencySection(cfg.Urgency))
	v.Set("xp", cfg.XP)
	v.Set("display", cfg.Display)
	v.Set("data", cfg.Data)
	v.Set("backup", cfg.Backup)
	v.Set("scheduler", cfg.Scheduler)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
