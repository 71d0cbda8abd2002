// Package xp turns completed tasks into experience points and advances the
// hero along a cubic leveling curve.
package xp

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/dates"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
)

// LevelUp describes what a single Apply changed on the hero.
type LevelUp struct {
	From         int
	To           int
	LevelsGained int
	StatGains    map[model.Stat]int
	Titles       []string
}

// Changed reports whether the hero gained a level or a title.
func (l LevelUp) Changed() bool {
	return l.LevelsGained > 0 || len(l.Titles) > 0
}

// ThresholdFor returns the XP needed to advance from level to level+1.
func ThresholdFor(level int, cfg model.XPConfig) int {
	if level < 1 {
		level = 1
	}
	return cfg.LevelBase + cfg.LevelCubic*level*level*level
}

// Progress returns the fraction of the current level already earned, in
// [0, 1].
func Progress(h model.Hero, cfg model.XPConfig) float64 {
	need := ThresholdFor(h.Level, cfg)
	if need <= 0 {
		return 0
	}
	return math.Max(0, math.Min(float64(h.XP)/float64(need), 1))
}

// Reward computes the XP earned by completing t. The task's urgency must be
// the value it had while still pending. The completion time is t.End, or
// now when the task has not been stamped yet.
func Reward(t model.Task, hero model.Hero, cfg model.XPConfig, now time.Time) model.XpReward {
	completed := now
	if t.End != nil {
		completed = *t.End
	}

	r := model.XpReward{
		Base:               cfg.BaseXP + math.Max(t.Urgency, 0)*cfg.UrgencyFactor,
		PriorityMultiplier: PriorityMultiplier(t.Priority, cfg),
		TimingMultiplier:   TimingMultiplier(t.Due, completed, cfg),
	}

	streak := NextStreak(hero, completed)
	if cfg.StreakBonusCap > 0 && streak > cfg.StreakBonusCap {
		streak = cfg.StreakBonusCap
	}
	r.Bonus = streak * cfg.StreakBonusPerDay

	scaled := r.Base * r.PriorityMultiplier * r.TimingMultiplier
	if math.IsNaN(scaled) || math.IsInf(scaled, 0) {
		scaled = 0
	}
	r.Total = int(math.Round(scaled)) + r.Bonus
	if r.Total < 0 {
		r.Total = 0
	}
	return r
}

// PriorityMultiplier returns the reward multiplier for a priority.
func PriorityMultiplier(p model.Priority, cfg model.XPConfig) float64 {
	switch p {
	case model.PriorityHigh:
		return cfg.PriorityHighMult
	case model.PriorityMedium:
		return cfg.PriorityMediumMult
	case model.PriorityLow:
		return cfg.PriorityLowMult
	}
	return 1.0
}

// TimingMultiplier rewards finishing a day or more before the due date,
// keeps a small bonus for finishing on the due day, and penalizes late
// completion. The due day is the calendar day in the zone of completed.
// Tasks without a due date are neutral.
func TimingMultiplier(due *time.Time, completed time.Time, cfg model.XPConfig) float64 {
	if due == nil {
		return 1.0
	}
	switch {
	case !completed.After(due.Add(-24 * time.Hour)):
		return cfg.EarlyMultiplier
	case !completed.After(*due) || dates.SameDay(completed, *due):
		return cfg.OnTimeMultiplier
	default:
		return cfg.LateMultiplier
	}
}

// NextStreak returns the streak length after a completion at the given
// time. Completions on the same calendar day keep the streak, a completion
// on the following day extends it, and anything later restarts it.
func NextStreak(h model.Hero, at time.Time) int {
	if h.LastCompletion == nil {
		return 1
	}
	last := dates.StartOfDay(h.LastCompletion.In(at.Location()))
	today := dates.StartOfDay(at)
	switch {
	case !today.After(last):
		if h.CurrentStreak < 1 {
			return 1
		}
		return h.CurrentStreak
	case last.AddDate(0, 0, 1).Equal(today):
		return h.CurrentStreak + 1
	default:
		return 1
	}
}

// PrimaryStat picks the ability a task trains: the first tag with a stat
// mapping, otherwise a default by priority.
func PrimaryStat(t model.Task, cfg model.XPConfig) model.Stat {
	tags := append([]string(nil), t.Tags...)
	sort.Strings(tags)
	for _, tag := range tags {
		name, ok := cfg.TagStats[strings.ToLower(tag)]
		if !ok {
			continue
		}
		if st, err := model.ParseStat(name); err == nil {
			return st
		}
	}
	switch t.Priority {
	case model.PriorityHigh:
		return model.StatSTR
	case model.PriorityMedium:
		return model.StatCON
	case model.PriorityLow:
		return model.StatDEX
	}
	return model.StatWIS
}

// Apply credits reward to the hero for completing t at now. XP beyond the
// current threshold rolls into as many level-ups as it pays for, so the
// returned hero always holds less XP than its next threshold.
func Apply(hero model.Hero, reward model.XpReward, t model.Task, cfg model.XPConfig, now time.Time) (model.Hero, LevelUp) {
	h := hero
	h.UnlockedTitles = append([]string(nil), hero.UnlockedTitles...)
	if h.Level < 1 {
		h.Level = 1
	}
	if h.Stats == (model.Stats{}) {
		h.Stats = model.DefaultStats()
	}

	up := LevelUp{From: h.Level, StatGains: make(map[model.Stat]int)}

	h.CurrentStreak = NextStreak(hero, now)
	if h.CurrentStreak > h.LongestStreak {
		h.LongestStreak = h.CurrentStreak
	}
	completed := now
	h.LastCompletion = &completed
	h.TasksCompleted++

	gain := reward.Total
	if gain < 0 {
		gain = 0
	}
	h.XP += gain
	h.TotalXP += gain

	primary := PrimaryStat(t, cfg)
	for {
		need := ThresholdFor(h.Level, cfg)
		if need <= 0 || h.XP < need {
			break
		}
		h.XP -= need
		h.Level++
		up.LevelsGained++

		h.Stats = grow(h.Stats, primary, up.StatGains)
		if h.Level%4 == 0 {
			for _, st := range model.AllStats {
				h.Stats = grow(h.Stats, st, up.StatGains)
			}
		}
	}
	up.To = h.Level

	for _, title := range Eligible(h) {
		if !h.HasTitle(title) {
			h.UnlockedTitles = append(h.UnlockedTitles, title)
			up.Titles = append(up.Titles, title)
		}
	}
	h.Title = LevelTitle(h.Level)
	h.UpdatedAt = now

	return h, up
}

// grow raises one ability by a point, recording the gain unless the ability
// is already capped.
func grow(s model.Stats, st model.Stat, gains map[model.Stat]int) model.Stats {
	before := s.Get(st)
	s = s.Add(st, 1)
	if s.Get(st) > before {
		gains[st]++
	}
	return s
}
