package model

import (
	"fmt"
	"strings"
	"time"
)

// Stat names one of the six D&D-style hero abilities.
type Stat string

const (
	StatSTR Stat = "STR"
	StatDEX Stat = "DEX"
	StatCON Stat = "CON"
	StatINT Stat = "INT"
	StatWIS Stat = "WIS"
	StatCHA Stat = "CHA"
)

// AllStats lists the abilities in sheet order.
var AllStats = []Stat{StatSTR, StatDEX, StatCON, StatINT, StatWIS, StatCHA}

const (
	// BaseStat is the starting score of every ability.
	BaseStat = 10
	// MaxStat is the ability score ceiling.
	MaxStat = 20
)

// ParseStat converts a stat abbreviation into a Stat.
func ParseStat(s string) (Stat, error) {
	st := Stat(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllStats {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown stat %q", s)
}

// Stats holds the six ability scores.
type Stats struct {
	STR int `json:"str" db:"stat_str"`
	DEX int `json:"dex" db:"stat_dex"`
	CON int `json:"con" db:"stat_con"`
	INT int `json:"int" db:"stat_int"`
	WIS int `json:"wis" db:"stat_wis"`
	CHA int `json:"cha" db:"stat_cha"`
}

// DefaultStats returns every ability at BaseStat.
func DefaultStats() Stats {
	return Stats{BaseStat, BaseStat, BaseStat, BaseStat, BaseStat, BaseStat}
}

// Get returns the score of one ability.
func (s Stats) Get(st Stat) int {
	switch st {
	case StatSTR:
		return s.STR
	case StatDEX:
		return s.DEX
	case StatCON:
		return s.CON
	case StatINT:
		return s.INT
	case StatWIS:
		return s.WIS
	case StatCHA:
		return s.CHA
	}
	return 0
}

// Add returns a copy with delta added to one ability, capped at MaxStat.
func (s Stats) Add(st Stat, delta int) Stats {
	clamp := func(v int) int {
		if v > MaxStat {
			return MaxStat
		}
		return v
	}
	switch st {
	case StatSTR:
		s.STR = clamp(s.STR + delta)
	case StatDEX:
		s.DEX = clamp(s.DEX + delta)
	case StatCON:
		s.CON = clamp(s.CON + delta)
	case StatINT:
		s.INT = clamp(s.INT + delta)
	case StatWIS:
		s.WIS = clamp(s.WIS + delta)
	case StatCHA:
		s.CHA = clamp(s.CHA + delta)
	}
	return s
}

// Hero is the single gamification profile of the user.
type Hero struct {
	Name           string     `json:"name"`
	Level          int        `json:"level"`
	XP             int        `json:"xp"`
	TotalXP        int        `json:"total_xp"`
	Stats          Stats      `json:"stats"`
	CurrentStreak  int        `json:"current_streak"`
	LongestStreak  int        `json:"longest_streak"`
	LastCompletion *time.Time `json:"last_completion,omitempty"`
	TasksCompleted int        `json:"tasks_completed"`
	Title          string     `json:"title"`
	UnlockedTitles []string   `json:"unlocked_titles,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewHero returns a level 1 hero.
func NewHero(name string) Hero {
	if name == "" {
		name = "Adventurer"
	}
	return Hero{
		Name:           name,
		Level:          1,
		Stats:          DefaultStats(),
		Title:          "Novice",
		UnlockedTitles: []string{"Novice"},
	}
}

// HasTitle reports whether the title has been unlocked.
func (h Hero) HasTitle(title string) bool {
	for _, t := range h.UnlockedTitles {
		if t == title {
			return true
		}
	}
	return false
}

// XpReward is the XP computed for a single completed task.
type XpReward struct {
	Base               float64 `json:"base"`
	PriorityMultiplier float64 `json:"priority_multiplier"`
	TimingMultiplier   float64 `json:"timing_multiplier"`
	Bonus              int     `json:"bonus"`
	Total              int     `json:"total"`
}

// XpHistoryEntry records one XP award for auditing and reporting.
type XpHistoryEntry struct {
	ID          string    `json:"id"`
	TaskUUID    string    `json:"task_uuid"`
	Description string    `json:"description"`
	Reward      XpReward  `json:"reward"`
	LevelBefore int       `json:"level_before"`
	LevelAfter  int       `json:"level_after"`
	CreatedAt   time.Time `json:"created_at"`
}
