package xp

import "github.com/137-reciprocal/TaskGeek-sub001/internal/model"

// LevelTitles maps the level at which each rank title unlocks.
var LevelTitles = []struct {
	Level int
	Title string
}{
	{1, "Novice"},
	{5, "Apprentice"},
	{10, "Journeyman"},
	{20, "Adept"},
	{30, "Expert"},
	{40, "Master"},
	{50, "Grandmaster"},
	{75, "Legend"},
}

// Achievement is a title earned through behavior rather than level.
type Achievement struct {
	Title       string
	Description string
	Earned      func(model.Hero) bool
}

// Achievements lists the behavior titles.
var Achievements = []Achievement{
	{
		Title:       "Consistent",
		Description: "Complete tasks 7 days in a row",
		Earned:      func(h model.Hero) bool { return h.CurrentStreak >= 7 },
	},
	{
		Title:       "Unstoppable",
		Description: "Complete tasks 30 days in a row",
		Earned:      func(h model.Hero) bool { return h.CurrentStreak >= 30 },
	},
	{
		Title:       "Centurion",
		Description: "Complete 100 tasks",
		Earned:      func(h model.Hero) bool { return h.TasksCompleted >= 100 },
	},
}

// LevelTitle returns the highest rank title reached at level.
func LevelTitle(level int) string {
	title := LevelTitles[0].Title
	for _, lt := range LevelTitles {
		if level >= lt.Level {
			title = lt.Title
		}
	}
	return title
}

// NextLevelTitle returns the next rank title and the level that unlocks it.
// ok is false once the last rank has been reached.
func NextLevelTitle(level int) (title string, at int, ok bool) {
	for _, lt := range LevelTitles {
		if lt.Level > level {
			return lt.Title, lt.Level, true
		}
	}
	return "", 0, false
}

// Eligible returns every title the hero qualifies for, rank titles first.
func Eligible(h model.Hero) []string {
	var out []string
	for _, lt := range LevelTitles {
		if h.Level >= lt.Level {
			out = append(out, lt.Title)
		}
	}
	for _, a := range Achievements {
		if a.Earned(h) {
			out = append(out, a.Title)
		}
	}
	return out
}
