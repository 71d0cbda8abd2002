package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/theme"
	heroview "github.com/137-reciprocal/TaskGeek-sub001/internal/ui/hero"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/xp"
)

func runHero(cmd *cobra.Command, args []string) error {
	rename, _ := cmd.Flags().GetString("rename")
	history, _ := cmd.Flags().GetInt("history")
	inbox, _ := cmd.Flags().GetBool("inbox")

	s, err := openSession(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var h model.Hero
	if rename != "" {
		h, err = s.svc.RenameHero(ctx, rename)
	} else {
		h, err = s.svc.Hero(ctx)
	}
	if err != nil {
		return err
	}

	if inbox {
		notes, err := s.svc.Notifications(ctx, true, 0)
		if err != nil {
			return err
		}
		if len(notes) == 0 {
			fmt.Fprintln(out, "No unread notifications.")
			return nil
		}
		for _, n := range notes {
			fmt.Fprintf(out, "%s  [%s] %s\n", n.CreatedAt.Local().Format(dateLayout), n.Kind, n.Message)
		}
		return s.svc.MarkRead(ctx, "")
	}

	cfg := s.cfg.XP
	bold := lipgloss.NewStyle().Bold(true)

	fmt.Fprintf(out, "%s, %s\n", bold.Render(h.Name), xp.LevelTitle(h.Level))
	fmt.Fprintf(out, "Level %d  %s  %d/%d XP\n", h.Level,
		heroview.XPBar(h, cfg, 30), h.XP, xp.ThresholdFor(h.Level, cfg))
	if title, at, ok := xp.NextLevelTitle(h.Level); ok {
		fmt.Fprintf(out, "Next rank: %s at level %d\n", title, at)
	}
	fmt.Fprintf(out, "Total XP %d  Tasks %d  Streak %d (best %d)\n",
		h.TotalXP, h.TasksCompleted, h.CurrentStreak, h.LongestStreak)
	fmt.Fprintln(out)

	for _, st := range model.AllStats {
		score := h.Stats.Get(st)
		fmt.Fprintf(out, "  %s %s\n", st, theme.StatStyle(score).Render(fmt.Sprintf("%2d", score)))
	}

	if len(h.UnlockedTitles) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, bold.Render("Titles"))
		for _, t := range h.UnlockedTitles {
			marker := " "
			if t == h.Title {
				marker = "*"
			}
			fmt.Fprintf(out, " %s %s\n", marker, t)
		}
	}

	if history <= 0 {
		return nil
	}
	entries, err := s.svc.XPHistory(ctx, history)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	t := newTable("When", "Task", "XP", "Level")
	for _, e := range entries {
		level := fmt.Sprint(e.LevelAfter)
		if e.LevelAfter > e.LevelBefore {
			level = fmt.Sprintf("%d → %d", e.LevelBefore, e.LevelAfter)
		}
		t.Row(e.CreatedAt.Local().Format(dateLayout), e.Description, fmt.Sprintf("+%d", e.Reward.Total), level)
	}
	fmt.Fprintln(out, t.String())
	return nil
}
