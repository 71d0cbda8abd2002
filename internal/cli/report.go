package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/report"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/theme"
	reportview "github.com/137-reciprocal/TaskGeek-sub001/internal/ui/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show burndown, history and summary reports",
}

var reportBurndownCmd = &cobra.Command{
	Use:   "burndown",
	Short: "Pending, started and done counts over time",
	Args:  cobra.NoArgs,
	RunE:  runReportBurndown,
}

var reportHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Tasks added, completed and deleted per period",
	Args:  cobra.NoArgs,
	RunE:  runReportHistory,
}

var reportSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Collection statistics and project progress",
	Args:  cobra.NoArgs,
	RunE:  runReportSummary,
}

func init() {
	reportCmd.AddCommand(reportBurndownCmd)
	reportCmd.AddCommand(reportHistoryCmd)
	reportCmd.AddCommand(reportSummaryCmd)

	for _, c := range []*cobra.Command{reportBurndownCmd, reportHistoryCmd} {
		c.Flags().StringP("interval", "i", "daily", "Bucket size: daily, weekly, monthly")
		c.Flags().Int("page", 0, "Number of windows to step back in time")
	}
}

// reportWindow reads the interval flags and returns the covered range.
func reportWindow(cmd *cobra.Command, s *session) (report.Interval, time.Time, time.Time, error) {
	raw, _ := cmd.Flags().GetString("interval")
	page, _ := cmd.Flags().GetInt("page")

	iv, err := report.ParseInterval(raw)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	if page < 0 {
		return "", time.Time{}, time.Time{}, fmt.Errorf("page must not be negative")
	}
	from, to := reportview.Window(s.svc.Now(), iv, page)
	return iv, from, to, nil
}

func runReportBurndown(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer s.Close()

	iv, from, to, err := reportWindow(cmd, s)
	if err != nil {
		return err
	}
	points, err := s.svc.Burndown(cmd.Context(), from, to, iv)
	if err != nil {
		return err
	}

	peak := 0
	for _, p := range points {
		peak = max(peak, p.Pending+p.Started+p.Done)
	}

	pending := lipgloss.NewStyle().Foreground(theme.ColorYellow)
	started := lipgloss.NewStyle().Foreground(theme.ColorBlue)
	done := lipgloss.NewStyle().Foreground(theme.ColorGreen)
	const width = 40
	scale := func(n int) int {
		if peak == 0 {
			return 0
		}
		return n * width / peak
	}

	t := newTable("Period", "Pending", "Started", "Done", "")
	for _, p := range points {
		bar := pending.Render(strings.Repeat("█", scale(p.Pending))) +
			started.Render(strings.Repeat("█", scale(p.Started))) +
			done.Render(strings.Repeat("█", scale(p.Done)))
		t.Row(p.Label(iv), fmt.Sprint(p.Pending), fmt.Sprint(p.Started), fmt.Sprint(p.Done), bar)
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.String())
	return nil
}

func runReportHistory(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.Close()

	iv, from, to, err := reportWindow(cmd, s)
	if err != nil {
		return err
	}
	rows, err := s.svc.TaskHistory(cmd.Context(), from, to, iv)
	if err != nil {
		return err
	}

	t := newTable("Period", "Added", "Completed", "Deleted", "Net")
	var added, completed, deleted int
	for _, r := range rows {
		t.Row(r.Label(iv), fmt.Sprint(r.Added), fmt.Sprint(r.Completed), fmt.Sprint(r.Deleted),
			fmt.Sprintf("%+d", r.Added-r.Completed-r.Deleted))
		added += r.Added
		completed += r.Completed
		deleted += r.Deleted
	}
	t.Row("total", fmt.Sprint(added), fmt.Sprint(completed), fmt.Sprint(deleted),
		fmt.Sprintf("%+d", added-completed-deleted))
	fmt.Fprintln(cmd.OutOrStdout(), t.String())
	return nil
}

func runReportSummary(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer s.Close()

	stats, err := s.svc.Summary(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), reportview.RenderSummary(stats, 80))
	return nil
}
