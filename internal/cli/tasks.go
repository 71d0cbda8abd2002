package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/filter"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/service"
)

var addCmd = &cobra.Command{
	Use:   "add <description> [attr:value] [+tag] ...",
	Short: "Add a task",
	Example: `  taskgeek add Pay rent due:eom project:home +bills priority:H
  taskgeek add Water plants due:tomorrow recur:weekly`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var listCmd = &cobra.Command{
	Use:   "list [filter]",
	Short: "List tasks ordered by urgency",
	Example: `  taskgeek list project:work +urgent
  taskgeek list status:completed entry.after:yesterday`,
	RunE: runList,
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the most urgent pending tasks",
	Args:  cobra.NoArgs,
	RunE:  runNext,
}

var infoCmd = &cobra.Command{
	Use:   "info <ref>",
	Short: "Show all attributes of a task and its urgency breakdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var doneCmd = &cobra.Command{
	Use:   "done <ref>",
	Short: "Complete a task and collect XP",
	Args:  cobra.ExactArgs(1),
	RunE:  runDone,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <ref>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var startCmd = &cobra.Command{
	Use:   "start <ref>",
	Short: "Mark a task as active",
	Args:  cobra.ExactArgs(1),
	RunE:  runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop <ref>",
	Short: "Stop working on an active task",
	Args:  cobra.ExactArgs(1),
	RunE:  runStop,
}

var modifyCmd = &cobra.Command{
	Use:   "modify <ref> [attr:value] [+tag] [-tag] ...",
	Short: "Change task attributes",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runModify,
}

var annotateCmd = &cobra.Command{
	Use:   "annotate <ref> <text>",
	Short: "Add a note to a task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runAnnotate,
}

var heroCmd = &cobra.Command{
	Use:   "hero",
	Short: "Show the hero sheet",
	Args:  cobra.NoArgs,
	RunE:  runHero,
}

func init() {
	listCmd.Flags().Int("limit", 0, "Max results (0 for all)")
	listCmd.Flags().String("preset", "", "Use a saved filter preset")

	nextCmd.Flags().Int("limit", 10, "Max results")

	deleteCmd.Flags().Bool("purge", false, "Remove the task permanently")

	annotateCmd.Flags().Bool("remove", false, "Remove the annotation instead of adding it")

	heroCmd.Flags().String("rename", "", "Rename the hero")
	heroCmd.Flags().Int("history", 5, "Number of recent XP awards to show")
	heroCmd.Flags().Bool("inbox", false, "Show unread notifications and mark them read")
}

func runAdd(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.Close()

	mod, err := service.ParseModification(args, s.svc.Now())
	if err != nil {
		return err
	}
	t, err := s.svc.Add(cmd.Context(), mod)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case t.ID > 0:
		fmt.Fprintf(out, "Created task %d.\n", t.ID)
	case t.Status == model.StatusRecurring:
		fmt.Fprintf(out, "Created recurring task %s.\n", short(t.UUID))
	default:
		fmt.Fprintf(out, "Created task %s (%s).\n", short(t.UUID), t.Status)
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	preset, _ := cmd.Flags().GetString("preset")

	s, err := openSession(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer s.Close()

	var tasks []model.Task
	if preset != "" {
		tasks, err = s.svc.ApplyPreset(cmd.Context(), preset)
		if err != nil {
			return err
		}
		if limit > 0 && len(tasks) > limit {
			tasks = tasks[:limit]
		}
	} else {
		f, err := filter.ParseExpression(strings.Join(args, " "), s.svc.Now())
		if err != nil {
			return err
		}
		f = f.WithDefaultStatus(model.StatusPending)
		if limit > 0 {
			f.Limit = limit
		}
		tasks, err = s.svc.List(cmd.Context(), f)
		if err != nil {
			return err
		}
	}

	writeTasks(cmd.OutOrStdout(), tasks, s.svc.Now())
	return nil
}

func runNext(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openSession(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer s.Close()

	f := filter.TaskFilter{
		Statuses: []model.Status{model.StatusPending},
		Limit:    limit,
	}
	tasks, err := s.svc.List(cmd.Context(), f)
	if err != nil {
		return err
	}
	writeTasks(cmd.OutOrStdout(), tasks, s.svc.Now())
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer s.Close()

	t, terms, err := s.svc.UrgencyBreakdown(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	writeInfo(cmd.OutOrStdout(), t, terms)
	return nil
}

func runDone(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.svc.Complete(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Completed %q. +%d XP\n", res.Task.Description, res.Reward.Total)
	if res.LevelUp.LevelsGained > 0 {
		fmt.Fprintf(out, "Level up! %s reached level %d.\n", res.Hero.Name, res.LevelUp.To)
		for _, st := range model.AllStats {
			if g := res.LevelUp.StatGains[st]; g > 0 {
				fmt.Fprintf(out, "  %s +%d\n", st, g)
			}
		}
	}
	for _, title := range res.LevelUp.Titles {
		fmt.Fprintf(out, "New title unlocked: %s\n", title)
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	purge, _ := cmd.Flags().GetBool("purge")

	s, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.Close()

	if purge {
		if err := s.svc.Purge(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Purged task %s.\n", args[0])
		return nil
	}

	t, err := s.svc.Delete(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q.\n", t.Description)
	return nil
}

func runStart(cmd *cobra.Command, args []string) error {
	return runTaskAction(cmd, args[0], "Started", (*service.Service).Start)
}

func runStop(cmd *cobra.Command, args []string) error {
	return runTaskAction(cmd, args[0], "Stopped", (*service.Service).Stop)
}

func runModify(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.Close()

	mod, err := service.ParseModification(args[1:], s.svc.Now())
	if err != nil {
		return err
	}
	if mod.IsZero() {
		return fmt.Errorf("no modifications given")
	}
	t, err := s.svc.Modify(cmd.Context(), args[0], mod)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Modified %q.\n", t.Description)
	return nil
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	remove, _ := cmd.Flags().GetBool("remove")

	s, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.Close()

	text := strings.Join(args[1:], " ")
	var t model.Task
	if remove {
		t, err = s.svc.Denotate(cmd.Context(), args[0], text)
	} else {
		t, err = s.svc.Annotate(cmd.Context(), args[0], text)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Annotated %q (%d notes).\n", t.Description, len(t.Annotations))
	return nil
}

func runTaskAction(cmd *cobra.Command, ref, verb string, fn func(*service.Service, context.Context, string) (model.Task, error)) error {
	s, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.Close()

	t, err := fn(s.svc, cmd.Context(), ref)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %q.\n", verb, t.Description)
	return nil
}
