// Package cli implements the taskgeek command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/app"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/service"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/store"
	appsync "github.com/137-reciprocal/TaskGeek-sub001/internal/sync"
)

// configEnv overrides the default configuration path.
const configEnv = "TASKGEEK_CONFIG"

var (
	configFlag string
	rootCmd    *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "taskgeek",
		Short: "TaskGeek - a task manager that levels you up",
		Long: `TaskGeek tracks tasks with Taskwarrior-style urgency and filters,
and rewards completed work with XP, levels and titles.

Run without a subcommand to open the interactive interface.`,
		RunE:          runTUI,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (default ~/.config/taskgeek/config.yaml)")
}

var registerOnce sync.Once

// register attaches the subcommands to the root command.
func register() {
	registerOnce.Do(func() {
		rootCmd.AddCommand(addCmd)
		rootCmd.AddCommand(listCmd)
		rootCmd.AddCommand(nextCmd)
		rootCmd.AddCommand(infoCmd)
		rootCmd.AddCommand(doneCmd)
		rootCmd.AddCommand(deleteCmd)
		rootCmd.AddCommand(startCmd)
		rootCmd.AddCommand(stopCmd)
		rootCmd.AddCommand(modifyCmd)
		rootCmd.AddCommand(annotateCmd)
		rootCmd.AddCommand(heroCmd)
		rootCmd.AddCommand(reportCmd)
		rootCmd.AddCommand(exportCmd)
		rootCmd.AddCommand(importCmd)
		rootCmd.AddCommand(backupCmd)
		rootCmd.AddCommand(configCmd)
		rootCmd.AddCommand(presetCmd)
	})
}

// Execute runs the root command.
func Execute(version string) error {
	register()

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// configPath resolves the config file: --config, then $TASKGEEK_CONFIG,
// then the default location.
func configPath() string {
	if configFlag != "" {
		return configFlag
	}
	if p := os.Getenv(configEnv); p != "" {
		return p
	}
	return model.DefaultConfigPath()
}

// session bundles what a command needs to talk to the task database.
type session struct {
	cfg   *model.AppConfig
	path  string
	store *store.SQLiteStore
	svc   *service.Service
}

func (s *session) Close() error {
	return s.store.Close()
}

// openSession loads the configuration and opens the database. When
// housekeep is set, one maintenance pass runs first so that waiting and
// recurring tasks are current.
func openSession(ctx context.Context, housekeep bool) (*session, error) {
	path := configPath()
	cfg, err := model.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	st, err := store.NewSQLiteStore(cfg.Data.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	svc := service.New(st, cfg, service.WithConfigPath(path))
	if housekeep {
		if _, err := svc.Housekeep(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("housekeeping: %w", err)
		}
	}
	return &session{cfg: cfg, path: path, store: st, svc: svc}, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.Close()

	logPath := filepath.Join(filepath.Dir(s.cfg.Data.DBPath), "taskgeek.log")
	f, err := tea.LogToFile(logPath, "taskgeek")
	if err != nil {
		log.SetOutput(io.Discard)
	} else {
		defer f.Close()
	}

	interval := time.Duration(s.cfg.Scheduler.IntervalSec) * time.Second
	sched := appsync.New(s.svc, interval)
	defer sched.Stop()

	p := tea.NewProgram(app.New(s.svc, sched), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running interface: %w", err)
	}
	return nil
}
