package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/export"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/filter"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write tasks as CSV, Taskwarrior JSON or YAML",
}

var exportCSVCmd = &cobra.Command{
	Use:   "csv [filter]",
	Short: "Export tasks as CSV",
	RunE:  runExport(export.WriteCSV),
}

var exportJSONCmd = &cobra.Command{
	Use:   "json [filter]",
	Short: "Export tasks in Taskwarrior JSON format",
	RunE:  runExport(export.WriteJSON),
}

var exportYAMLCmd = &cobra.Command{
	Use:   "yaml [filter]",
	Short: "Export tasks as YAML",
	RunE:  runExport(export.WriteYAML),
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import tasks from a Taskwarrior JSON export",
	Long: `Import tasks from a Taskwarrior JSON export. Both a JSON array and one
object per line are accepted. Tasks with a known UUID are replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	exportCmd.AddCommand(exportCSVCmd)
	exportCmd.AddCommand(exportJSONCmd)
	exportCmd.AddCommand(exportYAMLCmd)

	exportCmd.PersistentFlags().StringP("output", "o", "", "Write to file instead of stdout")
}

// runExport builds a RunE that writes the tasks matching the filter
// arguments with write. Without a status in the filter every task is
// exported.
func runExport(write func(io.Writer, []model.Task) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		s, err := openSession(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer s.Close()

		f, err := filter.ParseExpression(strings.Join(args, " "), s.svc.Now())
		if err != nil {
			return err
		}
		tasks, err := s.svc.List(cmd.Context(), f)
		if err != nil {
			return err
		}

		if output == "" {
			return write(cmd.OutOrStdout(), tasks)
		}

		file, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		if err := write(file, tasks); err != nil {
			file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d task(s) to %s\n", len(tasks), output)
		return nil
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.Close()

	tasks, err := export.FromJSON(args[0], s.svc.Now())
	if err != nil {
		return err
	}
	if err := s.store.ImportTasks(cmd.Context(), tasks); err != nil {
		return fmt.Errorf("importing: %w", err)
	}
	if _, err := s.svc.Housekeep(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d task(s).\n", len(tasks))
	return nil
}
