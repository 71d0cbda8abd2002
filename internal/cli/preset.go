package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage saved filter presets",
}

var presetSaveCmd = &cobra.Command{
	Use:     "save <name> <filter>",
	Short:   "Save a filter expression under a name",
	Example: `  taskgeek preset save today due.before:tomorrow +PENDING`,
	Args:    cobra.MinimumNArgs(2),
	RunE:    runPresetSave,
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved presets",
	Args:  cobra.NoArgs,
	RunE:  runPresetList,
}

var presetDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetDelete,
}

func init() {
	presetCmd.AddCommand(presetSaveCmd)
	presetCmd.AddCommand(presetListCmd)
	presetCmd.AddCommand(presetDeleteCmd)
}

func runPresetSave(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.Close()

	expr := strings.Join(args[1:], " ")
	if err := s.svc.SavePreset(cmd.Context(), args[0], expr); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved preset %q: %s\n", args[0], expr)
	return nil
}

func runPresetList(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.Close()

	presets, err := s.svc.Presets(cmd.Context())
	if err != nil {
		return err
	}
	if len(presets) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No presets.")
		return nil
	}

	t := newTable("Name", "Filter", "Created")
	for _, p := range presets {
		t.Row(p.Name, p.Expression, p.CreatedAt.Local().Format(dateLayout))
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.String())
	return nil
}

func runPresetDelete(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.svc.DeletePreset(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted preset %q.\n", args[0])
	return nil
}
