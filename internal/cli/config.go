package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the configuration file path",
	Args:  cobra.NoArgs,
	Run:   runConfigPath,
}

var configSetUrgencyCmd = &cobra.Command{
	Use:   "set-urgency <name> <value>",
	Short: "Change an urgency coefficient",
	Long: `Change an urgency coefficient and re-score every task.

Scalar names: priority_high, priority_medium, priority_low, next_tag, due,
blocking, blocked, scheduled, active, age, age_max_days, annotations, tags,
project, waiting.

Per-item weights use a prefix: tag.<name>, project.<name>, uda.<name>.`,
	Example: `  taskgeek config set-urgency due 15
  taskgeek config set-urgency tag.someday -5`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSetUrgency,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetUrgencyCmd)

	configShowCmd.Flags().Bool("urgency", false, "Show only the urgency coefficients")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	onlyUrgency, _ := cmd.Flags().GetBool("urgency")

	cfg, err := model.LoadConfig(configPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out := cmd.OutOrStdout()
	if onlyUrgency {
		coeffs := cfg.Urgency.Coefficients()
		names := make([]string, 0, len(coeffs))
		for name := range coeffs {
			names = append(names, name)
		}
		sort.Strings(names)

		t := newTable("Coefficient", "Value")
		for _, name := range names {
			t.Row(name, strconv.FormatFloat(coeffs[name], 'f', -1, 64))
		}
		for _, group := range []struct {
			prefix  string
			weights map[string]float64
		}{
			{"tag.", cfg.Urgency.TagCoefficients},
			{"project.", cfg.Urgency.ProjectCoefficients},
			{"uda.", cfg.Urgency.UDACoefficients},
		} {
			keys := make([]string, 0, len(group.weights))
			for k := range group.weights {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				t.Row(group.prefix+k, strconv.FormatFloat(group.weights[k], 'f', -1, 64))
			}
		}
		fmt.Fprintln(out, t.String())
		return nil
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprintf(out, "# %s\n", configPath())
	fmt.Fprint(out, string(data))
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) {
	fmt.Fprintln(cmd.OutOrStdout(), configPath())
}

func runConfigSetUrgency(cmd *cobra.Command, args []string) error {
	value, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid value %q: %w", args[1], err)
	}

	s, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.Close()

	next, err := withUrgency(s.svc.Config().Urgency, args[0], value)
	if err != nil {
		return err
	}
	if err := s.svc.SetUrgencyConfig(cmd.Context(), next); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set urgency %s = %v in %s\n", args[0], value, s.path)
	return nil
}

// withUrgency applies one named coefficient to cfg. Prefixed names set
// per-tag, per-project or per-UDA weights.
func withUrgency(cfg model.UrgencyConfig, name string, value float64) (model.UrgencyConfig, error) {
	kind, key, ok := strings.Cut(name, ".")
	if !ok {
		return cfg.WithCoefficient(name, value)
	}
	if key == "" {
		return cfg, fmt.Errorf("missing name after %q", kind+".")
	}
	switch kind {
	case "tag":
		return cfg.WithTagCoefficient(key, value)
	case "project":
		return cfg.WithProjectCoefficient(key, value)
	case "uda":
		return cfg.WithUDACoefficient(key, value)
	}
	return cfg, fmt.Errorf("unknown urgency coefficient %q", name)
}
