// internal/cli/registry.go
package cli

import (
	"fmt"
	"strings"

	"mentor-match-workers/internal/common/validation"
	"mentor-match-workers/pkg/registry"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newRegistryCmd(g *globalFlags) *cobra.Command {
	var file string
	load := func() (*registry.ActivityRegistry, error) {
		if file == "" {
			return registry.Default(), nil
		}
		return registry.LoadRegistry(file)
	}

	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the activity registry the workers validate against",
	}
	cmd.PersistentFlags().StringVar(&file, "file", "", "registry JSON file (default: the embedded registry)")

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check ids, task types, timeouts and that every input schema compiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := load()
			if err != nil {
				return err
			}
			problems := reg.Validate()
			for i := range reg.Activities {
				a := &reg.Activities[i]
				raw, err := a.InputSchemaJSON()
				if err == nil {
					_, err = validation.CompileSchema(raw)
				}
				if err != nil {
					problems = append(problems, fmt.Errorf("activity %s: %w", a.ID, err))
				}
			}
			for _, p := range problems {
				fmt.Fprintf(cmd.OutOrStdout(), "  - %v\n", p)
			}
			if len(problems) > 0 {
				return fmt.Errorf("registry has %d problem(s)", len(problems))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registry %s: %d activities OK\n", reg.Version, len(reg.Activities))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := load()
			if err != nil {
				return err
			}
			if g.output == "json" {
				return writeJSON(cmd.OutOrStdout(), reg.Activities)
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Task Type", "Timeout", "Retries", "Errors", "Workflows")
			for _, a := range reg.Activities {
				table.Append([]string{a.TaskType, a.Timeout, fmt.Sprint(a.Retries),
					strings.Join(a.ErrorCodes, ", "), strings.Join(a.Workflows, ", ")})
			}
			table.Render()
			return nil
		},
	})
	return cmd
}
