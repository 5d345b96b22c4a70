// internal/cli/explain.go
package cli

import (
	"mentor-match-workers/internal/models"

	"github.com/spf13/cobra"
)

func newExplainCmd(g *globalFlags) *cobra.Command {
	var criteria criteriaFlags
	cmd := &cobra.Command{
		Use:   "explain <mentor-id>",
		Short: "Show the per-factor score of one mentor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates, err := g.loadCandidates()
			if err != nil {
				return err
			}
			scored, err := g.engine(candidates).Explain(cmd.Context(), args[0], criteria.request())
			if err != nil {
				return err
			}
			if g.output == "json" {
				return writeJSON(cmd.OutOrStdout(), scored)
			}
			renderScores(cmd, models.MatchResult{*scored})
			return nil
		},
	}
	criteria.bind(cmd)
	return cmd
}
