// internal/cli/rank.go
package cli

import (
	"fmt"
	"strconv"

	"mentor-match-workers/internal/models"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newRankCmd(g *globalFlags) *cobra.Command {
	var (
		criteria criteriaFlags
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank mentors for a set of target criteria",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates, err := g.loadCandidates()
			if err != nil {
				return err
			}
			result, err := g.engine(candidates).Rank(cmd.Context(), criteria.request())
			if err != nil {
				return err
			}
			result = result.Top(limit)

			if g.output == "json" {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			if len(result) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No verified mentors found.")
				return nil
			}
			renderScores(cmd, result)
			return nil
		},
	}
	criteria.bind(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of results to print")
	return cmd
}

func renderScores(cmd *cobra.Command, result models.MatchResult) {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("#", "Mentor", "University", "Major", "Uni", "Major", "Degree", "Rating", "Lang", "Exp", "Spec", "Total")
	for i, sc := range result {
		s := sc.Score
		table.Append([]string{
			strconv.Itoa(i + 1),
			sc.Candidate.ID,
			sc.Candidate.University,
			sc.Candidate.Major,
			score(s.UniversityMatch),
			score(s.MajorMatch),
			score(s.DegreeMatch),
			score(s.RatingScore),
			score(s.LanguageMatch),
			score(s.ExperienceBonus),
			score(s.SpecialtyBonus),
			score(s.TotalScore),
		})
	}
	table.Render()
}

func score(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
