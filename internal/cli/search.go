// internal/cli/search.go
package cli

import (
	"fmt"
	"strconv"

	"mentor-match-workers/internal/matching/search"
	"mentor-match-workers/internal/models"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newSearchCmd(g *globalFlags) *cobra.Command {
	var (
		filters     models.SearchFilters
		degrees     []string
		minRating   float64
		minSessions int
		yearMin     int
		yearMax     int
		page        models.Page
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "List verified mentors matching hard filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			for _, d := range degrees {
				filters.DegreeLevels = append(filters.DegreeLevels, models.DegreeLevel(d))
			}
			if flags.Changed("min-rating") {
				filters.MinRating = &minRating
			}
			if flags.Changed("min-sessions") {
				filters.MinSessions = &minSessions
			}
			if flags.Changed("year-min") {
				filters.GraduationYearMin = &yearMin
			}
			if flags.Changed("year-max") {
				filters.GraduationYearMax = &yearMax
			}
			if err := search.ValidateFilters(filters); err != nil {
				return err
			}

			candidates, err := g.loadCandidates()
			if err != nil {
				return err
			}
			mentors, err := search.NewStaticSearcher(candidates).
				Search(cmd.Context(), filters, search.NormalizePage(page, search.DefaultPageLimit))
			if err != nil {
				return err
			}

			if g.output == "json" {
				return writeJSON(cmd.OutOrStdout(), mentors)
			}
			if len(mentors) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No verified mentors match these filters.")
				return nil
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Mentor", "University", "Major", "Degree", "Rating", "Sessions")
			for _, m := range mentors {
				rating := "-"
				if m.Rating != nil {
					rating = strconv.FormatFloat(*m.Rating, 'f', 1, 64)
				}
				table.Append([]string{m.ID, m.University, m.Major, string(m.DegreeLevel), rating, strconv.Itoa(m.TotalSessions)})
			}
			table.Render()
			return nil
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&filters.Universities, "university", nil, "university (repeatable)")
	f.StringSliceVar(&filters.Majors, "major", nil, "major (repeatable)")
	f.StringSliceVar(&degrees, "degree", nil, "degree level (repeatable)")
	f.StringSliceVar(&filters.Languages, "language", nil, "language the mentor must speak (repeatable)")
	f.StringSliceVar(&filters.Specialties, "specialty", nil, "specialty (repeatable)")
	f.Float64Var(&minRating, "min-rating", 0, "minimum rating")
	f.IntVar(&minSessions, "min-sessions", 0, "minimum completed sessions")
	f.IntVar(&yearMin, "year-min", 0, "earliest graduation year")
	f.IntVar(&yearMax, "year-max", 0, "latest graduation year")
	f.IntVarP(&page.Limit, "limit", "n", search.DefaultPageLimit, "page size")
	f.IntVar(&page.Offset, "offset", 0, "page offset")
	return cmd
}
