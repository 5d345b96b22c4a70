// internal/cli/root.go
package cli

import (
	"fmt"
	"io"

	"mentor-match-workers/internal/common/logger"
	"mentor-match-workers/internal/matching/ranking"
	"mentor-match-workers/internal/matching/scoring"
	"mentor-match-workers/internal/matching/source"
	"mentor-match-workers/internal/models"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var version = "dev"

// SetVersion is called from main with the build version.
func SetVersion(v string) { version = v }

type globalFlags struct {
	candidates     string
	output         string
	fuzzyThreshold float64
	verbose        bool
}

// NewRootCmd builds the matchctl command tree writing to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "matchctl",
		Short: "Rank, search and explain mentor matches offline",
		Long: `matchctl runs the mentor ranking engine against a JSON file of mentor
profiles, so scoring changes can be checked without a database.

Examples:
  matchctl rank --candidates mentors.json --university "Stanford University" --major "Computer Science"
  matchctl search --candidates mentors.json --major Law --min-rating 4
  matchctl explain m-42 --candidates mentors.json --degree master
  matchctl registry validate`,
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(out)

	root.PersistentFlags().StringVar(&g.candidates, "candidates", "", "JSON file holding an array of mentor profiles")
	root.PersistentFlags().StringVarP(&g.output, "output", "o", "table", "output format (table, json)")
	root.PersistentFlags().Float64Var(&g.fuzzyThreshold, "fuzzy-threshold", 0.8, "minimum similarity ratio for the fuzzy major tier")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log engine diagnostics to stderr")

	root.AddCommand(
		newRankCmd(g),
		newSearchCmd(g),
		newExplainCmd(g),
		newRegistryCmd(g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "matchctl %s\n", version)
			},
		},
	)
	return root
}

// Execute runs matchctl against os.Args.
func Execute(out io.Writer) error {
	return NewRootCmd(out).Execute()
}

func (g *globalFlags) loadCandidates() ([]models.CandidateProfile, error) {
	if g.candidates == "" {
		return nil, fmt.Errorf("--candidates is required")
	}
	return source.LoadCandidatesFile(g.candidates)
}

func (g *globalFlags) logger() logger.Logger {
	if g.verbose {
		return logger.NewStructured("debug", "console", "stderr")
	}
	return logger.NewNoOpLogger()
}

func (g *globalFlags) engine(candidates []models.CandidateProfile) *ranking.Engine {
	scorer := scoring.NewScorer(scoring.WithFuzzyThreshold(g.fuzzyThreshold))
	src := source.NewStaticSource(candidates, scorer, 4)
	return ranking.NewEngine(src, src, scorer, nil, g.logger(), ranking.Options{})
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
