// internal/cli/criteria.go
package cli

import (
	"mentor-match-workers/internal/models"

	"github.com/spf13/cobra"
)

type criteriaFlags struct {
	universities []string
	majors       []string
	degree       string
	languages    []string
	specialties  []string
}

func (c *criteriaFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSliceVar(&c.universities, "university", nil, "target university (repeatable)")
	f.StringSliceVar(&c.majors, "major", nil, "target major (repeatable)")
	f.StringVar(&c.degree, "degree", "", "degree level: bachelor, master or phd")
	f.StringSliceVar(&c.languages, "language", nil, "preferred language (repeatable)")
	f.StringSliceVar(&c.specialties, "specialty", nil, "service category (repeatable)")
}

func (c *criteriaFlags) request() models.MatchRequest {
	return models.MatchRequest{
		TargetUniversities: c.universities,
		TargetMajors:       c.majors,
		DegreeLevel:        models.DegreeLevel(c.degree),
		PreferredLanguages: c.languages,
		ServiceCategories:  c.specialties,
	}
}
