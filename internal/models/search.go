// internal/models/search.go
package models

// SearchFilters are hard filters only. Nil or empty fields are not applied.
type SearchFilters struct {
	Universities      []string      `json:"universities,omitempty" validate:"omitempty,max=50,dive,required"`
	Majors            []string      `json:"majors,omitempty" validate:"omitempty,max=50,dive,required"`
	DegreeLevels      []DegreeLevel `json:"degreeLevels,omitempty" validate:"omitempty,dive,oneof=bachelor master phd"`
	GraduationYearMin *int          `json:"graduationYearMin,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	GraduationYearMax *int          `json:"graduationYearMax,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	MinRating         *float64      `json:"minRating,omitempty" validate:"omitempty,gte=0,lte=5"`
	MinSessions       *int          `json:"minSessions,omitempty" validate:"omitempty,gte=0"`
	Specialties       []string      `json:"specialties,omitempty" validate:"omitempty,max=50,dive,required"`
	Languages         []string      `json:"languages,omitempty" validate:"omitempty,max=50,dive,required"`
}

type Page struct {
	Limit  int `json:"limit" validate:"gte=1,lte=100"`
	Offset int `json:"offset" validate:"gte=0"`
}

type RecommendContext string

const (
	ContextHomepage RecommendContext = "homepage"
	ContextSearch   RecommendContext = "search"
	ContextProfile  RecommendContext = "profile"
	ContextService  RecommendContext = "service"
)

type RecommendInput struct {
	Context         RecommendContext `json:"context" validate:"required,oneof=homepage search profile service"`
	CallerID        string           `json:"callerId,omitempty"`
	Preferences     *MatchRequest    `json:"preferences,omitempty"`
	ServiceCategory string           `json:"serviceCategory,omitempty"`
	Limit           int              `json:"limit" validate:"gte=0,lte=100"`
	ExcludeIDs      []string         `json:"excludeIds,omitempty"`
}
