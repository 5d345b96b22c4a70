// internal/matching/scoring/weights.go
package scoring

// ExperienceTier awards Bonus once a mentor has at least MinSessions sessions.
type ExperienceTier struct {
	MinSessions int
	Bonus       float64
}

// Weights is the tier table. Both the in-process scorer and the generated SQL
// read from it, so a weight only ever changes here.
type Weights struct {
	UniversityExact     float64
	UniversitySubstring float64
	UniversityTier      float64
	// UniversityTierWindow is the max rank distance for two universities to be peers.
	UniversityTierWindow int

	MajorExact    float64
	MajorRelated  float64
	MajorCategory float64
	MajorFuzzy    float64
	// FuzzyThreshold is the minimum similarity ratio for MajorFuzzy.
	FuzzyThreshold float64

	DegreeExact    float64
	DegreeAdjacent float64

	RatingWeight float64
	RatingScale  float64

	LanguageNoPreference float64
	LanguageFull         float64
	LanguagePartial      float64

	// Experience must be ordered by MinSessions descending.
	Experience []ExperienceTier

	Specialty float64
}

var DefaultWeights = Weights{
	UniversityExact:      0.30,
	UniversitySubstring:  0.20,
	UniversityTier:       0.15,
	UniversityTierWindow: 50,

	MajorExact:     0.25,
	MajorRelated:   0.18,
	MajorCategory:  0.12,
	MajorFuzzy:     0.08,
	FuzzyThreshold: 0.8,

	DegreeExact:    0.20,
	DegreeAdjacent: 0.10,

	RatingWeight: 0.15,
	RatingScale:  5.0,

	LanguageNoPreference: 0.10,
	LanguageFull:         0.10,
	LanguagePartial:      0.08,

	Experience: []ExperienceTier{
		{MinSessions: 50, Bonus: 0.05},
		{MinSessions: 20, Bonus: 0.03},
		{MinSessions: 5, Bonus: 0.01},
	},

	Specialty: 0.05,
}

// MaxTotal is the best possible total score under w.
func (w Weights) MaxTotal() float64 {
	best := w.UniversityExact + w.MajorExact + w.DegreeExact + w.RatingWeight + w.Specialty
	lang := w.LanguageNoPreference
	if w.LanguageFull > lang {
		lang = w.LanguageFull
	}
	best += lang
	if len(w.Experience) > 0 {
		best += w.Experience[0].Bonus
	}
	return round(best)
}

// ExperienceBonus returns the bonus for the first tier the session count reaches.
func (w Weights) ExperienceBonus(sessions int) float64 {
	for _, tier := range w.Experience {
		if sessions >= tier.MinSessions {
			return tier.Bonus
		}
	}
	return 0
}

// RatingScore scales a rating clamped to [0, RatingScale] onto [0, RatingWeight].
func (w Weights) RatingScore(rating float64) float64 {
	if rating < 0 {
		rating = 0
	}
	if rating > w.RatingScale {
		rating = w.RatingScale
	}
	if w.RatingScale == 0 {
		return 0
	}
	return round(rating / w.RatingScale * w.RatingWeight)
}
