// internal/matching/scoring/scorer.go
package scoring

import (
	"context"
	"math"
	"sort"

	"mentor-match-workers/internal/matching/similarity"
	"mentor-match-workers/internal/models"

	"golang.org/x/sync/errgroup"
)

// Tables holds the optional auxiliary lookups. Keys are normalized names.
// A nil Tables disables the "same tier" and "same category" sub-tiers.
type Tables struct {
	UniversityRanks map[string]int
	MajorCategories map[string]string
}

func NewTables(ranks map[string]int, categories map[string]string) *Tables {
	t := &Tables{
		UniversityRanks: make(map[string]int, len(ranks)),
		MajorCategories: make(map[string]string, len(categories)),
	}
	for name, rank := range ranks {
		t.UniversityRanks[similarity.Normalize(name)] = rank
	}
	for major, category := range categories {
		t.MajorCategories[similarity.Normalize(major)] = similarity.Normalize(category)
	}
	return t
}

type Scorer struct {
	weights Weights
	tables  *Tables
}

type Option func(*Scorer)

func WithWeights(w Weights) Option {
	return func(s *Scorer) { s.weights = w }
}

func WithTables(t *Tables) Option {
	return func(s *Scorer) { s.tables = t }
}

func WithFuzzyThreshold(threshold float64) Option {
	return func(s *Scorer) {
		if threshold > 0 && threshold <= 1 {
			s.weights.FuzzyThreshold = threshold
		}
	}
}

func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{weights: DefaultWeights}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scorer) Weights() Weights {
	return s.weights
}

var defaultScorer = NewScorer()

// Score computes the breakdown with default weights and no auxiliary tables.
func Score(c models.CandidateProfile, r models.MatchRequest) models.ScoreBreakdown {
	return defaultScorer.Score(c, r)
}

// criteria is a MatchRequest normalized once per ranking call.
type criteria struct {
	universities  []string
	universitySet map[string]struct{}
	majors        []string
	majorSet      map[string]struct{}
	degree        string
	languages     []string
	specialties   map[string]struct{}
}

func newCriteria(r models.MatchRequest) *criteria {
	c := &criteria{
		universities: similarity.NormalizeAll(r.TargetUniversities),
		majors:       similarity.NormalizeAll(r.TargetMajors),
		degree:       similarity.Normalize(string(r.DegreeLevel)),
		languages:    similarity.NormalizeAll(r.PreferredLanguages),
	}
	c.universitySet = toSet(c.universities)
	c.majorSet = toSet(c.majors)
	c.specialties = toSet(similarity.NormalizeAll(r.ServiceCategories))
	return c
}

// Score is pure and deterministic.
func (s *Scorer) Score(c models.CandidateProfile, r models.MatchRequest) models.ScoreBreakdown {
	return s.score(c, newCriteria(r))
}

func (s *Scorer) score(c models.CandidateProfile, cr *criteria) models.ScoreBreakdown {
	b := models.ScoreBreakdown{
		UniversityMatch: s.universityMatch(similarity.Normalize(c.University), cr),
		MajorMatch:      s.majorMatch(similarity.Normalize(c.Major), cr),
		DegreeMatch:     s.degreeMatch(similarity.Normalize(string(c.DegreeLevel)), cr),
		RatingScore:     s.weights.RatingScore(c.RatingValue()),
		LanguageMatch:   s.languageMatch(c.Languages, cr),
		ExperienceBonus: s.weights.ExperienceBonus(c.TotalSessions),
		SpecialtyBonus:  s.specialtyBonus(c.Specialties, cr),
	}
	b.TotalScore = Total(b)
	return b
}

// Total sums the seven sub-scores.
func Total(b models.ScoreBreakdown) float64 {
	return round(b.UniversityMatch + b.MajorMatch + b.DegreeMatch + b.RatingScore +
		b.LanguageMatch + b.ExperienceBonus + b.SpecialtyBonus)
}

func (s *Scorer) universityMatch(uni string, cr *criteria) float64 {
	if uni == "" || len(cr.universities) == 0 {
		return 0
	}
	if _, ok := cr.universitySet[uni]; ok {
		return s.weights.UniversityExact
	}
	for _, target := range cr.universities {
		if similarity.IsSubstringMatch(uni, target) {
			return s.weights.UniversitySubstring
		}
	}
	if s.samePeerTier(uni, cr.universities) {
		return s.weights.UniversityTier
	}
	return 0
}

func (s *Scorer) samePeerTier(uni string, targets []string) bool {
	if s.tables == nil || len(s.tables.UniversityRanks) == 0 {
		return false
	}
	rank, ok := s.tables.UniversityRanks[uni]
	if !ok {
		return false
	}
	for _, target := range targets {
		if tr, ok := s.tables.UniversityRanks[target]; ok {
			if abs(rank-tr) <= s.weights.UniversityTierWindow {
				return true
			}
		}
	}
	return false
}

func (s *Scorer) majorMatch(major string, cr *criteria) float64 {
	if major == "" || len(cr.majors) == 0 {
		return 0
	}
	if _, ok := cr.majorSet[major]; ok {
		return s.weights.MajorExact
	}
	for _, target := range cr.majors {
		if similarity.AreRelatedMajors(major, target) {
			return s.weights.MajorRelated
		}
	}
	if s.sameCategory(major, cr.majors) {
		return s.weights.MajorCategory
	}
	for _, target := range cr.majors {
		if similarity.IsSubstringMatch(major, target) ||
			similarity.StringSimilarity(major, target) >= s.weights.FuzzyThreshold {
			return s.weights.MajorFuzzy
		}
	}
	return 0
}

func (s *Scorer) sameCategory(major string, targets []string) bool {
	if s.tables == nil || len(s.tables.MajorCategories) == 0 {
		return false
	}
	category, ok := s.tables.MajorCategories[major]
	if !ok || category == "" {
		return false
	}
	for _, target := range targets {
		if s.tables.MajorCategories[target] == category {
			return true
		}
	}
	return false
}

func (s *Scorer) degreeMatch(degree string, cr *criteria) float64 {
	if cr.degree == "" || degree == "" {
		return 0
	}
	if degree == cr.degree {
		return s.weights.DegreeExact
	}
	if similarity.AreAdjacentDegrees(degree, cr.degree) {
		return s.weights.DegreeAdjacent
	}
	return 0
}

func (s *Scorer) languageMatch(languages []string, cr *criteria) float64 {
	if len(cr.languages) == 0 {
		return s.weights.LanguageNoPreference
	}
	spoken := toSet(similarity.NormalizeAll(languages))
	matched := 0
	for _, lang := range cr.languages {
		if _, ok := spoken[lang]; ok {
			matched++
		}
	}
	switch {
	case matched == len(cr.languages):
		return s.weights.LanguageFull
	case matched > 0:
		return s.weights.LanguagePartial
	default:
		return 0
	}
}

func (s *Scorer) specialtyBonus(specialties []string, cr *criteria) float64 {
	if len(cr.specialties) == 0 {
		return 0
	}
	for _, sp := range similarity.NormalizeAll(specialties) {
		if _, ok := cr.specialties[sp]; ok {
			return s.weights.Specialty
		}
	}
	return 0
}

// ScoreMany scores every candidate against r, fanning out over at most
// concurrency goroutines. Output order matches input order.
func (s *Scorer) ScoreMany(ctx context.Context, candidates []models.CandidateProfile, r models.MatchRequest, concurrency int) ([]models.ScoredCandidate, error) {
	cr := newCriteria(r)
	out := make([]models.ScoredCandidate, len(candidates))
	if concurrency <= 1 || len(candidates) < 2*concurrency {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i, c := range candidates {
			out[i] = models.ScoredCandidate{Candidate: c, Score: s.score(c, cr)}
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	chunk := (len(candidates) + concurrency - 1) / concurrency
	for start := 0; start < len(candidates); start += chunk {
		start, end := start, min(start+chunk, len(candidates))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				out[i] = models.ScoredCandidate{Candidate: candidates[i], Score: s.score(candidates[i], cr)}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// SortScored orders by total score, rating and session count (all descending),
// then by id so equal candidates keep a stable position.
func SortScored(list []models.ScoredCandidate) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Score.TotalScore != b.Score.TotalScore {
			return a.Score.TotalScore > b.Score.TotalScore
		}
		if ra, rb := a.Candidate.RatingValue(), b.Candidate.RatingValue(); ra != rb {
			return ra > rb
		}
		if a.Candidate.TotalSessions != b.Candidate.TotalSessions {
			return a.Candidate.TotalSessions > b.Candidate.TotalSessions
		}
		return a.Candidate.ID < b.Candidate.ID
	})
}

// round keeps four decimals so the in-process and SQL paths agree exactly.
func round(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
