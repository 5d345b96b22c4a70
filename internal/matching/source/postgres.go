// internal/matching/source/postgres.go
package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mentor-match-workers/internal/common/logger"
	"mentor-match-workers/internal/matching/scoring"
	"mentor-match-workers/internal/models"
)

// PostgresSource pushes scoring into a single query generated from the same
// tier table the in-process scorer uses.
type PostgresSource struct {
	db     *sql.DB
	logger logger.Logger
	query  string
	limit  int
}

type PostgresOptions struct {
	Weights            scoring.Weights
	UseAuxiliaryTables bool
	Limit              int
}

func NewPostgresSource(db *sql.DB, log logger.Logger, opts PostgresOptions) *PostgresSource {
	if opts.Limit <= 0 || opts.Limit > DefaultLimit {
		opts.Limit = DefaultLimit
	}
	if opts.Weights.RatingScale == 0 {
		opts.Weights = scoring.DefaultWeights
	}
	return &PostgresSource{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"source": "postgres"}),
		query:  BuildRankingQuery(opts.Weights, opts.UseAuxiliaryTables),
		limit:  opts.Limit,
	}
}

func (s *PostgresSource) Name() string { return "postgres" }

func (s *PostgresSource) FetchScoredCandidates(ctx context.Context, req models.MatchRequest) ([]models.ScoredCandidate, error) {
	rows, err := s.db.QueryContext(ctx, s.query, RankingArgs(req, s.limit)...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCandidateFetchFailed, err)
	}
	defer rows.Close()

	out := make([]models.ScoredCandidate, 0, s.limit)
	for rows.Next() {
		var b models.ScoreBreakdown
		c, err := ScanCandidate(rows,
			&b.UniversityMatch, &b.MajorMatch, &b.DegreeMatch, &b.RatingScore,
			&b.LanguageMatch, &b.ExperienceBonus, &b.SpecialtyBonus, &b.TotalScore,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrCandidateFetchFailed, err)
		}
		out = append(out, models.ScoredCandidate{Candidate: c, Score: b})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCandidateFetchFailed, err)
	}

	s.logger.Debug("scored candidates fetched", map[string]interface{}{"count": len(out)})
	return out, nil
}

func (s *PostgresSource) GetCandidate(ctx context.Context, id string) (*models.CandidateProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM mentors m WHERE m.id = $1 AND m.verification_status = $2`, SelectList())
	c, err := ScanCandidate(s.db.QueryRowContext(ctx, query, id, string(models.VerificationVerified)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrCandidateNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCandidateFetchFailed, err)
	}
	return &c, nil
}

// LoadTables reads the optional ranking and category tables into memory so
// the in-process scorer can apply the same sub-tiers as the SQL path.
func LoadTables(ctx context.Context, db *sql.DB) (*scoring.Tables, error) {
	ranks := map[string]int{}
	rows, err := db.QueryContext(ctx, `SELECT university_name, rank FROM university_rankings`)
	if err != nil {
		return nil, fmt.Errorf("load university_rankings: %w", err)
	}
	for rows.Next() {
		var name string
		var rank int
		if err := rows.Scan(&name, &rank); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan university_rankings: %w", err)
		}
		ranks[name] = rank
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	categories := map[string]string{}
	rows, err = db.QueryContext(ctx, `SELECT major_name, category FROM major_categories`)
	if err != nil {
		return nil, fmt.Errorf("load major_categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var major, category string
		if err := rows.Scan(&major, &category); err != nil {
			return nil, fmt.Errorf("scan major_categories: %w", err)
		}
		categories[major] = category
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return scoring.NewTables(ranks, categories), nil
}
