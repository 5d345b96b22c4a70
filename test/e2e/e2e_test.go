// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentor-match-workers/internal/api"
	"mentor-match-workers/internal/common/config"
	"mentor-match-workers/internal/common/logger"
	"mentor-match-workers/internal/matching/lifecycle"
	"mentor-match-workers/internal/matching/ranking"
	"mentor-match-workers/internal/matching/recommend"
	"mentor-match-workers/internal/matching/scoring"
	"mentor-match-workers/internal/matching/search"
	"mentor-match-workers/internal/matching/service"
	"mentor-match-workers/internal/matching/source"
	"mentor-match-workers/internal/models"
)

// ==========================
// Fixtures
// ==========================

func ptr[T any](v T) *T { return &v }

var fixtureMentors = []models.CandidateProfile{
	{ID: "m-01", University: "Stanford University", Major: "Computer Science", DegreeLevel: models.DegreeMaster,
		Rating: ptr(4.8), TotalSessions: 120, Languages: []string{"English", "Spanish"}, Specialties: []string{"essay review"},
		VerificationStatus: models.VerificationVerified, GraduationYear: ptr(2019)},
	{ID: "m-02", University: "Stanford", Major: "Software Engineering", DegreeLevel: models.DegreePhD,
		Rating: ptr(4.5), TotalSessions: 60, Languages: []string{"English"},
		VerificationStatus: models.VerificationVerified, GraduationYear: ptr(2015)},
	{ID: "m-03", University: "MIT", Major: "Physics", DegreeLevel: models.DegreeBachelor,
		Rating: ptr(4.9), TotalSessions: 15, Languages: []string{"Mandarin"},
		VerificationStatus: models.VerificationVerified, GraduationYear: ptr(2021)},
	{ID: "m-04", University: "Oxford University", Major: "Law", DegreeLevel: models.DegreeMaster,
		Rating: nil, TotalSessions: 0, Languages: []string{"English", "French"}, Specialties: []string{"interview prep"},
		VerificationStatus: models.VerificationVerified},
	{ID: "m-05", University: "Stanford University", Major: "Computer Science", DegreeLevel: models.DegreeMaster,
		Rating: ptr(5.0), TotalSessions: 500, Languages: []string{"English"},
		VerificationStatus: models.VerificationPending},
	{ID: "m-06", University: "Harvard University", Major: "Economics", DegreeLevel: models.DegreeMaster,
		Rating: ptr(3.9), TotalSessions: 25, Languages: []string{"english"},
		VerificationStatus: models.VerificationRejected},
}

var fixtureRequests = map[string]models.MatchRequest{
	"full": {
		TargetUniversities: []string{"Stanford University"},
		TargetMajors:       []string{"Computer Science"},
		DegreeLevel:        models.DegreeMaster,
		PreferredLanguages: []string{"English", "Spanish"},
		ServiceCategories:  []string{"Essay Review"},
	},
	"related-major": {
		TargetMajors: []string{"Computer Science"},
		DegreeLevel:  models.DegreePhD,
	},
	"languages-only": {
		PreferredLanguages: []string{"French", "German"},
	},
	"empty": {},
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.MatchCompletedEvent
}

func (p *recordingPublisher) PublishMatchCompleted(ctx context.Context, e models.MatchCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func postJSON(t *testing.T, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

// ==========================
// HTTP flow over the in-process backend
// ==========================

func TestHTTPMatchingFlow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	log := logger.NewTestLogger(t)
	scorer := scoring.NewScorer()
	src := source.NewStaticSource(fixtureMentors, scorer, 4)
	engine := ranking.NewEngine(src, src, scorer, nil, log, ranking.Options{})
	homepage := recommend.StrategyFunc(func(ctx context.Context, in models.RecommendInput) ([]models.CandidateProfile, error) {
		return search.NewStaticSearcher(fixtureMentors).Search(ctx, models.SearchFilters{}, models.Page{Limit: in.Limit})
	})
	needs := recommend.NewLearningNeedsStore(db, rdb, time.Minute, log)
	dispatcher := recommend.NewDispatcher(log, 10).
		Register(models.ContextHomepage, homepage).
		Register(models.ContextSearch, recommend.NewPreferenceStrategy(engine)).
		Register(models.ContextProfile, recommend.NewProfileStrategy(needs, engine, homepage, log))

	pub := &recordingPublisher{}
	svc := service.New(service.Deps{
		Engine:      engine,
		Store:       lifecycle.NewStore(db, log, 20),
		Searcher:    search.NewStaticSearcher(fixtureMentors),
		Recommender: dispatcher,
		Publisher:   pub,
		Logger:      log,
		Timeout:     5 * time.Second,
	})
	srv := httptest.NewServer(api.NewServer(config.APIConfig{}, svc, log, api.Options{ServiceName: "e2e"}).Routes())
	defer srv.Close()

	t.Run("match persists top results and publishes", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO match_requests`).WillReturnResult(sqlmock.NewResult(1, 1))
		for i := 0; i < 4; i++ {
			mock.ExpectExec(`INSERT INTO match_history`).WillReturnResult(sqlmock.NewResult(1, 1))
		}
		mock.ExpectExec(`UPDATE match_requests SET status`).WillReturnResult(sqlmock.NewResult(0, 1))

		resp, body := postJSON(t, srv.URL+"/api/v1/matches", map[string]interface{}{
			"studentId": "student-1",
			"criteria":  fixtureRequests["full"],
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, true, body["persisted"])
		assert.Equal(t, float64(4), body["saved"])

		results := body["results"].([]interface{})
		require.Len(t, results, 4)
		first := results[0].(map[string]interface{})["mentor"].(map[string]interface{})
		assert.Equal(t, "m-01", first["id"])
		for _, r := range results {
			status := r.(map[string]interface{})["mentor"].(map[string]interface{})["verificationStatus"]
			assert.Equal(t, "verified", status)
		}
		assert.NoError(t, mock.ExpectationsWereMet())
		require.Len(t, pub.events, 1)
		assert.Equal(t, "m-01", pub.events[0].MentorIDs[0])
	})

	t.Run("explain matches the ranked breakdown", func(t *testing.T) {
		result, err := engine.Rank(context.Background(), fixtureRequests["full"])
		require.NoError(t, err)

		resp, body := postJSON(t, srv.URL+"/api/v1/mentors/m-02/explain", fixtureRequests["full"])
		require.Equal(t, http.StatusOK, resp.StatusCode)
		score := body["score"].(map[string]interface{})
		for _, sc := range result {
			if sc.Candidate.ID == "m-02" {
				assert.InDelta(t, sc.Score.TotalScore, score["totalScore"], 1e-9)
			}
		}

		resp, _ = postJSON(t, srv.URL+"/api/v1/mentors/m-05/explain", fixtureRequests["full"])
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("search applies hard filters", func(t *testing.T) {
		resp, body := postJSON(t, srv.URL+"/api/v1/search", map[string]interface{}{
			"filters": map[string]interface{}{"languages": []string{"ENGLISH"}, "minRating": 4.6},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		mentors := body["mentors"].([]interface{})
		require.Len(t, mentors, 1)
		assert.Equal(t, "m-01", mentors[0].(map[string]interface{})["id"])

		resp, _ = postJSON(t, srv.URL+"/api/v1/search", map[string]interface{}{
			"filters": map[string]interface{}{"graduationYearMin": 2022, "graduationYearMax": 2020},
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("profile recommendations read through the cache", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"target_universities", "target_majors", "degree_level", "preferred_languages", "service_categories"}).
			AddRow(`{}`, `{Law}`, "master", `{French}`, `{}`)
		mock.ExpectQuery(`FROM mentee_learning_needs`).WithArgs("student-2").WillReturnRows(rows)

		resp, body := postJSON(t, srv.URL+"/api/v1/recommendations", map[string]interface{}{
			"context": "profile", "callerId": "student-2", "limit": 2, "excludeIds": []string{"m-01"},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		mentors := body["mentors"].([]interface{})
		require.Len(t, mentors, 2)
		assert.Equal(t, "m-04", mentors[0].(map[string]interface{})["id"])
		assert.True(t, mr.Exists("mentor-match:learning-needs:student-2"))

		// Second call is served from Redis; no further query is expected.
		resp, _ = postJSON(t, srv.URL+"/api/v1/recommendations", map[string]interface{}{
			"context": "profile", "callerId": "student-2",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown context is rejected", func(t *testing.T) {
		resp, body := postJSON(t, srv.URL+"/api/v1/recommendations", map[string]interface{}{"context": "sidebar"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_RECOMMEND_CONTEXT", body["error"].(map[string]interface{})["code"])
	})
}

// ==========================
// Postgres parity (needs a live database)
// ==========================

// openSchema applies testdata/schema.sql into a fresh schema. It skips unless
// MATCH_E2E_POSTGRES_DSN is set.
func openSchema(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping Postgres e2e tests in short mode")
	}
	dsn := os.Getenv("MATCH_E2E_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MATCH_E2E_POSTGRES_DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	schema := "e2e_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")
	ctx := context.Background()
	_, err = db.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA %s; SET search_path TO %s`, schema, schema))
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(), fmt.Sprintf(`DROP SCHEMA %s CASCADE`, schema))
		db.Close()
	})

	ddl, err := os.ReadFile("testdata/schema.sql")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, string(ddl))
	require.NoError(t, err)

	for _, m := range fixtureMentors {
		_, err := db.ExecContext(ctx, `INSERT INTO mentors (id, university, major, degree_level, rating, total_sessions,
			languages, specialties, verification_status, graduation_year) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			m.ID, m.University, m.Major, string(m.DegreeLevel), m.Rating, m.TotalSessions,
			pq.Array(m.Languages), pq.Array(m.Specialties), string(m.VerificationStatus), m.GraduationYear)
		require.NoError(t, err)
	}
	return db
}

func TestPostgresMatchesInProcessScoring(t *testing.T) {
	db := openSchema(t)
	ctx := context.Background()
	log := logger.NewTestLogger(t)

	sqlSource := source.NewPostgresSource(db, log, source.PostgresOptions{})
	static := source.NewStaticSource(fixtureMentors, scoring.NewScorer(), 2)

	for name, req := range fixtureRequests {
		t.Run(name, func(t *testing.T) {
			fromSQL, err := sqlSource.FetchScoredCandidates(ctx, req)
			require.NoError(t, err)
			inProcess, err := static.FetchScoredCandidates(ctx, req)
			require.NoError(t, err)

			require.Equal(t, len(inProcess), len(fromSQL))
			for i := range inProcess {
				assert.Equal(t, inProcess[i].Candidate.ID, fromSQL[i].Candidate.ID, "position %d", i)
				assert.InDelta(t, inProcess[i].Score.TotalScore, fromSQL[i].Score.TotalScore, 1e-4, "position %d", i)
			}
		})
	}
}

func TestPostgresLifecycle(t *testing.T) {
	db := openSchema(t)
	ctx := context.Background()
	log := logger.NewTestLogger(t)

	src := source.NewPostgresSource(db, log, source.PostgresOptions{})
	pub := &recordingPublisher{}
	svc := service.New(service.Deps{
		Engine:    ranking.NewEngine(src, src, nil, nil, log, ranking.Options{}),
		Store:     lifecycle.NewStore(db, log, 20),
		Searcher:  search.NewPostgresSearcher(db, log),
		Publisher: pub,
		Logger:    log,
	})

	out, err := svc.Match(ctx, "student-9", fixtureRequests["full"])
	require.NoError(t, err)
	require.True(t, out.Persisted)
	assert.Equal(t, 4, out.Saved)

	record, err := svc.GetRequest(ctx, out.RequestID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestCompleted, record.Status)
	assert.NotNil(t, record.CompletedAt)
	assert.Equal(t, fixtureRequests["full"].TargetMajors, record.Criteria.TargetMajors)

	history, err := svc.History(ctx, "student-9", 0)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "m-01", history[0].MentorID)
	assert.Equal(t, 1, history[0].Rank)

	mentors, err := svc.Search(ctx, models.SearchFilters{Majors: []string{"computer science"}}, models.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, mentors, 1)
	assert.Equal(t, "m-01", mentors[0].ID)
}
