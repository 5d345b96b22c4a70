// internal/api/server_test.go
package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mentor-match-workers/internal/common/config"
	"mentor-match-workers/internal/common/database"
	"mentor-match-workers/internal/common/errors"
	"mentor-match-workers/internal/common/logger"
	"mentor-match-workers/internal/matching/service"
	"mentor-match-workers/internal/models"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

type MockService struct {
	mock.Mock
}

func (m *MockService) Match(ctx context.Context, studentID string, req models.MatchRequest) (*service.MatchOutcome, error) {
	args := m.Called(ctx, studentID, req)
	out, _ := args.Get(0).(*service.MatchOutcome)
	return out, args.Error(1)
}

func (m *MockService) Rank(ctx context.Context, req models.MatchRequest) (models.MatchResult, error) {
	args := m.Called(ctx, req)
	out, _ := args.Get(0).(models.MatchResult)
	return out, args.Error(1)
}

func (m *MockService) Explain(ctx context.Context, mentorID string, req models.MatchRequest) (*models.ScoredCandidate, error) {
	args := m.Called(ctx, mentorID, req)
	out, _ := args.Get(0).(*models.ScoredCandidate)
	return out, args.Error(1)
}

func (m *MockService) Search(ctx context.Context, filters models.SearchFilters, page models.Page) ([]models.CandidateProfile, error) {
	args := m.Called(ctx, filters, page)
	out, _ := args.Get(0).([]models.CandidateProfile)
	return out, args.Error(1)
}

func (m *MockService) Recommend(ctx context.Context, in models.RecommendInput) ([]models.CandidateProfile, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).([]models.CandidateProfile)
	return out, args.Error(1)
}

func (m *MockService) GetRequest(ctx context.Context, requestID string) (*models.MatchRequestRecord, error) {
	args := m.Called(ctx, requestID)
	out, _ := args.Get(0).(*models.MatchRequestRecord)
	return out, args.Error(1)
}

func (m *MockService) History(ctx context.Context, studentID string, limit int) ([]models.MatchHistoryEntry, error) {
	args := m.Called(ctx, studentID, limit)
	out, _ := args.Get(0).([]models.MatchHistoryEntry)
	return out, args.Error(1)
}

func (m *MockService) Backend() string { return "static" }

type failingPinger struct{}

func (failingPinger) Name() string                  { return "postgres" }
func (failingPinger) Ping(ctx context.Context) error { return stderrors.New("connection refused") }

func newTestServer(t *testing.T, svc MatchService, opts Options) http.Handler {
	return NewServer(config.APIConfig{Address: ":0"}, svc, logger.NewTestLogger(t), opts).Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// ==========================
// Probes
// ==========================

func TestHealth(t *testing.T) {
	h := newTestServer(t, &MockService{}, Options{ServiceName: "mentor-match", Version: "1.0.0"})

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "static", body["backend"])
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestReady(t *testing.T) {
	h := newTestServer(t, &MockService{}, Options{})
	rec := do(t, h, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode(t, rec)["status"])
}

func TestReady_DependencyDown(t *testing.T) {
	h := newTestServer(t, &MockService{}, Options{Dependencies: []database.Pinger{failingPinger{}}})

	rec := do(t, h, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	failures := decode(t, rec)["failures"].(map[string]interface{})
	assert.Equal(t, "connection refused", failures["postgres"])
}

func TestProbesOnly(t *testing.T) {
	h := newTestServer(t, &MockService{}, Options{ProbesOnly: true})
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/v1/search", `{}`).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, &MockService{}, Options{})
	rec := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

// ==========================
// Matches
// ==========================

func TestMatch_Persisted(t *testing.T) {
	svc := &MockService{}
	criteria := models.MatchRequest{TargetMajors: []string{"Law"}}
	svc.On("Match", mock.Anything, "student-1", criteria).Return(&service.MatchOutcome{
		RequestID: "req-1",
		Results:   models.MatchResult{{Candidate: models.CandidateProfile{ID: "m-1"}}},
		Saved:     1,
		Persisted: true,
	}, nil)

	rec := do(t, newTestServer(t, svc, Options{}), http.MethodPost, "/api/v1/matches",
		`{"studentId":"student-1","criteria":{"targetMajors":["Law"]}}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "req-1", body["requestId"])
	assert.Equal(t, true, body["persisted"])
	svc.AssertExpectations(t)
}

func TestMatch_RankOnly(t *testing.T) {
	svc := &MockService{}
	svc.On("Rank", mock.Anything, models.MatchRequest{}).Return(models.MatchResult(nil), nil)

	rec := do(t, newTestServer(t, svc, Options{}), http.MethodPost, "/api/v1/matches", `{"persist":false}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{}, decode(t, rec)["results"])
	svc.AssertNotCalled(t, "Match", mock.Anything, mock.Anything, mock.Anything)
}

func TestMatch_MissingStudent(t *testing.T) {
	rec := do(t, newTestServer(t, &MockService{}, Options{}), http.MethodPost, "/api/v1/matches", `{"criteria":{}}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decode(t, rec)["error"].(map[string]interface{})
	assert.Equal(t, string(errors.ErrCodeInputValidationFailed), errBody["code"])
}

func TestMatch_MalformedBody(t *testing.T) {
	rec := do(t, newTestServer(t, &MockService{}, Options{}), http.MethodPost, "/api/v1/matches", `{"studentId":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMatch_Timeout(t *testing.T) {
	svc := &MockService{}
	svc.On("Match", mock.Anything, "student-1", mock.Anything).
		Return(nil, errors.NewMatchTimeoutError("rank", context.DeadlineExceeded))

	rec := do(t, newTestServer(t, svc, Options{}), http.MethodPost, "/api/v1/matches", `{"studentId":"student-1"}`)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestGetRequest(t *testing.T) {
	svc := &MockService{}
	svc.On("GetRequest", mock.Anything, "req-1").Return(&models.MatchRequestRecord{ID: "req-1", Status: models.RequestCompleted}, nil)
	svc.On("GetRequest", mock.Anything, "req-404").Return(nil, errors.NewMatchRequestNotFoundError("req-404"))
	h := newTestServer(t, svc, Options{})

	rec := do(t, h, http.MethodGet, "/api/v1/matches/req-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completed", decode(t, rec)["status"])

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/matches/req-404", "").Code)
}

func TestHistory(t *testing.T) {
	svc := &MockService{}
	svc.On("History", mock.Anything, "student-1", 5).Return([]models.MatchHistoryEntry{{MentorID: "m-1", Score: 0.9}}, nil)
	h := newTestServer(t, svc, Options{})

	rec := do(t, h, http.MethodGet, "/api/v1/students/student-1/history?limit=5", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["count"])

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/students/student-1/history?limit=x", "").Code)
}

// ==========================
// Explain / Search / Recommend
// ==========================

func TestExplain(t *testing.T) {
	svc := &MockService{}
	svc.On("Explain", mock.Anything, "m-1", models.MatchRequest{DegreeLevel: models.DegreePhD}).
		Return(&models.ScoredCandidate{Candidate: models.CandidateProfile{ID: "m-1"}, Score: models.ScoreBreakdown{DegreeMatch: 0.2, TotalScore: 0.2}}, nil)
	svc.On("Explain", mock.Anything, "m-404", mock.Anything).Return(nil, errors.NewMentorNotFoundError("m-404"))
	h := newTestServer(t, svc, Options{})

	rec := do(t, h, http.MethodPost, "/api/v1/mentors/m-1/explain", `{"degreeLevel":"phd"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	score := decode(t, rec)["score"].(map[string]interface{})
	assert.InDelta(t, 0.2, score["totalScore"], 1e-9)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/v1/mentors/m-404/explain", "").Code)
}

func TestSearch_NormalizesPage(t *testing.T) {
	svc := &MockService{}
	svc.On("Search", mock.Anything, models.SearchFilters{Majors: []string{"Law"}}, models.Page{Limit: 100, Offset: 0}).
		Return([]models.CandidateProfile{{ID: "m-1"}}, nil)

	rec := do(t, newTestServer(t, svc, Options{}), http.MethodPost, "/api/v1/search",
		`{"filters":{"majors":["Law"]},"limit":500,"offset":-3}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["count"])
	svc.AssertExpectations(t)
}

func TestSearch_Errors(t *testing.T) {
	svc := &MockService{}
	svc.On("Search", mock.Anything, mock.Anything, models.Page{Limit: 10}).
		Return(nil, errors.NewInvalidSearchFiltersError("graduationYearMin must not exceed graduationYearMax")).Once()
	svc.On("Search", mock.Anything, mock.Anything, models.Page{Limit: 10}).
		Return(nil, errors.NewSearchBackendUnavailableError(stderrors.New("503"))).Once()
	h := newTestServer(t, svc, Options{DefaultLimit: 10})

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/search", `{}`).Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodPost, "/api/v1/search", `{}`).Code)
}

func TestRecommend(t *testing.T) {
	svc := &MockService{}
	svc.On("Recommend", mock.Anything, models.RecommendInput{Context: models.ContextHomepage, Limit: 2}).
		Return([]models.CandidateProfile(nil), nil)
	svc.On("Recommend", mock.Anything, models.RecommendInput{Context: "sidebar"}).
		Return(nil, errors.NewInvalidRecommendContextError("sidebar"))
	h := newTestServer(t, svc, Options{})

	rec := do(t, h, http.MethodPost, "/api/v1/recommendations", `{"context":"homepage","limit":2}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{}, decode(t, rec)["mentors"])

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/recommendations", `{"context":"sidebar"}`).Code)
}

func TestRateLimit(t *testing.T) {
	svc := &MockService{}
	svc.On("Recommend", mock.Anything, mock.Anything).Return([]models.CandidateProfile{}, nil)
	h := newTestServer(t, svc, Options{RateLimit: 1})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/v1/recommendations", `{"context":"homepage"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodPost, "/api/v1/recommendations", `{"context":"homepage"}`).Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, StatusFor(errors.ErrCodeCircuitOpen))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.ErrCodeMatchResultsSaveFailed))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.ErrCodeInternal))
}
