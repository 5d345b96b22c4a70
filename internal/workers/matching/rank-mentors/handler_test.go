// internal/workers/matching/rank-mentors/handler_test.go
package rankmentors

import (
	"context"
	"testing"
	"time"

	"mentor-match-workers/internal/common/config"
	"mentor-match-workers/internal/common/errors"
	"mentor-match-workers/internal/common/logger"
	"mentor-match-workers/internal/matching/service"
	"mentor-match-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Matcher
// ==========================

type MockMatcher struct {
	mock.Mock
}

func (m *MockMatcher) Match(ctx context.Context, studentID string, req models.MatchRequest) (*service.MatchOutcome, error) {
	args := m.Called(ctx, studentID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.MatchOutcome), args.Error(1)
}

func (m *MockMatcher) Rank(ctx context.Context, req models.MatchRequest) (models.MatchResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.MatchResult), args.Error(1)
}

// ==========================
// Mock Job Helper
// ==========================

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "student-mentor-matching",
		ElementId:          "Activity_RankMentors",
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func sampleResult() models.MatchResult {
	return models.MatchResult{
		{Candidate: models.CandidateProfile{ID: "m-1"}, Score: models.ScoreBreakdown{TotalScore: 1.02}},
		{Candidate: models.CandidateProfile{ID: "m-2"}, Score: models.ScoreBreakdown{TotalScore: 0.61}},
	}
}

func newTestHandler(t *testing.T, m Matcher) *Handler {
	return NewHandler(&Config{Enabled: true, Timeout: time.Second, PersistByDefault: true}, m, logger.NewTestLogger(t))
}

func TestNewHandler_SchemaFromRegistry(t *testing.T) {
	var h *Handler
	require.NotPanics(t, func() { h = NewHandler(nil, &MockMatcher{}, logger.NewNoOpLogger()) })
	require.NotNil(t, h.schema)

	result, err := h.schema.Validate(map[string]interface{}{"studentId": 42})
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	h := newTestHandler(t, &MockMatcher{})

	input, err := h.parseInput(createMockJob(1, map[string]interface{}{
		"studentId": "student-1",
		"criteria": map[string]interface{}{
			"targetMajors": []string{"Economics"},
			"degreeLevel":  "master",
		},
		"persist": false,
	}))
	require.NoError(t, err)
	assert.Equal(t, "student-1", input.StudentID)
	assert.Equal(t, models.DegreeMaster, input.Criteria.DegreeLevel)
	require.NotNil(t, input.Persist)
	assert.False(t, *input.Persist)
}

func TestHandler_ParseInput_SchemaViolations(t *testing.T) {
	tests := []struct {
		name      string
		variables map[string]interface{}
	}{
		{name: "missing studentId", variables: map[string]interface{}{"criteria": map[string]interface{}{}}},
		{name: "unknown degree", variables: map[string]interface{}{
			"studentId": "s",
			"criteria":  map[string]interface{}{"degreeLevel": "diploma"},
		}},
		{name: "majors not a list", variables: map[string]interface{}{
			"studentId": "s",
			"criteria":  map[string]interface{}{"targetMajors": "Economics"},
		}},
	}

	h := newTestHandler(t, &MockMatcher{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.parseInput(createMockJob(2, tt.variables))
			assert.True(t, errors.HasCode(err, errors.ErrCodeSchemaValidationFailed))
		})
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Persists(t *testing.T) {
	m := &MockMatcher{}
	criteria := models.MatchRequest{TargetUniversities: []string{"MIT"}}
	m.On("Match", mock.Anything, "student-1", criteria).Return(&service.MatchOutcome{
		RequestID: "req-1",
		Results:   sampleResult(),
		Saved:     2,
		Persisted: true,
	}, nil)

	out, err := newTestHandler(t, m).Execute(context.Background(), &Input{StudentID: "student-1", Criteria: criteria})
	require.NoError(t, err)
	assert.Equal(t, "req-1", out.MatchRequestID)
	assert.Equal(t, 2, out.MatchCount)
	assert.Equal(t, []string{"m-1", "m-2"}, out.MentorIDs)
	assert.Equal(t, 1.02, out.TopScore)
	assert.True(t, out.Persisted)
	m.AssertExpectations(t)
}

func TestHandler_Execute_RankOnly(t *testing.T) {
	m := &MockMatcher{}
	m.On("Rank", mock.Anything, models.MatchRequest{}).Return(models.MatchResult{}, nil)

	persist := false
	out, err := newTestHandler(t, m).Execute(context.Background(), &Input{StudentID: "student-1", Persist: &persist})
	require.NoError(t, err)
	assert.Empty(t, out.MatchRequestID)
	assert.Zero(t, out.MatchCount)
	assert.Zero(t, out.TopScore)
	m.AssertNotCalled(t, "Match", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Execute_PropagatesTimeout(t *testing.T) {
	m := &MockMatcher{}
	m.On("Match", mock.Anything, "student-1", mock.Anything).
		Return(nil, errors.NewMatchTimeoutError("rank", context.DeadlineExceeded))

	_, err := newTestHandler(t, m).Execute(context.Background(), &Input{StudentID: "student-1"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeMatchTimeout))
}

func TestConfigFromApp(t *testing.T) {
	cfg := ConfigFromApp(&config.Config{Workers: map[string]config.WorkerConfig{
		TaskType: {Enabled: false, Timeout: 2000},
	}})
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Timeout)

	assert.Equal(t, 15*time.Second, ConfigFromApp(&config.Config{}).Timeout)
}
