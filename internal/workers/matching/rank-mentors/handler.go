// internal/workers/matching/rank-mentors/handler.go
package rankmentors

import (
	"context"
	"fmt"
	"time"

	"mentor-match-workers/internal/common/errors"
	"mentor-match-workers/internal/common/logger"
	"mentor-match-workers/internal/common/metrics"
	"mentor-match-workers/internal/common/validation"
	"mentor-match-workers/internal/matching/service"
	"mentor-match-workers/internal/models"
	"mentor-match-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	json "github.com/goccy/go-json"
)

const TaskType = "rank-mentors"

// Matcher is the part of the matching service this worker drives.
type Matcher interface {
	Match(ctx context.Context, studentID string, req models.MatchRequest) (*service.MatchOutcome, error)
	Rank(ctx context.Context, req models.MatchRequest) (models.MatchResult, error)
}

type Handler struct {
	config       *Config
	matcher      Matcher
	schema       *validation.Schema
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(cfg *Config, matcher Matcher, log logger.Logger) *Handler {
	if cfg == nil {
		cfg = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       cfg,
		matcher:      matcher,
		schema:       validation.MustCompileSchema(registry.Default().MustInputSchema(TaskType)),
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job)
	if err == nil {
		var output *Output
		output, err = h.execute(ctx, input)
		if err == nil {
			h.completeJob(ctx, client, job, output)
			metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
			metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
			return
		}
	}

	code := string(errors.AsStandardError(err).Code)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputValidationFailedError(fmt.Sprintf("parse variables: %v", err))
	}
	result, err := h.schema.Validate(variables)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if !result.Valid {
		return nil, errors.NewSchemaValidationFailedError(fmt.Sprintf("%v", result.GetErrorMessages()))
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInputValidationFailedError(fmt.Sprintf("decode variables: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	persist := h.config.PersistByDefault
	if input.Persist != nil {
		persist = *input.Persist
	}

	var (
		out    = &Output{}
		result models.MatchResult
	)
	if persist {
		outcome, err := h.matcher.Match(ctx, input.StudentID, input.Criteria)
		if err != nil {
			return nil, err
		}
		out.MatchRequestID = outcome.RequestID
		out.Persisted = outcome.Persisted
		result = outcome.Results
	} else {
		var err error
		result, err = h.matcher.Rank(ctx, input.Criteria)
		if err != nil {
			return nil, err
		}
	}

	out.Matches = result
	out.MatchCount = len(result)
	out.MentorIDs = result.MentorIDs()
	if len(result) > 0 {
		out.TopScore = result[0].Score.TotalScore
	}

	h.logger.Info("mentors ranked", map[string]interface{}{
		"studentId":      input.StudentID,
		"matchRequestId": out.MatchRequestID,
		"matchCount":     out.MatchCount,
		"persisted":      out.Persisted,
	})
	return out, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey": job.Key,
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
