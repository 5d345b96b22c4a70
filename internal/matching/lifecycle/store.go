// internal/matching/lifecycle/store.go
package lifecycle

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"mentor-match-workers/internal/common/errors"
	"mentor-match-workers/internal/common/logger"
	"mentor-match-workers/internal/common/metrics"
	"mentor-match-workers/internal/models"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// DefaultHistoryLimit is how many leading results SaveResults persists.
const DefaultHistoryLimit = 20

// DefaultSaveTimeout bounds SaveResults once it has started. The caller's
// deadline no longer applies at that point.
const DefaultSaveTimeout = 5 * time.Second

// Store persists match requests and their history rows. History writes are
// best effort: a failed row is logged and skipped, and the request is still
// marked completed.
type Store struct {
	db           *sql.DB
	logger       logger.Logger
	historyLimit int
	saveTimeout  time.Duration
	now          func() time.Time
}

func NewStore(db *sql.DB, log logger.Logger, historyLimit int) *Store {
	if historyLimit <= 0 || historyLimit > DefaultHistoryLimit {
		historyLimit = DefaultHistoryLimit
	}
	return &Store{
		db:           db,
		logger:       log.WithFields(map[string]interface{}{"component": "lifecycle"}),
		historyLimit: historyLimit,
		saveTimeout:  DefaultSaveTimeout,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CreateRequest inserts a pending record and returns its id.
func (s *Store) CreateRequest(ctx context.Context, studentID string, req models.MatchRequest) (string, error) {
	criteria, err := json.Marshal(req)
	if err != nil {
		return "", errors.NewMatchRequestCreateFailedError(fmt.Errorf("marshal criteria: %w", err))
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO match_requests (id, student_id, criteria, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		id, studentID, criteria, string(models.RequestPending), s.now(),
	)
	if err != nil {
		s.logger.Error("match request insert failed", map[string]interface{}{
			"studentId": studentID,
			"error":     err,
		})
		return "", errors.NewMatchRequestCreateFailedError(err)
	}

	s.logger.Debug("match request created", map[string]interface{}{
		"requestId": id,
		"studentId": studentID,
	})
	return id, nil
}

// SaveResults writes the top history rows for requestID and flips the record
// to completed. It returns the number of rows written. Once started it runs
// detached from ctx's cancellation, bounded by the store's save timeout, so a
// caller deadline cannot leave history rows next to a pending request.
func (s *Store) SaveResults(ctx context.Context, requestID, studentID string, result models.MatchResult) (int, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.saveTimeout)
	defer cancel()

	top := result.Top(s.historyLimit)
	createdAt := s.now()

	saved := 0
	for i, sc := range top {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO match_history (id, request_id, student_id, mentor_id, score, rank, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New().String(), requestID, studentID, sc.Candidate.ID, sc.Score.TotalScore, i+1, createdAt,
		)
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Error("match history save timed out", map[string]interface{}{
					"requestId": requestID,
					"saved":     saved,
					"error":     ctx.Err(),
				})
				return saved, errors.NewMatchResultsSaveFailedError(requestID, ctx.Err())
			}
			metrics.HistoryRowsFailed.Inc()
			s.logger.Warn("match history row not saved", map[string]interface{}{
				"requestId": requestID,
				"mentorId":  sc.Candidate.ID,
				"rank":      i + 1,
				"error":     err,
			})
			continue
		}
		saved++
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE match_requests SET status = $1, completed_at = $2 WHERE id = $3`,
		string(models.RequestCompleted), createdAt, requestID,
	)
	if err != nil {
		s.logger.Error("match request status update failed", map[string]interface{}{
			"requestId": requestID,
			"error":     err,
		})
		return saved, errors.NewMatchResultsSaveFailedError(requestID, err)
	}

	s.logger.Info("match results saved", map[string]interface{}{
		"requestId": requestID,
		"rows":      saved,
		"attempted": len(top),
	})
	return saved, nil
}

func (s *Store) GetRequest(ctx context.Context, requestID string) (*models.MatchRequestRecord, error) {
	var (
		rec         models.MatchRequestRecord
		criteria    []byte
		status      string
		completedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, student_id, criteria, status, created_at, completed_at
		FROM match_requests WHERE id = $1`, requestID,
	).Scan(&rec.ID, &rec.StudentID, &criteria, &status, &rec.CreatedAt, &completedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewMatchRequestNotFoundError(requestID)
	}
	if err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("load match request %s: %w", requestID, err))
	}

	if len(criteria) > 0 {
		if err := json.Unmarshal(criteria, &rec.Criteria); err != nil {
			return nil, errors.NewInternalError(fmt.Errorf("decode criteria of %s: %w", requestID, err))
		}
	}
	rec.Status = models.RequestStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		rec.CompletedAt = &t
	}
	return &rec, nil
}

// History returns a student's persisted matches, best score first.
func (s *Store) History(ctx context.Context, studentID string, limit int) ([]models.MatchHistoryEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, student_id, mentor_id, score, rank, created_at
		FROM match_history
		WHERE student_id = $1
		ORDER BY score DESC, created_at DESC
		LIMIT $2`, studentID, limit,
	)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("load history for %s: %w", studentID, err))
	}
	defer rows.Close()

	out := make([]models.MatchHistoryEntry, 0)
	for rows.Next() {
		var e models.MatchHistoryEntry
		if err := rows.Scan(&e.ID, &e.RequestID, &e.StudentID, &e.MentorID, &e.Score, &e.Rank, &e.CreatedAt); err != nil {
			return nil, errors.NewInternalError(err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternalError(err)
	}
	return out, nil
}
