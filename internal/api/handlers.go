// internal/api/handlers.go
package api

import (
	"net/http"
	"strconv"
	"strings"

	"mentor-match-workers/internal/common/database"
	"mentor-match-workers/internal/common/errors"
	"mentor-match-workers/internal/matching/search"
	"mentor-match-workers/internal/matching/service"
	"mentor-match-workers/internal/models"

	"github.com/go-chi/chi/v5"
)

type matchBody struct {
	StudentID string              `json:"studentId"`
	Criteria  models.MatchRequest `json:"criteria"`
	// Persist defaults to true. false ranks without recording anything.
	Persist *bool `json:"persist,omitempty"`
}

type searchBody struct {
	Filters models.SearchFilters `json:"filters"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

type mentorsResponse struct {
	Mentors []models.CandidateProfile `json:"mentors"`
	Count   int                       `json:"count"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": s.opts.ServiceName,
		"version": s.opts.Version,
		"backend": s.svc.Backend(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	failures := database.CheckAll(r.Context(), s.opts.ReadyTimeout, s.opts.Dependencies...)
	if len(failures) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "unavailable", "failures": failures})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ready"})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var body matchBody
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	if body.Persist != nil && !*body.Persist {
		result, err := s.svc.Rank(r.Context(), body.Criteria)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, service.MatchOutcome{Results: nonNilResult(result)})
		return
	}

	if strings.TrimSpace(body.StudentID) == "" {
		s.writeError(w, r, errors.NewInputValidationFailedError("studentId is required"))
		return
	}
	out, err := s.svc.Match(r.Context(), body.StudentID, body.Criteria)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out.Results = nonNilResult(out.Results)
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	record, err := s.svc.GetRequest(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, r, errors.NewInputValidationFailedError("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	entries, err := s.svc.History(r.Context(), chi.URLParam(r, "studentID"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": entries, "count": len(entries)})
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var criteria models.MatchRequest
	if err := decodeBody(r, &criteria); err != nil {
		s.writeError(w, r, err)
		return
	}
	scored, err := s.svc.Explain(r.Context(), chi.URLParam(r, "mentorID"), criteria)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scored)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	page := search.NormalizePage(models.Page{Limit: body.Limit, Offset: body.Offset}, s.opts.DefaultLimit)
	mentors, err := s.svc.Search(r.Context(), body.Filters, page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newMentorsResponse(mentors))
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var in models.RecommendInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	mentors, err := s.svc.Recommend(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newMentorsResponse(mentors))
}

func newMentorsResponse(mentors []models.CandidateProfile) mentorsResponse {
	if mentors == nil {
		mentors = []models.CandidateProfile{}
	}
	return mentorsResponse{Mentors: mentors, Count: len(mentors)}
}

func nonNilResult(r models.MatchResult) models.MatchResult {
	if r == nil {
		return models.MatchResult{}
	}
	return r
}
