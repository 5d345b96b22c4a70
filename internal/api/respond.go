// internal/api/respond.go
package api

import (
	"net/http"

	"mentor-match-workers/internal/common/errors"

	json "github.com/goccy/go-json"
)

type errorBody struct {
	Error *errors.StandardError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := errors.AsStandardError(err)
	status := StatusFor(stdErr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", map[string]interface{}{
			"path":  r.URL.Path,
			"code":  stdErr.Code,
			"error": err,
		})
	}
	writeJSON(w, status, errorBody{Error: stdErr})
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeInvalidSearchFilters,
		errors.ErrCodeInvalidRecommendContext,
		errors.ErrCodeInputValidationFailed,
		errors.ErrCodeSchemaValidationFailed:
		return http.StatusBadRequest
	case errors.ErrCodeMatchRequestNotFound, errors.ErrCodeMentorNotFound:
		return http.StatusNotFound
	case errors.ErrCodeMatchTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeCircuitOpen,
		errors.ErrCodeCandidateFetchFailed,
		errors.ErrCodeSearchBackendUnavailable,
		errors.ErrCodeDatabaseConnectionFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.NewInputValidationFailedError("malformed JSON body: " + err.Error())
	}
	return nil
}
