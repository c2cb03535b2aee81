package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"candidate-assessment/internal/assessment"
	"candidate-assessment/internal/storage"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error           string         `json:"error"`
	Reason          string         `json:"reason"`
	CandidateStatus storage.Status `json:"candidate_status,omitempty"`
	Timestamp       string         `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// statusFor maps an assessment failure class to its HTTP status.
func statusFor(kind assessment.Kind) int {
	switch kind {
	case assessment.KindValidation:
		return http.StatusBadRequest
	case assessment.KindNotFound:
		return http.StatusNotFound
	case assessment.KindConflict:
		return http.StatusConflict
	case assessment.KindExpired:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as an ErrorResponse. Internal causes are logged, never sent.
func writeError(w http.ResponseWriter, logger *zap.SugaredLogger, err error) {
	e := assessment.AsError(err)
	status := statusFor(e.Kind)
	if status == http.StatusInternalServerError {
		logger.Errorw("Request failed", "error", fmt.Sprintf("%+v", err))
	}

	writeJSON(w, status, ErrorResponse{
		Error:           e.Message,
		Reason:          string(e.Reason),
		CandidateStatus: e.Status,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	})
}
