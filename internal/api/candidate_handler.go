package api

import (
	"context"
	"net/http"
	"time"

	"candidate-assessment/internal/assessment"
	"candidate-assessment/internal/notify"
	"candidate-assessment/internal/scoring"
	"candidate-assessment/internal/storage"
)

type IssueRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required"`
}

type IssueResponse struct {
	Action      assessment.Action  `json:"action"`
	Candidate   *storage.Candidate `json:"candidate"`
	AccessToken string             `json:"access_token"`
	AccessLink  string             `json:"access_link"`
}

type ReissueRequest struct {
	CandidateID string `json:"candidate_id" validate:"required"`
}

type TokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type TokenInfo struct {
	IssuedAt       time.Time `json:"issued_at"`
	HoursOld       float64   `json:"hours_old"`
	HoursRemaining float64   `json:"hours_remaining"`
}

type ValidateResponse struct {
	Valid     bool               `json:"valid"`
	Candidate *storage.Candidate `json:"candidate"`
	TokenInfo TokenInfo          `json:"token_info"`
}

type CompleteRequest struct {
	Token   string          `json:"token" validate:"required"`
	Answers scoring.Answers `json:"answers" validate:"required,min=1"`
	Score   *int            `json:"score,omitempty" validate:"omitempty,min=0"`
	Status  string          `json:"status,omitempty"`
}

type CompleteResponse struct {
	Candidate *storage.Candidate `json:"candidate"`
	Breakdown map[int]int        `json:"breakdown"`
	Label     string             `json:"label"`
	Feedback  string             `json:"feedback"`
}

type QuestionsResponse struct {
	Questions []scoring.Question `json:"questions"`
	MaxScore  int                `json:"max_score"`
}

func (a *API) storeContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), a.storeTimeout)
}

// IssueHandler creates or reuses a pending candidate and sends the access link
// @Summary Issue access token
// @Description Create a pending candidate for a new email, or reissue the token of a pending one. Completed candidates are rejected with 409.
// @Tags candidates
// @Accept json
// @Produce json
// @Security StaffKey
// @Param request body IssueRequest true "Candidate name and email"
// @Success 200 {object} IssueResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /candidates/issue [post]
func (a *API) IssueHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req IssueRequest
	if err := a.decode(w, r, &req); err != nil {
		writeError(w, a.logger, err)
		return
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()

	res, err := a.svc.Resolve(ctx, req.Name, req.Email)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}

	a.respondIssued(w, res)
}

// ReissueHandler rotates the token of a pending candidate by id and resends the access link
// @Summary Reissue access token
// @Description Replace the token of a pending candidate. The previous link stops working.
// @Tags candidates
// @Accept json
// @Produce json
// @Security StaffKey
// @Param request body ReissueRequest true "Candidate id"
// @Success 200 {object} IssueResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /candidates/reissue [post]
func (a *API) ReissueHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req ReissueRequest
	if err := a.decode(w, r, &req); err != nil {
		writeError(w, a.logger, err)
		return
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()

	res, err := a.svc.IssueToken(ctx, req.CandidateID)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	a.respondIssued(w, res)
}

// respondIssued queues the invite for a fresh token and writes the IssueResponse.
func (a *API) respondIssued(w http.ResponseWriter, res *assessment.Resolution) {
	c := res.Candidate
	queued := a.invites.Enqueue(notify.Invite{
		CandidateID: c.ID,
		Name:        c.Name,
		To:          c.Email,
		AccessLink:  res.AccessLink,
		ExpiresAt:   c.TokenAnchor().Add(a.svc.Settings().ExpiryWindow),
	})
	a.logger.Infow("Candidate issued", "candidate_id", c.ID, "action", res.Action, "invite_queued", queued)

	writeJSON(w, http.StatusOK, IssueResponse{
		Action:      res.Action,
		Candidate:   c,
		AccessToken: res.AccessToken,
		AccessLink:  res.AccessLink,
	})
}

// ValidateTokenHandler checks whether a token may still be used
// @Summary Validate access token
// @Description Validate an access token and report its age
// @Tags tokens
// @Accept json
// @Produce json
// @Param request body TokenRequest true "Access token"
// @Success 200 {object} ValidateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse "Token expired"
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Already completed"
// @Failure 500 {object} ErrorResponse
// @Router /tokens/validate [post]
func (a *API) ValidateTokenHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req TokenRequest
	if err := a.decode(w, r, &req); err != nil {
		writeError(w, a.logger, err)
		return
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()

	v, err := a.svc.Validate(ctx, req.Token)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, ValidateResponse{
		Valid:     true,
		Candidate: v.Candidate,
		TokenInfo: TokenInfo{
			IssuedAt:       v.IssuedAt,
			HoursOld:       v.HoursOld,
			HoursRemaining: v.HoursRemaining,
		},
	})
}

// CompleteHandler records the answers and classifies the candidate
// @Summary Complete assessment
// @Description Submit answers for a valid token. Score and band are computed server-side; a token completes at most once.
// @Tags candidates
// @Accept json
// @Produce json
// @Param request body CompleteRequest true "Token and answers keyed by question id"
// @Success 200 {object} CompleteResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse "Token expired"
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Already completed"
// @Failure 500 {object} ErrorResponse
// @Router /candidates/complete [post]
func (a *API) CompleteHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req CompleteRequest
	if err := a.decode(w, r, &req); err != nil {
		writeError(w, a.logger, err)
		return
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()

	done, err := a.svc.Complete(ctx, assessment.Submission{
		Token:   req.Token,
		Answers: req.Answers,
		Score:   req.Score,
		Status:  req.Status,
	})
	if err != nil {
		writeError(w, a.logger, err)
		return
	}

	band := scoring.Band(done.Candidate.Status)
	writeJSON(w, http.StatusOK, CompleteResponse{
		Candidate: done.Candidate,
		Breakdown: done.Breakdown,
		Label:     band.Label(),
		Feedback:  done.Feedback,
	})
}

// QuestionsHandler returns the question bank for rendering the form
// @Summary List questions
// @Description Questions and their options, without option weights
// @Tags questions
// @Produce json
// @Success 200 {object} QuestionsResponse
// @Router /questions [get]
func (a *API) QuestionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	bank := a.svc.Bank()
	writeJSON(w, http.StatusOK, QuestionsResponse{Questions: bank.Questions, MaxScore: bank.MaxScore()})
}
