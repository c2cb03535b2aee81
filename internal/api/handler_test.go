package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"candidate-assessment/internal/assessment"
	"candidate-assessment/internal/notify"
	"candidate-assessment/internal/scoring"
	"candidate-assessment/internal/storage"
	"candidate-assessment/internal/token"
)

type queueRecorder struct {
	mu      sync.Mutex
	invites []notify.Invite
}

func (q *queueRecorder) Enqueue(inv notify.Invite) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.invites = append(q.invites, inv)
	return true
}

type testServer struct {
	handler http.Handler
	queue   *queueRecorder
	db      *storage.DB
	api     *API
}

func setupServer(t *testing.T, opts RouterOptions) *testServer {
	t.Helper()

	logger := zaptest.NewLogger(t).Sugar()
	db, err := storage.NewDB(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(context.Background()))

	codec, err := token.NewCodec(token.DefaultPrefix, token.DefaultBodyLength, []byte("test-secret"))
	require.NoError(t, err)

	bank := scoring.Bank{Questions: []scoring.Question{
		{ID: 1, Title: "q1", MaxChoices: 2, Options: []scoring.Option{{Text: "A", Value: 40}, {Text: "B", Value: 30}}},
		{ID: 2, Title: "q2", MaxChoices: 1, Options: []scoring.Option{{Text: "W", Value: 30}}},
	}}
	svc := assessment.NewService(db, codec, bank, assessment.DefaultSettings(), logger)

	if opts.StaffAuth == nil {
		opts.StaffAuth = NewAPIKeyAuth(testStaffKey)
	}
	queue := &queueRecorder{}
	a := NewAPI(svc, queue, time.Second, logger)
	return &testServer{handler: NewRouter(a, opts), queue: queue, db: db, api: a}
}

const testStaffKey = "staff-key-0123456789"

func (s *testServer) send(t *testing.T, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return s.send(t, method, path, body, nil)
}

// staff sends the request with the staff API key.
func (s *testServer) staff(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return s.send(t, method, path, body, http.Header{"X-Api-Key": {testStaffKey}})
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func (s *testServer) issue(t *testing.T, email string) IssueResponse {
	t.Helper()
	rec := s.staff(t, http.MethodPost, "/api/candidates/issue", `{"name":"Alice","email":"`+email+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res IssueResponse
	decodeBody(t, rec, &res)
	return res
}

func TestHealth(t *testing.T) {
	s := setupServer(t, RouterOptions{})
	rec := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestIssueHandler(t *testing.T) {
	s := setupServer(t, RouterOptions{})

	first := s.issue(t, "alice@example.com")
	assert.Equal(t, assessment.ActionCreate, first.Action)
	assert.Regexp(t, `^sispac_[0-9a-f]{32}$`, first.AccessToken)
	assert.Contains(t, first.AccessLink, first.AccessToken)

	second := s.issue(t, "ALICE@example.com")
	assert.Equal(t, assessment.ActionReuse, second.Action)
	assert.Equal(t, first.Candidate.ID, second.Candidate.ID)

	require.Len(t, s.queue.invites, 2)
	inv := s.queue.invites[1]
	assert.Equal(t, "alice@example.com", inv.To)
	assert.Equal(t, second.AccessLink, inv.AccessLink)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), inv.ExpiresAt, time.Minute)

	t.Run("token is not part of the candidate body", func(t *testing.T) {
		rec := s.staff(t, http.MethodPost, "/api/candidates/issue", `{"name":"Bob","email":"bob@example.com"}`)
		var raw struct {
			Candidate map[string]interface{} `json:"candidate"`
		}
		decodeBody(t, rec, &raw)
		require.NotEmpty(t, raw.Candidate)
		_, leaked := raw.Candidate["access_token"]
		assert.False(t, leaked)
	})
}

func TestIssueHandlerErrors(t *testing.T) {
	s := setupServer(t, RouterOptions{})

	cases := []struct {
		name   string
		body   string
		status int
		reason assessment.Reason
	}{
		{"invalid json", `{"name":`, http.StatusBadRequest, assessment.ReasonInvalidFormat},
		{"missing name", `{"email":"a@x.com"}`, http.StatusBadRequest, assessment.ReasonMissingField},
		{"missing email", `{"name":"Alice"}`, http.StatusBadRequest, assessment.ReasonMissingField},
		{"bad email", `{"name":"Alice","email":"nope"}`, http.StatusBadRequest, assessment.ReasonInvalidEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.staff(t, http.MethodPost, "/api/candidates/issue", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			var e ErrorResponse
			decodeBody(t, rec, &e)
			assert.Equal(t, string(tc.reason), e.Reason)
			assert.NotEmpty(t, e.Timestamp)
		})
	}

	t.Run("method not allowed", func(t *testing.T) {
		rec := s.staff(t, http.MethodGet, "/api/candidates/issue", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("oversized body", func(t *testing.T) {
		big := `{"name":"` + strings.Repeat("x", maxBodyBytes) + `","email":"a@x.com"}`
		rec := s.staff(t, http.MethodPost, "/api/candidates/issue", big)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTokenFlow(t *testing.T) {
	s := setupServer(t, RouterOptions{})
	issued := s.issue(t, "alice@example.com")

	t.Run("validate", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/tokens/validate", `{"token":"`+issued.AccessToken+`"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res ValidateResponse
		decodeBody(t, rec, &res)
		assert.True(t, res.Valid)
		assert.Equal(t, issued.Candidate.ID, res.Candidate.ID)
		assert.InDelta(t, 24.0, res.TokenInfo.HoursRemaining, 0.1)
	})

	t.Run("complete", func(t *testing.T) {
		body := `{"token":"` + issued.AccessToken + `","answers":{"1":["A","B"],"2":["W"]},"score":100,"status":"BAND3"}`
		rec := s.do(t, http.MethodPost, "/api/candidates/complete", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res CompleteResponse
		decodeBody(t, rec, &res)
		assert.Equal(t, storage.Status("BAND3"), res.Candidate.Status)
		assert.Equal(t, 100, *res.Candidate.Score)
		assert.Equal(t, map[int]int{1: 70, 2: 30}, res.Breakdown)
		assert.Equal(t, "exceeded expectation", res.Label)
		assert.NotEmpty(t, res.Feedback)
	})

	t.Run("second completion conflicts with status", func(t *testing.T) {
		body := `{"token":"` + issued.AccessToken + `","answers":{"1":["A"]}}`
		rec := s.do(t, http.MethodPost, "/api/candidates/complete", body)
		assert.Equal(t, http.StatusConflict, rec.Code)
		var e ErrorResponse
		decodeBody(t, rec, &e)
		assert.Equal(t, string(assessment.ReasonAlreadyCompleted), e.Reason)
		assert.Equal(t, storage.Status("BAND3"), e.CandidateStatus)
	})

	t.Run("validate after completion conflicts", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/tokens/validate", `{"token":"`+issued.AccessToken+`"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("reissue after completion conflicts", func(t *testing.T) {
		rec := s.staff(t, http.MethodPost, "/api/candidates/issue", `{"name":"Alice","email":"alice@example.com"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		var e ErrorResponse
		decodeBody(t, rec, &e)
		assert.Equal(t, storage.Status("BAND3"), e.CandidateStatus)
	})
}

func TestTokenErrors(t *testing.T) {
	s := setupServer(t, RouterOptions{})

	cases := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"validate missing token", "/api/tokens/validate", `{}`, http.StatusBadRequest},
		{"validate malformed token", "/api/tokens/validate", `{"token":"abc"}`, http.StatusBadRequest},
		{"validate unknown token", "/api/tokens/validate", `{"token":"sispac_0123456789abcdef0123456789abcdef"}`, http.StatusNotFound},
		{"complete without answers", "/api/candidates/complete", `{"token":"sispac_0123456789abcdef0123456789abcdef"}`, http.StatusBadRequest},
		{"complete empty answers", "/api/candidates/complete", `{"token":"sispac_0123456789abcdef0123456789abcdef","answers":{}}`, http.StatusBadRequest},
		{"complete negative score", "/api/candidates/complete", `{"token":"sispac_0123456789abcdef0123456789abcdef","answers":{"1":["A"]},"score":-1}`, http.StatusBadRequest},
		{"complete unknown token", "/api/candidates/complete", `{"token":"sispac_0123456789abcdef0123456789abcdef","answers":{"1":["A"]}}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestQuestionsHidesWeights(t *testing.T) {
	s := setupServer(t, RouterOptions{})
	rec := s.do(t, http.MethodGet, "/api/questions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.NotContains(t, rec.Body.String(), "value")
	var res QuestionsResponse
	decodeBody(t, rec, &res)
	require.Len(t, res.Questions, 2)
	assert.Equal(t, "A", res.Questions[0].Options[0].Text)
	assert.Equal(t, 100, res.MaxScore)
}

func TestRateLimit(t *testing.T) {
	validateFrom := func(s *testServer, peer, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/tokens/validate", strings.NewReader(`{"token":"abc"}`))
		req.RemoteAddr = peer + ":4711"
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("budget per peer", func(t *testing.T) {
		s := setupServer(t, RouterOptions{RateLimit: NewRateLimiter(0.001, 2, false)})

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			codes = append(codes, validateFrom(s, "203.0.113.7", ""))
		}
		assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, codes)

		// other peers have their own bucket
		assert.Equal(t, http.StatusBadRequest, validateFrom(s, "203.0.113.9", ""))
	})

	t.Run("forwarded header is ignored unless proxy is trusted", func(t *testing.T) {
		rl := NewRateLimiter(0.001, 1, false)
		s := setupServer(t, RouterOptions{RateLimit: rl})

		assert.Equal(t, http.StatusBadRequest, validateFrom(s, "203.0.113.7", "198.51.100.1"))
		for i := 2; i < 50; i++ {
			code := validateFrom(s, "203.0.113.7", fmt.Sprintf("198.51.100.%d", i))
			require.Equal(t, http.StatusTooManyRequests, code)
		}
		assert.Equal(t, 1, rl.size())
	})

	t.Run("trusted proxy keys on forwarded client", func(t *testing.T) {
		s := setupServer(t, RouterOptions{RateLimit: NewRateLimiter(0.001, 1, true)})

		assert.Equal(t, http.StatusBadRequest, validateFrom(s, "10.0.0.2", "198.51.100.1, 10.0.0.1"))
		assert.Equal(t, http.StatusTooManyRequests, validateFrom(s, "10.0.0.2", "198.51.100.1"))
		assert.Equal(t, http.StatusBadRequest, validateFrom(s, "10.0.0.2", "198.51.100.2"))
	})
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1, false)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		rl.limiter(fmt.Sprintf("198.51.100.%d", i))
	}
	assert.Equal(t, 100, rl.size())

	now = now.Add(limiterIdleTTL / 2)
	rl.limiter("203.0.113.7")

	now = now.Add(limiterIdleTTL/2 + time.Second)
	rl.limiter("203.0.113.8")
	assert.Equal(t, 2, rl.size(), "only clients seen within the idle window survive a sweep")
}

func TestStaffAuth(t *testing.T) {
	s := setupServer(t, RouterOptions{})
	body := `{"name":"Alice","email":"alice@example.com"}`

	t.Run("missing credential", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/candidates/issue", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var e ErrorResponse
		decodeBody(t, rec, &e)
		assert.Equal(t, "unauthorized", e.Reason)
		assert.NotContains(t, rec.Body.String(), "sispac_")
		assert.Empty(t, s.queue.invites)
	})

	t.Run("wrong key", func(t *testing.T) {
		rec := s.send(t, http.MethodPost, "/api/candidates/issue", body, http.Header{"X-Api-Key": {"staff-key-wrong"}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bearer token", func(t *testing.T) {
		rec := s.send(t, http.MethodPost, "/api/candidates/issue", body, http.Header{"Authorization": {"Bearer " + testStaffKey}})
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("unauthenticated reissue keeps the emailed token", func(t *testing.T) {
		issued := s.issue(t, "bob@example.com")
		rec := s.do(t, http.MethodPost, "/api/candidates/issue", `{"name":"Mallory","email":"bob@example.com"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = s.do(t, http.MethodPost, "/api/tokens/validate", `{"token":"`+issued.AccessToken+`"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("nil authenticator rejects everything", func(t *testing.T) {
		h := RequireAuth(nil, func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-API-Key", testStaffKey)
		h(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestReissueHandler(t *testing.T) {
	s := setupServer(t, RouterOptions{})
	issued := s.issue(t, "alice@example.com")

	rec := s.staff(t, http.MethodPost, "/api/candidates/reissue", `{"candidate_id":"`+issued.Candidate.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res IssueResponse
	decodeBody(t, rec, &res)
	assert.Equal(t, assessment.ActionReuse, res.Action)
	assert.NotEqual(t, issued.AccessToken, res.AccessToken)
	require.Len(t, s.queue.invites, 2)
	assert.Equal(t, res.AccessLink, s.queue.invites[1].AccessLink)

	rec = s.do(t, http.MethodPost, "/api/tokens/validate", `{"token":"`+issued.AccessToken+`"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"missing id", `{}`, http.StatusBadRequest},
		{"unknown id", `{"candidate_id":"nope"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.staff(t, http.MethodPost, "/api/candidates/reissue", tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}

	t.Run("requires staff", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/candidates/reissue", `{"candidate_id":"`+issued.Candidate.ID+`"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRecover(t *testing.T) {
	s := setupServer(t, RouterOptions{})
	h := Recover(s.api.logger, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var e ErrorResponse
	decodeBody(t, rec, &e)
	assert.Equal(t, "internal", e.Reason)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestCORSPreflight(t *testing.T) {
	s := setupServer(t, RouterOptions{CORSOrigin: "https://form.example.com"})
	rec := s.do(t, http.MethodOptions, "/api/candidates/complete", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://form.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
