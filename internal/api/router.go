package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// RouterOptions carries the cross-cutting settings of the HTTP surface.
type RouterOptions struct {
	RateLimit  *RateLimiter
	CORSOrigin string
	SwaggerURL string
	// StaffAuth guards the issue and reissue endpoints. Nil rejects every request.
	StaffAuth  Authenticator
}

func NewRouter(a *API, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	// Swagger documentation - must be registered first
	swaggerURL := opts.SwaggerURL
	if swaggerURL == "" {
		swaggerURL = "/swagger/doc.json"
	}
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL(swaggerURL),
	))

	// Health check (for Railway, k8s, etc.)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	limited := func(h http.HandlerFunc) http.HandlerFunc {
		if opts.RateLimit == nil {
			return h
		}
		return opts.RateLimit.Wrap(h)
	}

	staff := func(h http.HandlerFunc) http.HandlerFunc {
		return limited(RequireAuth(opts.StaffAuth, h))
	}

	// Candidate endpoints
	mux.HandleFunc("/api/candidates/issue", staff(a.IssueHandler))
	mux.HandleFunc("/api/candidates/reissue", staff(a.ReissueHandler))
	mux.HandleFunc("/api/candidates/complete", limited(a.CompleteHandler))
	mux.HandleFunc("/api/tokens/validate", limited(a.ValidateTokenHandler))
	mux.HandleFunc("/api/questions", a.QuestionsHandler)

	origin := opts.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	return Recover(a.logger, RequestLogger(a.logger, CORS(origin, mux)))
}
