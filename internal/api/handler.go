package api

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"candidate-assessment/internal/assessment"
	"candidate-assessment/internal/notify"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 64 << 10

// InviteQueue accepts invites for asynchronous delivery.
type InviteQueue interface {
	Enqueue(inv notify.Invite) bool
}

type API struct {
	svc          *assessment.Service
	invites      InviteQueue
	validate     *validator.Validate
	logger       *zap.SugaredLogger
	storeTimeout time.Duration
}

func NewAPI(svc *assessment.Service, invites InviteQueue, storeTimeout time.Duration, logger *zap.SugaredLogger) *API {
	v := validator.New()
	// report JSON field names in validation messages
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &API{
		svc:          svc,
		invites:      invites,
		validate:     v,
		logger:       logger,
		storeTimeout: storeTimeout,
	}
}

// decode reads a bounded JSON body into dst and runs its validate tags.
func (a *API) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &assessment.Error{Kind: assessment.KindValidation, Reason: assessment.ReasonInvalidFormat, Message: "request body too large"}
		}
		return &assessment.Error{Kind: assessment.KindValidation, Reason: assessment.ReasonInvalidFormat, Message: "invalid JSON"}
	}

	if err := a.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fieldError(fieldErrs[0])
		}
		return &assessment.Error{Kind: assessment.KindValidation, Reason: assessment.ReasonInvalidFormat, Message: "invalid request"}
	}
	return nil
}

func fieldError(fe validator.FieldError) *assessment.Error {
	e := &assessment.Error{Kind: assessment.KindValidation}
	switch fe.Tag() {
	case "required":
		e.Reason = assessment.ReasonMissingField
		e.Message = fe.Field() + " is required"
	case "email":
		e.Reason = assessment.ReasonInvalidEmail
		e.Message = fe.Field() + " is invalid"
	default:
		e.Reason = assessment.ReasonInvalidFormat
		e.Message = fe.Field() + " failed " + fe.Tag() + " check"
	}
	return e
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}
