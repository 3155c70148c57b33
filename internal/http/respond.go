package http

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/robertarktes/event-marketplace/internal/domain"
	"github.com/robertarktes/event-marketplace/internal/observability"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type envelope struct {
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Remaining *int        `json:"remaining,omitempty"`
	Error     string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Message: message, Data: data})
}

// writeError maps err onto a status code and a client-facing message.
// Unclassified errors are logged and their text is only exposed when
// showDetail is set.
func writeError(w http.ResponseWriter, r *http.Request, err error, showDetail bool) {
	body := envelope{}
	status := http.StatusInternalServerError

	var capErr *domain.InsufficientCapacityError
	switch {
	case errors.As(err, &capErr):
		status = http.StatusBadRequest
		body.Message = capErr.Error()
		body.Remaining = &capErr.Remaining
	case errors.Is(err, domain.ErrSerializationFailure):
		status = http.StatusConflict
		body.Message = "conflict, try again"
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
		body.Message = domain.Message(err, "Invalid request")
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
		body.Message = domain.Message(err, "Unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
		body.Message = domain.Message(err, "Forbidden")
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		body.Message = domain.Message(err, "Not found")
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
		body.Message = domain.Message(err, "Conflict")
	default:
		observability.LoggerFrom(r.Context()).WithError(err).Error("request failed")
		body.Message = "Internal server error"
		if showDetail {
			body.Error = err.Error()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// decode reads a JSON body into dst and runs its validate tags.
func decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Invalid("Malformed JSON body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return domain.Invalidf("%s is invalid (%s)", verrs[0].Field(), verrs[0].Tag())
		}
		return domain.Invalid("Invalid request")
	}
	return nil
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, domain.Invalidf("Invalid %s", name)
	}
	return id, nil
}
