// internal/api/handler/referral.go
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"referral-tracker/internal/api/types"
	"referral-tracker/internal/domain"
	"referral-tracker/internal/service"
	"referral-tracker/internal/util" // For custom errors
)

// DefaultTimeout bounds each request, including its storage calls.
const DefaultTimeout = 15 * time.Second

// ReferralHandler handles HTTP requests for registration and referral lookups.
type ReferralHandler struct {
	service  service.ReferralService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewReferralHandler creates a new ReferralHandler.
func NewReferralHandler(svc service.ReferralService, logger *slog.Logger) *ReferralHandler {
	validate := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names instead of Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &ReferralHandler{
		service:  svc,
		validate: validate,
		logger:   logger,
	}
}

// Helper function to send JSON responses.
func (h *ReferralHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses.
func (h *ReferralHandler) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := err.Error() // Storage faults carry the underlying message to the caller

	switch {
	case util.IsError(err, util.ErrInvalidInput):
		statusCode = http.StatusUnprocessableEntity
		message = util.ErrInvalidInput.Error()
	case util.IsError(err, util.ErrStorage):
		h.logger.Error("Storage failure", "error", err)
	default:
		h.logger.Error("Unhandled service error", "error", err)
	}

	h.respondWithJSON(w, statusCode, types.ErrorResponse{Error: message})
}

// respondWithValidationError reports each rejected field of a request body.
func (h *ReferralHandler) respondWithValidationError(w http.ResponseWriter, details []types.FieldError) {
	h.respondWithJSON(w, http.StatusUnprocessableEntity, types.ErrorResponse{
		Error:   util.ErrInvalidInput.Error(),
		Details: details,
	})
}

// RegisterRequest represents the request body for register.
type RegisterRequest struct {
	Address   string  `json:"address" validate:"required"`
	Username  *string `json:"username"`
	FirstName string  `json:"first_name" validate:"required"`
	LastName  *string `json:"last_name"`
	Referrer  *string `json:"referrer"`
}

// Register handles the wallet registration request.
// POST /register
func (h *ReferralHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithValidationError(w, []types.FieldError{{Field: "body", Message: decodeErrorMessage(err)}})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			h.respondWithError(w, err)
			return
		}
		details := make([]types.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, types.FieldError{Field: fe.Field(), Message: fieldErrorMessage(fe)})
		}
		h.respondWithValidationError(w, details)
		return
	}

	err := h.service.Register(r.Context(), domain.Registration{
		Address:   req.Address,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Referrer:  req.Referrer,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.StatusResponse{Status: "ok"})
}

// GetReferrals handles the referral summary request.
// GET /referrals/{address}
func (h *ReferralHandler) GetReferrals(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	// chi matches against RawPath when the path carried escapes, leaving the param encoded
	if r.URL.RawPath != "" {
		if decoded, err := url.PathUnescape(address); err == nil {
			address = decoded
		}
	}

	summary, err := h.service.GetReferrals(r.Context(), address)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.NewReferralsResponse(summary))
}

func fieldErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	default:
		return fmt.Sprintf("%s failed the %s check", fe.Field(), fe.Tag())
	}
}

func decodeErrorMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type.String())
	}
	return fmt.Sprintf("malformed JSON: %v", err)
}
