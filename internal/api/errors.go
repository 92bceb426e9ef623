package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/bowling-score-go/internal/bowling"
	"github.com/MJE43/bowling-score-go/internal/games"
)

// Messages returned to clients.
const (
	msgGameNotFound      = "Game not found"
	msgSummaryFailed     = "Summary generation failed"
	msgInternal          = "Internal server error"
	msgRateLimited       = "Too many summary requests"
	msgRequestTimedOut   = "Request timed out"
	msgInvalidPagination = "Invalid pagination parameters"
)

// ErrorBuilder helps construct structured errors with context
type ErrorBuilder struct {
	errType   string
	message   string
	context   map[string]interface{}
	requestID string
	cause     error
}

// NewError creates a new error builder
func NewError(errType, message string) *ErrorBuilder {
	return &ErrorBuilder{
		errType: errType,
		message: message,
		context: make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (eb *ErrorBuilder) WithContext(key string, value interface{}) *ErrorBuilder {
	eb.context[key] = value
	return eb
}

// WithRequestID adds request ID to the error
func (eb *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	eb.requestID = requestID
	return eb
}

// WithCause records the underlying error. It is logged but never sent.
func (eb *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	eb.cause = err
	return eb
}

// Build creates the final APIError
func (eb *ErrorBuilder) Build() APIError {
	ctx := eb.context
	if len(ctx) == 0 {
		ctx = nil
	}
	return APIError{
		Type:      eb.errType,
		Message:   eb.message,
		Context:   ctx,
		RequestID: eb.requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *log.Logger
	audit  *AuditLogger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *log.Logger, audit *AuditLogger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
		audit:  audit,
	}
}

// HandleError maps a service error to a response. Unknown errors become a
// generic 500 and their text stays in the log.
func (eh *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, gameID int64, err error) {
	requestID := middleware.GetReqID(r.Context())

	var rej *bowling.RejectError
	switch {
	case errors.As(err, &rej):
		eh.audit.LogSecurityEvent(requestID, "roll_rejected", rej.Message, map[string]interface{}{
			"game_id": gameID,
			"reason":  rej.Code,
		}, r.RemoteAddr)
		eh.write(w, r, http.StatusBadRequest, NewError(rej.Code, rej.Message).
			WithRequestID(requestID).
			WithCause(err))

	case errors.Is(err, games.ErrGameNotFound):
		eh.HandleNotFound(w, r)

	case errors.Is(err, games.ErrSummaryUnavailable):
		eh.write(w, r, http.StatusInternalServerError, NewError(ErrTypeSummaryUnavailable, msgSummaryFailed).
			WithRequestID(requestID).
			WithContext("game_id", gameID).
			WithCause(err))

	case errors.Is(err, context.DeadlineExceeded):
		eh.write(w, r, http.StatusGatewayTimeout, NewError(ErrTypeTimeout, msgRequestTimedOut).
			WithRequestID(requestID).
			WithCause(err))

	default:
		eh.write(w, r, http.StatusInternalServerError, NewError(ErrTypeInternal, msgInternal).
			WithRequestID(requestID).
			WithCause(err))
	}
}

// HandleNotFound writes the 404 used for unknown and malformed game ids
func (eh *ErrorHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())
	eh.write(w, r, http.StatusNotFound, NewError(ErrTypeGameNotFound, msgGameNotFound).
		WithRequestID(requestID))
}

// HandleValidationError handles malformed query parameters
func (eh *ErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, field, message string) {
	requestID := middleware.GetReqID(r.Context())
	eh.write(w, r, http.StatusBadRequest, NewError(ErrTypeInvalidParams, message).
		WithRequestID(requestID).
		WithContext("field", field))
}

// HandleRateLimited writes a 429
func (eh *ErrorHandler) HandleRateLimited(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	requestID := middleware.GetReqID(r.Context())
	eh.audit.LogSecurityEvent(requestID, "rate_limited", "summary rate limit exceeded", map[string]interface{}{
		"path": r.URL.Path,
	}, r.RemoteAddr)

	secs := int(retryAfter.Seconds() + 0.999)
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", fmt.Sprintf("%d", secs))
	eh.write(w, r, http.StatusTooManyRequests, NewError(ErrTypeRateLimit, msgRateLimited).
		WithRequestID(requestID).
		WithContext("retry_after_seconds", secs))
}

func (eh *ErrorHandler) write(w http.ResponseWriter, r *http.Request, status int, eb *ErrorBuilder) {
	apiErr := eb.Build()
	eh.logError(r, apiErr, status, eb.cause)
	eh.writeErrorResponse(w, status, apiErr)
}

// logError logs the error with appropriate level and context
func (eh *ErrorHandler) logError(r *http.Request, apiErr APIError, status int, cause error) {
	category := GetErrorCategory(apiErr.Type)

	logLevel := "ERROR"
	if status < 500 {
		logLevel = "WARN"
	}

	causeText := ""
	if cause != nil {
		causeText = cause.Error()
	}

	eh.logger.Printf(
		"error_occurred level=%s type=%s category=%s status=%d request_id=%s method=%s path=%s message=%q cause=%q context=%+v",
		logLevel, apiErr.Type, category, status, apiErr.RequestID, r.Method, r.URL.Path, apiErr.Message, causeText, apiErr.Context,
	)
}

// writeErrorResponse writes the error response as JSON
func (eh *ErrorHandler) writeErrorResponse(w http.ResponseWriter, status int, apiErr APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Service-Version", ServiceVersion)
	w.Header().Set("X-Error-Type", apiErr.Type)
	w.Header().Set("X-Error-Category", string(GetErrorCategory(apiErr.Type)))
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(apiErr); err != nil {
		eh.logger.Printf("error_encode_failed request_id=%s error=%q", apiErr.RequestID, err)
	}
}

// RecoveryHandler provides panic recovery with structured error logging
func (eh *ErrorHandler) RecoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				requestID := middleware.GetReqID(r.Context())

				eh.logger.Printf(
					"panic_recovered request_id=%s path=%s method=%s panic=%v",
					requestID, r.URL.Path, r.Method, rvr,
				)

				apiErr := NewError(ErrTypeInternal, msgInternal).
					WithRequestID(requestID).
					Build()
				eh.writeErrorResponse(w, http.StatusInternalServerError, apiErr)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
