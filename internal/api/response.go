package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"account-ledger-go/internal/store"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Response is the envelope every endpoint answers with
type Response struct {
	StatusCode int       `json:"statusCode"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
	Data       any       `json:"data,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// statusName renders a status code the way the envelope spells it, e.g. BAD_REQUEST
func statusName(code int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(code), " ", "_"))
}

func writeJSON(w http.ResponseWriter, code int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("Failed to encode response", zap.Error(err))
	}
}

func writeData(w http.ResponseWriter, code int, message string, data any) {
	writeJSON(w, code, Response{
		StatusCode: code,
		Status:     statusName(code),
		Message:    message,
		Data:       data,
		Timestamp:  time.Now().UTC(),
	})
}

func writeMessage(w http.ResponseWriter, code int, message string) {
	writeData(w, code, message, nil)
}

// statusFor maps an error kind to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrValidation), errors.Is(err, store.ErrInsufficientFunds):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrAlreadyExists), errors.Is(err, store.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, store.ErrInfrastructure), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	message := err.Error()

	if code >= http.StatusInternalServerError {
		zap.L().Error("Request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", code),
			zap.Error(err))
		if code == http.StatusInternalServerError {
			message = "An unexpected error occurred"
		}
	}

	writeMessage(w, code, message)
}

// decodeBody reads a JSON request body into v
func decodeBody(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", store.ErrValidation, err)
	}
	return nil
}

// requestLogger logs one line per request with zap
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)

		zap.L().Debug("Request served",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(started)))
	})
}
