package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"microfinance-backend/internal/api/handler/dto"
	"microfinance-backend/internal/pkg/apperrors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// Clock yields the current time in the servicing timezone.
type Clock func() time.Time

func LocalClock(loc *time.Location) Clock {
	return func() time.Time { return time.Now().In(loc) }
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// decodeOptionalJSON accepts an empty body for endpoints whose payload is
// all optional.
func decodeOptionalJSON(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	defer r.Body.Close()
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, err error) {
	status, code, message, field := http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred.", ""
	var validationError *apperrors.ValidationError
	var appErr *apperrors.AppError

	switch {
	case errors.As(err, &validationError):
		status, code, message, field = http.StatusBadRequest, "VALIDATION_ERROR", validationError.Message, validationError.Field
	case errors.Is(err, apperrors.ErrNotFound):
		status, code, message = http.StatusNotFound, "NOT_FOUND", "Resource not found."
	case apperrors.IsAny(err, apperrors.ErrInvalidArgument, apperrors.ErrValidation, apperrors.ErrInvalidPaymentAmount):
		status, code, message = http.StatusBadRequest, "INVALID_ARGUMENT", err.Error()
	case errors.Is(err, apperrors.ErrAlreadyReversed):
		status, code, message = http.StatusConflict, "ALREADY_REVERSED", "Payment already reversed"
	case errors.Is(err, apperrors.ErrInvalidTransition):
		status, code, message = http.StatusConflict, "INVALID_TRANSITION", err.Error()
	case apperrors.IsAny(err, apperrors.ErrAlreadyExists, apperrors.ErrConflict):
		status, code, message = http.StatusConflict, "CONFLICT", err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		status, code, message = http.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials"
	case errors.Is(err, apperrors.ErrDatabase):
		code = "DB_ERROR"
		if errors.As(err, &appErr) && appErr.Code != "" {
			code = appErr.Code
		}
		slog.Default().Error("Database error", "error", err)
	case errors.Is(err, apperrors.ErrInternalServer):
		message = strings.TrimPrefix(err.Error(), apperrors.ErrInternalServer.Error()+": ")
	default:
		slog.Default().Error("Unhandled internal error", "error", err)
	}

	resp := dto.ErrorResponse{
		Error: dto.ErrorDetail{
			Code:    code,
			Message: message,
			Field:   field,
		},
	}
	respondJSON(w, status, resp)
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
}

func urlParam(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(chi.URLParam(r, name))
	if v == "" {
		return "", fmt.Errorf("%w: %s not found in URL path", apperrors.ErrInvalidArgument, name)
	}
	return v, nil
}

func queryBool(r *http.Request, name string) bool {
	return r.URL.Query().Get(name) == "true"
}

// logServiceError logs not-found and validation failures as warnings and
// everything else as errors.
func logServiceError(r *http.Request, logger *slog.Logger, msg string, err error) {
	level := slog.LevelError
	if apperrors.IsAny(err, apperrors.ErrNotFound, apperrors.ErrValidation,
		apperrors.ErrAlreadyReversed, apperrors.ErrUnauthorized) {
		level = slog.LevelWarn
	}
	logger.Log(r.Context(), level, msg, slog.Any("error", err))
}
