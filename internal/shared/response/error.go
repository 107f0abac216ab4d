package response

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"worldmap-server/internal/shared/errors"
)

// ErrorResponse represents the JSON error response sent to clients
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

var statusCodes = map[errors.ErrorType]int{
	errors.ErrorTypeNotFound:     http.StatusNotFound,
	errors.ErrorTypeValidation:   http.StatusBadRequest,
	errors.ErrorTypeConflict:     http.StatusConflict,
	errors.ErrorTypeCancelled:    http.StatusConflict,
	errors.ErrorTypeUnauthorized: http.StatusUnauthorized,
	errors.ErrorTypeForbidden:    http.StatusForbidden,
	errors.ErrorTypeRateLimited:  http.StatusTooManyRequests,
	errors.ErrorTypeInternal:     http.StatusInternalServerError,
}

type logRule struct {
	level slog.Level
	msg   string
}

var logRules = map[errors.ErrorType]logRule{
	errors.ErrorTypeNotFound:     {slog.LevelDebug, "Resource not found"},
	errors.ErrorTypeValidation:   {slog.LevelDebug, "Validation error"},
	errors.ErrorTypeUnauthorized: {slog.LevelWarn, "Authorization error"},
	errors.ErrorTypeForbidden:    {slog.LevelWarn, "Authorization error"},
	errors.ErrorTypeConflict:     {slog.LevelInfo, "Conflict error"},
	errors.ErrorTypeCancelled:    {slog.LevelInfo, "Request cancelled"},
	errors.ErrorTypeRateLimited:  {slog.LevelWarn, "Rate limit exceeded"},
}

// Error logs err and sends it as a JSON error response.
// This should be the only place where request errors are logged.
func Error(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	errorType := errors.GetType(err)
	statusCode := StatusCode(errorType)

	logError(r.Context(), logger, r, err, errorType, statusCode)
	sendErrorResponse(w, errorType, clientMessage(err, errorType), statusCode)
}

// StatusCode maps an error type to its HTTP status; unknown types are 500.
func StatusCode(errorType errors.ErrorType) int {
	if code, ok := statusCodes[errorType]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// clientMessage strips the wrapped cause of internal errors so driver or
// encoder details never reach the client.
func clientMessage(err error, errorType errors.ErrorType) string {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return "internal server error"
	}
	if errorType == errors.ErrorTypeInternal {
		return appErr.Message
	}
	return appErr.Error()
}

func logError(ctx context.Context, logger *slog.Logger, r *http.Request, err error, errorType errors.ErrorType, statusCode int) {
	rule, ok := logRules[errorType]
	if !ok {
		rule = logRule{slog.LevelError, "Internal server error"}
	}
	logger.Log(ctx, rule.level, rule.msg,
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"error_type", errorType,
		"status_code", statusCode,
		"error", err,
	)
}

func sendErrorResponse(w http.ResponseWriter, errorType errors.ErrorType, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// The status code has already been sent.
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   string(errorType),
		Message: message,
		Code:    statusCode,
	})
}
