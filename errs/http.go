package errs

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// codes maps application error codes to HTTP status codes.
var codes = map[string]int{
	EINVALID:      http.StatusBadRequest,
	EUNAUTHORIZED: http.StatusUnauthorized,
	EFORBIDDEN:    http.StatusForbidden,
	ENOTFOUND:     http.StatusNotFound,
	ECONFLICT:     http.StatusConflict,
	ETOOMANY:      http.StatusTooManyRequests,
	EINTERNAL:     http.StatusInternalServerError,
}

// Response is the failure envelope every endpoint uses.
type Response struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

// StatusCode returns the HTTP status code for an application error code.
func StatusCode(code string) int {
	if v, ok := codes[code]; ok {
		return v
	}
	return http.StatusInternalServerError
}

// ReturnError writes the failure envelope for err. Internal errors are logged
// and their details are never sent to the client.
func ReturnError(w http.ResponseWriter, r *http.Request, err error, details ...string) {
	code, message := ErrorCode(err), ErrorMessage(err)
	if code == EINTERNAL {
		LogError(r, err)
	}
	if details == nil {
		details = []string{}
	}
	status := StatusCode(code)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := Response{
		StatusCode: status,
		Message:    message,
		Success:    false,
		Errors:     details,
	}
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		LogError(r, err)
	}
}

// LogError logs an error together with the request it occurred in.
func LogError(r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
}
