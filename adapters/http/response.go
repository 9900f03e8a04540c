package verifyhttp

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// envelope is the uniform response shape for every endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Machine-readable error codes.
const (
	codeInvalidToken    = "INVALID_TOKEN"
	codeInvalidPassword = "INVALID_PASSWORD"
	codeWeakPassword    = "WEAK_PASSWORD"
	codeSameEmail       = "SAME_EMAIL"
	codeEmailExists     = "EMAIL_ALREADY_EXISTS"
	codeInvalidEmail    = "INVALID_EMAIL"
	codeInvalidRequest  = "INVALID_REQUEST"
	codeUnauthorized    = "UNAUTHORIZED"
	codeRateLimited     = "RATE_LIMITED"
	codeInternal        = "INTERNAL_ERROR"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondOK(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, envelope{Success: true, Data: data, Message: message})
}

func respondErr(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, envelope{Success: false, Error: code})
}

func badRequest(w http.ResponseWriter, code string)   { respondErr(w, http.StatusBadRequest, code) }
func unauthorized(w http.ResponseWriter, code string) { respondErr(w, http.StatusUnauthorized, code) }
func conflict(w http.ResponseWriter, code string)     { respondErr(w, http.StatusConflict, code) }
func serverErr(w http.ResponseWriter)                 { respondErr(w, http.StatusInternalServerError, codeInternal) }

func tooMany(w http.ResponseWriter, retryAfter time.Duration) {
	secs := int(retryAfter.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	respondErr(w, http.StatusTooManyRequests, codeRateLimited)
}
