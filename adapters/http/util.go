package verifyhttp

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
)

var reValidEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validEmail(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && len(s) <= 254 && reValidEmail.MatchString(s)
}

func bearerToken(authorization string) string {
	if authorization == "" {
		return ""
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

func decodeJSON(r *http.Request, dst any) error {
	if r == nil || r.Body == nil {
		return errors.New("missing_body")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	// Reject trailing garbage.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("invalid_json")
	}
	return nil
}

// ClientIPFunc derives the caller's IP from a request.
type ClientIPFunc func(r *http.Request) string

// DefaultClientIP prefers RemoteAddr; reverse-proxy setups that terminate at
// a trusted layer should install their own ClientIPFunc.
func DefaultClientIP() ClientIPFunc {
	return func(r *http.Request) string {
		if r == nil {
			return ""
		}
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}
}
