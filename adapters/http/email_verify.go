package verifyhttp

import (
	"errors"
	"net/http"
	"strings"

	core "github.com/itellico/verifykit/core"
)

func (s *Service) handleResendVerificationPOST(w http.ResponseWriter, r *http.Request) {
	if ok, retryAfter := s.allow(r, RLResendVerification); !ok {
		tooMany(w, retryAfter)
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil || !validEmail(req.Email) {
		badRequest(w, codeInvalidEmail)
		return
	}

	_ = s.svc.ResendVerification(r.Context(), req.Email)
	respondOK(w, http.StatusOK, nil, genericRequestMessage)
}

func (s *Service) handleVerifyEmailPOST(w http.ResponseWriter, r *http.Request) {
	if ok, retryAfter := s.allow(r, RLVerifyEmail); !ok {
		tooMany(w, retryAfter)
		return
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Token) == "" {
		badRequest(w, codeInvalidRequest)
		return
	}

	already, err := s.svc.VerifyEmail(r.Context(), strings.TrimSpace(req.Token))
	switch {
	case err == nil && already:
		respondOK(w, http.StatusOK, nil, "Email is already verified.")
	case err == nil:
		respondOK(w, http.StatusOK, nil, "Email has been verified.")
	case errors.Is(err, core.ErrInvalidToken):
		badRequest(w, codeInvalidToken)
	default:
		serverErr(w)
	}
}
