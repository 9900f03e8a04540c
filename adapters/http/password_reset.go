package verifyhttp

import (
	"errors"
	"net/http"
	"strings"

	core "github.com/itellico/verifykit/core"
)

// genericRequestMessage is returned on every forgot-password and
// resend-verification call, found or not: the bodies must be byte-identical
// across both branches.
const genericRequestMessage = "If the address exists in our system, instructions have been sent."

func (s *Service) handleForgotPasswordPOST(w http.ResponseWriter, r *http.Request) {
	if ok, retryAfter := s.allow(r, RLForgotPassword); !ok {
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

	// Always the same response; the silent branch lives in core.
	_ = s.svc.ForgotPassword(r.Context(), req.Email)
	respondOK(w, http.StatusOK, nil, genericRequestMessage)
}

func (s *Service) handleResetPasswordPOST(w http.ResponseWriter, r *http.Request) {
	if ok, retryAfter := s.allow(r, RLResetPassword); !ok {
		tooMany(w, retryAfter)
		return
	}

	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Token) == "" || req.Password == "" {
		badRequest(w, codeInvalidRequest)
		return
	}

	err := s.svc.ResetPassword(r.Context(), strings.TrimSpace(req.Token), req.Password)
	switch {
	case err == nil:
		respondOK(w, http.StatusOK, nil, "Password has been reset.")
	case errors.Is(err, core.ErrWeakPassword):
		badRequest(w, codeWeakPassword)
	case errors.Is(err, core.ErrInvalidToken):
		badRequest(w, codeInvalidToken)
	default:
		serverErr(w)
	}
}
