package verifyhttp

import (
	"errors"
	"net/http"
	"strings"

	core "github.com/itellico/verifykit/core"
)

func (s *Service) handleChangeEmailPOST(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	if userID == "" {
		unauthorized(w, codeUnauthorized)
		return
	}
	if ok, retryAfter := s.allowSubject(r, RLEmailChangeRequest, userID); !ok {
		tooMany(w, retryAfter)
		return
	}

	var req struct {
		NewEmail string `json:"newEmail"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Password == "" {
		badRequest(w, codeInvalidRequest)
		return
	}
	if !validEmail(req.NewEmail) {
		badRequest(w, codeInvalidEmail)
		return
	}

	err := s.svc.RequestEmailChange(r.Context(), userID, req.NewEmail, req.Password)
	switch {
	case err == nil:
		respondOK(w, http.StatusOK, map[string]any{"requiresVerification": true}, "Confirmation links were sent to both addresses.")
	case errors.Is(err, core.ErrInvalidPassword):
		badRequest(w, codeInvalidPassword)
	case errors.Is(err, core.ErrSameEmail):
		badRequest(w, codeSameEmail)
	case errors.Is(err, core.ErrEmailExists):
		conflict(w, codeEmailExists)
	case errors.Is(err, core.ErrUserNotFound):
		unauthorized(w, codeUnauthorized)
	default:
		serverErr(w)
	}
}

func (s *Service) handleVerifyEmailChangePOST(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	if userID == "" {
		unauthorized(w, codeUnauthorized)
		return
	}
	if ok, retryAfter := s.allowSubject(r, RLEmailChangeConfirm, userID); !ok {
		tooMany(w, retryAfter)
		return
	}

	var req struct {
		Token string `json:"token"`
		Type  string `json:"type"`
	}
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Token) == "" {
		badRequest(w, codeInvalidRequest)
		return
	}
	var side core.ChangeSide
	switch req.Type {
	case "old":
		side = core.ChangeSideOld
	case "new":
		side = core.ChangeSideNew
	default:
		badRequest(w, codeInvalidRequest)
		return
	}

	res, err := s.svc.VerifyEmailChange(r.Context(), userID, strings.TrimSpace(req.Token), side)
	switch {
	case err == nil && res.Committed:
		respondOK(w, http.StatusOK, map[string]any{"committed": true, "newEmail": res.NewEmail}, "Email address has been changed.")
	case err == nil:
		respondOK(w, http.StatusOK, map[string]any{"committed": false, "pending": string(res.PendingSide)}, "Confirmation recorded; awaiting the other address.")
	case errors.Is(err, core.ErrInvalidToken):
		badRequest(w, codeInvalidToken)
	case errors.Is(err, core.ErrEmailExists):
		conflict(w, codeEmailExists)
	default:
		serverErr(w)
	}
}
