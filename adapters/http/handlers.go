package verifyhttp

import (
	"net/http"

	core "github.com/itellico/verifykit/core"
)

// APIHandler returns a handler that serves the JSON API routes. It is
// intended to be mounted under the host's mux/router at any prefix.
func (s *Service) APIHandler() http.Handler {
	if s == nil || s.svc == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { serverErr(w) })
	}

	mux := http.NewServeMux()

	// Token-initiating and token-consuming flows (no auth).
	mux.Handle("POST /auth/forgot-password", http.HandlerFunc(s.handleForgotPasswordPOST))
	mux.Handle("POST /auth/reset-password", http.HandlerFunc(s.handleResetPasswordPOST))
	mux.Handle("POST /auth/verify-email", http.HandlerFunc(s.handleVerifyEmailPOST))
	mux.Handle("POST /auth/resend-verification", http.HandlerFunc(s.handleResendVerificationPOST))

	// Two-phase email change (auth required).
	required := Required(s.svc)
	mux.Handle("POST /user/account/change-email", required(http.HandlerFunc(s.handleChangeEmailPOST)))
	mux.Handle("POST /user/account/verify-email-change", required(http.HandlerFunc(s.handleVerifyEmailChangePOST)))

	return clientIPMiddleware(s)(mux)
}

// clientIPMiddleware stamps the caller's IP into the context so core flows
// can attach it to audit records.
func clientIPMiddleware(s *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := core.WithClientIP(r.Context(), s.requestIP(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
