package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"pagesmith/internal/gateway"
	"pagesmith/internal/middleware"
)

type loginResponse struct {
	Token   string           `json:"token"`
	Session *gateway.Session `json:"session"`
	// Needs2FA is true when the user must enrol (or has not confirmed a
	// code) before writing.
	Needs2FA bool `json:"needs_2fa"`
}

// Login checks credentials, opens a session and loads the theme state for
// it. The token is returned in the body and set as an HttpOnly cookie.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var creds gateway.Credentials
	if !decodeJSON(w, r, &creds) {
		return
	}

	sess, err := a.auth.Authenticate(r.Context(), creds)
	if err != nil {
		slog.Warn("sign-in rejected", "email", creds.Email, "error", err)
		fail(w, r, err)
		return
	}

	if err := a.themes.Load(r.Context(), sess); err != nil {
		slog.Error("load themes at sign-in", "error", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: sess.Token, Session: sess, Needs2FA: !sess.TwoFADone})
}

// Logout destroys the session, clears the cookie and drops the cached
// theme state.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess != nil {
		if err := a.auth.SignOut(r.Context(), sess.Token); err != nil {
			fail(w, r, err)
			return
		}
		slog.Info("user signed out", "email", sess.Email)
	}
	a.themes.Reset()

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secureCookies,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the current session.
func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.SessionFromCtx(r.Context()))
}

// TwoFAEnroll generates a TOTP secret and QR code for the signed-in user.
func (a *API) TwoFAEnroll(w http.ResponseWriter, r *http.Request) {
	enrollment, err := a.auth.Enroll(r.Context(), middleware.SessionFromCtx(r.Context()))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, enrollment)
}

// TwoFAConfirm verifies a code, enabling 2FA and completing the session.
func (a *API) TwoFAConfirm(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	if err := a.auth.Confirm(r.Context(), sess, body.Code); err != nil {
		fail(w, r, err)
		return
	}
	slog.Info("2FA confirmed", "email", sess.Email)
	writeJSON(w, http.StatusOK, sess)
}
