// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON HTTP handlers for the pagesmith API.
// Handlers are grouped by concern (auth, themes, pages, metadata, media)
// and receive their dependencies through the API struct.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/text/language"

	"pagesmith/internal/auth"
	"pagesmith/internal/content"
	"pagesmith/internal/gateway"
	"pagesmith/internal/middleware"
	"pagesmith/internal/theme"
	"pagesmith/internal/validate"
)

// maxJSONBody caps request bodies for JSON and CSV endpoints.
const maxJSONBody = 2 << 20

// Blobs stores media files. storage.Client implements it.
type Blobs interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	FileURL(key string) string
}

// Deps are the services the handlers call.
type Deps struct {
	Auth    *auth.Service
	Themes  *theme.Service
	Content *content.Service
	Records gateway.Records
	// Blobs may be nil when object storage is not configured.
	Blobs Blobs
	// Locale is the report language when a request names none.
	Locale language.Tag
	// SecureCookies marks the session cookie Secure (set behind TLS).
	SecureCookies bool
}

// API groups all HTTP handlers and their dependencies.
type API struct {
	auth          *auth.Service
	themes        *theme.Service
	content       *content.Service
	records       gateway.Records
	blobs         Blobs
	locale        language.Tag
	secureCookies bool
}

// New creates the handler group.
func New(d Deps) *API {
	return &API{
		auth:          d.Auth,
		themes:        d.Themes,
		content:       d.Content,
		records:       d.Records,
		blobs:         d.Blobs,
		locale:        d.Locale,
		secureCookies: d.SecureCookies,
	}
}

// Health reports liveness.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write json response", "error", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}

// fail maps err onto a status code and writes it. Unexpected errors are
// logged and their text is not exposed.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFromCtx(r.Context()),
			"error", err,
		)
		msg = http.StatusText(status)
	}
	writeError(w, status, code, msg)
}

func errorStatus(err error) (int, string) {
	var gwErr *gateway.Error
	switch {
	case errors.Is(err, gateway.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, auth.ErrInvalidCode):
		return http.StatusUnauthorized, "invalid_code"
	case errors.Is(err, theme.ErrPermissionDenied):
		return http.StatusForbidden, "permission_denied"
	case errors.Is(err, theme.ErrNotFound), errors.Is(err, gateway.ErrNotFound),
		errors.Is(err, content.ErrTemplateNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, theme.ErrDuplicateSlug):
		return http.StatusConflict, "duplicate_slug"
	case errors.Is(err, theme.ErrDuplicateTokens):
		return http.StatusConflict, "duplicate_tokens"
	case errors.Is(err, theme.ErrNoFallback), errors.Is(err, gateway.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, theme.ErrInvalid), errors.Is(err, content.ErrInvalidMetadata),
		errors.Is(err, content.ErrInvalidSection), errors.Is(err, auth.ErrNotEnrolled),
		errors.Is(err, gateway.ErrUnknownField):
		return http.StatusUnprocessableEntity, "invalid"
	case errors.As(err, &gwErr):
		return http.StatusBadGateway, "gateway"
	}
	return http.StatusInternalServerError, "internal"
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// uuidParam parses a UUID URL parameter, writing 400 when malformed.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// pageParam returns the unescaped {pageID} parameter. Page ids that are
// paths travel URL-encoded ("%2Fabout").
func pageParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := url.PathUnescape(chi.URLParam(r, "pageID"))
	if err != nil || id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid page id")
		return "", false
	}
	return id, true
}

// reportLanguage picks the validation report language from ?lang=, then
// Accept-Language, then the configured default.
func (a *API) reportLanguage(r *http.Request) language.Tag {
	if l := r.URL.Query().Get("lang"); l != "" {
		return validate.Language(l)
	}
	if l := r.Header.Get("Accept-Language"); l != "" {
		return validate.Language(l)
	}
	return a.locale
}

// validationResponse is a validate.Result with messages in the requested
// language and the rendered text report.
type validationResponse struct {
	validate.Result
	Report string `json:"report"`
}

func localized(res validate.Result, lang language.Tag) validationResponse {
	out := validate.Result{IsValid: res.IsValid, Errors: make([]validate.Issue, len(res.Errors)), Warnings: make([]validate.Issue, len(res.Warnings))}
	for i, is := range res.Errors {
		is.Message = is.Localize(lang)
		out.Errors[i] = is
	}
	for i, is := range res.Warnings {
		is.Message = is.Localize(lang)
		out.Warnings[i] = is
	}
	return validationResponse{Result: out, Report: validate.Report(res, lang)}
}
