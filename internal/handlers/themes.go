// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"pagesmith/internal/middleware"
	"pagesmith/internal/theme"
)

// ThemesList returns every theme, ordered by name.
func (a *API) ThemesList(w http.ResponseWriter, r *http.Request) {
	themes, err := a.themes.Themes(r.Context(), middleware.SessionFromCtx(r.Context()))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, themes)
}

// ThemeGet returns one theme with an in-use flag.
func (a *API) ThemeGet(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	t, err := a.themes.Get(r.Context(), middleware.SessionFromCtx(r.Context()), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		*theme.Theme
		InUse bool `json:"in_use"`
	}{t, a.themes.IsInUse(id)})
}

// ThemeActive returns the active theme.
func (a *API) ThemeActive(w http.ResponseWriter, r *http.Request) {
	t, err := a.themes.Active(r.Context(), middleware.SessionFromCtx(r.Context()))
	if err != nil {
		fail(w, r, err)
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "not_found", "no active theme")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ThemeCreate stores a new custom theme.
func (a *API) ThemeCreate(w http.ResponseWriter, r *http.Request) {
	var in theme.CreateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	t, err := a.themes.CreateCustom(r.Context(), middleware.SessionFromCtx(r.Context()), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// ThemeUpdate patches a custom theme.
func (a *API) ThemeUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var patch theme.ThemePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	t, err := a.themes.UpdateCustom(r.Context(), middleware.SessionFromCtx(r.Context()), id, patch)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ThemeDelete removes a custom theme and reports the fallback activation
// and repaired sections.
func (a *API) ThemeDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	res, err := a.themes.DeleteCustom(r.Context(), middleware.SessionFromCtx(r.Context()), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ThemeActivate makes a theme the single active theme.
func (a *API) ThemeActivate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	t, err := a.themes.SetActive(r.Context(), middleware.SessionFromCtx(r.Context()), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ThemeDuplicate returns an unsaved copy of a theme, ready to be edited and
// posted back to ThemeCreate.
func (a *API) ThemeDuplicate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	draft, err := a.themes.DuplicateDraft(r.Context(), middleware.SessionFromCtx(r.Context()), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// Stylesheet serves the CSS for every theme plus the custom CSS, or a
// single theme's block with ?theme=<slug>. It needs no session.
func (a *API) Stylesheet(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var (
		css string
		err error
	)
	if slug := r.URL.Query().Get("theme"); slug != "" {
		css, err = a.themes.ThemeStylesheet(r.Context(), sess, slug)
	} else {
		css, err = a.themes.Stylesheet(r.Context(), sess)
	}
	if err != nil {
		fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.Write([]byte(css))
}

// CustomCSSUpdate replaces the site custom CSS.
func (a *API) CustomCSSUpdate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CSS string `json:"css"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := a.themes.SetCustomCSS(r.Context(), middleware.SessionFromCtx(r.Context()), body.CSS); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resolveRequest struct {
	Config theme.WidgetConfig `json:"config"`
	// SectionID, when set, also returns the scoped style block.
	SectionID string `json:"section_id,omitempty"`
}

type resolveResponse struct {
	Tokens theme.TokenSet `json:"tokens"`
	CSS    string         `json:"css,omitempty"`
}

// ResolveWidget returns the effective tokens for a widget configuration.
func (a *API) ResolveWidget(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Config.Validate(); err != nil {
		fail(w, r, err)
		return
	}
	cfg := req.Config.Normalized()

	tokens, err := a.themes.Resolve(r.Context(), middleware.SessionFromCtx(r.Context()), cfg)
	if err != nil {
		fail(w, r, err)
		return
	}
	resp := resolveResponse{Tokens: tokens}
	if req.SectionID != "" {
		resp.CSS = theme.GenerateWidgetStyle(req.SectionID, tokens)
	}
	writeJSON(w, http.StatusOK, resp)
}
