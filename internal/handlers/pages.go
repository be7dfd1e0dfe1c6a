package handlers

import (
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/google/uuid"

	"pagesmith/internal/middleware"
	"pagesmith/internal/models"
	"pagesmith/internal/variables"
)

// TemplatesList returns every template, ordered by name.
func (a *API) TemplatesList(w http.ResponseWriter, r *http.Request) {
	templates, err := a.content.Templates(r.Context(), middleware.SessionFromCtx(r.Context()))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

// TemplateSections returns the sections a template declares.
func (a *API) TemplateSections(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	if _, err := a.content.Template(r.Context(), sess, id); err != nil {
		fail(w, r, err)
		return
	}
	sections, err := a.content.TemplateSections(r.Context(), sess, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sections)
}

// ContentGet returns the template content filled in for a page.
func (a *API) ContentGet(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pageParam(w, r)
	if !ok {
		return
	}
	sections, err := a.content.ContentSections(r.Context(), middleware.SessionFromCtx(r.Context()), pageID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sections)
}

// ContentPut stores the fields of one template section on a page.
func (a *API) ContentPut(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pageParam(w, r)
	if !ok {
		return
	}
	var body struct {
		TemplateSectionID uuid.UUID      `json:"template_section_id"`
		Fields            map[string]any `json:"fields"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	saved, err := a.content.SaveContentSection(r.Context(), middleware.SessionFromCtx(r.Context()), models.PageContentSection{
		PageID:            pageID,
		TemplateSectionID: body.TemplateSectionID,
		Fields:            body.Fields,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// SectionsGet returns a page's builder sections in order.
func (a *API) SectionsGet(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pageParam(w, r)
	if !ok {
		return
	}
	sections, err := a.content.Sections(r.Context(), middleware.SessionFromCtx(r.Context()), pageID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sections)
}

// SectionsPut replaces a page's builder sections.
func (a *API) SectionsPut(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pageParam(w, r)
	if !ok {
		return
	}
	var sections []variables.Section
	if !decodeJSON(w, r, &sections) {
		return
	}
	saved, err := a.content.SaveSections(r.Context(), middleware.SessionFromCtx(r.Context()), pageID, sections)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// VariablesExport downloads a page's template variables as JSON (default)
// or CSV with ?format=csv. ?template= names the template in the JSON
// document.
func (a *API) VariablesExport(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pageParam(w, r)
	if !ok {
		return
	}
	sections, err := a.content.Sections(r.Context(), middleware.SessionFromCtx(r.Context()), pageID)
	if err != nil {
		fail(w, r, err)
		return
	}

	format := r.URL.Query().Get("format")
	var (
		data        []byte
		contentType string
		ext         string
	)
	switch format {
	case "", "json":
		name := r.URL.Query().Get("template")
		if name == "" {
			name = pageID
		}
		data, err = variables.ExportJSON(name, sections)
		contentType, ext = "application/json; charset=utf-8", "json"
	case "csv":
		data, err = variables.ExportCSV(sections)
		contentType, ext = "text/csv; charset=utf-8", "csv"
	default:
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown format %q", format))
		return
	}
	if err != nil {
		fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": "template-variables." + ext,
	}))
	w.Write(data)
}

// VariablesImport applies an uploaded CSV or JSON export to a page's
// sections. The format follows the Content-Type (text/csv or JSON).
func (a *API) VariablesImport(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pageParam(w, r)
	if !ok {
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", "import file too large")
		return
	}

	var vars []variables.Variable
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "text/csv":
		rows, err := variables.ParseCSV(data)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		vars = variables.Variables(rows)
	default:
		doc, err := variables.ParseJSON(data)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		vars = doc.Variables
	}

	applied, err := a.content.ImportVariables(r.Context(), middleware.SessionFromCtx(r.Context()), pageID, vars)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"received": len(vars), "applied": applied})
}

// PageValidate checks a page's content against a template:
// ?template=<uuid>, optional ?lang=.
func (a *API) PageValidate(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pageParam(w, r)
	if !ok {
		return
	}
	templateID, err := uuid.Parse(r.URL.Query().Get("template"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "template query parameter must be a UUID")
		return
	}

	res, err := a.content.ValidatePage(r.Context(), middleware.SessionFromCtx(r.Context()), templateID, pageID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, localized(res, a.reportLanguage(r)))
}
