package handlers

import (
	"errors"
	"net/http"

	"pagesmith/internal/content"
	"pagesmith/internal/middleware"
	"pagesmith/internal/models"
	"pagesmith/internal/validate"
)

type metadataResponse struct {
	Metadata   *models.PageMetadata `json:"metadata"`
	Validation validationResponse   `json:"validation"`
}

// MetadataGet returns the SEO metadata for ?path=.
func (a *API) MetadataGet(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "path query parameter is required")
		return
	}
	meta, err := a.content.Metadata(r.Context(), middleware.SessionFromCtx(r.Context()), path)
	if err != nil {
		fail(w, r, err)
		return
	}
	if meta == nil {
		writeError(w, http.StatusNotFound, "not_found", "no metadata for "+path)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// MetadataPut validates and stores page metadata. A result with errors is
// answered with 422 and the localized result; warnings do not block.
func (a *API) MetadataPut(w http.ResponseWriter, r *http.Request) {
	var meta models.PageMetadata
	if !decodeJSON(w, r, &meta) {
		return
	}
	lang := a.reportLanguage(r)

	saved, res, err := a.content.SaveMetadata(r.Context(), middleware.SessionFromCtx(r.Context()), meta)
	var metaErr *content.MetadataError
	if errors.As(err, &metaErr) {
		writeJSON(w, http.StatusUnprocessableEntity, localized(metaErr.Result, lang))
		return
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, metadataResponse{Metadata: saved, Validation: localized(res, lang)})
}

// MetadataValidate checks metadata without storing it.
func (a *API) MetadataValidate(w http.ResponseWriter, r *http.Request) {
	var meta models.PageMetadata
	if !decodeJSON(w, r, &meta) {
		return
	}
	writeJSON(w, http.StatusOK, localized(validate.ValidateMetadata(meta), a.reportLanguage(r)))
}
