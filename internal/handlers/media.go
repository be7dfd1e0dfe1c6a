// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"pagesmith/internal/gateway"
	"pagesmith/internal/imaging"
	"pagesmith/internal/middleware"
	"pagesmith/internal/models"
	"pagesmith/internal/storage"
)

// maxUploadSize is the maximum accepted upload (10 MB).
const maxUploadSize = 10 << 20

// allowedMediaTypes defines MIME types accepted for upload.
var allowedMediaTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"image/svg+xml":   true,
	"application/pdf": true,
}

// MediaList returns uploaded media, newest first.
func (a *API) MediaList(w http.ResponseWriter, r *http.Request) {
	recs, err := a.records.ListRecords(r.Context(), middleware.SessionFromCtx(r.Context()), gateway.Media, gateway.Query{
		OrderBy: "created_at",
		Desc:    true,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	out := make([]*models.Media, len(recs))
	for i, rec := range recs {
		out[i] = models.MediaFromRecord(rec)
	}
	writeJSON(w, http.StatusOK, out)
}

// MediaUpload stores a multipart "file" in object storage and records it.
// Used for og:image and hero backgrounds. Wide JPEG, PNG and WebP images
// also get a thumbnail.
func (a *API) MediaUpload(w http.ResponseWriter, r *http.Request) {
	if a.blobs == nil {
		writeError(w, http.StatusServiceUnavailable, "storage_disabled", "object storage is not configured")
		return
	}
	sess := middleware.SessionFromCtx(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", "file too large, maximum is 10 MB")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		fail(w, r, fmt.Errorf("read upload: %w", err))
		return
	}
	contentType := sniffContentType(header.Filename, data)
	if !allowedMediaTypes[contentType] {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("file type %q is not allowed", contentType))
		return
	}

	key := storage.MediaKey(header.Filename)
	if err := a.blobs.Upload(r.Context(), key, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		slog.Error("s3 upload failed", "error", err, "key", key)
		writeError(w, http.StatusBadGateway, "storage", "failed to upload file")
		return
	}

	m := &models.Media{
		Filename:     path.Base(key),
		OriginalName: header.Filename,
		ContentType:  contentType,
		SizeBytes:    int64(len(data)),
		S3Key:        key,
		URL:          a.blobs.FileURL(key),
	}
	if alt := strings.TrimSpace(r.FormValue("alt_text")); alt != "" {
		m.AltText = &alt
	}
	if sess != nil {
		m.UploaderID = &sess.UserID
	}
	if imaging.Thumbable(contentType) {
		a.attachThumbnail(r, m, data)
	}

	rec, err := a.records.InsertRecord(r.Context(), sess, gateway.Media, m.Record())
	if err != nil {
		a.deleteObjects(r, m)
		fail(w, r, err)
		return
	}
	created := models.MediaFromRecord(rec)
	slog.Info("media uploaded", "id", created.ID, "key", key, "size", created.HumanSize(), "image", created.IsImage())
	writeJSON(w, http.StatusCreated, created)
}

// MediaDelete removes a media record and then its object. A failed object
// delete is logged; the record is already gone.
func (a *API) MediaDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	sess := middleware.SessionFromCtx(r.Context())

	rec, err := a.records.GetRecord(r.Context(), sess, gateway.Media, id.String())
	if err != nil {
		fail(w, r, err)
		return
	}
	m := models.MediaFromRecord(rec)
	if err := a.records.DeleteRecord(r.Context(), sess, gateway.Media, id.String()); err != nil {
		fail(w, r, err)
		return
	}
	if a.blobs != nil {
		a.deleteObjects(r, m)
	}
	w.WriteHeader(http.StatusNoContent)
}

// attachThumbnail records the image size and uploads a preview. Failures
// are logged; the original upload stands without a thumbnail.
func (a *API) attachThumbnail(r *http.Request, m *models.Media, data []byte) {
	width, height, err := imaging.Dimensions(data)
	if err != nil {
		slog.Warn("image dimensions unreadable", "error", err, "key", m.S3Key)
		return
	}
	m.Width, m.Height = &width, &height

	thumb, err := imaging.MakeThumbnail(data, imaging.DefaultThumbWidth)
	if err != nil {
		slog.Warn("thumbnail generation failed", "error", err, "key", m.S3Key)
		return
	}
	if thumb == nil {
		return
	}
	key := strings.TrimSuffix(m.S3Key, path.Ext(m.S3Key)) + "_thumb.jpg"
	if err := a.blobs.Upload(r.Context(), key, "image/jpeg", bytes.NewReader(thumb.Data), int64(len(thumb.Data))); err != nil {
		slog.Warn("thumbnail upload failed", "error", err, "key", key)
		return
	}
	url := a.blobs.FileURL(key)
	m.ThumbS3Key, m.ThumbURL = &key, &url
}

// deleteObjects removes the original and its thumbnail from the bucket.
// Errors are logged; the record is the source of truth.
func (a *API) deleteObjects(r *http.Request, m *models.Media) {
	keys := []string{m.S3Key}
	if m.ThumbS3Key != nil {
		keys = append(keys, *m.ThumbS3Key)
	}
	for _, key := range keys {
		if err := a.blobs.Delete(r.Context(), key); err != nil {
			slog.Warn("s3 delete failed", "error", err, "key", key)
		}
	}
}

// sniffContentType detects the type from the first 512 bytes.
// DetectContentType reports SVG as XML or plain text.
func sniffContentType(filename string, data []byte) string {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	ct := http.DetectContentType(head)
	if strings.HasSuffix(strings.ToLower(filename), ".svg") &&
		(strings.Contains(ct, "xml") || strings.Contains(ct, "text/plain")) {
		return "image/svg+xml"
	}
	return ct
}
