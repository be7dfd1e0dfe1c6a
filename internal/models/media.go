// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pagesmith/internal/gateway"
)

// Media represents a file uploaded to S3-compatible object storage.
// The record lives behind the gateway; the file itself lives in the bucket.
type Media struct {
	ID           uuid.UUID  `json:"id"`
	Filename     string     `json:"filename"`
	OriginalName string     `json:"original_name"`
	ContentType  string     `json:"content_type"`
	SizeBytes    int64      `json:"size_bytes"`
	S3Key        string     `json:"s3_key"`
	URL          string     `json:"url"`
	ThumbS3Key   *string    `json:"thumb_s3_key,omitempty"`
	ThumbURL     *string    `json:"thumb_url,omitempty"`
	Width        *int       `json:"width,omitempty"`
	Height       *int       `json:"height,omitempty"`
	AltText      *string    `json:"alt_text,omitempty"`
	UploaderID   *uuid.UUID `json:"uploader_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsImage returns true if the media item is an image type.
func (m *Media) IsImage() bool {
	return strings.HasPrefix(m.ContentType, "image/")
}

// HumanSize returns a human-readable file size string.
func (m *Media) HumanSize() string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case m.SizeBytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(m.SizeBytes)/float64(mb))
	case m.SizeBytes >= kb:
		return fmt.Sprintf("%.0f KB", float64(m.SizeBytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", m.SizeBytes)
	}
}

// MediaFromRecord maps a media record onto a Media.
func MediaFromRecord(r gateway.Record) *Media {
	return &Media{
		ID:           r.UUID("id"),
		Filename:     r.String("filename"),
		OriginalName: r.String("original_name"),
		ContentType:  r.String("content_type"),
		SizeBytes:    r.Int64("size_bytes"),
		S3Key:        r.String("s3_key"),
		URL:          r.String("url"),
		ThumbS3Key:   r.StringPtr("thumb_s3_key"),
		ThumbURL:     r.StringPtr("thumb_url"),
		Width:        r.IntPtr("width"),
		Height:       r.IntPtr("height"),
		AltText:      r.StringPtr("alt_text"),
		UploaderID:   r.UUIDPtr("uploader_id"),
		CreatedAt:    r.Time("created_at"),
	}
}

// Record returns the writable columns of m.
func (m *Media) Record() gateway.Record {
	rec := gateway.Record{
		"filename":      m.Filename,
		"original_name": m.OriginalName,
		"content_type":  m.ContentType,
		"size_bytes":    m.SizeBytes,
		"s3_key":        m.S3Key,
		"url":           m.URL,
		"thumb_s3_key":  m.ThumbS3Key,
		"thumb_url":     m.ThumbURL,
		"width":         m.Width,
		"height":        m.Height,
		"alt_text":      m.AltText,
	}
	if m.UploaderID != nil {
		rec["uploader_id"] = m.UploaderID.String()
	}
	return rec
}
