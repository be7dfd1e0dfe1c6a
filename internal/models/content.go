// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"

	"pagesmith/internal/gateway"
)

// PageContentSection holds the filled-in field values for one template
// section on one page. Field values are strings or structured JSON values.
type PageContentSection struct {
	ID                uuid.UUID      `json:"id"`
	PageID            string         `json:"page_id"`
	TemplateSectionID uuid.UUID      `json:"template_section_id"`
	Fields            map[string]any `json:"fields"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// PageContentSectionFromRecord maps a page_content_sections record.
func PageContentSectionFromRecord(r gateway.Record) (PageContentSection, error) {
	s := PageContentSection{
		ID:                r.UUID("id"),
		PageID:            r.String("page_id"),
		TemplateSectionID: r.UUID("template_section_id"),
		UpdatedAt:         r.Time("updated_at"),
	}
	if err := r.Decode("fields", &s.Fields); err != nil {
		return s, err
	}
	return s, nil
}

// Record returns the writable columns of s.
func (s *PageContentSection) Record() gateway.Record {
	fields := s.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	return gateway.Record{
		"page_id":             s.PageID,
		"template_section_id": s.TemplateSectionID.String(),
		"fields":              fields,
	}
}

// PageMetadata is the SEO metadata of one page, keyed by its path.
type PageMetadata struct {
	ID           uuid.UUID `json:"id"`
	PagePath     string    `json:"page_path"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Keywords     []string  `json:"keywords"`
	OGImage      *string   `json:"og_image,omitempty"`
	CanonicalURL *string   `json:"canonical_url,omitempty"`
	NoIndex      bool      `json:"no_index"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PageMetadataFromRecord maps a page_metadata record.
func PageMetadataFromRecord(r gateway.Record) (*PageMetadata, error) {
	m := &PageMetadata{
		ID:           r.UUID("id"),
		PagePath:     r.String("page_path"),
		Title:        r.String("title"),
		Description:  r.String("description"),
		OGImage:      r.StringPtr("og_image"),
		CanonicalURL: r.StringPtr("canonical_url"),
		NoIndex:      r.Bool("no_index"),
		UpdatedAt:    r.Time("updated_at"),
	}
	if err := r.Decode("keywords", &m.Keywords); err != nil {
		return nil, err
	}
	return m, nil
}

// Record returns the writable columns of m.
func (m *PageMetadata) Record() gateway.Record {
	keywords := m.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return gateway.Record{
		"page_path":     m.PagePath,
		"title":         m.Title,
		"description":   m.Description,
		"keywords":      keywords,
		"og_image":      m.OGImage,
		"canonical_url": m.CanonicalURL,
		"no_index":      m.NoIndex,
	}
}
