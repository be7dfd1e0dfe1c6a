// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package variables projects page-builder sections onto a flat list of
// editable template variables and moves that list in and out of JSON and
// CSV documents.
package variables

import (
	"encoding/json"
	"fmt"
	"time"

	"pagesmith/internal/gateway"
	"pagesmith/internal/theme"
)

// SectionType tags the kind of a page-builder section.
type SectionType string

const (
	Hero         SectionType = "hero"
	Features     SectionType = "features"
	CTA          SectionType = "cta"
	Header       SectionType = "header"
	Testimonials SectionType = "testimonials"
	Contact      SectionType = "contact"
	Footer       SectionType = "footer"
)

// Section is one page-builder section. Content is kept as decoded JSON so
// sections of unknown types survive a load and save unchanged; Decode
// returns the typed variant.
type Section struct {
	ID        string             `json:"id"`
	PageID    string             `json:"pageId,omitempty"`
	Type      SectionType        `json:"type"`
	Order     int                `json:"order"`
	Content   map[string]any     `json:"content"`
	Widget    theme.WidgetConfig `json:"widgetTheme"`
	UpdatedAt time.Time          `json:"updatedAt,omitzero"`
}

// Decode returns the typed content of s. It fails for unknown section types
// and for content that does not match the type's shape.
func (s Section) Decode() (Content, error) {
	v, ok := variants[s.Type]
	if !ok {
		return nil, fmt.Errorf("section %s: unknown type %q", s.ID, s.Type)
	}
	c, err := v.decode(s.Content)
	if err != nil {
		return nil, fmt.Errorf("section %s: %w", s.ID, err)
	}
	return c, nil
}

// Clone returns a deep copy of s.
func (s Section) Clone() Section {
	c := s
	if s.Content != nil {
		c.Content = gateway.Record(s.Content).Clone()
	}
	c.Widget = s.Widget.Normalized()
	return c
}

// SectionFromRecord maps a page_sections record.
func SectionFromRecord(r gateway.Record) (Section, error) {
	order, _ := r.Int("sort_order")
	s := Section{
		ID:        r.String("id"),
		PageID:    r.String("page_id"),
		Type:      SectionType(r.String("type")),
		Order:     order,
		UpdatedAt: r.Time("updated_at"),
	}
	if err := r.Decode("content", &s.Content); err != nil {
		return s, err
	}
	if s.Content == nil {
		s.Content = map[string]any{}
	}
	if err := r.Decode("widget_theme", &s.Widget); err != nil {
		return s, err
	}
	s.Widget = s.Widget.Normalized()
	return s, nil
}

// Record returns the writable columns of s. An inherit widget is stored as
// NULL.
func (s *Section) Record() gateway.Record {
	content := s.Content
	if content == nil {
		content = map[string]any{}
	}
	rec := gateway.Record{
		"page_id":      s.PageID,
		"type":         string(s.Type),
		"sort_order":   s.Order,
		"content":      content,
		"widget_theme": nil,
	}
	if w := s.Widget.Normalized(); w.Mode != theme.ModeInherit {
		rec["widget_theme"] = w
	}
	if s.ID != "" {
		rec["id"] = s.ID
	}
	return rec
}

// decodeContent converts decoded JSON into a typed struct.
func decodeContent(raw map[string]any, dst any) error {
	if raw == nil {
		return nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode content: %w", err)
	}
	return nil
}
