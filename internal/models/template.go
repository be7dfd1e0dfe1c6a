// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"

	"pagesmith/internal/gateway"
)

// Template is a reusable page layout made of ordered template sections.
type Template struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TemplateSection declares one content slot of a template and the
// constraints its content must meet. MinWords and MaxWords are optional.
type TemplateSection struct {
	ID         uuid.UUID `json:"id"`
	TemplateID uuid.UUID `json:"template_id"`
	Label      string    `json:"label"`
	Required   bool      `json:"required"`
	MinWords   *int      `json:"min_words,omitempty"`
	MaxWords   *int      `json:"max_words,omitempty"`
	Order      int       `json:"order"`
}

// TemplateFromRecord maps a templates record onto a Template.
func TemplateFromRecord(r gateway.Record) *Template {
	return &Template{
		ID:          r.UUID("id"),
		Name:        r.String("name"),
		Description: r.String("description"),
		CreatedAt:   r.Time("created_at"),
		UpdatedAt:   r.Time("updated_at"),
	}
}

// TemplateSectionFromRecord maps a template_sections record.
func TemplateSectionFromRecord(r gateway.Record) TemplateSection {
	order, _ := r.Int("sort_order")
	return TemplateSection{
		ID:         r.UUID("id"),
		TemplateID: r.UUID("template_id"),
		Label:      r.String("label"),
		Required:   r.Bool("required"),
		MinWords:   r.IntPtr("min_words"),
		MaxWords:   r.IntPtr("max_words"),
		Order:      order,
	}
}

// Record returns the writable columns of s.
func (s *TemplateSection) Record() gateway.Record {
	return gateway.Record{
		"template_id": s.TemplateID.String(),
		"label":       s.Label,
		"required":    s.Required,
		"min_words":   s.MinWords,
		"max_words":   s.MaxWords,
		"sort_order":  s.Order,
	}
}
