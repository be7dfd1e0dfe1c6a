// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pagesmith/internal/gateway"
)

// Source tells built-in themes from user-created ones.
type Source string

const (
	SourceBuiltin Source = "builtin"
	SourceCustom  Source = "custom"
)

// FallbackSlug is the theme that takes over when the active theme is deleted.
const FallbackSlug = "light"

var (
	// ErrPermissionDenied is returned when mutating or deleting a built-in theme.
	ErrPermissionDenied = errors.New("built-in themes cannot be modified")

	// ErrDuplicateSlug is returned when another theme already uses the slug.
	ErrDuplicateSlug = errors.New("a theme with this slug already exists")

	// ErrDuplicateTokens is returned when another theme has identical tokens.
	ErrDuplicateTokens = errors.New("a theme with identical tokens already exists")

	// ErrNotFound is returned when a theme id is not in the loaded state.
	ErrNotFound = errors.New("theme not found")

	// ErrInvalid wraps input validation failures.
	ErrInvalid = errors.New("invalid theme")
)

// Theme is a named, complete set of 20 color tokens.
type Theme struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	Source    Source     `json:"source"`
	Tokens    TokenSet   `json:"tokens"`
	IsActive  bool       `json:"is_active"`
	OwnerID   *uuid.UUID `json:"owner_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsCustom reports whether the theme was created by a user.
func (t *Theme) IsCustom() bool {
	return t.Source == SourceCustom
}

// Clone returns a deep copy of t.
func (t *Theme) Clone() *Theme {
	if t == nil {
		return nil
	}
	c := *t
	c.Tokens = t.Tokens.Clone()
	if t.OwnerID != nil {
		id := *t.OwnerID
		c.OwnerID = &id
	}
	return &c
}

// fromRecord maps a themes record onto a Theme.
func fromRecord(r gateway.Record) (*Theme, error) {
	t := &Theme{
		ID:        r.UUID("id"),
		Name:      r.String("name"),
		Slug:      r.String("slug"),
		Source:    Source(r.String("source")),
		IsActive:  r.Bool("is_active"),
		OwnerID:   r.UUIDPtr("owner_id"),
		CreatedAt: r.Time("created_at"),
		UpdatedAt: r.Time("updated_at"),
	}
	if err := r.Decode("tokens", &t.Tokens); err != nil {
		return nil, fmt.Errorf("theme %s: %w", t.Slug, err)
	}
	return t, nil
}

// record returns the writable columns of t.
func (t *Theme) record() gateway.Record {
	rec := gateway.Record{
		"name":      t.Name,
		"slug":      t.Slug,
		"source":    string(t.Source),
		"tokens":    map[string]string(t.Tokens),
		"is_active": t.IsActive,
	}
	if t.OwnerID != nil {
		rec["owner_id"] = t.OwnerID.String()
	}
	return rec
}
