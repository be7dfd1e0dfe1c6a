// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package gateway

import "fmt"

// kind is the storage type of a column.
type kind int

const (
	kindText kind = iota
	kindBool
	kindInt
	kindUUID
	kindJSON
	kindTime
)

// column describes one column of a collection.
type column struct {
	name     string
	kind     kind
	nullable bool
	unique   bool
}

// schema describes a collection: its primary key and whitelisted columns.
// Only listed columns can be read, written, filtered or ordered on.
type schema struct {
	primaryKey string
	columns    []column
}

func (s schema) column(name string) (column, bool) {
	for _, c := range s.columns {
		if c.name == name {
			return c, true
		}
	}
	return column{}, false
}

func (s schema) has(name string) bool {
	_, ok := s.column(name)
	return ok
}

func (s schema) names() []string {
	out := make([]string, len(s.columns))
	for i, c := range s.columns {
		out[i] = c.name
	}
	return out
}

var schemas = map[Collection]schema{
	Themes: {primaryKey: "id", columns: []column{
		{name: "id", kind: kindUUID},
		{name: "name", kind: kindText},
		{name: "slug", kind: kindText, unique: true},
		{name: "source", kind: kindText},
		{name: "tokens", kind: kindJSON},
		{name: "is_active", kind: kindBool},
		{name: "owner_id", kind: kindUUID, nullable: true},
		{name: "created_at", kind: kindTime},
		{name: "updated_at", kind: kindTime},
	}},
	PageMetadata: {primaryKey: "id", columns: []column{
		{name: "id", kind: kindUUID},
		{name: "page_path", kind: kindText, unique: true},
		{name: "title", kind: kindText},
		{name: "description", kind: kindText},
		{name: "keywords", kind: kindJSON},
		{name: "og_image", kind: kindText, nullable: true},
		{name: "canonical_url", kind: kindText, nullable: true},
		{name: "no_index", kind: kindBool},
		{name: "updated_at", kind: kindTime},
	}},
	Templates: {primaryKey: "id", columns: []column{
		{name: "id", kind: kindUUID},
		{name: "name", kind: kindText},
		{name: "description", kind: kindText},
		{name: "created_at", kind: kindTime},
		{name: "updated_at", kind: kindTime},
	}},
	TemplateSections: {primaryKey: "id", columns: []column{
		{name: "id", kind: kindUUID},
		{name: "template_id", kind: kindUUID},
		{name: "label", kind: kindText},
		{name: "required", kind: kindBool},
		{name: "min_words", kind: kindInt, nullable: true},
		{name: "max_words", kind: kindInt, nullable: true},
		{name: "sort_order", kind: kindInt},
	}},
	PageContentSections: {primaryKey: "id", columns: []column{
		{name: "id", kind: kindUUID},
		{name: "page_id", kind: kindText},
		{name: "template_section_id", kind: kindUUID},
		{name: "fields", kind: kindJSON},
		{name: "updated_at", kind: kindTime},
	}},
	PageSections: {primaryKey: "id", columns: []column{
		{name: "id", kind: kindUUID},
		{name: "page_id", kind: kindText},
		{name: "type", kind: kindText},
		{name: "sort_order", kind: kindInt},
		{name: "content", kind: kindJSON},
		{name: "widget_theme", kind: kindJSON, nullable: true},
		{name: "updated_at", kind: kindTime},
	}},
	Media: {primaryKey: "id", columns: []column{
		{name: "id", kind: kindUUID},
		{name: "filename", kind: kindText},
		{name: "original_name", kind: kindText},
		{name: "content_type", kind: kindText},
		{name: "size_bytes", kind: kindInt},
		{name: "s3_key", kind: kindText, unique: true},
		{name: "url", kind: kindText},
		{name: "thumb_s3_key", kind: kindText, nullable: true},
		{name: "thumb_url", kind: kindText, nullable: true},
		{name: "width", kind: kindInt, nullable: true},
		{name: "height", kind: kindInt, nullable: true},
		{name: "alt_text", kind: kindText, nullable: true},
		{name: "uploader_id", kind: kindUUID, nullable: true},
		{name: "created_at", kind: kindTime},
	}},
	Users: {primaryKey: "id", columns: []column{
		{name: "id", kind: kindUUID},
		{name: "email", kind: kindText, unique: true},
		{name: "password_hash", kind: kindText},
		{name: "display_name", kind: kindText},
		{name: "role", kind: kindText},
		{name: "totp_secret", kind: kindText, nullable: true},
		{name: "totp_enabled", kind: kindBool},
		{name: "created_at", kind: kindTime},
		{name: "updated_at", kind: kindTime},
	}},
	SiteSettings: {primaryKey: "key", columns: []column{
		{name: "key", kind: kindText},
		{name: "value", kind: kindText},
		{name: "updated_at", kind: kindTime},
	}},
}

func schemaFor(c Collection) (schema, error) {
	s, ok := schemas[c]
	if !ok {
		return schema{}, fmt.Errorf("unknown collection %q", c)
	}
	return s, nil
}

// checkFields verifies every key of rec is a column of s.
func checkFields(s schema, rec Record) error {
	for k := range rec {
		if !s.has(k) {
			return fmt.Errorf("%w: %s", ErrUnknownField, k)
		}
	}
	return nil
}
