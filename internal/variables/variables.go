// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package variables

import (
	"log/slog"
)

// Variable is one editable field of a section.
type Variable struct {
	SectionID   string      `json:"sectionId"`
	SectionType SectionType `json:"sectionType"`
	Field       string      `json:"field"`
	Label       string      `json:"label"`
	Type        FieldType   `json:"type"`
	Value       any         `json:"value"`
}

// Extract returns the variables of every section, in section order and then
// in the fixed field order of each section type. Only sections of unknown
// type contribute nothing. Array values keep every key of their items.
func Extract(sections []Section) []Variable {
	out := []Variable{}
	for _, sec := range sections {
		if v, ok := variants[sec.Type]; ok {
			out = append(out, v.extract(sec)...)
		}
	}
	return out
}

// Apply writes imported values into a copy of sections and returns the copy
// with the number of values applied. A value is applied only when its
// section exists, the field belongs to the section's type and the value's
// shape matches the field type: a string for text and image fields, a list
// for array fields.
func Apply(sections []Section, vars []Variable) ([]Section, int) {
	out := make([]Section, len(sections))
	index := make(map[string]int, len(sections))
	for i, s := range sections {
		out[i] = s.Clone()
		if out[i].Content == nil {
			out[i].Content = map[string]any{}
		}
		index[s.ID] = i
	}

	applied := 0
	for _, v := range vars {
		i, ok := index[v.SectionID]
		if !ok {
			continue
		}
		sec := &out[i]
		def, ok := variants[sec.Type]
		if !ok {
			continue
		}
		typ, ok := def.fieldType(v.Field)
		if !ok {
			continue
		}
		value, ok := coerce(typ, v.Value)
		if !ok {
			slog.Debug("skipping variable with mismatched value", "section_id", v.SectionID, "field", v.Field, "type", typ)
			continue
		}
		sec.Content[v.Field] = value
		applied++
	}
	return out, applied
}

// coerce checks value against typ and converts typed slices to the decoded
// JSON form stored in section content.
func coerce(typ FieldType, value any) (any, bool) {
	switch typ {
	case FieldText, FieldImage:
		s, ok := value.(string)
		return s, ok
	case FieldArray:
		switch value.(type) {
		case []any:
			return value, true
		case nil:
			return nil, false
		}
		var list []any
		if err := decodeJSONValue(value, &list); err != nil {
			return nil, false
		}
		return list, true
	}
	return nil, false
}
