// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package variables

import (
	"encoding/json"
	"strings"
)

// FieldType tags the kind of value a variable holds.
type FieldType string

const (
	FieldText  FieldType = "text"
	FieldImage FieldType = "image"
	FieldArray FieldType = "array"
)

// field describes one exported field of a section type. Optional fields are
// exported only when non-blank.
type field struct {
	path     string
	label    string
	typ      FieldType
	optional bool
}

// variant is the schema of one section type: its fields in export order and
// the decoder for its typed content.
type variant struct {
	fields []field
	decode func(raw map[string]any) (Content, error)
}

func typed[T any]() func(map[string]any) (Content, error) {
	return func(raw map[string]any) (Content, error) {
		c := new(T)
		if err := decodeContent(raw, c); err != nil {
			return nil, err
		}
		return any(c).(Content), nil
	}
}

var variants = map[SectionType]variant{
	Hero: {decode: typed[HeroContent](), fields: []field{
		{path: "headline", label: "Headline", typ: FieldText},
		{path: "subheadline", label: "Subheadline", typ: FieldText},
		{path: "ctaText", label: "Button text", typ: FieldText},
		{path: "ctaLink", label: "Button link", typ: FieldText},
		{path: "image", label: "Image", typ: FieldImage, optional: true},
	}},
	Features: {decode: typed[FeaturesContent](), fields: []field{
		{path: "title", label: "Title", typ: FieldText},
		{path: "subtitle", label: "Subtitle", typ: FieldText},
		{path: "features", label: "Features", typ: FieldArray},
	}},
	CTA: {decode: typed[CTAContent](), fields: []field{
		{path: "title", label: "Title", typ: FieldText},
		{path: "description", label: "Description", typ: FieldText},
		{path: "buttonText", label: "Button text", typ: FieldText},
		{path: "buttonLink", label: "Button link", typ: FieldText},
		{path: "secondaryButtonText", label: "Secondary button text", typ: FieldText, optional: true},
		{path: "secondaryButtonLink", label: "Secondary button link", typ: FieldText, optional: true},
	}},
	Header: {decode: typed[HeaderContent](), fields: []field{
		{path: "logo", label: "Logo", typ: FieldImage, optional: true},
		{path: "logoText", label: "Logo text", typ: FieldText},
		{path: "navigation", label: "Navigation", typ: FieldArray},
		{path: "ctaText", label: "Button text", typ: FieldText, optional: true},
		{path: "ctaLink", label: "Button link", typ: FieldText, optional: true},
	}},
	Testimonials: {decode: typed[TestimonialsContent](), fields: []field{
		{path: "title", label: "Title", typ: FieldText},
		{path: "subtitle", label: "Subtitle", typ: FieldText},
		{path: "testimonials", label: "Testimonials", typ: FieldArray},
	}},
	Contact: {decode: typed[ContactContent](), fields: []field{
		{path: "title", label: "Title", typ: FieldText},
		{path: "subtitle", label: "Subtitle", typ: FieldText},
		{path: "email", label: "Email", typ: FieldText},
		{path: "phone", label: "Phone", typ: FieldText},
		{path: "address", label: "Address", typ: FieldText},
	}},
	Footer: {decode: typed[FooterContent](), fields: []field{
		{path: "companyName", label: "Company name", typ: FieldText},
		{path: "description", label: "Description", typ: FieldText},
		{path: "links", label: "Links", typ: FieldArray},
		{path: "socialLinks", label: "Social links", typ: FieldArray},
		{path: "copyright", label: "Copyright", typ: FieldText},
	}},
}

// extract reads every field of sec from its raw content. Each field is read
// on its own, so one mistyped value never hides the others.
func (v variant) extract(sec Section) []Variable {
	out := make([]Variable, 0, len(v.fields))
	for _, f := range v.fields {
		var value any
		if f.typ == FieldArray {
			value = arrayValue(sec.Content[f.path])
		} else {
			s := textValue(sec.Content[f.path])
			if f.optional && strings.TrimSpace(s) == "" {
				continue
			}
			value = s
		}
		out = append(out, Variable{
			SectionID:   sec.ID,
			SectionType: sec.Type,
			Field:       f.path,
			Label:       f.label,
			Type:        f.typ,
			Value:       value,
		})
	}
	return out
}

func (v variant) fieldType(path string) (FieldType, bool) {
	for _, f := range v.fields {
		if f.path == path {
			return f.typ, true
		}
	}
	return "", false
}

// textValue renders a raw content value as text. Missing values are empty;
// numbers, booleans and nested values are written as JSON.
func textValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// arrayValue returns a deep copy of a raw list in its decoded JSON form,
// keeping every key of every item. Anything that is not a list is empty.
func arrayValue(v any) []any {
	if v == nil {
		return []any{}
	}
	var list []any
	if err := decodeJSONValue(v, &list); err != nil || list == nil {
		return []any{}
	}
	return list
}
