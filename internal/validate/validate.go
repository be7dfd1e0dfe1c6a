// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package validate checks page content against template constraints and
// page metadata against SEO guidance. Errors block saving; warnings are
// advisory. Every function is pure.
package validate

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"pagesmith/internal/models"
)

// SEO length guidance for metadata, in characters.
const (
	MaxTitleLen       = 60
	MaxDescriptionLen = 160
)

// Severity tells blocking issues from advisory ones.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Code identifies the rule an issue came from.
type Code string

const (
	CodeSectionMissing      Code = "section_missing"
	CodeSectionEmpty        Code = "section_empty"
	CodeTooFewWords         Code = "too_few_words"
	CodeTooManyWords        Code = "too_many_words"
	CodeTitleRequired       Code = "title_required"
	CodeTitleTooLong        Code = "title_too_long"
	CodeDescriptionRequired Code = "description_required"
	CodeDescriptionTooLong  Code = "description_too_long"
	CodeKeywordsMissing     Code = "keywords_missing"
)

// FieldContent is the field reported for section-level issues.
const FieldContent = "content"

// Issue is one finding. Count and Limit carry the numbers involved (words
// or characters) so the message can be rendered in another language.
type Issue struct {
	Severity  Severity `json:"severity"`
	Code      Code     `json:"code"`
	SectionID string   `json:"section_id,omitempty"`
	Label     string   `json:"label,omitempty"`
	Field     string   `json:"field"`
	Message   string   `json:"message"`
	Count     int      `json:"count,omitempty"`
	Limit     int      `json:"limit,omitempty"`
}

// Localize renders the issue message in lang.
func (i Issue) Localize(lang language.Tag) string {
	return i.render(printer(lang))
}

func (i Issue) render(p *message.Printer) string {
	switch i.Code {
	case CodeSectionMissing:
		return p.Sprintf(msgSectionMissing, i.Label)
	case CodeSectionEmpty:
		return p.Sprintf(msgSectionEmpty, i.Label)
	case CodeTooFewWords:
		return p.Sprintf(msgTooFewWords, i.Label, i.Field, i.Count, i.Limit)
	case CodeTooManyWords:
		return p.Sprintf(msgTooManyWords, i.Label, i.Field, i.Count, i.Limit)
	case CodeTitleRequired:
		return p.Sprintf(msgTitleRequired)
	case CodeTitleTooLong:
		return p.Sprintf(msgTitleTooLong, i.Count, i.Limit)
	case CodeDescriptionRequired:
		return p.Sprintf(msgDescRequired)
	case CodeDescriptionTooLong:
		return p.Sprintf(msgDescTooLong, i.Count, i.Limit)
	case CodeKeywordsMissing:
		return p.Sprintf(msgKeywordsMissing)
	}
	return i.Message
}

// newIssue fills in the English message.
func newIssue(i Issue) Issue {
	i.Message = i.render(printer(language.English))
	return i
}

// Result is the outcome of a validation run. Errors and Warnings partition
// the issues; IsValid is true when there are no errors.
type Result struct {
	IsValid  bool    `json:"is_valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// NewResult partitions issues by severity, keeping their order.
func NewResult(issues []Issue) Result {
	r := Result{Errors: []Issue{}, Warnings: []Issue{}}
	for _, i := range issues {
		if i.Severity == SeverityError {
			r.Errors = append(r.Errors, i)
		} else {
			r.Warnings = append(r.Warnings, i)
		}
	}
	r.IsValid = len(r.Errors) == 0
	return r
}

// Issues returns errors followed by warnings.
func (r Result) Issues() []Issue {
	out := make([]Issue, 0, len(r.Errors)+len(r.Warnings))
	out = append(out, r.Errors...)
	return append(out, r.Warnings...)
}

// ValidateSectionContent checks one content section against its template
// section. A required section whose fields are all empty yields a single
// error on field "content". Each non-blank string field is word-counted:
// below MinWords is an error, above MaxWords a warning.
func ValidateSectionContent(section models.TemplateSection, fields map[string]any) []Issue {
	var issues []Issue
	sectionID := section.ID.String()
	label := sectionLabel(section)

	if section.Required && !hasValue(fields) {
		return append(issues, newIssue(Issue{
			Severity:  SeverityError,
			Code:      CodeSectionEmpty,
			SectionID: sectionID,
			Label:     label,
			Field:     FieldContent,
		}))
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, field := range keys {
		text, ok := fields[field].(string)
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		words := CountWords(text)
		if section.MinWords != nil && words < *section.MinWords {
			issues = append(issues, newIssue(Issue{
				Severity:  SeverityError,
				Code:      CodeTooFewWords,
				SectionID: sectionID,
				Label:     label,
				Field:     field,
				Count:     words,
				Limit:     *section.MinWords,
			}))
		}
		if section.MaxWords != nil && words > *section.MaxWords {
			issues = append(issues, newIssue(Issue{
				Severity:  SeverityWarning,
				Code:      CodeTooManyWords,
				SectionID: sectionID,
				Label:     label,
				Field:     field,
				Count:     words,
				Limit:     *section.MaxWords,
			}))
		}
	}
	return issues
}

// ValidatePageContent checks a page's content sections against every
// section its template declares, in template order. Content sections are
// matched by TemplateSectionID; content for undeclared sections is ignored.
func ValidatePageContent(templateSections []models.TemplateSection, contentSections []models.PageContentSection) Result {
	byTemplate := make(map[string]models.PageContentSection, len(contentSections))
	for _, c := range contentSections {
		byTemplate[c.TemplateSectionID.String()] = c
	}

	var issues []Issue
	for _, ts := range templateSections {
		content, ok := byTemplate[ts.ID.String()]
		if !ok {
			if ts.Required {
				issues = append(issues, newIssue(Issue{
					Severity:  SeverityError,
					Code:      CodeSectionMissing,
					SectionID: ts.ID.String(),
					Label:     sectionLabel(ts),
					Field:     FieldContent,
				}))
			}
			continue
		}
		issues = append(issues, ValidateSectionContent(ts, content.Fields)...)
	}
	return NewResult(issues)
}

// ValidateMetadata checks title, description and keywords independently.
func ValidateMetadata(meta models.PageMetadata) Result {
	var issues []Issue

	title := strings.TrimSpace(meta.Title)
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		issues = append(issues, newIssue(Issue{Severity: SeverityError, Code: CodeTitleRequired, Field: "title"}))
	case n > MaxTitleLen:
		issues = append(issues, newIssue(Issue{Severity: SeverityWarning, Code: CodeTitleTooLong, Field: "title", Count: n, Limit: MaxTitleLen}))
	}

	desc := strings.TrimSpace(meta.Description)
	switch n := utf8.RuneCountInString(desc); {
	case n == 0:
		issues = append(issues, newIssue(Issue{Severity: SeverityError, Code: CodeDescriptionRequired, Field: "description"}))
	case n > MaxDescriptionLen:
		issues = append(issues, newIssue(Issue{Severity: SeverityWarning, Code: CodeDescriptionTooLong, Field: "description", Count: n, Limit: MaxDescriptionLen}))
	}

	hasKeyword := false
	for _, k := range meta.Keywords {
		if strings.TrimSpace(k) != "" {
			hasKeyword = true
			break
		}
	}
	if !hasKeyword {
		issues = append(issues, newIssue(Issue{Severity: SeverityWarning, Code: CodeKeywordsMissing, Field: "keywords"}))
	}

	return NewResult(issues)
}

func sectionLabel(s models.TemplateSection) string {
	if l := strings.TrimSpace(s.Label); l != "" {
		return l
	}
	return s.ID.String()
}

// hasValue reports whether any field holds a non-empty value. Blank strings,
// nil and empty collections count as empty.
func hasValue(fields map[string]any) bool {
	for _, v := range fields {
		switch t := v.(type) {
		case nil:
		case string:
			if strings.TrimSpace(t) != "" {
				return true
			}
		case []any:
			if len(t) > 0 {
				return true
			}
		case []string:
			if len(t) > 0 {
				return true
			}
		case map[string]any:
			if len(t) > 0 {
				return true
			}
		default:
			return true
		}
	}
	return false
}
