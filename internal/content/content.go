// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package content loads and saves page metadata, template content and
// page-builder sections through the gateway, and runs the validation engine
// over them.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"pagesmith/internal/gateway"
	"pagesmith/internal/models"
	"pagesmith/internal/validate"
	"pagesmith/internal/variables"
)

var (
	// ErrInvalidMetadata is returned when metadata fails validation with
	// at least one error. Warnings never block a save.
	ErrInvalidMetadata = errors.New("invalid page metadata")

	// ErrInvalidSection is returned when a builder section is malformed.
	ErrInvalidSection = errors.New("invalid page section")

	// ErrTemplateNotFound is returned when a template id does not exist.
	ErrTemplateNotFound = errors.New("template not found")
)

// MetadataError carries the validation result of a rejected metadata save.
type MetadataError struct {
	Result validate.Result
}

func (e *MetadataError) Error() string {
	msgs := make([]string, len(e.Result.Errors))
	for i, issue := range e.Result.Errors {
		msgs[i] = issue.Message
	}
	return fmt.Sprintf("%v: %s", ErrInvalidMetadata, strings.Join(msgs, "; "))
}

func (e *MetadataError) Unwrap() error { return ErrInvalidMetadata }

// Service is the page content service.
type Service struct {
	records gateway.Records
}

// NewService creates a content service over the gateway's records.
func NewService(records gateway.Records) *Service {
	return &Service{records: records}
}

// Templates returns every template ordered by name.
func (s *Service) Templates(ctx context.Context, sess *gateway.Session) ([]*models.Template, error) {
	recs, err := s.records.ListRecords(ctx, sess, gateway.Templates, gateway.Query{OrderBy: "name"})
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	out := make([]*models.Template, len(recs))
	for i, r := range recs {
		out[i] = models.TemplateFromRecord(r)
	}
	return out, nil
}

// Template returns one template.
func (s *Service) Template(ctx context.Context, sess *gateway.Session, id uuid.UUID) (*models.Template, error) {
	rec, err := s.records.GetRecord(ctx, sess, gateway.Templates, id.String())
	if errors.Is(err, gateway.ErrNotFound) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return models.TemplateFromRecord(rec), nil
}

// TemplateSections returns the sections a template declares, in order.
func (s *Service) TemplateSections(ctx context.Context, sess *gateway.Session, templateID uuid.UUID) ([]models.TemplateSection, error) {
	recs, err := s.records.ListRecords(ctx, sess, gateway.TemplateSections, gateway.Query{
		Filter:  map[string]any{"template_id": templateID.String()},
		OrderBy: "sort_order",
	})
	if err != nil {
		return nil, fmt.Errorf("list template sections: %w", err)
	}
	out := make([]models.TemplateSection, len(recs))
	for i, r := range recs {
		out[i] = models.TemplateSectionFromRecord(r)
	}
	return out, nil
}

// ContentSections returns the filled-in template content of a page.
func (s *Service) ContentSections(ctx context.Context, sess *gateway.Session, pageID string) ([]models.PageContentSection, error) {
	recs, err := s.records.ListRecords(ctx, sess, gateway.PageContentSections, gateway.Query{
		Filter: map[string]any{"page_id": pageID},
	})
	if err != nil {
		return nil, fmt.Errorf("list content sections: %w", err)
	}
	out := make([]models.PageContentSection, 0, len(recs))
	for _, r := range recs {
		cs, err := models.PageContentSectionFromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("content section %s: %w", r.String("id"), err)
		}
		out = append(out, cs)
	}
	return out, nil
}

// SaveContentSection stores the fields of one template section on a page,
// replacing any previous content for the same template section.
func (s *Service) SaveContentSection(ctx context.Context, sess *gateway.Session, cs models.PageContentSection) (models.PageContentSection, error) {
	if strings.TrimSpace(cs.PageID) == "" || cs.TemplateSectionID == uuid.Nil {
		return cs, fmt.Errorf("%w: page and template section are required", ErrInvalidSection)
	}

	existing, err := s.records.ListRecords(ctx, sess, gateway.PageContentSections, gateway.Query{
		Filter: map[string]any{
			"page_id":             cs.PageID,
			"template_section_id": cs.TemplateSectionID.String(),
		},
		Limit: 1,
	})
	if err != nil {
		return cs, fmt.Errorf("find content section: %w", err)
	}

	var rec gateway.Record
	if len(existing) > 0 {
		id := existing[0].String("id")
		if err := s.records.UpdateRecord(ctx, sess, gateway.PageContentSections, id, cs.Record()); err != nil {
			return cs, fmt.Errorf("update content section: %w", err)
		}
		rec, err = s.records.GetRecord(ctx, sess, gateway.PageContentSections, id)
	} else {
		rec, err = s.records.InsertRecord(ctx, sess, gateway.PageContentSections, cs.Record())
	}
	if err != nil {
		return cs, fmt.Errorf("save content section: %w", err)
	}
	return models.PageContentSectionFromRecord(rec)
}

// ValidatePage checks a page's template content against every section the
// template declares.
func (s *Service) ValidatePage(ctx context.Context, sess *gateway.Session, templateID uuid.UUID, pageID string) (validate.Result, error) {
	if _, err := s.Template(ctx, sess, templateID); err != nil {
		return validate.Result{}, err
	}
	declared, err := s.TemplateSections(ctx, sess, templateID)
	if err != nil {
		return validate.Result{}, err
	}
	filled, err := s.ContentSections(ctx, sess, pageID)
	if err != nil {
		return validate.Result{}, err
	}
	return validate.ValidatePageContent(declared, filled), nil
}

// Metadata returns the metadata stored for a page path. Returns nil if none
// is stored.
func (s *Service) Metadata(ctx context.Context, sess *gateway.Session, pagePath string) (*models.PageMetadata, error) {
	recs, err := s.records.ListRecords(ctx, sess, gateway.PageMetadata, gateway.Query{
		Filter: map[string]any{"page_path": pagePath},
		Limit:  1,
	})
	if err != nil {
		return nil, fmt.Errorf("find page metadata: %w", err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return models.PageMetadataFromRecord(recs[0])
}

// SaveMetadata validates and upserts metadata on its page path. A result
// with errors returns a *MetadataError; warnings are returned alongside the
// stored metadata.
func (s *Service) SaveMetadata(ctx context.Context, sess *gateway.Session, meta models.PageMetadata) (*models.PageMetadata, validate.Result, error) {
	meta.PagePath = strings.TrimSpace(meta.PagePath)
	if meta.PagePath == "" || !strings.HasPrefix(meta.PagePath, "/") {
		return nil, validate.Result{}, fmt.Errorf("%w: page path must start with /", ErrInvalidMetadata)
	}
	meta.Title = strings.TrimSpace(meta.Title)
	meta.Description = strings.TrimSpace(meta.Description)
	meta.Keywords = cleanKeywords(meta.Keywords)

	result := validate.ValidateMetadata(meta)
	if !result.IsValid {
		return nil, result, &MetadataError{Result: result}
	}

	rec, err := s.records.UpsertRecord(ctx, sess, gateway.PageMetadata, meta.Record(), "page_path")
	if err != nil {
		return nil, result, fmt.Errorf("save page metadata: %w", err)
	}
	saved, err := models.PageMetadataFromRecord(rec)
	if err != nil {
		return nil, result, err
	}
	slog.Info("page metadata saved", "path", saved.PagePath, "warnings", len(result.Warnings))
	return saved, result, nil
}

// cleanKeywords trims keywords and drops blanks and case-insensitive
// duplicates, keeping the first spelling.
func cleanKeywords(in []string) []string {
	out := []string{}
	seen := make(map[string]bool, len(in))
	for _, k := range in {
		k = strings.TrimSpace(k)
		key := strings.ToLower(k)
		if k == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, k)
	}
	return out
}

// Sections returns the builder sections of a page ordered by position.
func (s *Service) Sections(ctx context.Context, sess *gateway.Session, pageID string) ([]variables.Section, error) {
	recs, err := s.records.ListRecords(ctx, sess, gateway.PageSections, gateway.Query{
		Filter:  map[string]any{"page_id": pageID},
		OrderBy: "sort_order",
	})
	if err != nil {
		return nil, fmt.Errorf("list page sections: %w", err)
	}
	out := make([]variables.Section, 0, len(recs))
	for _, r := range recs {
		sec, err := variables.SectionFromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("page section %s: %w", r.String("id"), err)
		}
		out = append(out, sec)
	}
	return out, nil
}

// SaveSections replaces the builder sections of a page with sections.
// Sections with an id that exists on the page are updated, the others are
// inserted, and stored sections missing from the list are deleted. Sections
// are renumbered in list order. With a transactional gateway the whole
// replacement commits together.
func (s *Service) SaveSections(ctx context.Context, sess *gateway.Session, pageID string, sections []variables.Section) ([]variables.Section, error) {
	if strings.TrimSpace(pageID) == "" {
		return nil, fmt.Errorf("%w: page id is required", ErrInvalidSection)
	}
	for i, sec := range sections {
		if strings.TrimSpace(string(sec.Type)) == "" {
			return nil, fmt.Errorf("%w: section %d has no type", ErrInvalidSection, i)
		}
		if err := sec.Widget.Validate(); err != nil {
			return nil, fmt.Errorf("%w: section %d: %v", ErrInvalidSection, i, err)
		}
	}

	save := func(r gateway.Records) error {
		return replaceSections(ctx, sess, r, pageID, sections)
	}
	var err error
	if tx, ok := s.records.(gateway.Transactor); ok {
		err = tx.WithinTx(ctx, sess, save)
	} else {
		err = save(s.records)
	}
	if err != nil {
		return nil, err
	}
	return s.Sections(ctx, sess, pageID)
}

func replaceSections(ctx context.Context, sess *gateway.Session, r gateway.Records, pageID string, sections []variables.Section) error {
	current, err := r.ListRecords(ctx, sess, gateway.PageSections, gateway.Query{
		Filter: map[string]any{"page_id": pageID},
	})
	if err != nil {
		return fmt.Errorf("list page sections: %w", err)
	}
	stored := make(map[string]bool, len(current))
	for _, rec := range current {
		stored[rec.String("id")] = true
	}

	kept := make(map[string]bool, len(sections))
	for i, sec := range sections {
		sec.PageID = pageID
		sec.Order = i
		rec := sec.Record()

		if sec.ID != "" && stored[sec.ID] {
			delete(rec, "id")
			if err := r.UpdateRecord(ctx, sess, gateway.PageSections, sec.ID, rec); err != nil {
				return fmt.Errorf("update page section: %w", err)
			}
			kept[sec.ID] = true
			continue
		}

		delete(rec, "id")
		if _, err := r.InsertRecord(ctx, sess, gateway.PageSections, rec); err != nil {
			return fmt.Errorf("insert page section: %w", err)
		}
	}

	for id := range stored {
		if kept[id] {
			continue
		}
		if err := r.DeleteRecord(ctx, sess, gateway.PageSections, id); err != nil {
			return fmt.Errorf("delete page section: %w", err)
		}
	}
	return nil
}

// ImportVariables applies imported variable values to a page's sections and
// saves the result. It returns the number of values applied.
func (s *Service) ImportVariables(ctx context.Context, sess *gateway.Session, pageID string, vars []variables.Variable) (int, error) {
	current, err := s.Sections(ctx, sess, pageID)
	if err != nil {
		return 0, err
	}
	updated, applied := variables.Apply(current, vars)
	if applied == 0 {
		return 0, nil
	}
	if _, err := s.SaveSections(ctx, sess, pageID, updated); err != nil {
		return 0, err
	}
	slog.Info("template variables imported", "page_id", pageID, "applied", applied)
	return applied, nil
}
