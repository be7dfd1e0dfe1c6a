// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"pagesmith/internal/gateway"
	"pagesmith/internal/models"
	"pagesmith/internal/slug"
)

// ErrNoFallback is returned when deleting the active theme leaves no other
// theme to activate.
var ErrNoFallback = errors.New("no other theme to activate")

// Cache stores generated CSS. cache.StylesheetCache implements it.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, css string)
	InvalidateAll(ctx context.Context)
}

// Cache keys. They match cache.SiteKey and cache.ThemeKey.
const (
	siteKey        = "_site"
	themeKeyPrefix = "theme:"
)

// Service manages the theme lifecycle through the gateway and keeps State
// in step with what the gateway confirmed.
type Service struct {
	records gateway.Records
	state   *State
	cache   Cache
}

// NewService creates a theme service. cache may be nil.
func NewService(records gateway.Records, state *State, cache Cache) *Service {
	if state == nil {
		state = NewState()
	}
	return &Service{records: records, state: state, cache: cache}
}

// State returns the service's state.
func (s *Service) State() *State {
	return s.state
}

// Load reads every theme and the custom CSS into State.
func (s *Service) Load(ctx context.Context, sess *gateway.Session) error {
	themes, err := s.list(ctx, sess, s.records)
	if err != nil {
		return err
	}

	active := 0
	for _, t := range themes {
		if t.IsActive {
			active++
		}
	}
	if active > 1 {
		slog.Warn("more than one active theme in store", "count", active)
	}

	css, err := s.loadCustomCSS(ctx, sess)
	if err != nil {
		return err
	}

	s.state.replace(themes, css)
	return nil
}

// Reset clears State, as on sign-out.
func (s *Service) Reset() {
	s.state.Reset()
}

// ensureLoaded loads State on first use after construction or Reset.
func (s *Service) ensureLoaded(ctx context.Context, sess *gateway.Session) error {
	if s.state.Loaded() {
		return nil
	}
	return s.Load(ctx, sess)
}

// Themes returns every theme ordered by name.
func (s *Service) Themes(ctx context.Context, sess *gateway.Session) ([]*Theme, error) {
	if err := s.ensureLoaded(ctx, sess); err != nil {
		return nil, err
	}
	return s.state.Themes(), nil
}

// Get returns one theme by id.
func (s *Service) Get(ctx context.Context, sess *gateway.Session, id uuid.UUID) (*Theme, error) {
	if err := s.ensureLoaded(ctx, sess); err != nil {
		return nil, err
	}
	t := s.state.Find(id)
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

// Active returns the active theme, or nil when none is active.
func (s *Service) Active(ctx context.Context, sess *gateway.Session) (*Theme, error) {
	if err := s.ensureLoaded(ctx, sess); err != nil {
		return nil, err
	}
	return s.state.Active(), nil
}

// IsInUse reports whether the theme is the active one. Widget references
// by slug are not considered; DeleteCustom repairs those instead.
func (s *Service) IsInUse(id uuid.UUID) bool {
	active := s.state.Active()
	return active != nil && active.ID == id
}

// SetActive makes id the only active theme. With a transactional gateway
// the clear and the set commit together; otherwise the previous holders are
// restored if setting or verifying the target fails. State changes only
// after success.
func (s *Service) SetActive(ctx context.Context, sess *gateway.Session, id uuid.UUID) (*Theme, error) {
	target, err := s.fetch(ctx, sess, s.records, id)
	if err != nil {
		return nil, err
	}

	if tx, ok := s.records.(gateway.Transactor); ok {
		err = tx.WithinTx(ctx, sess, func(r gateway.Records) error {
			_, err := activate(ctx, sess, r, id)
			return err
		})
	} else {
		err = s.activateWithRollback(ctx, sess, id, target.IsActive)
	}
	if err != nil {
		return nil, fmt.Errorf("set active theme: %w", err)
	}

	if err := s.ensureLoaded(ctx, sess); err != nil {
		return nil, err
	}
	s.state.setActive(id)
	s.invalidate(ctx)

	target.IsActive = true
	slog.Info("theme activated", "slug", target.Slug)
	return target, nil
}

// activate clears is_active on every other active theme, then sets it on
// id. It returns the ids it cleared.
func activate(ctx context.Context, sess *gateway.Session, r gateway.Records, id uuid.UUID) ([]string, error) {
	current, err := r.ListRecords(ctx, sess, gateway.Themes, gateway.Query{
		Filter: map[string]any{"is_active": true},
	})
	if err != nil {
		return nil, fmt.Errorf("list active themes: %w", err)
	}

	var cleared []string
	for _, rec := range current {
		other := rec.String("id")
		if other == id.String() {
			continue
		}
		if err := r.UpdateRecord(ctx, sess, gateway.Themes, other, gateway.Record{"is_active": false}); err != nil {
			return cleared, fmt.Errorf("deactivate theme: %w", err)
		}
		cleared = append(cleared, other)
	}

	if err := r.UpdateRecord(ctx, sess, gateway.Themes, id.String(), gateway.Record{"is_active": true}); err != nil {
		return cleared, fmt.Errorf("activate theme: %w", err)
	}
	return cleared, nil
}

func (s *Service) activateWithRollback(ctx context.Context, sess *gateway.Session, id uuid.UUID, wasActive bool) error {
	cleared, err := activate(ctx, sess, s.records, id)
	if err == nil {
		err = s.verifyActive(ctx, sess, id)
	}
	if err == nil {
		return nil
	}

	// Put back whatever was active before.
	if !wasActive {
		if rbErr := s.records.UpdateRecord(ctx, sess, gateway.Themes, id.String(), gateway.Record{"is_active": false}); rbErr != nil && !errors.Is(rbErr, gateway.ErrNotFound) {
			slog.Error("theme activation rollback failed", "theme_id", id, "error", rbErr)
		}
	}
	for _, prev := range cleared {
		if rbErr := s.records.UpdateRecord(ctx, sess, gateway.Themes, prev, gateway.Record{"is_active": true}); rbErr != nil {
			slog.Error("theme activation rollback failed", "theme_id", prev, "error", rbErr)
		}
	}
	return err
}

// verifyActive checks that id is now the only active theme.
func (s *Service) verifyActive(ctx context.Context, sess *gateway.Session, id uuid.UUID) error {
	recs, err := s.records.ListRecords(ctx, sess, gateway.Themes, gateway.Query{
		Filter: map[string]any{"is_active": true},
	})
	if err != nil {
		return fmt.Errorf("verify active theme: %w", err)
	}
	if len(recs) != 1 || recs[0].String("id") != id.String() {
		return fmt.Errorf("verify active theme: %d active after update", len(recs))
	}
	return nil
}

// CreateInput holds the fields of a new custom theme. An empty Slug is
// derived from Name; a nil OwnerID defaults to the session's user.
type CreateInput struct {
	Name    string     `json:"name"`
	Slug    string     `json:"slug"`
	Tokens  TokenSet   `json:"tokens"`
	OwnerID *uuid.UUID `json:"owner_id,omitempty"`
}

// CreateCustom stores a new inactive custom theme. The slug must be unused
// and the tokens must differ from every existing theme.
func (s *Service) CreateCustom(ctx context.Context, sess *gateway.Session, in CreateInput) (*Theme, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	themeSlug := strings.TrimSpace(in.Slug)
	if themeSlug == "" {
		themeSlug = slug.Generate(name)
	}
	if !slug.Valid(themeSlug) {
		return nil, fmt.Errorf("%w: slug %q is not valid", ErrInvalid, themeSlug)
	}
	if err := in.Tokens.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	existing, err := s.list(ctx, sess, s.records)
	if err != nil {
		return nil, err
	}
	if err := checkUnique(existing, uuid.Nil, &themeSlug, in.Tokens); err != nil {
		return nil, err
	}

	t := &Theme{
		Name:    name,
		Slug:    themeSlug,
		Source:  SourceCustom,
		Tokens:  in.Tokens.Clone(),
		OwnerID: in.OwnerID,
	}
	if t.OwnerID == nil && sess != nil && sess.UserID != uuid.Nil {
		owner := sess.UserID
		t.OwnerID = &owner
	}

	rec, err := s.records.InsertRecord(ctx, sess, gateway.Themes, t.record())
	if errors.Is(err, gateway.ErrConflict) {
		return nil, ErrDuplicateSlug
	}
	if err != nil {
		return nil, fmt.Errorf("create theme: %w", err)
	}
	created, err := fromRecord(rec)
	if err != nil {
		return nil, err
	}

	if s.state.Loaded() {
		s.state.put(created)
	}
	s.invalidate(ctx)
	slog.Info("custom theme created", "slug", created.Slug)
	return created, nil
}

// DuplicateDraft returns a CreateInput prefilled from an existing theme,
// built-in or custom. It is not stored: identical tokens would be rejected
// by CreateCustom, so the caller edits the tokens first.
func (s *Service) DuplicateDraft(ctx context.Context, sess *gateway.Session, id uuid.UUID) (CreateInput, error) {
	if err := s.ensureLoaded(ctx, sess); err != nil {
		return CreateInput{}, err
	}
	src := s.state.Find(id)
	if src == nil {
		return CreateInput{}, ErrNotFound
	}

	name := src.Name + " (copy)"
	base := slug.Generate(name)
	candidate := base
	for n := 2; s.state.BySlug(candidate) != nil; n++ {
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return CreateInput{Name: name, Slug: candidate, Tokens: src.Tokens.Clone()}, nil
}

// ThemePatch lists the fields UpdateCustom changes. Nil fields are kept.
type ThemePatch struct {
	Name   *string  `json:"name,omitempty"`
	Slug   *string  `json:"slug,omitempty"`
	Tokens TokenSet `json:"tokens,omitempty"`
}

// UpdateCustom applies patch to a custom theme. Slug and token changes
// re-run the uniqueness checks against every other theme.
func (s *Service) UpdateCustom(ctx context.Context, sess *gateway.Session, id uuid.UUID, patch ThemePatch) (*Theme, error) {
	cur, err := s.fetch(ctx, sess, s.records, id)
	if err != nil {
		return nil, err
	}
	if !cur.IsCustom() {
		return nil, ErrPermissionDenied
	}

	partial := gateway.Record{}
	var newSlug *string
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalid)
		}
		partial["name"] = name
	}
	if patch.Slug != nil && *patch.Slug != cur.Slug {
		v := strings.TrimSpace(*patch.Slug)
		if !slug.Valid(v) {
			return nil, fmt.Errorf("%w: slug %q is not valid", ErrInvalid, v)
		}
		newSlug = &v
		partial["slug"] = v
	}
	if patch.Tokens != nil {
		if err := patch.Tokens.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		partial["tokens"] = map[string]string(patch.Tokens)
	}
	if len(partial) == 0 {
		return cur, nil
	}

	if newSlug != nil || patch.Tokens != nil {
		existing, err := s.list(ctx, sess, s.records)
		if err != nil {
			return nil, err
		}
		if err := checkUnique(existing, id, newSlug, patch.Tokens); err != nil {
			return nil, err
		}
	}

	err = s.records.UpdateRecord(ctx, sess, gateway.Themes, id.String(), partial)
	if errors.Is(err, gateway.ErrConflict) {
		return nil, ErrDuplicateSlug
	}
	if err != nil {
		return nil, fmt.Errorf("update theme: %w", err)
	}

	updated, err := s.fetch(ctx, sess, s.records, id)
	if err != nil {
		return nil, err
	}
	if s.state.Loaded() {
		s.state.put(updated)
	}
	s.invalidate(ctx)
	return updated, nil
}

// DeleteResult reports what DeleteCustom changed besides the deletion.
type DeleteResult struct {
	// Activated is the theme that took over as active, if the deleted theme
	// was active.
	Activated *Theme `json:"activated,omitempty"`
	// RepairedSections lists page-builder sections whose widget named the
	// deleted theme and were reset to inherit.
	RepairedSections []string `json:"repaired_sections"`
}

// DeleteCustom removes a custom theme. An active theme first hands the
// active flag to the "light" theme, or the first remaining theme by name.
// Sections whose widget names the theme are reset to inherit.
func (s *Service) DeleteCustom(ctx context.Context, sess *gateway.Session, id uuid.UUID) (*DeleteResult, error) {
	target, err := s.fetch(ctx, sess, s.records, id)
	if err != nil {
		return nil, err
	}
	if !target.IsCustom() {
		return nil, ErrPermissionDenied
	}

	result := &DeleteResult{RepairedSections: []string{}}

	if target.IsActive {
		all, err := s.list(ctx, sess, s.records)
		if err != nil {
			return nil, err
		}
		fallback := pickFallback(all, id)
		if fallback == nil {
			return nil, ErrNoFallback
		}
		activated, err := s.SetActive(ctx, sess, fallback.ID)
		if err != nil {
			return nil, err
		}
		result.Activated = activated
	}

	var repaired []string
	if tx, ok := s.records.(gateway.Transactor); ok {
		err = tx.WithinTx(ctx, sess, func(r gateway.Records) error {
			var err error
			repaired, err = removeTheme(ctx, sess, r, id, target.Slug)
			return err
		})
	} else {
		repaired, err = s.removeWithRollback(ctx, sess, id, target.Slug)
	}
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	result.RepairedSections = repaired

	if s.state.Loaded() {
		s.state.remove(id)
	}
	s.invalidate(ctx)
	slog.Info("custom theme deleted", "slug", target.Slug, "repaired_sections", len(repaired))
	return result, nil
}

func pickFallback(themes []*Theme, exclude uuid.UUID) *Theme {
	var first *Theme
	for _, t := range themes {
		if t.ID == exclude {
			continue
		}
		if t.Slug == FallbackSlug {
			return t
		}
		if first == nil {
			first = t
		}
	}
	return first
}

// removeTheme resets every page section whose widget names themeSlug to
// inherit, then deletes the theme. It returns the repaired section ids.
func removeTheme(ctx context.Context, sess *gateway.Session, r gateway.Records, id uuid.UUID, themeSlug string) ([]string, error) {
	repaired, err := repairWidgetRefs(ctx, sess, r, themeSlug)
	if err != nil {
		return repaired, err
	}
	if err := r.DeleteRecord(ctx, sess, gateway.Themes, id.String()); err != nil {
		return repaired, fmt.Errorf("delete theme: %w", err)
	}
	return repaired, nil
}

// removeWithRollback runs removeTheme and, on failure, points the repaired
// sections back at the theme.
func (s *Service) removeWithRollback(ctx context.Context, sess *gateway.Session, id uuid.UUID, themeSlug string) ([]string, error) {
	repaired, err := removeTheme(ctx, sess, s.records, id, themeSlug)
	if err == nil {
		return repaired, nil
	}
	for _, sectionID := range repaired {
		if rbErr := s.records.UpdateRecord(ctx, sess, gateway.PageSections, sectionID, gateway.Record{
			"widget_theme": Named(themeSlug),
		}); rbErr != nil {
			slog.Error("widget theme rollback failed", "section_id", sectionID, "error", rbErr)
		}
	}
	return nil, err
}

// repairWidgetRefs resets every page section whose widget names themeSlug
// back to inherit, stored as NULL, and returns their ids.
func repairWidgetRefs(ctx context.Context, sess *gateway.Session, r gateway.Records, themeSlug string) ([]string, error) {
	recs, err := r.ListRecords(ctx, sess, gateway.PageSections, gateway.Query{OrderBy: "page_id"})
	if err != nil {
		return nil, fmt.Errorf("scan widget themes: %w", err)
	}

	repaired := []string{}
	for _, rec := range recs {
		var cfg WidgetConfig
		if err := rec.Decode("widget_theme", &cfg); err != nil {
			slog.Warn("skipping unreadable widget theme", "section_id", rec.String("id"), "error", err)
			continue
		}
		if cfg.Mode != ModeNamed || cfg.ThemeRef != themeSlug {
			continue
		}
		id := rec.String("id")
		if err := r.UpdateRecord(ctx, sess, gateway.PageSections, id, gateway.Record{
			"widget_theme": nil,
		}); err != nil {
			return repaired, fmt.Errorf("repair widget theme: %w", err)
		}
		repaired = append(repaired, id)
	}
	return repaired, nil
}

// Resolve returns the effective tokens for a widget against the loaded
// active theme.
func (s *Service) Resolve(ctx context.Context, sess *gateway.Session, cfg WidgetConfig) (TokenSet, error) {
	if err := s.ensureLoaded(ctx, sess); err != nil {
		return nil, err
	}
	return ResolveWidgetTokens(cfg, s.state.Active(), s.state.Lookup()), nil
}

// SetCustomCSS stores the site custom CSS and applies it to State once the
// gateway confirms.
func (s *Service) SetCustomCSS(ctx context.Context, sess *gateway.Session, css string) error {
	if strings.Contains(strings.ToLower(css), "</style") {
		return fmt.Errorf("%w: custom CSS may not close the style element", ErrInvalid)
	}
	if _, err := s.records.UpsertRecord(ctx, sess, gateway.SiteSettings, gateway.Record{
		"key":   models.SettingCustomCSS,
		"value": css,
	}, "key"); err != nil {
		return fmt.Errorf("save custom css: %w", err)
	}
	s.state.setCustomCSS(css)
	s.invalidate(ctx)
	return nil
}

// Stylesheet returns every theme block in slug order plus the custom CSS.
// It reads the gateway directly so it is also usable without a session.
func (s *Service) Stylesheet(ctx context.Context, sess *gateway.Session) (string, error) {
	if s.cache != nil {
		if css, ok := s.cache.Get(ctx, siteKey); ok {
			return css, nil
		}
	}

	themes, err := s.list(ctx, sess, s.records)
	if err != nil {
		return "", err
	}
	custom, err := s.loadCustomCSS(ctx, sess)
	if err != nil {
		return "", err
	}
	css := Stylesheet(themes, custom)

	if s.cache != nil {
		s.cache.Set(ctx, siteKey, css)
	}
	return css, nil
}

// ThemeStylesheet returns the block for a single theme.
func (s *Service) ThemeStylesheet(ctx context.Context, sess *gateway.Session, themeSlug string) (string, error) {
	key := themeKeyPrefix + themeSlug
	if s.cache != nil {
		if css, ok := s.cache.Get(ctx, key); ok {
			return css, nil
		}
	}

	recs, err := s.records.ListRecords(ctx, sess, gateway.Themes, gateway.Query{
		Filter: map[string]any{"slug": themeSlug},
		Limit:  1,
	})
	if err != nil {
		return "", fmt.Errorf("find theme: %w", err)
	}
	if len(recs) == 0 {
		return "", ErrNotFound
	}
	t, err := fromRecord(recs[0])
	if err != nil {
		return "", err
	}
	css := GenerateStyleBlock(t.Slug, t.Tokens)

	if s.cache != nil {
		s.cache.Set(ctx, key, css)
	}
	return css, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateAll(ctx)
	}
}

// list reads every theme ordered by name.
func (s *Service) list(ctx context.Context, sess *gateway.Session, r gateway.Records) ([]*Theme, error) {
	recs, err := r.ListRecords(ctx, sess, gateway.Themes, gateway.Query{OrderBy: "name"})
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	themes := make([]*Theme, 0, len(recs))
	for _, rec := range recs {
		t, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		themes = append(themes, t)
	}
	return themes, nil
}

// fetch reads one theme, mapping a missing record to ErrNotFound.
func (s *Service) fetch(ctx context.Context, sess *gateway.Session, r gateway.Records, id uuid.UUID) (*Theme, error) {
	rec, err := r.GetRecord(ctx, sess, gateway.Themes, id.String())
	if errors.Is(err, gateway.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get theme: %w", err)
	}
	return fromRecord(rec)
}

func (s *Service) loadCustomCSS(ctx context.Context, sess *gateway.Session) (string, error) {
	rec, err := s.records.GetRecord(ctx, sess, gateway.SiteSettings, models.SettingCustomCSS)
	if errors.Is(err, gateway.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load custom css: %w", err)
	}
	return rec.String("value"), nil
}

// checkUnique rejects a slug or token set already used by a theme other
// than self. A nil newSlug or tokens skips that check.
func checkUnique(themes []*Theme, self uuid.UUID, newSlug *string, tokens TokenSet) error {
	for _, t := range themes {
		if t.ID == self {
			continue
		}
		if newSlug != nil && t.Slug == *newSlug {
			return ErrDuplicateSlug
		}
	}
	if tokens == nil {
		return nil
	}
	for _, t := range themes {
		if t.ID == self {
			continue
		}
		if !TokensDiffer(t.Tokens, tokens) {
			return ErrDuplicateTokens
		}
	}
	return nil
}
