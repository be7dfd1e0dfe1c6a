package theme

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagesmith/internal/gateway"
)

type fakeCache struct {
	entries       map[string]string
	hits          int
	invalidations int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, bool) {
	v, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return v, ok
}

func (c *fakeCache) Set(_ context.Context, key, css string) {
	c.entries[key] = css
}

func (c *fakeCache) InvalidateAll(context.Context) {
	c.entries = map[string]string{}
	c.invalidations++
}

// failingRecords refuses to set is_active on one theme.
type failingRecords struct {
	*gateway.Memory
	failOn string
}

func (f *failingRecords) UpdateRecord(ctx context.Context, sess *gateway.Session, c gateway.Collection, id string, partial gateway.Record) error {
	if c == gateway.Themes && id == f.failOn && partial["is_active"] == true {
		return errors.New("connection reset by peer")
	}
	return f.Memory.UpdateRecord(ctx, sess, c, id, partial)
}

// undeletableRecords refuses to delete themes.
type undeletableRecords struct {
	*gateway.Memory
}

func (u *undeletableRecords) DeleteRecord(ctx context.Context, sess *gateway.Session, c gateway.Collection, id string) error {
	if c == gateway.Themes {
		return errors.New("statement timeout")
	}
	return u.Memory.DeleteRecord(ctx, sess, c, id)
}

// txRecords counts WithinTx calls on top of the memory store.
type txRecords struct {
	*gateway.Memory
	calls int
}

func (r *txRecords) WithinTx(_ context.Context, _ *gateway.Session, fn func(gateway.Records) error) error {
	r.calls++
	return fn(r.Memory)
}

type fixture struct {
	mem   *gateway.Memory
	svc   *Service
	cache *fakeCache
	sess  *gateway.Session
	ids   map[string]uuid.UUID
}

func seededMemory(t *testing.T, sess *gateway.Session) (*gateway.Memory, map[string]uuid.UUID) {
	t.Helper()
	mem := gateway.NewMemory()
	n, err := SeedBuiltins(context.Background(), sess, mem)
	require.NoError(t, err)
	require.Equal(t, 6, n)

	recs, err := mem.ListRecords(context.Background(), sess, gateway.Themes, gateway.Query{})
	require.NoError(t, err)
	ids := make(map[string]uuid.UUID, len(recs))
	for _, r := range recs {
		ids[r.String("slug")] = r.UUID("id")
	}
	return mem, ids
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sess := &gateway.Session{UserID: uuid.New(), Email: "admin@example.com", Role: "admin", TwoFADone: true}
	mem, ids := seededMemory(t, sess)
	cache := newFakeCache()
	return &fixture{
		mem:   mem,
		svc:   NewService(mem, NewState(), cache),
		cache: cache,
		sess:  sess,
		ids:   ids,
	}
}

func (f *fixture) activeSlugs(t *testing.T) []string {
	t.Helper()
	recs, err := f.mem.ListRecords(context.Background(), nil, gateway.Themes, gateway.Query{
		Filter:  map[string]any{"is_active": true},
		OrderBy: "slug",
	})
	require.NoError(t, err)
	var slugs []string
	for _, r := range recs {
		slugs = append(slugs, r.String("slug"))
	}
	return slugs
}

func (f *fixture) createBrand(t *testing.T) *Theme {
	t.Helper()
	tokens := DefaultTokens()
	tokens["primary"] = "#0044cc"
	created, err := f.svc.CreateCustom(context.Background(), f.sess, CreateInput{Name: "Brand Blue", Tokens: tokens})
	require.NoError(t, err)
	return created
}

func TestServiceLoad(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	themes, err := f.svc.Themes(ctx, f.sess)
	require.NoError(t, err)
	var names []string
	for _, th := range themes {
		names = append(names, th.Name)
	}
	assert.Equal(t, []string{"Corporate", "Cupcake", "Dark", "Dracula", "Light", "Nord"}, names)

	active, err := f.svc.Active(ctx, f.sess)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "light", active.Slug)
	assert.True(t, f.svc.IsInUse(f.ids["light"]))
	assert.False(t, f.svc.IsInUse(f.ids["dark"]))

	_, err = f.svc.Get(ctx, f.sess, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceResetReloads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Load(ctx, f.sess))
	f.svc.Reset()
	assert.False(t, f.svc.State().Loaded())
	assert.Nil(t, f.svc.State().Active())

	active, err := f.svc.Active(ctx, f.sess)
	require.NoError(t, err)
	assert.Equal(t, "light", active.Slug)
}

func TestSetActiveKeepsExactlyOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, s := range []string{"dark", "nord", "nord", "light", "dracula"} {
		got, err := f.svc.SetActive(ctx, f.sess, f.ids[s])
		require.NoError(t, err, s)
		assert.True(t, got.IsActive)
		assert.Equal(t, []string{s}, f.activeSlugs(t))

		active, err := f.svc.Active(ctx, f.sess)
		require.NoError(t, err)
		assert.Equal(t, s, active.Slug)
	}
	assert.Equal(t, 5, f.cache.invalidations)
}

func TestSetActiveUnknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SetActive(context.Background(), f.sess, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{"light"}, f.activeSlugs(t))
}

func TestSetActiveRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	records := &failingRecords{Memory: f.mem, failOn: f.ids["dark"].String()}
	svc := NewService(records, NewState(), f.cache)
	require.NoError(t, svc.Load(ctx, f.sess))

	_, err := svc.SetActive(ctx, f.sess, f.ids["dark"])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	assert.Equal(t, []string{"light"}, f.activeSlugs(t))
	assert.Equal(t, "light", svc.State().Active().Slug)
	assert.Zero(t, f.cache.invalidations)
}

func TestSetActiveWithoutSessionLeavesStoreUntouched(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SetActive(context.Background(), nil, f.ids["dark"])
	assert.ErrorIs(t, err, gateway.ErrUnauthenticated)
	assert.Equal(t, []string{"light"}, f.activeSlugs(t))
}

func TestSetActiveUsesTransaction(t *testing.T) {
	f := newFixture(t)
	records := &txRecords{Memory: f.mem}
	svc := NewService(records, nil, nil)

	_, err := svc.SetActive(context.Background(), f.sess, f.ids["cupcake"])
	require.NoError(t, err)
	assert.Equal(t, 1, records.calls)
	assert.Equal(t, []string{"cupcake"}, f.activeSlugs(t))
}

func TestCreateCustom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Load(ctx, f.sess))

	created := f.createBrand(t)
	assert.Equal(t, "brand-blue", created.Slug)
	assert.Equal(t, SourceCustom, created.Source)
	assert.False(t, created.IsActive)
	require.NotNil(t, created.OwnerID)
	assert.Equal(t, f.sess.UserID, *created.OwnerID)
	assert.NotEqual(t, uuid.Nil, created.ID)

	assert.NotNil(t, f.svc.State().BySlug("brand-blue"))
	assert.Equal(t, 1, f.cache.invalidations)
	assert.Equal(t, []string{"light"}, f.activeSlugs(t))
}

func TestCreateCustomRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unique := DefaultTokens()
	unique["accent"] = "#abcdef"

	darkTokens := f.svc.State().BySlug("dark")
	require.Nil(t, darkTokens, "state is not loaded yet")
	dark, err := f.svc.Get(ctx, f.sess, f.ids["dark"])
	require.NoError(t, err)
	shouted := dark.Tokens.Clone()
	for k, v := range shouted {
		shouted[k] = strings.ToUpper(v)
	}

	incomplete := DefaultTokens()
	delete(incomplete, "info")

	tests := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"blank name", CreateInput{Name: "  ", Tokens: unique}, ErrInvalid},
		{"bad slug", CreateInput{Name: "X", Slug: "Not A Slug", Tokens: unique}, ErrInvalid},
		{"slug from symbols only", CreateInput{Name: "!!!", Tokens: unique}, ErrInvalid},
		{"incomplete tokens", CreateInput{Name: "X", Tokens: incomplete}, ErrInvalid},
		{"slug taken", CreateInput{Name: "Dark", Tokens: unique}, ErrDuplicateSlug},
		{"tokens taken", CreateInput{Name: "Shouty Dark", Tokens: shouted}, ErrDuplicateTokens},
		{"default palette taken by light", CreateInput{Name: "Mine", Tokens: DefaultTokens()}, ErrDuplicateTokens},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateCustom(ctx, f.sess, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	themes, err := f.svc.Themes(ctx, f.sess)
	require.NoError(t, err)
	assert.Len(t, themes, 6)
}

func TestDuplicateDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft, err := f.svc.DuplicateDraft(ctx, f.sess, f.ids["dark"])
	require.NoError(t, err)
	assert.Equal(t, "Dark (copy)", draft.Name)
	assert.Equal(t, "dark-copy", draft.Slug)

	// An unedited draft has the source's tokens.
	_, err = f.svc.CreateCustom(ctx, f.sess, draft)
	assert.ErrorIs(t, err, ErrDuplicateTokens)

	draft.Tokens["primary"] = "#123456"
	_, err = f.svc.CreateCustom(ctx, f.sess, draft)
	require.NoError(t, err)

	again, err := f.svc.DuplicateDraft(ctx, f.sess, f.ids["dark"])
	require.NoError(t, err)
	assert.Equal(t, "dark-copy-2", again.Slug)

	_, err = f.svc.DuplicateDraft(ctx, f.sess, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateCustom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Load(ctx, f.sess))
	brand := f.createBrand(t)

	name := "Brand Navy"
	updated, err := f.svc.UpdateCustom(ctx, f.sess, brand.ID, ThemePatch{Name: &name, Tokens: brand.Tokens})
	require.NoError(t, err, "own tokens do not count as a duplicate")
	assert.Equal(t, "Brand Navy", updated.Name)
	assert.Equal(t, "brand-blue", updated.Slug)
	assert.Equal(t, "Brand Navy", f.svc.State().Find(brand.ID).Name)

	newSlug := "brand-navy"
	updated, err = f.svc.UpdateCustom(ctx, f.sess, brand.ID, ThemePatch{Slug: &newSlug})
	require.NoError(t, err)
	assert.Equal(t, "brand-navy", updated.Slug)

	taken := "nord"
	_, err = f.svc.UpdateCustom(ctx, f.sess, brand.ID, ThemePatch{Slug: &taken})
	assert.ErrorIs(t, err, ErrDuplicateSlug)

	nord, err := f.svc.Get(ctx, f.sess, f.ids["nord"])
	require.NoError(t, err)
	_, err = f.svc.UpdateCustom(ctx, f.sess, brand.ID, ThemePatch{Tokens: nord.Tokens})
	assert.ErrorIs(t, err, ErrDuplicateTokens)

	blank := " "
	_, err = f.svc.UpdateCustom(ctx, f.sess, brand.ID, ThemePatch{Name: &blank})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = f.svc.UpdateCustom(ctx, f.sess, f.ids["dark"], ThemePatch{Name: &name})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.svc.UpdateCustom(ctx, f.sess, uuid.New(), ThemePatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteBuiltinDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.DeleteCustom(ctx, f.sess, f.ids["dracula"])
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.mem.GetRecord(ctx, nil, gateway.Themes, f.ids["dracula"].String())
	assert.NoError(t, err)
}

func TestDeleteActiveCustomFallsBackToLight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Load(ctx, f.sess))

	brand := f.createBrand(t)
	_, err := f.svc.SetActive(ctx, f.sess, brand.ID)
	require.NoError(t, err)
	assert.True(t, f.svc.IsInUse(brand.ID))

	res, err := f.svc.DeleteCustom(ctx, f.sess, brand.ID)
	require.NoError(t, err)
	require.NotNil(t, res.Activated)
	assert.Equal(t, "light", res.Activated.Slug)
	assert.Empty(t, res.RepairedSections)

	assert.Equal(t, []string{"light"}, f.activeSlugs(t))
	assert.Nil(t, f.svc.State().Find(brand.ID))
	assert.Equal(t, "light", f.svc.State().Active().Slug)

	_, err = f.mem.GetRecord(ctx, nil, gateway.Themes, brand.ID.String())
	assert.ErrorIs(t, err, gateway.ErrNotFound)
}

func TestDeleteInactiveCustomKeepsActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	brand := f.createBrand(t)
	_, err := f.svc.SetActive(ctx, f.sess, f.ids["nord"])
	require.NoError(t, err)

	res, err := f.svc.DeleteCustom(ctx, f.sess, brand.ID)
	require.NoError(t, err)
	assert.Nil(t, res.Activated)
	assert.Equal(t, []string{"nord"}, f.activeSlugs(t))
}

func TestDeleteCustomRepairsWidgetRefs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	brand := f.createBrand(t)

	insert := func(widget any) string {
		rec, err := f.mem.InsertRecord(ctx, f.sess, gateway.PageSections, gateway.Record{
			"page_id":      "/",
			"type":         "hero",
			"content":      map[string]any{"title": "Hi"},
			"widget_theme": widget,
		})
		require.NoError(t, err)
		return rec.String("id")
	}
	namedBrand := insert(Named("brand-blue"))
	namedDark := insert(Named("dark"))
	custom := insert(Custom(TokenSet{"primary": "#fff"}))
	bare := insert(nil)

	res, err := f.svc.DeleteCustom(ctx, f.sess, brand.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{namedBrand}, res.RepairedSections)

	widgetOf := func(id string) WidgetConfig {
		rec, err := f.mem.GetRecord(ctx, nil, gateway.PageSections, id)
		require.NoError(t, err)
		var cfg WidgetConfig
		require.NoError(t, rec.Decode("widget_theme", &cfg))
		return cfg
	}
	repairedRec, err := f.mem.GetRecord(ctx, nil, gateway.PageSections, namedBrand)
	require.NoError(t, err)
	assert.Nil(t, repairedRec["widget_theme"], "inherit is stored as NULL")
	assert.Equal(t, Inherit(), widgetOf(namedBrand).Normalized())
	assert.Equal(t, Named("dark"), widgetOf(namedDark))
	assert.Equal(t, ModeCustom, widgetOf(custom).Mode)
	assert.Equal(t, WidgetConfig{}, widgetOf(bare))
}

func TestDeleteCustomFailureRestoresWidgetRefs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	brand := f.createBrand(t)

	rec, err := f.mem.InsertRecord(ctx, f.sess, gateway.PageSections, gateway.Record{
		"page_id":      "/",
		"type":         "hero",
		"content":      map[string]any{},
		"widget_theme": Named(brand.Slug),
	})
	require.NoError(t, err)

	svc := NewService(&undeletableRecords{Memory: f.mem}, NewState(), f.cache)
	_, err = svc.DeleteCustom(ctx, f.sess, brand.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement timeout")

	got, err := f.mem.GetRecord(ctx, nil, gateway.PageSections, rec.String("id"))
	require.NoError(t, err)
	var cfg WidgetConfig
	require.NoError(t, got.Decode("widget_theme", &cfg))
	assert.Equal(t, Named(brand.Slug), cfg)

	_, err = f.mem.GetRecord(ctx, nil, gateway.Themes, brand.ID.String())
	assert.NoError(t, err, "theme still exists")
}

func TestDeleteCustomUsesTransaction(t *testing.T) {
	f := newFixture(t)
	brand := f.createBrand(t)
	records := &txRecords{Memory: f.mem}
	svc := NewService(records, nil, nil)

	_, err := svc.DeleteCustom(context.Background(), f.sess, brand.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, records.calls)

	_, err = f.mem.GetRecord(context.Background(), nil, gateway.Themes, brand.ID.String())
	assert.ErrorIs(t, err, gateway.ErrNotFound)
}

func TestPickFallback(t *testing.T) {
	a := &Theme{ID: uuid.New(), Name: "Alpha", Slug: "alpha"}
	b := &Theme{ID: uuid.New(), Name: "Beta", Slug: "beta"}
	light := &Theme{ID: uuid.New(), Name: "Light", Slug: "light"}

	assert.Equal(t, light, pickFallback([]*Theme{a, b, light}, a.ID))
	assert.Equal(t, b, pickFallback([]*Theme{a, b}, a.ID))
	assert.Equal(t, a, pickFallback([]*Theme{a, light}, light.ID))
	assert.Nil(t, pickFallback([]*Theme{a}, a.ID))
}

func TestServiceResolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.SetActive(ctx, f.sess, f.ids["dark"])
	require.NoError(t, err)
	dark, err := f.svc.Get(ctx, f.sess, f.ids["dark"])
	require.NoError(t, err)
	nord, err := f.svc.Get(ctx, f.sess, f.ids["nord"])
	require.NoError(t, err)

	got, err := f.svc.Resolve(ctx, f.sess, Inherit())
	require.NoError(t, err)
	assert.False(t, TokensDiffer(dark.Tokens, got))

	got, err = f.svc.Resolve(ctx, f.sess, Named("nord"))
	require.NoError(t, err)
	assert.False(t, TokensDiffer(nord.Tokens, got))

	got, err = f.svc.Resolve(ctx, f.sess, Named("gone"))
	require.NoError(t, err)
	assert.False(t, TokensDiffer(dark.Tokens, got))

	got, err = f.svc.Resolve(ctx, f.sess, Custom(TokenSet{"primary": "#ff00ff"}))
	require.NoError(t, err)
	assert.Equal(t, "#ff00ff", got["primary"])
	assert.Equal(t, dark.Tokens["secondary"], got["secondary"])
}

func TestCustomCSSAndStylesheetCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	css, err := f.svc.Stylesheet(ctx, nil)
	require.NoError(t, err)
	assert.Contains(t, css, `[data-theme="corporate"]`)
	assert.NotContains(t, css, "/* custom */")
	assert.Equal(t, css, f.cache.entries[siteKey])

	again, err := f.svc.Stylesheet(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, css, again)
	assert.Equal(t, 1, f.cache.hits)

	require.NoError(t, f.svc.SetCustomCSS(ctx, f.sess, ".hero { color: var(--p); }"))
	assert.Equal(t, ".hero { color: var(--p); }", f.svc.State().CustomCSS())
	assert.Empty(t, f.cache.entries)

	css, err = f.svc.Stylesheet(ctx, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(css, "/* custom */\n.hero { color: var(--p); }\n"))

	// Overwrites the single row.
	require.NoError(t, f.svc.SetCustomCSS(ctx, f.sess, ""))
	rows, err := f.mem.ListRecords(ctx, nil, gateway.SiteSettings, gateway.Query{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	err = f.svc.SetCustomCSS(ctx, f.sess, "</STYLE><script>alert(1)</script>")
	assert.ErrorIs(t, err, ErrInvalid)

	err = f.svc.SetCustomCSS(ctx, nil, "body{}")
	assert.ErrorIs(t, err, gateway.ErrUnauthenticated)
}

func TestThemeStylesheet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	css, err := f.svc.ThemeStylesheet(ctx, nil, "dracula")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(css, `[data-theme="dracula"] {`))
	assert.Equal(t, css, f.cache.entries["theme:dracula"])

	_, err = f.svc.ThemeStylesheet(ctx, nil, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
