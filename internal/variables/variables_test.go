package variables

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagesmith/internal/gateway"
	"pagesmith/internal/theme"
)

func sampleSections() []Section {
	return []Section{
		{ID: "s-header", Type: Header, Order: 0, Content: map[string]any{
			"logoText": "Acme",
			"navigation": []any{
				map[string]any{"label": "Home", "href": "/"},
				map[string]any{"label": "About", "href": "/about"},
			},
		}},
		{ID: "s-hero", Type: Hero, Order: 1, Content: map[string]any{
			"headline":    "Build faster",
			"subheadline": "With fewer \"surprises\", honestly",
			"ctaText":     "Start",
			"ctaLink":     "/signup",
			"image":       "https://cdn.example.com/hero.png",
		}},
		{ID: "s-unknown", Type: "carousel", Order: 2, Content: map[string]any{"slides": []any{}}},
		{ID: "s-cta", Type: CTA, Order: 3, Content: map[string]any{
			"title":       "Ready?",
			"description": "Line one\nline two",
			"buttonText":  "Go",
			"buttonLink":  "/go",
		}},
		{ID: "s-footer", Type: Footer, Order: 4, Content: map[string]any{
			"companyName": "Acme, Inc.",
			"description": "[beta] tools",
			"links":       []any{map[string]any{"label": "Legal", "href": "/legal"}},
			"socialLinks": []any{map[string]any{"platform": "github", "url": "https://github.com/acme"}},
			"copyright":   "© 2026 Acme",
		}},
	}
}

func fields(vars []Variable) []string {
	var out []string
	for _, v := range vars {
		out = append(out, v.SectionID+"."+v.Field)
	}
	return out
}

func TestExtractHero(t *testing.T) {
	base := map[string]any{
		"headline":    "H",
		"subheadline": "S",
		"ctaText":     "C",
		"ctaLink":     "/c",
	}

	vars := Extract([]Section{{ID: "h", Type: Hero, Content: base}})
	require.Len(t, vars, 4)
	assert.Equal(t, []string{"h.headline", "h.subheadline", "h.ctaText", "h.ctaLink"}, fields(vars))

	for _, blank := range []any{"", "   ", nil} {
		withBlank := gateway.Record(base).Clone()
		withBlank["image"] = blank
		assert.Len(t, Extract([]Section{{ID: "h", Type: Hero, Content: withBlank}}), 4, "image %#v", blank)
	}

	withImage := gateway.Record(base).Clone()
	withImage["image"] = "/img.png"
	vars = Extract([]Section{{ID: "h", Type: Hero, Content: withImage}})
	require.Len(t, vars, 5)
	assert.Equal(t, Variable{SectionID: "h", SectionType: Hero, Field: "image", Label: "Image", Type: FieldImage, Value: "/img.png"}, vars[4])

	// Missing fixed fields are still listed, with empty values.
	vars = Extract([]Section{{ID: "h", Type: Hero}})
	require.Len(t, vars, 4)
	assert.Equal(t, "", vars[0].Value)
}

func TestExtractUnknownType(t *testing.T) {
	assert.Empty(t, Extract([]Section{{ID: "x", Type: "carousel", Content: map[string]any{"a": "b"}}}))
	assert.Empty(t, Extract(nil))
	assert.NotNil(t, Extract(nil))
}

func TestExtractMistypedFieldKeepsSection(t *testing.T) {
	vars := Extract([]Section{
		{ID: "h", Type: Hero, Content: map[string]any{
			"headline":    2026.0,
			"subheadline": "Sub",
			"ctaText":     "Go",
			"ctaLink":     "/go",
			"image":       false,
		}},
		{ID: "f", Type: Features, Content: map[string]any{"title": "T", "features": "not a list"}},
	})
	require.Equal(t, []string{
		"h.headline", "h.subheadline", "h.ctaText", "h.ctaLink", "h.image",
		"f.title", "f.subtitle", "f.features",
	}, fields(vars))
	assert.Equal(t, "2026", vars[0].Value)
	assert.Equal(t, "Sub", vars[1].Value)
	assert.Equal(t, "false", vars[4].Value)
	assert.Equal(t, []any{}, vars[7].Value)

	// The typed view still rejects the mistyped hero.
	_, err := Section{ID: "h", Type: Hero, Content: map[string]any{"headline": 2026.0}}.Decode()
	assert.Error(t, err)
}

func TestExtractFieldOrderPerType(t *testing.T) {
	tests := []struct {
		typ     SectionType
		content map[string]any
		want    []string
	}{
		{Features, nil, []string{"title", "subtitle", "features"}},
		{CTA, nil, []string{"title", "description", "buttonText", "buttonLink"}},
		{CTA, map[string]any{"secondaryButtonText": "More", "secondaryButtonLink": "/more"},
			[]string{"title", "description", "buttonText", "buttonLink", "secondaryButtonText", "secondaryButtonLink"}},
		{Header, nil, []string{"logoText", "navigation"}},
		{Header, map[string]any{"logo": "/l.svg", "ctaText": "Buy", "ctaLink": "/buy"},
			[]string{"logo", "logoText", "navigation", "ctaText", "ctaLink"}},
		{Testimonials, nil, []string{"title", "subtitle", "testimonials"}},
		{Contact, nil, []string{"title", "subtitle", "email", "phone", "address"}},
		{Footer, nil, []string{"companyName", "description", "links", "socialLinks", "copyright"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			vars := Extract([]Section{{ID: "s", Type: tt.typ, Content: tt.content}})
			var got []string
			for _, v := range vars {
				got = append(got, v.Field)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractDeterministic(t *testing.T) {
	first := Extract(sampleSections())
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, Extract(sampleSections())); diff != "" {
			t.Fatalf("Extract not deterministic (-first +again):\n%s", diff)
		}
	}
	assert.Equal(t, []string{
		"s-header.logoText", "s-header.navigation",
		"s-hero.headline", "s-hero.subheadline", "s-hero.ctaText", "s-hero.ctaLink", "s-hero.image",
		"s-cta.title", "s-cta.description", "s-cta.buttonText", "s-cta.buttonLink",
		"s-footer.companyName", "s-footer.description", "s-footer.links", "s-footer.socialLinks", "s-footer.copyright",
	}, fields(first))
}

func TestExtractArrayValuesKeepAllKeys(t *testing.T) {
	sections := []Section{{ID: "f", Type: Features, Content: map[string]any{
		"features": []any{
			map[string]any{"title": "Fast", "description": "d", "link": "/fast", "image": "x.png", "order": 2.0},
		},
	}}}
	vars := Extract(sections)
	require.Len(t, vars, 3)
	assert.Equal(t, FieldArray, vars[2].Type)
	assert.Equal(t, []any{
		map[string]any{"title": "Fast", "description": "d", "link": "/fast", "image": "x.png", "order": 2.0},
	}, vars[2].Value)

	// The value is a copy.
	vars[2].Value.([]any)[0].(map[string]any)["title"] = "changed"
	assert.Equal(t, "Fast", sections[0].Content["features"].([]any)[0].(map[string]any)["title"])
}

func TestSectionDecode(t *testing.T) {
	c, err := sampleSections()[1].Decode()
	require.NoError(t, err)
	hero, ok := c.(*HeroContent)
	require.True(t, ok)
	assert.Equal(t, Hero, hero.SectionType())
	assert.Equal(t, "Build faster", hero.Headline)

	_, err = sampleSections()[2].Decode()
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	sections := sampleSections()
	updated, n := Apply(sections, []Variable{
		{SectionID: "s-hero", Field: "headline", Value: "Ship today"},
		{SectionID: "s-hero", Field: "image", Value: ""},
		{SectionID: "s-header", Field: "navigation", Value: []any{map[string]any{"label": "Docs", "href": "/docs"}}},
		{SectionID: "s-footer", Field: "socialLinks", Value: []SocialLink{{Platform: "x", URL: "https://x.com/acme"}}},
		{SectionID: "s-hero", Field: "unknownField", Value: "x"},
		{SectionID: "s-hero", Field: "ctaText", Value: 12.0},
		{SectionID: "s-header", Field: "navigation", Value: "not a list"},
		{SectionID: "missing", Field: "headline", Value: "x"},
		{SectionID: "s-unknown", Field: "slides", Value: []any{}},
	})
	assert.Equal(t, 4, n)

	assert.Equal(t, "Ship today", updated[1].Content["headline"])
	assert.Equal(t, "", updated[1].Content["image"])
	assert.Equal(t, "Start", updated[1].Content["ctaText"])
	assert.Equal(t, []any{map[string]any{"label": "Docs", "href": "/docs"}}, updated[0].Content["navigation"])
	assert.Equal(t, []any{map[string]any{"platform": "x", "url": "https://x.com/acme"}}, updated[4].Content["socialLinks"])
	assert.NotContains(t, updated[1].Content, "unknownField")

	// The input is untouched.
	assert.Equal(t, "Build faster", sections[1].Content["headline"])
	assert.Len(t, sections[0].Content["navigation"], 2)
}

func TestSectionRecordRoundTrip(t *testing.T) {
	mem := gateway.NewMemory()
	sess := &gateway.Session{Email: "editor@example.com"}

	for _, sec := range []Section{
		{PageID: "/", Type: Hero, Order: 2, Content: map[string]any{"headline": "Hi"}, Widget: theme.Named("nord")},
		{PageID: "/", Type: Contact, Order: 1, Content: nil, Widget: theme.Inherit()},
	} {
		rec, err := mem.InsertRecord(t.Context(), sess, gateway.PageSections, sec.Record())
		require.NoError(t, err)

		got, err := SectionFromRecord(rec)
		require.NoError(t, err)
		assert.NotEmpty(t, got.ID)
		assert.Equal(t, sec.Type, got.Type)
		assert.Equal(t, sec.Order, got.Order)
		assert.Equal(t, sec.Widget, got.Widget)
		assert.NotNil(t, got.Content)
		if sec.Widget.Mode == theme.ModeInherit {
			assert.Nil(t, rec["widget_theme"], "inherit is stored as NULL")
		}
	}
}

func TestSectionJSONShape(t *testing.T) {
	b, err := json.Marshal(Section{ID: "a", Type: Hero, Content: map[string]any{}, Widget: theme.Inherit()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a","type":"hero","order":0,"content":{},"widgetTheme":{"mode":"inherit"}}`, string(b))
}
