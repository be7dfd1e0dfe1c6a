package theme

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTokensComplete(t *testing.T) {
	d := DefaultTokens()
	require.NoError(t, d.Validate())
	assert.Len(t, d, len(Tokens))

	// Each call returns a fresh map.
	d["primary"] = "#000000"
	assert.Equal(t, "#570df8", DefaultTokens()["primary"])
}

func TestTokensDifferSelf(t *testing.T) {
	builtins, err := Builtins()
	require.NoError(t, err)
	for _, b := range builtins {
		assert.False(t, TokensDiffer(b.Tokens, b.Tokens), "theme %s differs from itself", b.Slug)
		assert.False(t, TokensDiffer(b.Tokens, b.Tokens.Clone()), "theme %s differs from its clone", b.Slug)
	}
}

func TestTokensDifferCaseInsensitive(t *testing.T) {
	a := DefaultTokens()
	b := DefaultTokens()
	for k, v := range b {
		b[k] = strings.ToUpper(v)
	}
	assert.False(t, TokensDiffer(a, b))
}

func TestTokensDifferSingleKey(t *testing.T) {
	for _, tok := range Tokens {
		t.Run(string(tok), func(t *testing.T) {
			a := DefaultTokens()
			b := DefaultTokens()
			b[string(tok)] = "#010203"
			assert.True(t, TokensDiffer(a, b))
			assert.True(t, TokensDiffer(b, a))
		})
	}
}

func TestTokensDifferMissingKey(t *testing.T) {
	a := DefaultTokens()
	b := DefaultTokens()
	delete(b, "error-content")
	assert.True(t, TokensDiffer(a, b))
	assert.True(t, TokensDiffer(b, a))
}

func TestTokenSetValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(TokenSet)
		wantErr string
	}{
		{name: "complete", mutate: func(TokenSet) {}},
		{name: "missing key", mutate: func(s TokenSet) { delete(s, "base-200") }, wantErr: "base-200: missing"},
		{name: "blank value", mutate: func(s TokenSet) { s["info"] = "  " }, wantErr: "info: blank"},
		{name: "unknown key", mutate: func(s TokenSet) { s["tertiary"] = "#fff" }, wantErr: "tertiary: unknown token"},
		{name: "declaration break", mutate: func(s TokenSet) { s["accent"] = "red; color: blue" }, wantErr: "accent: invalid value"},
		{name: "block break", mutate: func(s TokenSet) { s["accent"] = "red}" }, wantErr: "accent: invalid value"},
		{name: "css functions allowed", mutate: func(s TokenSet) { s["accent"] = "oklch(65% 0.2 250)" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultTokens()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTokenSetMerge(t *testing.T) {
	base := DefaultTokens()
	merged := base.Merge(TokenSet{
		"primary":  "#ff0000",
		"accent":   "",
		"tertiary": "#00ff00",
	})

	assert.Equal(t, "#ff0000", merged["primary"])
	assert.Equal(t, base["accent"], merged["accent"], "blank overrides are ignored")
	assert.NotContains(t, merged, "tertiary", "unknown overrides are ignored")
	assert.Equal(t, "#570df8", base["primary"], "base is not mutated")

	var empty TokenSet
	assert.Equal(t, TokenSet{"info": "#123"}, empty.Merge(TokenSet{"info": "#123"}))
}

func TestValidateOverrides(t *testing.T) {
	assert.NoError(t, TokenSet{"primary": "#fff"}.ValidateOverrides())
	assert.NoError(t, TokenSet{}.ValidateOverrides())
	assert.Error(t, TokenSet{"nope": "#fff"}.ValidateOverrides())
	assert.Error(t, TokenSet{"primary": "</style>"}.ValidateOverrides())
}
