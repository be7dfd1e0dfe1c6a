// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import (
	"fmt"
	"sort"
	"strings"
)

// cssVars maps each token to its short CSS custom property, in output order.
var cssVars = [...]struct {
	token Token
	name  string
}{
	{Primary, "--p"},
	{PrimaryContent, "--pc"},
	{Secondary, "--s"},
	{SecondaryContent, "--sc"},
	{Accent, "--a"},
	{AccentContent, "--ac"},
	{Neutral, "--n"},
	{NeutralContent, "--nc"},
	{Base100, "--b1"},
	{Base200, "--b2"},
	{Base300, "--b3"},
	{BaseContent, "--bc"},
	{Info, "--in"},
	{InfoContent, "--inc"},
	{Success, "--su"},
	{SuccessContent, "--suc"},
	{Warning, "--wa"},
	{WarningContent, "--wac"},
	{Error, "--er"},
	{ErrorContent, "--erc"},
}

// CSSVar returns the custom property name for a token.
func CSSVar(t Token) string {
	for _, v := range cssVars {
		if v.token == t {
			return v.name
		}
	}
	return ""
}

// GenerateStyleBlock renders the theme as a custom-property block scoped to
// [data-theme="slug"]. Values are copied verbatim; a missing or blank slot
// falls back to the default palette.
func GenerateStyleBlock(slug string, tokens TokenSet) string {
	return declarationBlock(fmt.Sprintf(`[data-theme="%s"]`, cssString(slug)), tokens)
}

// GenerateWidgetStyle renders resolved widget tokens scoped to a single
// page-builder section.
func GenerateWidgetStyle(sectionID string, tokens TokenSet) string {
	return declarationBlock(fmt.Sprintf(`[data-section="%s"]`, cssString(sectionID)), tokens)
}

// Stylesheet renders one block per theme in slug order followed by the
// site's custom CSS.
func Stylesheet(themes []*Theme, customCSS string) string {
	sorted := make([]*Theme, len(themes))
	copy(sorted, themes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Slug < sorted[j].Slug })

	var b strings.Builder
	for i, t := range sorted {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(GenerateStyleBlock(t.Slug, t.Tokens))
	}
	if css := strings.TrimSpace(customCSS); css != "" {
		b.WriteString("\n/* custom */\n")
		b.WriteString(css)
		b.WriteString("\n")
	}
	return b.String()
}

func declarationBlock(selector string, tokens TokenSet) string {
	defaults := DefaultTokens()

	var b strings.Builder
	b.WriteString(selector)
	b.WriteString(" {\n")
	for _, v := range cssVars {
		value := tokens[string(v.token)]
		if strings.TrimSpace(value) == "" {
			value = defaults[string(v.token)]
		}
		fmt.Fprintf(&b, "  %s: %s;\n", v.name, value)
	}
	b.WriteString("}\n")
	return b.String()
}

// cssString escapes s for use inside a double-quoted CSS string.
func cssString(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\a `).Replace(s)
}
