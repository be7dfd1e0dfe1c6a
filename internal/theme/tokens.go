// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package theme implements the theme token model, widget token resolution,
// CSS variable generation and the lifecycle of built-in and custom themes.
package theme

import (
	"fmt"
	"sort"
	"strings"
)

// Token names one semantic color slot.
type Token string

// The 20 semantic color slots. Each base color has a paired "-content"
// foreground color.
const (
	Primary          Token = "primary"
	PrimaryContent   Token = "primary-content"
	Secondary        Token = "secondary"
	SecondaryContent Token = "secondary-content"
	Accent           Token = "accent"
	AccentContent    Token = "accent-content"
	Neutral          Token = "neutral"
	NeutralContent   Token = "neutral-content"
	Base100          Token = "base-100"
	Base200          Token = "base-200"
	Base300          Token = "base-300"
	BaseContent      Token = "base-content"
	Info             Token = "info"
	InfoContent      Token = "info-content"
	Success          Token = "success"
	SuccessContent   Token = "success-content"
	Warning          Token = "warning"
	WarningContent   Token = "warning-content"
	Error            Token = "error"
	ErrorContent     Token = "error-content"
)

// Tokens lists every slot in canonical order.
var Tokens = [...]Token{
	Primary, PrimaryContent,
	Secondary, SecondaryContent,
	Accent, AccentContent,
	Neutral, NeutralContent,
	Base100, Base200, Base300, BaseContent,
	Info, InfoContent,
	Success, SuccessContent,
	Warning, WarningContent,
	Error, ErrorContent,
}

// IsToken reports whether name is one of the 20 slots.
func IsToken(name string) bool {
	for _, t := range Tokens {
		if string(t) == name {
			return true
		}
	}
	return false
}

// TokenSet maps slot names to CSS color values. A persisted set holds all
// 20 slots; widget overrides hold any subset.
type TokenSet map[string]string

// DefaultTokens returns the light palette. Each call returns a fresh map.
func DefaultTokens() TokenSet {
	return TokenSet{
		"primary":           "#570df8",
		"primary-content":   "#ffffff",
		"secondary":         "#f000b8",
		"secondary-content": "#ffffff",
		"accent":            "#37cdbe",
		"accent-content":    "#163835",
		"neutral":           "#3d4451",
		"neutral-content":   "#ffffff",
		"base-100":          "#ffffff",
		"base-200":          "#f2f2f2",
		"base-300":          "#e5e6e6",
		"base-content":      "#1f2937",
		"info":              "#3abff8",
		"info-content":      "#002b3d",
		"success":           "#36d399",
		"success-content":   "#003320",
		"warning":           "#fbbd23",
		"warning-content":   "#382800",
		"error":             "#f87272",
		"error-content":     "#470000",
	}
}

// TokensDiffer reports whether any of the 20 slots differ between a and b.
// Values compare case-insensitively; a slot missing on one side only
// counts as a difference.
func TokensDiffer(a, b TokenSet) bool {
	for _, t := range Tokens {
		av, aok := a[string(t)]
		bv, bok := b[string(t)]
		if aok != bok {
			return true
		}
		if !strings.EqualFold(strings.TrimSpace(av), strings.TrimSpace(bv)) {
			return true
		}
	}
	return false
}

// Validate checks that all 20 slots are present and non-blank, that no
// unknown keys are set, and that no value could break out of a CSS
// declaration.
func (t TokenSet) Validate() error {
	var problems []string
	for _, tok := range Tokens {
		v, ok := t[string(tok)]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("%s: missing", tok))
		case strings.TrimSpace(v) == "":
			problems = append(problems, fmt.Sprintf("%s: blank", tok))
		}
	}
	for k, v := range t {
		if !IsToken(k) {
			problems = append(problems, fmt.Sprintf("%s: unknown token", k))
			continue
		}
		if !safeValue(v) {
			problems = append(problems, fmt.Sprintf("%s: invalid value %q", k, v))
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("invalid token set: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ValidateOverrides checks a partial set used by a widget override.
func (t TokenSet) ValidateOverrides() error {
	for k, v := range t {
		if !IsToken(k) {
			return fmt.Errorf("invalid override: %s: unknown token", k)
		}
		if !safeValue(v) {
			return fmt.Errorf("invalid override: %s: invalid value %q", k, v)
		}
	}
	return nil
}

// Clone returns a copy of t.
func (t TokenSet) Clone() TokenSet {
	if t == nil {
		return nil
	}
	out := make(TokenSet, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Merge returns a copy of t with every known, non-blank slot of overrides
// applied on top.
func (t TokenSet) Merge(overrides TokenSet) TokenSet {
	out := t.Clone()
	if out == nil {
		out = make(TokenSet, len(overrides))
	}
	for k, v := range overrides {
		if !IsToken(k) || strings.TrimSpace(v) == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// safeValue rejects characters that would end a declaration or a block.
func safeValue(v string) bool {
	return !strings.ContainsAny(v, ";{}<>\"\\\n\r")
}
