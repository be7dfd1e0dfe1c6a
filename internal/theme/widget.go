// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import (
	"fmt"

	"pagesmith/internal/slug"
)

// Mode selects how a page-builder section picks its tokens.
type Mode string

const (
	// ModeInherit uses the globally active theme.
	ModeInherit Mode = "inherit"
	// ModeNamed uses another theme, referenced by slug.
	ModeNamed Mode = "named"
	// ModeCustom overlays a partial token set on the active theme.
	ModeCustom Mode = "custom"
)

// WidgetConfig is the theme choice attached to a page-builder section.
// Only the field belonging to Mode is meaningful.
type WidgetConfig struct {
	Mode      Mode     `json:"mode"`
	ThemeRef  string   `json:"themeRef,omitempty"`
	Overrides TokenSet `json:"overrides,omitempty"`
}

// Inherit is the zero-override configuration.
func Inherit() WidgetConfig {
	return WidgetConfig{Mode: ModeInherit}
}

// Named returns a configuration referencing the theme with the given slug.
func Named(themeSlug string) WidgetConfig {
	return WidgetConfig{Mode: ModeNamed, ThemeRef: themeSlug}
}

// Custom returns a configuration overriding the given slots.
func Custom(overrides TokenSet) WidgetConfig {
	return WidgetConfig{Mode: ModeCustom, Overrides: overrides.Clone()}
}

// SwitchMode returns a configuration in mode m. Data belonging to the
// previous mode is discarded, even when m equals the current mode.
func (c WidgetConfig) SwitchMode(m Mode) WidgetConfig {
	switch m {
	case ModeNamed, ModeCustom:
		return WidgetConfig{Mode: m}
	default:
		return Inherit()
	}
}

// Normalized drops data that does not belong to the mode and maps an empty
// or unknown mode to inherit.
func (c WidgetConfig) Normalized() WidgetConfig {
	switch c.Mode {
	case ModeNamed:
		return Named(c.ThemeRef)
	case ModeCustom:
		return Custom(c.Overrides)
	default:
		return Inherit()
	}
}

// Validate checks the configuration is well formed for its mode.
func (c WidgetConfig) Validate() error {
	switch c.Mode {
	case "", ModeInherit:
		return nil
	case ModeNamed:
		if !slug.Valid(c.ThemeRef) {
			return fmt.Errorf("%w: named widget theme needs a valid themeRef", ErrInvalid)
		}
		return nil
	case ModeCustom:
		if err := c.Overrides.ValidateOverrides(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown widget mode %q", ErrInvalid, c.Mode)
	}
}

// Lookup finds a theme by slug, returning nil when none matches.
type Lookup func(slug string) *Theme

// ResolveWidgetTokens returns the effective 20-slot token set for a widget.
//
//   - inherit: the active theme's tokens, or the defaults without one.
//   - named: the referenced theme's tokens; an unknown slug falls back to
//     inherit.
//   - custom: the inherited tokens with only the override slots replaced.
func ResolveWidgetTokens(cfg WidgetConfig, active *Theme, lookup Lookup) TokenSet {
	inherited := DefaultTokens()
	if active != nil {
		inherited = inherited.Merge(active.Tokens)
	}

	switch cfg.Mode {
	case ModeNamed:
		if lookup != nil {
			if t := lookup(cfg.ThemeRef); t != nil {
				return DefaultTokens().Merge(t.Tokens)
			}
		}
		return inherited
	case ModeCustom:
		return inherited.Merge(cfg.Overrides)
	default:
		return inherited
	}
}
