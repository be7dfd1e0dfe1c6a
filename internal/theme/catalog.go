// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"

	"gopkg.in/yaml.v3"

	"pagesmith/internal/gateway"
	"pagesmith/internal/slug"
)

//go:embed builtin.yaml
var builtinYAML []byte

type catalogEntry struct {
	Name   string   `yaml:"name"`
	Slug   string   `yaml:"slug"`
	Tokens TokenSet `yaml:"tokens"`
}

var loadBuiltins = sync.OnceValues(func() ([]*Theme, error) {
	return parseCatalog(builtinYAML)
})

// Builtins returns the built-in themes in catalogue order. The themes have
// no id; they are written to the store by SeedBuiltins.
func Builtins() ([]*Theme, error) {
	themes, err := loadBuiltins()
	if err != nil {
		return nil, err
	}
	out := make([]*Theme, len(themes))
	for i, t := range themes {
		out[i] = t.Clone()
	}
	return out, nil
}

func parseCatalog(data []byte) ([]*Theme, error) {
	var entries []catalogEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse theme catalogue: %w", err)
	}

	seen := make(map[string]bool, len(entries))
	themes := make([]*Theme, 0, len(entries))
	for _, e := range entries {
		if !slug.Valid(e.Slug) {
			return nil, fmt.Errorf("theme catalogue: invalid slug %q", e.Slug)
		}
		if seen[e.Slug] {
			return nil, fmt.Errorf("theme catalogue: duplicate slug %q", e.Slug)
		}
		seen[e.Slug] = true
		if err := e.Tokens.Validate(); err != nil {
			return nil, fmt.Errorf("theme catalogue %s: %w", e.Slug, err)
		}
		themes = append(themes, &Theme{
			Name:   e.Name,
			Slug:   e.Slug,
			Source: SourceBuiltin,
			Tokens: e.Tokens,
		})
	}
	return themes, nil
}

// SeedBuiltins inserts the built-in themes whose slug is not stored yet.
// When no stored theme is active, the first catalogue entry is inserted (or
// marked) active. It returns the number of themes inserted.
func SeedBuiltins(ctx context.Context, sess *gateway.Session, records gateway.Records) (int, error) {
	builtins, err := Builtins()
	if err != nil {
		return 0, err
	}
	recs, err := records.ListRecords(ctx, sess, gateway.Themes, gateway.Query{})
	if err != nil {
		return 0, fmt.Errorf("seed themes: %w", err)
	}

	stored := make(map[string]string, len(recs))
	hasActive := false
	for _, r := range recs {
		stored[r.String("slug")] = r.String("id")
		hasActive = hasActive || r.Bool("is_active")
	}

	inserted := 0
	for i, b := range builtins {
		activate := i == 0 && !hasActive
		if id, ok := stored[b.Slug]; ok {
			if activate {
				if err := records.UpdateRecord(ctx, sess, gateway.Themes, id, gateway.Record{"is_active": true}); err != nil {
					return inserted, fmt.Errorf("seed themes: activate %s: %w", b.Slug, err)
				}
			}
			continue
		}
		b.IsActive = activate
		if _, err := records.InsertRecord(ctx, sess, gateway.Themes, b.record()); err != nil {
			return inserted, fmt.Errorf("seed themes: insert %s: %w", b.Slug, err)
		}
		inserted++
	}

	if inserted > 0 {
		slog.Info("built-in themes seeded", "inserted", inserted)
	}
	return inserted, nil
}
