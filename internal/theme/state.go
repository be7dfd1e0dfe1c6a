// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// State is the loaded theme list, the active theme and the custom CSS
// currently applied. Service writes to it only after the gateway has
// confirmed a change. Readers get copies.
type State struct {
	mu        sync.RWMutex
	loaded    bool
	themes    []*Theme
	activeID  uuid.UUID
	customCSS string
}

// NewState returns an empty, unloaded state.
func NewState() *State {
	return &State{}
}

// Loaded reports whether the state holds data from a Load.
func (s *State) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Themes returns every loaded theme ordered by name.
func (s *State) Themes() []*Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Theme, len(s.themes))
	for i, t := range s.themes {
		out[i] = t.Clone()
	}
	return out
}

// Active returns the active theme, or nil when none is active.
func (s *State) Active() *Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeID == uuid.Nil {
		return nil
	}
	return s.find(s.activeID).Clone()
}

// CustomCSS returns the site custom CSS.
func (s *State) CustomCSS() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.customCSS
}

// Find returns the theme with id, or nil.
func (s *State) Find(id uuid.UUID) *Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.find(id).Clone()
}

// BySlug returns the theme with the slug, or nil.
func (s *State) BySlug(slug string) *Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.themes {
		if t.Slug == slug {
			return t.Clone()
		}
	}
	return nil
}

// Lookup adapts BySlug for ResolveWidgetTokens.
func (s *State) Lookup() Lookup {
	return s.BySlug
}

// Reset clears the state, as on sign-out.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	s.themes = nil
	s.activeID = uuid.Nil
	s.customCSS = ""
}

func (s *State) find(id uuid.UUID) *Theme {
	for _, t := range s.themes {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (s *State) replace(themes []*Theme, customCSS string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.themes = themes
	s.activeID = uuid.Nil
	for _, t := range themes {
		if t.IsActive {
			s.activeID = t.ID
			break
		}
	}
	s.sortLocked()
	s.customCSS = customCSS
	s.loaded = true
}

func (s *State) setActive(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.themes {
		t.IsActive = t.ID == id
	}
	s.activeID = id
}

func (s *State) put(t *Theme) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := t.Clone()
	for i, cur := range s.themes {
		if cur.ID == t.ID {
			s.themes[i] = c
			s.sortLocked()
			return
		}
	}
	s.themes = append(s.themes, c)
	s.sortLocked()
}

func (s *State) remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.themes {
		if t.ID == id {
			s.themes = append(s.themes[:i], s.themes[i+1:]...)
			break
		}
	}
	if s.activeID == id {
		s.activeID = uuid.Nil
	}
}

func (s *State) setCustomCSS(css string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customCSS = css
}

func (s *State) sortLocked() {
	sort.SliceStable(s.themes, func(i, j int) bool {
		return s.themes[i].Name < s.themes[j].Name
	})
}
