package palette

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// CustomPrefix starts the ID of every palette created at runtime.
const CustomPrefix = "custom_"

var (
	// ErrUnknownPalette is returned for IDs the store does not hold.
	ErrUnknownPalette = errors.New("unknown palette")

	// ErrBuiltinPalette is returned when trying to delete a built-in palette.
	ErrBuiltinPalette = errors.New("built-in palettes cannot be deleted")
)

// Store is the registry of available palettes and the current selection.
//
// It starts with the built-in catalog; custom palettes are added by
// extraction or import and removed with Delete. All methods are safe for
// concurrent use. Values returned by the store are copies, so callers never
// share palette memory with it.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
	current string
	seq     int
}

// NewStore creates a store holding the built-in catalog with initial
// selected. An empty or unknown initial selects DefaultID.
func NewStore(initial string) *Store {
	s := &Store{entries: make(map[string]Entry)}
	for _, e := range Builtins() {
		s.entries[e.ID] = e
		s.order = append(s.order, e.ID)
	}
	s.current = DefaultID
	if _, ok := s.entries[initial]; ok {
		s.current = initial
	}
	return s
}

// IsCustom reports whether id names a runtime-created palette.
func IsCustom(id string) bool {
	return strings.HasPrefix(id, CustomPrefix)
}

// CurrentID returns the ID of the selected palette.
func (s *Store) CurrentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Current returns the selected palette.
func (s *Store) Current() Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyEntry(s.entries[s.current])
}

// Get returns the palette with the given ID.
func (s *Store) Get(id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownPalette, id)
	}
	return copyEntry(e), nil
}

// Preset returns the preset stored with a palette.
func (s *Store) Preset(id string) (Preset, error) {
	e, err := s.Get(id)
	if err != nil {
		return Preset{}, err
	}
	return e.Preset, nil
}

// Select makes id the current palette. changed is false when id was
// already selected.
func (s *Store) Select(id string) (changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownPalette, id)
	}
	if s.current == id {
		return false, nil
	}
	s.current = id
	return true, nil
}

// Create registers a custom palette and returns its new ID. The preset is
// stored alongside, typically the parameters in effect at creation time.
func (s *Store) Create(name string, colors Palette, preset Preset) (string, error) {
	if len(colors) == 0 {
		return "", errors.New("palette must contain at least one color")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := fmt.Sprintf("%s%d", CustomPrefix, s.seq)
	if name == "" {
		name = id
	}
	s.entries[id] = Entry{
		ID:     id,
		Name:   name,
		Colors: colors.Clone(),
		Preset: preset,
	}
	s.order = append(s.order, id)
	return id, nil
}

// Delete removes a custom palette. When the deleted palette was selected,
// the selection falls back to DefaultID and reselected is true.
func (s *Store) Delete(id string) (reselected bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownPalette, id)
	}
	if e.Builtin {
		return false, fmt.Errorf("%w: %s", ErrBuiltinPalette, id)
	}

	delete(s.entries, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.current == id {
		s.current = DefaultID
		return true, nil
	}
	return false, nil
}

// List returns every palette, built-ins first in catalog order, then custom
// palettes in creation order.
func (s *Store) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, copyEntry(s.entries[id]))
	}
	return out
}

// Import decodes palette file data and registers it as a custom palette.
// On failure the store is unchanged.
func (s *Store) Import(name string, data []byte, preset Preset) (string, error) {
	colors, err := Import(data)
	if err != nil {
		return "", err
	}
	return s.Create(name, colors, preset)
}

// Export encodes the palette with the given ID in the palette file format.
func (s *Store) Export(id string) ([]byte, error) {
	e, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return Export(e.Colors)
}

func copyEntry(e Entry) Entry {
	e.Colors = e.Colors.Clone()
	return e
}
