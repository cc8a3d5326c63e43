package statement

import (
	"fmt"

	"github.com/joacominatel/minastmt/internal/sqltext"
)

// BindSlot is the storage for one distinct bind variable.
type BindSlot struct {
	// Index is the zero-based slot ordinal passed to the engine.
	Index int
	// Name is the upper-cased bind name.
	Name string
	// Value is the encoded value; nil binds NULL.
	Value any
	// Bound reports whether a value was assigned since the last ClearBinds.
	Bound bool
}

// Registry maps bind calls onto the distinct bind slots of a statement.
// Repeated occurrences of a name share one slot.
type Registry struct {
	slots       []BindSlot
	byName      map[string]int
	occurrences int
	plsql       bool
}

// NewRegistry discovers the bind slots of text.
func NewRegistry(text string) *Registry {
	r := &Registry{byName: map[string]int{}, plsql: sqltext.Classify(text).IsPLSQL()}
	for _, p := range sqltext.Placeholders(text) {
		r.occurrences++
		if _, ok := r.byName[p.Name]; ok {
			continue
		}
		r.byName[p.Name] = len(r.slots)
		r.slots = append(r.slots, BindSlot{Index: len(r.slots), Name: p.Name})
	}
	return r
}

// Count returns the number of bind variables of the statement. SQL text
// counts every occurrence; a PL/SQL block counts each name once.
func (r *Registry) Count() int {
	if r.plsql {
		return len(r.slots)
	}
	return r.occurrences
}

// Len returns the number of distinct slots.
func (r *Registry) Len() int { return len(r.slots) }

// Names returns the slot names in order of first occurrence.
func (r *Registry) Names() []string {
	names := make([]string, len(r.slots))
	for i, s := range r.slots {
		names[i] = s.Name
	}
	return names
}

// Slots returns a copy of the slot table.
func (r *Registry) Slots() []BindSlot {
	return append([]BindSlot(nil), r.slots...)
}

// Resolve returns the slot ordinal of a bind name. The lookup is
// case-insensitive and accepts an optional leading colon.
func (r *Registry) Resolve(name string) (int, error) {
	if len(name) > 0 && name[0] == ':' {
		name = name[1:]
	}
	idx, ok := r.byName[sqltext.NormalizeName(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNoSuchBindVariable, name)
	}
	return idx, nil
}

// Slot returns the slot at ordinal idx.
func (r *Registry) Slot(idx int) (BindSlot, error) {
	if idx < 0 || idx >= len(r.slots) {
		return BindSlot{}, fmt.Errorf("%w: position %d of %d", ErrNoSuchBindVariable, idx, len(r.slots))
	}
	return r.slots[idx], nil
}

// Set stores an already encoded value in slot idx.
func (r *Registry) Set(idx int, value any) error {
	if idx < 0 || idx >= len(r.slots) {
		return fmt.Errorf("%w: position %d of %d", ErrNoSuchBindVariable, idx, len(r.slots))
	}
	r.slots[idx].Value = value
	r.slots[idx].Bound = true
	return nil
}

// Clear resets every slot to NULL.
func (r *Registry) Clear() {
	for i := range r.slots {
		r.slots[i].Value = nil
		r.slots[i].Bound = false
	}
}
