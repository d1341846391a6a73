package region

import (
	"github.com/pkg/errors"
)

// A SymbolTable binds allocation ids to regions. Valid ids are
// [0, capacity).
type SymbolTable struct {
	capacity int
	entries  map[int]Region
}

// NewSymbolTable creates an empty table.
func NewSymbolTable(capacity int) *SymbolTable {
	return &SymbolTable{
		capacity: capacity,
		entries:  make(map[int]Region),
	}
}

// Capacity returns the number of usable ids.
func (t *SymbolTable) Capacity() int {
	return t.capacity
}

// InRange tells if id can ever be used in this table.
func (t *SymbolTable) InRange(id int) bool {
	return id >= 0 && id < t.capacity
}

// Get returns the region bound to id.
func (t *SymbolTable) Get(id int) (Region, error) {
	if !t.InRange(id) {
		return Region{}, errors.Wrapf(ErrInvalidID, "id %d out of range", id)
	}

	r, ok := t.entries[id]
	if !ok {
		return Region{}, errors.Wrapf(ErrInvalidID, "id %d not allocated", id)
	}

	return r, nil
}

// Set binds id to r, replacing any previous binding.
func (t *SymbolTable) Set(id int, r Region) error {
	if !t.InRange(id) {
		return errors.Wrapf(ErrInvalidID, "id %d out of range", id)
	}

	t.entries[id] = r

	return nil
}

// Clear unbinds id and returns the region it held.
func (t *SymbolTable) Clear(id int) (Region, error) {
	r, err := t.Get(id)
	if err != nil {
		return Region{}, err
	}

	delete(t.entries, id)

	return r, nil
}

// Len returns the number of bound ids.
func (t *SymbolTable) Len() int {
	return len(t.entries)
}

// Range calls fn for every bound id in increasing id order.
func (t *SymbolTable) Range(fn func(id int, r Region)) {
	for id := 0; id < t.capacity; id++ {
		if r, ok := t.entries[id]; ok {
			fn(id, r)
		}
	}
}
