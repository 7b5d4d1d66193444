package repository

import (
	"errors"
	"sync"
)

var (
	// ErrNotFound is returned when a keyed row does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict is returned when a write collides with an existing row.
	ErrConflict = errors.New("repository: conflict")
)

// table is a keyed in-memory collection that hands out copies only.
type table[T any] struct {
	mu    sync.RWMutex
	rows  map[string]*T
	order []string
	clone func(*T) *T
}

func newTable[T any](clone func(*T) *T) *table[T] {
	if clone == nil {
		clone = shallow[T]
	}
	return &table[T]{rows: make(map[string]*T), clone: clone}
}

func shallow[T any](v *T) *T {
	cp := *v
	return &cp
}

// insert stores row under id. conflicts, when set, is checked against every row under the write lock.
func (t *table[T]) insert(id string, row *T, conflicts func(*T) bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.rows[id]; exists {
		return ErrConflict
	}
	if conflicts != nil {
		for _, existing := range t.rows {
			if conflicts(existing) {
				return ErrConflict
			}
		}
	}
	t.rows[id] = t.clone(row)
	t.order = append(t.order, id)
	return nil
}

func (t *table[T]) replace(id string, row *T, conflicts func(*T) bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.rows[id]; !exists {
		return ErrNotFound
	}
	if conflicts != nil {
		for key, existing := range t.rows {
			if key != id && conflicts(existing) {
				return ErrConflict
			}
		}
	}
	t.rows[id] = t.clone(row)
	return nil
}

func (t *table[T]) remove(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.rows[id]; !exists {
		return ErrNotFound
	}
	delete(t.rows, id)
	for i, key := range t.order {
		if key == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

// removeWhere deletes every matching row and returns how many went away.
func (t *table[T]) removeWhere(match func(*T) bool) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.order[:0]
	removed := 0
	for _, key := range t.order {
		if match(t.rows[key]) {
			delete(t.rows, key)
			removed++
			continue
		}
		kept = append(kept, key)
	}
	t.order = kept
	return removed
}

func (t *table[T]) get(id string) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t.clone(row), nil
}

func (t *table[T]) find(match func(*T) bool) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, key := range t.order {
		if row := t.rows[key]; match(row) {
			return t.clone(row), nil
		}
	}
	return nil, ErrNotFound
}

// scan returns copies of matching rows in insertion order.
func (t *table[T]) scan(match func(*T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.order))
	for _, key := range t.order {
		row := t.rows[key]
		if match == nil || match(row) {
			out = append(out, *t.clone(row))
		}
	}
	return out
}
