// Package tables holds the read-only reference data attached to every
// execution context: staking costs and rewards, crafting recipes, options
// and item definitions. Each sheet is a set of rows keyed by integer id.
package tables

import (
	"fmt"
	"sort"

	"github.com/tolelom/stakeledger/core"
)

// Sheet is implemented by every table type held in a Set.
type Sheet interface {
	SheetName() string
}

// RowNotFoundError is returned for lookups of unknown ids.
type RowNotFoundError struct {
	Sheet string
	ID    int
}

func (e *RowNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s id %d", core.ErrRowNotFound, e.Sheet, e.ID)
}

func (e *RowNotFoundError) Unwrap() error { return core.ErrRowNotFound }

// Set is an immutable collection of sheets, at most one per type.
type Set struct {
	sheets map[string]Sheet
}

// NewSet builds a Set. A later sheet replaces an earlier one of the same name.
func NewSet(sheets ...Sheet) *Set {
	s := &Set{sheets: make(map[string]Sheet, len(sheets))}
	for _, sh := range sheets {
		s.sheets[sh.SheetName()] = sh
	}
	return s
}

// Names returns the loaded sheet names, sorted.
func (s *Set) Names() []string {
	out := make([]string, 0, len(s.sheets))
	for n := range s.sheets {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Get returns the sheet of type T held by s.
func Get[T Sheet](s *Set) (T, error) {
	var zero T
	if s == nil {
		return zero, fmt.Errorf("%w: %s", core.ErrSheetNotLoaded, zero.SheetName())
	}
	sh, ok := s.sheets[zero.SheetName()]
	if !ok {
		return zero, fmt.Errorf("%w: %s", core.ErrSheetNotLoaded, zero.SheetName())
	}
	t, ok := sh.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s has unexpected type %T", core.ErrSheetNotLoaded, zero.SheetName(), sh)
	}
	return t, nil
}

func lookup[R any](sheet string, rows map[int]R, id int) (R, error) {
	r, ok := rows[id]
	if !ok {
		var zero R
		return zero, &RowNotFoundError{Sheet: sheet, ID: id}
	}
	return r, nil
}

func sortedIDs[R any](rows map[int]R) []int {
	ids := make([]int, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
