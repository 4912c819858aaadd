package session

import (
    "fmt"
    "sort"
)

// Selection tracks the set of page numbers a customer has marked for
// ordering. It is bound to one document for its whole life; opening a new
// catalogue replaces the selection rather than mutating it.
type Selection struct {
    totalPages int
    pages      map[int]struct{}
}

// NewSelection creates an empty selection for a document with totalPages.
func NewSelection(totalPages int) *Selection {
    return &Selection{
        totalPages: totalPages,
        pages:      make(map[int]struct{}),
    }
}

// Toggle flips membership of page and reports whether it is now selected.
// Page numbers outside [1, totalPages] are rejected: the set never holds a
// page the bound document does not have.
func (s *Selection) Toggle(page int) (bool, error) {
    if page < 1 || page > s.totalPages {
        return false, fmt.Errorf("page %d out of range [1, %d]", page, s.totalPages)
    }
    if _, ok := s.pages[page]; ok {
        delete(s.pages, page)
        return false, nil
    }
    s.pages[page] = struct{}{}
    return true, nil
}

// Contains reports whether page is currently selected.
func (s *Selection) Contains(page int) bool {
    _, ok := s.pages[page]
    return ok
}

// Clear empties the set.
func (s *Selection) Clear() {
    s.pages = make(map[int]struct{})
}

// Size returns the current cardinality.
func (s *Selection) Size() int { return len(s.pages) }

// Ascending materializes the current members sorted ascending. The returned
// slice is a fresh copy; the set is not mutated and the call is restartable.
func (s *Selection) Ascending() []int {
    out := make([]int, 0, len(s.pages))
    for p := range s.pages {
        out = append(out, p)
    }
    sort.Ints(out)
    return out
}
