package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/biblioteca/internal/apperr"
)

// MinIDWidth is the narrowest zero-padded record id.
const MinIDWidth = 5

// Allocation is the next record id of one category, computed from the ids
// already stored there.
type Allocation struct {
	Next      uint64
	Width     int
	Candidate string
	taken     map[string]struct{}
}

// Allocate scans ids. Only all-digit ids take part in the sequence; every
// id, numeric or not, occupies the uniqueness namespace as a literal string.
// The width never shrinks: it is at least the digit length of the largest
// numeric id ever stored.
func Allocate(ids []string) Allocation {
	a := Allocation{Width: MinIDWidth, taken: make(map[string]struct{}, len(ids))}
	var max uint64
	for _, id := range ids {
		a.taken[id] = struct{}{}
		n, ok := parseID(id)
		if !ok {
			continue
		}
		if n > max {
			max = n
		}
		if l := digitLen(n); l > a.Width {
			a.Width = l
		}
	}
	a.Next = max + 1
	if l := digitLen(a.Next); l > a.Width {
		a.Width = l
	}
	a.Candidate = pad(a.Next, a.Width)
	return a
}

// Assign resolves a user-supplied id against the candidate. The supplied
// value is advisory: anything other than the candidate is replaced, and
// replaced reports that. A candidate that is already taken (only possible
// after hand edits) yields apperr.ErrDuplicateRecordID.
func (a Allocation) Assign(requested string) (id string, replaced bool, err error) {
	reg := strings.TrimSpace(requested)
	id = a.Candidate
	if n, ok := parseID(reg); ok && reg == a.Candidate {
		id = pad(n, a.Width)
	} else {
		replaced = reg != ""
	}
	if a.Taken(id) {
		return "", false, fmt.Errorf("%w: %s", apperr.ErrDuplicateRecordID, id)
	}
	return id, replaced, nil
}

// Taken reports whether id is already stored, compared as a literal string.
func (a Allocation) Taken(id string) bool {
	_, ok := a.taken[id]
	return ok
}

func parseID(s string) (uint64, bool) {
	if !isDigits(s) {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func digitLen(n uint64) int {
	return len(strconv.FormatUint(n, 10))
}

func pad(n uint64, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}
