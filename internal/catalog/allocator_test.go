package catalog

import (
	"errors"
	"testing"

	"github.com/starford/biblioteca/internal/apperr"
)

func TestAllocate(t *testing.T) {
	tests := []struct {
		name      string
		ids       []string
		candidate string
		width     int
	}{
		{"empty store", nil, "00001", 5},
		{"sequential", []string{"00001", "00002"}, "00003", 5},
		{"gap tolerant", []string{"00001", "00009", "00004"}, "00010", 5},
		{"non-numeric ignored", []string{"00002", "A-17", "12b", ""}, "00003", 5},
		{"grows past 99999", []string{"99999"}, "100000", 6},
		{"width from value not text", []string{"000003"}, "00004", 5},
		{"six digit id", []string{"00012", "123456"}, "123457", 6},
		{"unpadded ids", []string{"7", "8"}, "00009", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Allocate(tt.ids)
			if a.Candidate != tt.candidate {
				t.Errorf("candidate = %q, want %q", a.Candidate, tt.candidate)
			}
			if a.Width != tt.width {
				t.Errorf("width = %d, want %d", a.Width, tt.width)
			}
		})
	}
}

func TestAssign(t *testing.T) {
	a := Allocate([]string{"00001", "00002"})
	tests := []struct {
		requested string
		want      string
		replaced  bool
	}{
		{"", "00003", false},
		{"00003", "00003", false},
		{" 00003 ", "00003", false},
		{"3", "00003", true},
		{"00099", "00003", true},
		{"abc", "00003", true},
		{"00001", "00003", true},
	}
	for _, tt := range tests {
		got, replaced, err := a.Assign(tt.requested)
		if err != nil {
			t.Fatalf("Assign(%q): %v", tt.requested, err)
		}
		if got != tt.want || replaced != tt.replaced {
			t.Errorf("Assign(%q) = %q, %v; want %q, %v", tt.requested, got, replaced, tt.want, tt.replaced)
		}
	}
}

func TestAssignDuplicateCandidate(t *testing.T) {
	// A hand-edited store can hold the candidate as a literal string while the
	// numeric scan points at it.
	a := Allocate(nil)
	a.taken[a.Candidate] = struct{}{}

	_, _, err := a.Assign("")
	if !errors.Is(err, apperr.ErrDuplicateRecordID) {
		t.Errorf("err = %v, want ErrDuplicateRecordID", err)
	}
}

func TestWidthIsMonotonic(t *testing.T) {
	ids := []string{}
	prev := 0
	for i := 0; i < 12; i++ {
		a := Allocate(ids)
		if a.Width < prev {
			t.Fatalf("width shrank from %d to %d", prev, a.Width)
		}
		prev = a.Width
		ids = append(ids, a.Candidate)
	}
	// Once a 6-digit id is stored, deleting smaller ids never narrows the width.
	a := Allocate([]string{"00001", "100000"})
	if a.Width != 6 || a.Candidate != "100001" {
		t.Errorf("allocation = %+v", a)
	}
}
