package report

import (
	"testing"

	"github.com/nishad/encode-audit/internal/encode"
	"github.com/nishad/encode-audit/internal/testutil"
)

func TestCountAuditsErrorAndNotCompliant(t *testing.T) {
	facets := []encode.AuditFacet{
		testutil.AuditFacet("Audit category: ERROR", 3, 0),
		testutil.AuditFacet("Audit category: NOT COMPLIANT", 2),
		testutil.AuditFacet("Audit category: WARNING", 7),
		testutil.AuditFacet("Audit category: DCC ACTION", 5),
	}

	got := CountAudits(facets, 11, false)
	want := Tally{Total: 11, Error: 3, NotCompliant: 2}
	if got != want {
		t.Errorf("CountAudits(allAudits=false) = %+v, want %+v", got, want)
	}
}

func TestCountAuditsAllAudits(t *testing.T) {
	got := CountAudits(testutil.StandardFacets(), 9, true)
	want := Tally{Total: 9, Error: 3, NotCompliant: 2, Warning: 4, DCCAction: 1}
	if got != want {
		t.Errorf("CountAudits(allAudits=true) = %+v, want %+v", got, want)
	}
}

func TestCountAuditsIgnoresNonPositiveTerms(t *testing.T) {
	facets := []encode.AuditFacet{testutil.AuditFacet("Audit category: ERROR", 4, -2, 0, 1)}
	if got := CountAudits(facets, 5, false); got.Error != 5 {
		t.Errorf("expected error count 5, got %d", got.Error)
	}
}

func TestCountAuditsSubstringMatching(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  Tally
	}{
		{"exact label", "ERROR", Tally{Error: 1}},
		{"prefixed label", "Audit category: NOT COMPLIANT", Tally{NotCompliant: 1}},
		{"lowercase does not match", "Audit category: error", Tally{}},
		{"unrelated facet", "Assay", Tally{}},
		{"two labels in one title", "ERROR / NOT COMPLIANT", Tally{Error: 1, NotCompliant: 1}},
		{"underscored label does not match", "NOT_COMPLIANT", Tally{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CountAudits([]encode.AuditFacet{testutil.AuditFacet(tt.title, 1)}, 0, true)
			if got != tt.want {
				t.Errorf("CountAudits(%q) = %+v, want %+v", tt.title, got, tt.want)
			}
		})
	}
}

func TestCountAuditsNoFacets(t *testing.T) {
	if got := CountAudits(nil, 6, true); got != (Tally{Total: 6}) {
		t.Errorf("expected only total, got %+v", got)
	}
}

func TestTallyAdd(t *testing.T) {
	a := Tally{Total: 1, Error: 2, NotCompliant: 3, Warning: 4, DCCAction: 5}
	b := Tally{Total: 10, Error: 20, NotCompliant: 30, Warning: 40, DCCAction: 50}
	want := Tally{Total: 11, Error: 22, NotCompliant: 33, Warning: 44, DCCAction: 55}
	if got := a.Add(b); got != want {
		t.Errorf("Add = %+v, want %+v", got, want)
	}
}

func TestTallyLabel(t *testing.T) {
	tally := Tally{Total: 12, Error: 3, NotCompliant: 2, Warning: 4, DCCAction: 1}

	if got := tally.Label(false); got != "12, 3E, 2NC" {
		t.Errorf("Label(false) = %q", got)
	}
	if got := tally.Label(true); got != "12, 3E, 2NC, 4W, 1DCC" {
		t.Errorf("Label(true) = %q", got)
	}
}
