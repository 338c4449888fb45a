package report

import (
	"fmt"
	"strings"

	"github.com/nishad/encode-audit/internal/encode"
)

// Audit category labels as they appear in portal facet titles.
const (
	AuditError        = "ERROR"
	AuditNotCompliant = "NOT COMPLIANT"
	AuditWarning      = "WARNING"
	AuditDCCAction    = "DCC ACTION"
)

// Tally is the audit count for one report cell or row.
type Tally struct {
	Total        int
	Error        int
	NotCompliant int
	Warning      int
	DCCAction    int
}

// Add returns the element-wise sum of t and o.
func (t Tally) Add(o Tally) Tally {
	return Tally{
		Total:        t.Total + o.Total,
		Error:        t.Error + o.Error,
		NotCompliant: t.NotCompliant + o.NotCompliant,
		Warning:      t.Warning + o.Warning,
		DCCAction:    t.DCCAction + o.DCCAction,
	}
}

// Label renders the tally as "{total}, {e}E, {nc}NC", extended with
// ", {w}W, {d}DCC" when all audits are reported.
func (t Tally) Label(allAudits bool) string {
	if allAudits {
		return fmt.Sprintf("%d, %dE, %dNC, %dW, %dDCC", t.Total, t.Error, t.NotCompliant, t.Warning, t.DCCAction)
	}
	return fmt.Sprintf("%d, %dE, %dNC", t.Total, t.Error, t.NotCompliant)
}

// CountAudits sums the positive term counts of every facet whose title
// contains an audit category label. Matching is a case-sensitive substring
// test, so one facet can feed more than one category. Warning and DCC
// action are only counted when allAudits is set.
func CountAudits(facets []encode.AuditFacet, total int, allAudits bool) Tally {
	t := Tally{Total: total}
	for _, f := range facets {
		if strings.Contains(f.Title, AuditError) {
			t.Error += positiveSum(f.Terms)
		}
		if strings.Contains(f.Title, AuditNotCompliant) {
			t.NotCompliant += positiveSum(f.Terms)
		}
		if !allAudits {
			continue
		}
		if strings.Contains(f.Title, AuditWarning) {
			t.Warning += positiveSum(f.Terms)
		}
		if strings.Contains(f.Title, AuditDCCAction) {
			t.DCCAction += positiveSum(f.Terms)
		}
	}
	return t
}

func positiveSum(terms []encode.FacetTerm) int {
	sum := 0
	for _, term := range terms {
		if term.DocCount > 0 {
			sum += term.DocCount
		}
	}
	return sum
}
