// Package query builds ENCODE search expressions.
//
// A report run uses one matrix query, which asks the portal for experiment
// counts bucketed by biosample and assay, and one refinement query per
// non-empty cell of that matrix. Both carry the same category filters.
package query

import (
	"net/url"
	"strings"
)

const (
	// MatrixBase is the aggregation endpoint all report runs start from.
	MatrixBase = "/matrix/?type=Experiment"
	// SearchBase is the endpoint for per-cell refinement queries.
	SearchBase = "/search/?type=Experiment"

	// RNASeq is split into short and long library columns.
	RNASeq = "RNA-seq"

	shortRNAFilter = "&replicates.library.size_range=<200"
	longRNAFilter  = "&replicates.library.size_range!=<200"
)

// DefaultAssays are the report columns used unless every assay is requested.
var DefaultAssays = []string{
	RNASeq,
	"microRNA profiling by array assay",
	"microRNA-seq",
	"DNase-seq",
	"whole-genome shotgun bisulfite sequencing",
	"RAMPAGE",
	"CAGE",
}

// Category is a filterable experiment property.
type Category struct {
	Name  string // CLI flag name
	Field string // portal query field
}

var (
	CategoryRFA     = Category{Name: "rfa", Field: "award.project"}
	CategorySpecies = Category{Name: "species", Field: "replicates.library.biosample.donor.organism.name"}
	CategoryStatus  = Category{Name: "status", Field: "status"}
	CategoryLab     = Category{Name: "lab", Field: "lab.title"}
)

// Filters holds the values selected per category. Repeating a field in the
// query gives OR semantics on the portal side.
type Filters struct {
	RFA     []string
	Species []string
	Status  []string
	Lab     []string
}

// ParseList splits a semicolon separated flag value. Blank elements are
// dropped, so "" yields nil.
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// NewFilters parses the four semicolon separated category lists.
func NewFilters(rfa, species, status, lab string) Filters {
	return Filters{
		RFA:     ParseList(rfa),
		Species: ParseList(species),
		Status:  ParseList(status),
		Lab:     ParseList(lab),
	}
}

// IsEmpty reports whether no category has a value.
func (f Filters) IsEmpty() bool {
	return len(f.RFA)+len(f.Species)+len(f.Status)+len(f.Lab) == 0
}

// Term pairs a category with its selected values.
type Term struct {
	Category Category
	Values   []string
}

// Terms returns the categories in the fixed order rfa, species, status, lab.
func (f Filters) Terms() []Term {
	return []Term{
		{CategoryRFA, f.RFA},
		{CategorySpecies, f.Species},
		{CategoryStatus, f.Status},
		{CategoryLab, f.Lab},
	}
}

// Fragment renders the filters as "&field=value" terms, one per value,
// in category order and then input order.
func (f Filters) Fragment() string {
	var b strings.Builder
	for _, term := range f.Terms() {
		for _, v := range term.Values {
			b.WriteString("&")
			b.WriteString(term.Category.Field)
			b.WriteString("=")
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// Matrix returns the aggregation query path.
func (f Filters) Matrix() string {
	return MatrixBase + f.Fragment()
}

// Search returns the refinement query path for one biosample/assay cell.
func (f Filters) Search(biosampleName, assay string) string {
	return SearchBase +
		"&biosample_term_name=" + Escape(biosampleName) +
		"&assay_term_name=" + Escape(assay) +
		f.Fragment()
}

// ShortRNA restricts a refinement query to libraries under 200 nt.
func ShortRNA(search string) string {
	return search + shortRNAFilter
}

// LongRNA restricts a refinement query to libraries of 200 nt or more.
func LongRNA(search string) string {
	return search + longRNAFilter
}

// Escape percent-encodes a term value, encoding spaces as %20 and leaving
// slashes readable.
func Escape(s string) string {
	e := url.QueryEscape(s)
	e = strings.ReplaceAll(e, "+", "%20")
	return strings.ReplaceAll(e, "%2F", "/")
}
