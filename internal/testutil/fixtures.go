package testutil

import (
	"encoding/json"

	"github.com/nishad/encode-audit/internal/encode"
)

// Fixture data for tests

// MatrixGroup is one biosample type with per-biosample assay counts.
type MatrixGroup struct {
	Type       string
	Biosamples []MatrixBiosample
}

// MatrixBiosample holds one count per matrix assay.
type MatrixBiosample struct {
	Name   string
	Counts []int
}

// MatrixJSON renders a matrix response body in the portal's layout.
func MatrixJSON(assays []string, groups []MatrixGroup) []byte {
	xBuckets := make([]map[string]interface{}, 0, len(assays))
	for _, a := range assays {
		xBuckets = append(xBuckets, map[string]interface{}{"key": a, "doc_count": 1})
	}

	yBuckets := make([]map[string]interface{}, 0, len(groups))
	total := 0
	for _, g := range groups {
		inner := make([]map[string]interface{}, 0, len(g.Biosamples))
		for _, b := range g.Biosamples {
			sum := 0
			for _, c := range b.Counts {
				sum += c
			}
			total += sum
			inner = append(inner, map[string]interface{}{
				"key":                   b.Name,
				"doc_count":             sum,
				encode.AssayCountsField: b.Counts,
			})
		}
		yBuckets = append(yBuckets, map[string]interface{}{
			"key":                     g.Type,
			encode.BiosampleNameField: map[string]interface{}{"buckets": inner},
		})
	}

	body := map[string]interface{}{
		"@type": []string{"Matrix"},
		"total": total,
		"matrix": map[string]interface{}{
			"x": map[string]interface{}{
				"group_by": "assay_term_name",
				"buckets":  xBuckets,
			},
			"y": map[string]interface{}{
				"group_by":                []string{encode.BiosampleTypeField, encode.BiosampleNameField},
				encode.BiosampleTypeField: map[string]interface{}{"buckets": yBuckets},
			},
		},
	}
	data, _ := json.Marshal(body)
	return data
}

// AuditFacet builds a facet with the given title and term counts.
func AuditFacet(title string, counts ...int) encode.AuditFacet {
	f := encode.AuditFacet{Field: "audit", Title: title}
	for i, c := range counts {
		f.Terms = append(f.Terms, encode.FacetTerm{Key: "term" + string(rune('a'+i)), DocCount: c})
	}
	return f
}

// SearchJSON renders a search response body.
func SearchJSON(total int, facets ...encode.AuditFacet) []byte {
	if facets == nil {
		facets = []encode.AuditFacet{}
	}
	body := map[string]interface{}{
		"@type":  []string{"Search"},
		"total":  total,
		"facets": facets,
		"@graph": []interface{}{},
	}
	if total == 0 {
		body["notification"] = "No results found"
	}
	data, _ := json.Marshal(body)
	return data
}

// StandardFacets returns one facet per audit category with distinct counts:
// ERROR 3, NOT COMPLIANT 2, WARNING 4, DCC ACTION 1.
func StandardFacets() []encode.AuditFacet {
	return []encode.AuditFacet{
		{Field: "type", Title: "Data Type", Terms: []encode.FacetTerm{{Key: "Experiment", DocCount: 9}}},
		AuditFacet("Audit category: ERROR", 3, 0),
		AuditFacet("Audit category: NOT COMPLIANT", 2),
		AuditFacet("Audit category: WARNING", 1, 3),
		AuditFacet("Audit category: DCC ACTION", 1),
	}
}
