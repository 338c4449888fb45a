package encode

import (
	"encoding/json"
	"fmt"

	"github.com/nishad/encode-audit/internal/errors"
)

// Matrix response field names. The y axis groups by biosample type, then
// by biosample term name, and each inner bucket carries one count per
// x-axis assay.
const (
	BiosampleTypeField = "replicates.library.biosample.biosample_type"
	BiosampleNameField = "biosample_term_name"
	AssayCountsField   = "assay_term_name"
)

// AggregationResult is a decoded matrix response.
type AggregationResult struct {
	Total  int
	Assays []string // x-axis bucket keys in response order
	Groups []BiosampleGroup
}

// BiosampleGroup is one outer y-axis bucket.
type BiosampleGroup struct {
	Type       string
	Biosamples []Biosample
}

// Biosample is one inner y-axis bucket. Counts[i] belongs to Assays[i].
type Biosample struct {
	Name   string
	Counts []int
}

// AuditFacet is a facet from a search response. Only audit facets matter
// for reporting, but every facet is decoded.
type AuditFacet struct {
	Field string      `json:"field"`
	Title string      `json:"title"`
	Terms []FacetTerm `json:"terms"`
}

// FacetTerm is one value of a facet with its document count.
type FacetTerm struct {
	Key      interface{} `json:"key"`
	DocCount int         `json:"doc_count"`
}

// RefinementResult is a decoded search response.
type RefinementResult struct {
	Total  int
	Facets []AuditFacet
}

type rawBucketKey struct {
	Key string `json:"key"`
}

type rawMatrixResponse struct {
	Total  int `json:"total"`
	Matrix *struct {
		X struct {
			Buckets []rawBucketKey `json:"buckets"`
		} `json:"x"`
		Y map[string]json.RawMessage `json:"y"`
	} `json:"matrix"`
}

type rawGroupAxis struct {
	Buckets []map[string]json.RawMessage `json:"buckets"`
}

type rawSearchResponse struct {
	Total  *int         `json:"total"`
	Facets []AuditFacet `json:"facets"`
}

// DecodeAggregation parses a matrix response body. Missing axes or bucket
// groups are reported as KindParse errors.
func DecodeAggregation(data []byte) (*AggregationResult, error) {
	const op errors.Op = "encode.DecodeAggregation"

	var raw rawMatrixResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.E(op, errors.KindParse, err, "invalid matrix JSON")
	}
	if raw.Matrix == nil {
		return nil, errors.E(op, errors.KindParse, "response has no matrix")
	}

	result := &AggregationResult{Total: raw.Total}
	for _, b := range raw.Matrix.X.Buckets {
		result.Assays = append(result.Assays, b.Key)
	}

	typeAxis, ok := raw.Matrix.Y[BiosampleTypeField]
	if !ok {
		return nil, errors.Errorf(op, errors.KindParse, "matrix y axis has no %q grouping", BiosampleTypeField)
	}
	var outer rawGroupAxis
	if err := json.Unmarshal(typeAxis, &outer); err != nil {
		return nil, errors.E(op, errors.KindParse, err, "invalid biosample type buckets")
	}

	for _, ob := range outer.Buckets {
		group := BiosampleGroup{}
		if err := decodeKey(ob, &group.Type); err != nil {
			return nil, errors.E(op, errors.KindParse, err)
		}

		nameAxis, ok := ob[BiosampleNameField]
		if !ok {
			return nil, errors.Errorf(op, errors.KindParse, "biosample type %q has no %q grouping", group.Type, BiosampleNameField)
		}
		var inner rawGroupAxis
		if err := json.Unmarshal(nameAxis, &inner); err != nil {
			return nil, errors.E(op, errors.KindParse, err, fmt.Sprintf("invalid biosample buckets under %q", group.Type))
		}

		for _, ib := range inner.Buckets {
			var bs Biosample
			if err := decodeKey(ib, &bs.Name); err != nil {
				return nil, errors.E(op, errors.KindParse, err)
			}
			counts, ok := ib[AssayCountsField]
			if !ok {
				return nil, errors.Errorf(op, errors.KindParse, "biosample %q has no %q counts", bs.Name, AssayCountsField)
			}
			if err := json.Unmarshal(counts, &bs.Counts); err != nil {
				return nil, errors.E(op, errors.KindParse, err, fmt.Sprintf("invalid assay counts for %q", bs.Name))
			}
			group.Biosamples = append(group.Biosamples, bs)
		}
		result.Groups = append(result.Groups, group)
	}

	return result, nil
}

// DecodeRefinement parses a search response body.
func DecodeRefinement(data []byte) (*RefinementResult, error) {
	const op errors.Op = "encode.DecodeRefinement"

	var raw rawSearchResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.E(op, errors.KindParse, err, "invalid search JSON")
	}
	if raw.Total == nil {
		return nil, errors.E(op, errors.KindParse, "search response has no total")
	}
	return &RefinementResult{Total: *raw.Total, Facets: raw.Facets}, nil
}

func decodeKey(bucket map[string]json.RawMessage, dst *string) error {
	raw, ok := bucket["key"]
	if !ok {
		return fmt.Errorf("bucket has no key")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("bucket key: %w", err)
	}
	return nil
}
