// Package report turns an ENCODE experiment matrix into an audit summary
// spreadsheet: one row per biosample, one column per assay, each cell
// linking back to the search it was counted from.
package report

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/nishad/encode-audit/internal/encode"
	"github.com/nishad/encode-audit/internal/errors"
	"github.com/nishad/encode-audit/internal/query"
)

// Fixed column names.
const (
	ColumnLongRNA  = "Long RNA-seq"
	ColumnShortRNA = "Short RNA-seq"
	ColumnTotal    = "TOTAL"
)

// Options selects report columns and audit categories.
type Options struct {
	Assays    []string // report columns; ignored when AllAssays is set
	AllAssays bool     // use every x-axis assay of the matrix
	AllAudits bool     // include warning and DCC action counts
}

// CellResult describes one cell backed by a refinement fetch.
type CellResult struct {
	BiosampleType string
	BiosampleName string
	Column        string
	Query         string
	URL           string
	Tally         Tally
}

// Summary describes a completed report.
type Summary struct {
	MatrixURL string
	Columns   []string
	Groups    int
	Rows      int
	Fetches   int
	Total     Tally
}

// Builder generates reports. It issues requests sequentially and keeps
// no state between Generate calls.
type Builder struct {
	fetcher  encode.Fetcher
	filters  query.Filters
	opts     Options
	logger   *log.Logger
	observer func(CellResult)
}

// NewBuilder creates a report builder.
func NewBuilder(fetcher encode.Fetcher, filters query.Filters, opts Options) *Builder {
	if len(opts.Assays) == 0 {
		opts.Assays = query.DefaultAssays
	}
	return &Builder{
		fetcher: fetcher,
		filters: filters,
		opts:    opts,
		logger:  log.New(io.Discard, "", 0),
	}
}

// SetLogger sets the logger used for per-cell tracing
func (b *Builder) SetLogger(l *log.Logger) {
	if l != nil {
		b.logger = l
	}
}

// SetObserver registers a callback invoked after every refinement fetch.
func (b *Builder) SetObserver(f func(CellResult)) {
	b.observer = f
}

// layout maps report columns to row positions.
type layout struct {
	header   []string
	index    map[string]int
	selected map[string]bool
}

func newLayout(matrixCell string, assays []string) *layout {
	l := &layout{
		header:   []string{matrixCell},
		index:    make(map[string]int),
		selected: make(map[string]bool),
	}
	add := func(name string) {
		if _, ok := l.index[name]; ok {
			return
		}
		l.index[name] = len(l.header)
		l.header = append(l.header, name)
	}

	for _, a := range assays {
		l.selected[a] = true
	}
	if l.selected[query.RNASeq] {
		add(ColumnLongRNA)
		add(ColumnShortRNA)
	}
	for _, a := range assays {
		if a != query.RNASeq {
			add(a)
		}
	}
	add(ColumnTotal)
	return l
}

func (l *layout) emptyRow(identity string) []string {
	row := make([]string, len(l.header))
	row[0] = identity
	return row
}

// Generate fetches the matrix, counts audits for every selected cell and
// streams the header and rows to sink. The first error aborts the run.
func (b *Builder) Generate(ctx context.Context, sink RowSink) (*Summary, error) {
	const op errors.Op = "report.Generate"

	matrixQuery := b.filters.Matrix()
	matrixURL := b.fetcher.URL(matrixQuery)
	b.logger.Printf("matrix query %s", matrixURL)

	matrix, err := b.fetcher.Matrix(ctx, matrixQuery)
	if err != nil {
		return nil, errors.Wrap(op, err)
	}

	assays := b.opts.Assays
	if b.opts.AllAssays {
		assays = matrix.Assays
	}

	l := newLayout(Hyperlink(matrixURL, "Matrix"), assays)
	summary := &Summary{
		MatrixURL: matrixURL,
		Columns:   append([]string(nil), l.header[1:]...),
		Fetches:   1,
	}

	if err := sink.WriteHeader(l.header); err != nil {
		return nil, errors.E(op, errors.KindIO, err, "writing header")
	}

	for _, group := range matrix.Groups {
		if err := sink.WriteRow(l.emptyRow(group.Type)); err != nil {
			return nil, errors.E(op, errors.KindIO, err, "writing group row")
		}
		summary.Groups++

		for _, bs := range group.Biosamples {
			if len(bs.Counts) != len(matrix.Assays) {
				return nil, errors.Errorf(op, errors.KindValidation,
					"biosample %q in %q has %d assay counts for %d assays",
					bs.Name, group.Type, len(bs.Counts), len(matrix.Assays))
			}

			row, rowTally, fetches, err := b.buildRow(ctx, l, matrix.Assays, group.Type, bs)
			if err != nil {
				return nil, errors.Wrap(op, err)
			}
			row[l.index[ColumnTotal]] = rowTally.Label(b.opts.AllAudits)

			if err := sink.WriteRow(row); err != nil {
				return nil, errors.E(op, errors.KindIO, err, "writing row")
			}
			summary.Rows++
			summary.Fetches += fetches
			summary.Total = summary.Total.Add(rowTally)
		}
	}

	return summary, nil
}

// buildRow fills the cells of one biosample row and returns the row total.
func (b *Builder) buildRow(ctx context.Context, l *layout, assays []string, biosampleType string, bs encode.Biosample) ([]string, Tally, int, error) {
	row := l.emptyRow(bs.Name)
	var total Tally
	fetches := 0

	for i, assay := range assays {
		if !l.selected[assay] {
			continue
		}
		count := bs.Counts[i]

		if assay == query.RNASeq {
			if count == 0 {
				row[l.index[ColumnShortRNA]] = "0"
				row[l.index[ColumnLongRNA]] = "0"
				continue
			}
			search := b.filters.Search(bs.Name, assay)
			for _, split := range []struct {
				column string
				query  string
			}{
				{ColumnShortRNA, query.ShortRNA(search)},
				{ColumnLongRNA, query.LongRNA(search)},
			} {
				cell, t, err := b.fetchCell(ctx, biosampleType, bs.Name, split.column, split.query, -1)
				if err != nil {
					return nil, Tally{}, fetches, err
				}
				fetches++
				row[l.index[split.column]] = cell
				total = total.Add(t)
			}
			continue
		}

		if count == 0 {
			row[l.index[assay]] = "0"
			continue
		}
		cell, t, err := b.fetchCell(ctx, biosampleType, bs.Name, assay, b.filters.Search(bs.Name, assay), count)
		if err != nil {
			return nil, Tally{}, fetches, err
		}
		fetches++
		row[l.index[assay]] = cell
		total = total.Add(t)
	}

	return row, total, fetches, nil
}

// fetchCell runs one refinement query and formats its cell. A known
// matrix count is used as the cell total; a negative count means the
// refinement total is used and a zero total renders as a bare 0.
func (b *Builder) fetchCell(ctx context.Context, biosampleType, biosampleName, column, q string, count int) (string, Tally, error) {
	res, err := b.fetcher.Search(ctx, q)
	if err != nil {
		return "", Tally{}, err
	}
	url := b.fetcher.URL(q)

	var t Tally
	cell := "0"
	switch {
	case count >= 0:
		t = CountAudits(res.Facets, count, b.opts.AllAudits)
		cell = Hyperlink(url, t.Label(b.opts.AllAudits))
	case res.Total > 0:
		t = CountAudits(res.Facets, res.Total, b.opts.AllAudits)
		cell = Hyperlink(url, t.Label(b.opts.AllAudits))
	}
	b.logger.Printf("%s / %s / %s: %s", biosampleType, biosampleName, column, t.Label(true))

	if b.observer != nil {
		b.observer(CellResult{
			BiosampleType: biosampleType,
			BiosampleName: biosampleName,
			Column:        column,
			Query:         q,
			URL:           url,
			Tally:         t,
		})
	}
	return cell, t, nil
}

// Hyperlink renders a spreadsheet HYPERLINK formula.
func Hyperlink(url, label string) string {
	return fmt.Sprintf("=HYPERLINK(%s,%s)", formulaString(url), formulaString(label))
}

// formulaString quotes s as a spreadsheet string literal.
func formulaString(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
