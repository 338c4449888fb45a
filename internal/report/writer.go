package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nishad/encode-audit/internal/errors"
)

// RowSink receives the report header followed by every row, in order.
type RowSink interface {
	WriteHeader(header []string) error
	WriteRow(row []string) error
}

// TSVWriter writes rows as tab separated values. Cells holding quotes,
// such as hyperlink formulas, are quoted CSV-style so spreadsheets read
// them back intact.
type TSVWriter struct {
	w *csv.Writer
}

// NewTSVWriter creates a TSV writer on w.
func NewTSVWriter(w io.Writer) *TSVWriter {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	cw.UseCRLF = true
	return &TSVWriter{w: cw}
}

// WriteHeader writes the header row.
func (t *TSVWriter) WriteHeader(header []string) error {
	return t.WriteRow(header)
}

// WriteRow writes one row and flushes it.
func (t *TSVWriter) WriteRow(row []string) error {
	if err := t.w.Write(row); err != nil {
		return err
	}
	t.w.Flush()
	return t.w.Error()
}

// FileWriter writes a report next to its destination and only moves it
// into place on Commit, so a failed run leaves no partial report behind.
type FileWriter struct {
	*TSVWriter
	path string
	tmp  *os.File
}

// CreateFile opens a report destined for path.
func CreateFile(path string) (*FileWriter, error) {
	const op errors.Op = "report.CreateFile"

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, errors.E(op, errors.KindIO, err, "cannot create report file")
	}
	return &FileWriter{
		TSVWriter: NewTSVWriter(tmp),
		path:      path,
		tmp:       tmp,
	}, nil
}

// Path returns the final report location.
func (f *FileWriter) Path() string {
	return f.path
}

// Commit closes the report and moves it to its final path.
func (f *FileWriter) Commit() error {
	const op errors.Op = "report.Commit"

	if err := f.tmp.Close(); err != nil {
		os.Remove(f.tmp.Name())
		return errors.E(op, errors.KindIO, err)
	}
	if err := os.Chmod(f.tmp.Name(), 0644); err != nil {
		os.Remove(f.tmp.Name())
		return errors.E(op, errors.KindIO, err)
	}
	if err := os.Rename(f.tmp.Name(), f.path); err != nil {
		os.Remove(f.tmp.Name())
		return errors.E(op, errors.KindIO, err, fmt.Sprintf("cannot move report to %s", f.path))
	}
	return nil
}

// Abort discards the partially written report.
func (f *FileWriter) Abort() {
	errors.IgnoreError(f.tmp.Close(), "closing aborted report")
	errors.IgnoreError(os.Remove(f.tmp.Name()), "removing aborted report")
}
