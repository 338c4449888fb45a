package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestTSVWriterQuotesFormulas(t *testing.T) {
	var buf bytes.Buffer
	w := NewTSVWriter(&buf)

	if err := w.WriteHeader([]string{Hyperlink("https://x/matrix/", "Matrix"), "DNase-seq", "TOTAL"}); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	if err := w.WriteRow([]string{"liver", "0", "0, 0E, 0NC"}); err != nil {
		t.Fatalf("WriteRow failed: %v", err)
	}

	want := "\"=HYPERLINK(\"\"https://x/matrix/\"\",\"\"Matrix\"\")\"\tDNase-seq\tTOTAL\r\n" +
		"liver\t0\t0, 0E, 0NC\r\n"
	if buf.String() != want {
		t.Errorf("unexpected output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestHyperlink(t *testing.T) {
	got := Hyperlink("https://www.encodeproject.org/search/?type=Experiment", "5, 1E, 0NC")
	want := `=HYPERLINK("https://www.encodeproject.org/search/?type=Experiment","5, 1E, 0NC")`
	if got != want {
		t.Errorf("Hyperlink() = %q, want %q", got, want)
	}

	if got := Hyperlink(`a"b`, "x"); got != `=HYPERLINK("a""b","x")` {
		t.Errorf("quotes not doubled: %q", got)
	}
}

func TestFileWriterCommit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Error_Count.xlsx")

	fw, err := CreateFile(path)
	if err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}
	if err := fw.WriteRow([]string{"a", "b"}); err != nil {
		t.Fatalf("WriteRow failed: %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("report should not exist before commit")
	}
	if err := fw.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "a\tb\r\n" {
		t.Errorf("unexpected content %q", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the report in %s, found %d entries", dir, len(entries))
	}
}

func TestFileWriterAbort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.tsv")

	fw, err := CreateFile(path)
	if err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}
	fw.WriteRow([]string{"partial"})
	fw.Abort()

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected no files after abort, found %d", len(entries))
	}
}

func TestCreateFileMissingDirectory(t *testing.T) {
	if _, err := CreateFile("/nonexistent/dir/report.tsv"); err == nil {
		t.Error("expected error for missing directory")
	}
}
