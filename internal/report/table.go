package report

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/roach88/ontaudit/internal/ir"
)

// NilCell is written for a variable a row leaves unbound.
const NilCell = "(nil)"

// Table is the tabular result of one rule run in report mode: its terminal
// bindings, in order.
type Table struct {
	Name string
	Rows []ir.Binding
}

// Columns returns the variable names in order of first appearance. The
// first row fixes the leading columns; variables first bound by later rows
// follow.
func (t *Table) Columns() []string {
	var cols []string
	seen := make(map[string]bool)
	for _, row := range t.Rows {
		for _, v := range row.Vars() {
			if !seen[v] {
				seen[v] = true
				cols = append(cols, v)
			}
		}
	}
	return cols
}

// WriteCSV writes the table as CSV with a header row. Cells hold the
// display form of each term. A table with no rows writes nothing.
func (t *Table) WriteCSV(w io.Writer) error {
	if len(t.Rows) == 0 {
		return nil
	}
	cols := t.Columns()
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("write table %s: %w", t.Name, err)
	}
	record := make([]string, len(cols))
	for _, row := range t.Rows {
		for i, c := range cols {
			if term, ok := row.Get(c); ok {
				record[i] = term.Display()
			} else {
				record[i] = NilCell
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write table %s: %w", t.Name, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write table %s: %w", t.Name, err)
	}
	return nil
}

// WriteArchive writes each table as "<name>.csv" into a zip archive, in
// order. Entries carry no timestamps, so equal tables give equal archives.
func WriteArchive(w io.Writer, tables []*Table) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	for _, t := range tables {
		f, err := zw.CreateHeader(&zip.FileHeader{Name: t.Name + ".csv", Method: zip.Deflate})
		if err != nil {
			return fmt.Errorf("write archive: %w", err)
		}
		if err := t.WriteCSV(f); err != nil {
			return fmt.Errorf("write archive: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	return nil
}
