package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/MITSustainableDesignLab/globi/pkg/features"
)

// Table is a rectangular result set with named columns. Cell values are
// strings after a round trip through CSV; freshly built tables keep the
// original types.
type Table struct {
	Columns []string
	Rows    [][]any
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return len(t.Rows) }

// Column returns the index of the named column, or -1.
func (t *Table) Column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// FromFeatureRows builds a table from feature vectors. Columns are the
// sorted union of keys; cells for absent keys are empty strings.
func FromFeatureRows(rows []features.Vector) *Table {
	seen := make(map[string]bool)
	for _, r := range rows {
		for k := range r {
			seen[k] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	t := &Table{Columns: cols, Rows: make([][]any, 0, len(rows))}
	for _, r := range rows {
		row := make([]any, len(cols))
		for i, c := range cols {
			if v, ok := r[c]; ok {
				row[i] = v
			} else {
				row[i] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// WriteCSV writes the table with a header row.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, cell := range row {
			record[i] = fmt.Sprintf("%v", cell)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a table written by WriteCSV. All cells come back as
// strings.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	t := &Table{Columns: header}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		row := make([]any, len(record))
		for i, cell := range record {
			row[i] = cell
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// SaveCSV writes the table to a file path.
func (t *Table) SaveCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return t.WriteCSV(f)
}

// LoadCSV reads a table from a file path.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}
