// Package ingest implements data preparation (C2): multi-file loading,
// header normalization, referential auditing, 1-to-many aggregation,
// joining, and cleaning into a unified one-row-per-applicant frame.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/admissions-triage/core/internal/taxonomy"
)

// rawTable is a tabular file after header canonicalization: column name
// to row values, all rows the same length.
type rawTable struct {
	Columns []string
	Rows    []map[string]string
}

// readTable reads a CSV file, canonicalizes every header via
// taxonomy.Canonicalize, and applies known typo patches before alias
// resolution (§4.2 stage 1).
func readTable(path string) (*rawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header from %s: %w", path, err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		patched := taxonomy.ApplyTypoPatches(strings.TrimSpace(h))
		columns[i] = taxonomy.Canonicalize(patched)
	}

	var rows []map[string]string
	for {
		record, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("reading row from %s: %w", path, err)
		}
		row := make(map[string]string, len(columns))
		for i, v := range record {
			if i >= len(columns) {
				break
			}
			row[columns[i]] = v
		}
		rows = append(rows, row)
	}

	return &rawTable{Columns: columns, Rows: rows}, nil
}

// idColumn resolves which column in the table identifies the applicant,
// renaming it to AMCAS_ID internally. Returns "" if none found.
func (t *rawTable) idColumn() string {
	return taxonomy.ResolveIDColumn(t.Columns)
}

// ids returns the distinct set of non-empty applicant IDs present in the
// table's resolved ID column.
func (t *rawTable) ids(idCol string) map[string]bool {
	set := make(map[string]bool)
	for _, row := range t.Rows {
		if v := strings.TrimSpace(row[idCol]); v != "" {
			set[v] = true
		}
	}
	return set
}
