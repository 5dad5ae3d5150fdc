// Package roster reads and updates the class summary CSV file, one row per
// submission.
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Roster is an in-memory CSV table keyed by one column.
type Roster struct {
	path    string
	key     int
	header  []string
	rows    [][]string
	columns map[string]int
	index   map[string]int
}

// Load reads the roster at path. A missing file yields an empty roster with
// only the key column, written on the first Save.
func Load(path, keyColumn string) (*Roster, error) {
	if keyColumn == "" {
		return nil, errors.New("roster key column cannot be empty")
	}

	r := &Roster{
		path:    path,
		columns: make(map[string]int),
		index:   make(map[string]int),
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		r.header = []string{keyColumn}
		r.columns[keyColumn] = 0
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse roster %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("roster %s has no header", path)
	}

	r.header = records[0]
	for i, name := range r.header {
		r.columns[name] = i
	}
	// Cells past the header keep their position under unnamed columns
	for _, record := range records[1:] {
		for len(r.header) < len(record) {
			r.header = append(r.header, "")
		}
	}
	key, ok := r.columns[keyColumn]
	if !ok {
		return nil, fmt.Errorf("roster %s has no column %q", path, keyColumn)
	}
	r.key = key

	for _, record := range records[1:] {
		row := make([]string, len(r.header))
		copy(row, record)
		if _, dup := r.index[row[key]]; !dup {
			r.index[row[key]] = len(r.rows)
		}
		r.rows = append(r.rows, row)
	}
	return r, nil
}

// Keys returns the row keys in file order.
func (r *Roster) Keys() []string {
	keys := make([]string, 0, len(r.rows))
	for _, row := range r.rows {
		keys = append(keys, row[r.key])
	}
	return keys
}

// Get returns the value of column for the row key.
func (r *Roster) Get(key, column string) (string, bool) {
	i, ok := r.index[key]
	if !ok {
		return "", false
	}
	c, ok := r.columns[column]
	if !ok {
		return "", false
	}
	return r.rows[i][c], true
}

// Set stores value in column for the row key, adding the column or the row
// when missing.
func (r *Roster) Set(key, column, value string) {
	c, ok := r.columns[column]
	if !ok {
		c = len(r.header)
		r.header = append(r.header, column)
		r.columns[column] = c
		for i := range r.rows {
			r.rows[i] = append(r.rows[i], "")
		}
	}

	i, ok := r.index[key]
	if !ok {
		row := make([]string, len(r.header))
		row[r.key] = key
		i = len(r.rows)
		r.rows = append(r.rows, row)
		r.index[key] = i
	}
	r.rows[i][c] = value
}

// SetInt stores an integer value.
func (r *Roster) SetInt(key, column string, value int) {
	r.Set(key, column, strconv.Itoa(value))
}

// Save writes the roster back to its file, replacing it atomically.
func (r *Roster) Save() error {
	tmp, err := os.CreateTemp(filepath.Dir(r.path), "."+filepath.Base(r.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create roster file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(r.header); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write roster: %w", err)
	}
	if err := w.WriteAll(r.rows); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write roster: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write roster: %w", err)
	}

	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace roster: %w", err)
	}
	return nil
}
