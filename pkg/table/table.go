package table

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/ritzau/kgview/pkg/errors"
)

// Delimiters of the supported table files
const (
	Comma = ','
	Tab   = '\t'
)

// Table is a delimited file held in memory: a header and string-typed rows.
// No cell is ever converted to a number, so identifiers like "007" survive.
type Table struct {
	Path   string
	Header []string
	Rows   [][]string

	index map[string]int
}

// Read loads a delimited file with a header row.
// A missing or unreadable path yields FILE_READ; malformed content yields PARSE.
func Read(path string, delim rune) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileRead, err, "open %s", path)
	}
	defer func() { _ = file.Close() }()

	return Parse(file, path, delim)
}

// Parse reads a delimited table from r. name is used in error messages.
func Parse(r io.Reader, name string, delim rune) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = delim
	reader.FieldsPerRecord = 0 // every row must match the header width
	reader.LazyQuotes = delim == Tab

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "read %s", name)
	}
	if len(records) == 0 {
		return nil, errors.New(errors.ErrCodeParse, "%s: missing header", name)
	}

	header := records[0]
	header[0] = strings.TrimPrefix(header[0], "\uFEFF")

	t := &Table{
		Path:   name,
		Header: make([]string, len(header)),
		Rows:   records[1:],
		index:  make(map[string]int, len(header)),
	}
	for i, col := range header {
		col = strings.TrimSpace(col)
		if _, dup := t.index[col]; dup {
			return nil, errors.New(errors.ErrCodeParse, "%s: duplicate column %q", name, col)
		}
		t.Header[i] = col
		t.index[col] = i
	}

	return t, nil
}

// Column returns the position of the named column
func (t *Table) Column(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Require checks that every named column is present and returns their positions
// in argument order.
func (t *Table) Require(cols ...string) ([]int, error) {
	positions := make([]int, len(cols))
	for i, col := range cols {
		pos, ok := t.index[col]
		if !ok {
			return nil, errors.New(errors.ErrCodeParse, "%s: missing required column %q", t.Path, col)
		}
		positions[i] = pos
	}
	return positions, nil
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}
