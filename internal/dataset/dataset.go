package dataset

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Dataset is a column-keyed table of raw cells. Column names are normalized
// to lower case.
type Dataset struct {
	Source  string
	Format  string
	columns []string
	index   map[string]int
	rows    [][]string
}

func newDataset(source, format string, header []string) *Dataset {
	d := &Dataset{Source: source, Format: format, index: map[string]int{}}
	for _, h := range header {
		name := normalizeColumn(h)
		if name == "" {
			name = "column_" + strconv.Itoa(len(d.columns)+1)
		}
		if _, dup := d.index[name]; dup {
			continue
		}
		d.index[name] = len(d.columns)
		d.columns = append(d.columns, name)
	}
	return d
}

func (d *Dataset) addRow(cells map[string]string) {
	row := make([]string, len(d.columns))
	for k, v := range cells {
		if i, ok := d.index[k]; ok {
			row[i] = v
		}
	}
	d.rows = append(d.rows, row)
}

func (d *Dataset) Len() int {
	return len(d.rows)
}

func (d *Dataset) Columns() []string {
	return append([]string{}, d.columns...)
}

func (d *Dataset) Has(col string) bool {
	_, ok := d.index[normalizeColumn(col)]
	return ok
}

// Strings returns the trimmed raw cells of col, or nil when the column is
// absent.
func (d *Dataset) Strings(col string) []string {
	i, ok := d.index[normalizeColumn(col)]
	if !ok {
		return nil
	}
	out := make([]string, len(d.rows))
	for r, row := range d.rows {
		out[r] = strings.TrimSpace(row[i])
	}
	return out
}

// Numeric parses col as float64. Missing and unparsable cells are NaN. The
// second return value counts cells that were present but not numeric.
func (d *Dataset) Numeric(col string) ([]float64, int) {
	cells := d.Strings(col)
	if cells == nil {
		return nil, 0
	}
	out := make([]float64, len(cells))
	invalid := 0
	for i, c := range cells {
		if isMissing(c) {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(strings.Replace(c, ",", ".", 1), 64)
		if err != nil {
			out[i] = math.NaN()
			invalid++
			continue
		}
		out[i] = v
	}
	return out, invalid
}

// Values is Numeric without the invalid count.
func (d *Dataset) Values(col string) []float64 {
	v, _ := d.Numeric(col)
	return v
}

// Matrix returns rows x len(cols) numeric values for the given columns.
func (d *Dataset) Matrix(cols []string) [][]float64 {
	columns := make([][]float64, len(cols))
	for j, c := range cols {
		columns[j] = d.Values(c)
	}
	out := make([][]float64, d.Len())
	for i := range out {
		out[i] = make([]float64, len(cols))
		for j := range cols {
			if columns[j] == nil {
				out[i][j] = math.NaN()
				continue
			}
			out[i][j] = columns[j][i]
		}
	}
	return out
}

// GroupBy splits the numeric values of col by the key computed from keyCol.
// Rows with an empty key are dropped. Keys are returned sorted.
func (d *Dataset) GroupBy(keyCol, col string, key func(string) string) (map[string][]float64, []string) {
	keys := d.Strings(keyCol)
	values := d.Values(col)
	if keys == nil || values == nil {
		return nil, nil
	}
	groups := map[string][]float64{}
	for i, raw := range keys {
		k := raw
		if key != nil {
			k = key(raw)
		}
		if k == "" || isMissing(k) {
			continue
		}
		groups[k] = append(groups[k], values[i])
	}
	names := make([]string, 0, len(groups))
	for k := range groups {
		names = append(names, k)
	}
	sort.Strings(names)
	return groups, names
}

// Distinct counts the distinct non-missing cells of col.
func (d *Dataset) Distinct(col string) int {
	seen := map[string]bool{}
	for _, c := range d.Strings(col) {
		if !isMissing(c) {
			seen[c] = true
		}
	}
	return len(seen)
}

func isMissing(c string) bool {
	switch strings.ToLower(strings.TrimSpace(c)) {
	case "", "na", "n/a", "nan", "null", "none", ".":
		return true
	default:
		return false
	}
}

func normalizeColumn(s string) string {
	return strings.TrimSpace(strings.ToLower(strings.TrimPrefix(s, "\ufeff")))
}

// Split partitions the rows by the key computed from keyCol. Rows with an
// empty or missing key are dropped. Keys are returned sorted.
func (d *Dataset) Split(keyCol string, key func(string) string) (map[string]*Dataset, []string) {
	keys := d.Strings(keyCol)
	if keys == nil {
		return nil, nil
	}
	parts := map[string]*Dataset{}
	for i, raw := range keys {
		k := raw
		if key != nil {
			k = key(raw)
		}
		if k == "" || isMissing(k) {
			continue
		}
		p, ok := parts[k]
		if !ok {
			p = &Dataset{Source: d.Source, Format: d.Format, columns: d.columns, index: d.index}
			parts[k] = p
		}
		p.rows = append(p.rows, d.rows[i])
	}
	names := make([]string, 0, len(parts))
	for k := range parts {
		names = append(names, k)
	}
	sort.Strings(names)
	return parts, names
}
