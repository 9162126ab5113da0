package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

var ErrUnsupportedFormat = errors.New("unsupported dataset format")

func Load(path string) (*Dataset, []byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	d, err := Parse(path, b)
	if err != nil {
		return nil, b, err
	}
	return d, b, nil
}

// Parse decodes payload according to the file extension, sniffing the
// content when the extension is not recognised.
func Parse(path string, payload []byte) (*Dataset, error) {
	format, err := detectFormat(path, payload)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatCSV:
		return parseCSV(path, payload)
	default:
		return parseJSON(path, payload)
	}
}

func detectFormat(path string, payload []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	}
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return "", fmt.Errorf("%s: empty dataset", path)
	}
	if trimmed[0] == '[' {
		return FormatJSON, nil
	}
	if bytes.ContainsAny(trimmed[:firstLineEnd(trimmed)], ",;\t") {
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
}

func firstLineEnd(b []byte) int {
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		return i
	}
	return len(b)
}

// sniffDelimiter picks the separator that occurs most in the header line.
func sniffDelimiter(payload []byte) rune {
	header := payload[:firstLineEnd(payload)]
	best, bestCount := ',', bytes.Count(header, []byte{','})
	for _, r := range []rune{';', '\t'} {
		if c := bytes.Count(header, []byte(string(r))); c > bestCount {
			best, bestCount = r, c
		}
	}
	return best
}

func parseCSV(path string, payload []byte) (*Dataset, error) {
	r := csv.NewReader(bytes.NewReader(payload))
	r.Comma = sniffDelimiter(payload)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: empty dataset", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	d := newDataset(path, FormatCSV, header)
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("parse %s line %d: %w", path, line, err)
		}
		if blankRecord(record) {
			continue
		}
		cells := make(map[string]string, len(record))
		for i, v := range record {
			if i < len(header) {
				cells[normalizeColumn(header[i])] = v
			}
		}
		d.addRow(cells)
	}
	return d, nil
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseJSON(path string, payload []byte) (*Dataset, error) {
	var records []map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	colSet := map[string]bool{}
	for _, rec := range records {
		for k := range rec {
			colSet[k] = true
		}
	}
	header := make([]string, 0, len(colSet))
	for k := range colSet {
		header = append(header, k)
	}
	sort.Strings(header)
	d := newDataset(path, FormatJSON, header)
	for _, rec := range records {
		cells := make(map[string]string, len(rec))
		for k, v := range rec {
			cells[normalizeColumn(k)] = jsonCell(v)
		}
		d.addRow(cells)
	}
	return d, nil
}

func jsonCell(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
