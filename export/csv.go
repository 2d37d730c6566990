package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/ncobase/taskrunner/data/source"
)

// TableExporter renders tables as CSV text.
type TableExporter interface {
	Tables(ctx context.Context) ([]string, error)
	ExportTable(ctx context.Context, table string) (string, error)
}

// CSVExporter reads rows from a Source and encodes them as CSV.
// Columns are the sorted union of row keys, preceded by a header row.
type CSVExporter struct {
	Source source.Source
}

// Tables lists the source tables.
func (e CSVExporter) Tables(ctx context.Context) ([]string, error) {
	return e.Source.Tables(ctx)
}

// ExportTable returns the CSV text of table.
func (e CSVExporter) ExportTable(ctx context.Context, table string) (string, error) {
	rows, err := e.Source.FindMany(ctx, table)
	if err != nil {
		return "", err
	}
	return EncodeCSV(rows)
}

// EncodeCSV encodes rows with a header of sorted column names.
// An empty row set encodes to an empty string.
func EncodeCSV(rows []source.Row) (string, error) {
	if len(rows) == 0 {
		return "", nil
	}

	seen := make(map[string]struct{})
	var cols []string
	for _, row := range rows {
		for k := range row {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(cols); err != nil {
		return "", err
	}
	record := make([]string, len(cols))
	for _, row := range rows {
		for i, c := range cols {
			v, err := formatValue(row[c])
			if err != nil {
				return "", fmt.Errorf("column %s: %w", c, err)
			}
			record[i] = v
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case bool:
		return strconv.FormatBool(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case int:
		return strconv.Itoa(t), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), nil
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), nil
	case interface{ Hex() string }:
		return t.Hex(), nil
	case interface{ Time() time.Time }:
		return t.Time().UTC().Format(time.RFC3339Nano), nil
	case fmt.Stringer:
		return t.String(), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
