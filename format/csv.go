package format

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/pcgo"
)

// ParseError reports a CSV row that cannot be turned into points.
type ParseError struct {
	Line   int // 1-based input line
	Column int // 1-based field index, 0 when the whole row is wrong
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == 0 {
		return fmt.Sprintf("csv line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("csv line %d, column %d (%q): %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrFieldCount is wrapped by ParseError when a row has the wrong number of fields.
var ErrFieldCount = errors.New("wrong number of fields")

const csvCheckInterval = 1 << 16

func writeCSV(ctx context.Context, w io.Writer, pc *pcgo.PointCloud, o *options) error {
	var cols []tableColumn
	if o.header {
		var err error
		if cols, err = toTable(pc, o); err != nil {
			return err
		}
	} else {
		all := pc.Columns()
		for _, c := range reservedOrder[:3] {
			cols = append(cols, tableColumn{name: c, values: all[c]})
		}
	}

	cw := csv.NewWriter(w)
	cw.Comma = o.delimiter

	record := make([]string, len(cols))
	if o.header {
		for i, c := range cols {
			record[i] = c.name
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	for row := range pc.Len() {
		if row%csvCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for i, c := range cols {
			record[i] = strconv.FormatFloat(float64(c.values[row]), 'g', -1, 32)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func readCSV(ctx context.Context, r io.Reader, o *options) (*pcgo.PointCloud, error) {
	cr := csv.NewReader(r)
	cr.Comma = o.delimiter
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	names := []string{o.columnName(pcgo.ColumnX), o.columnName(pcgo.ColumnY), o.columnName(pcgo.ColumnZ)}
	if o.header {
		header, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return pcgo.New(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("csv header: %w", err)
		}
		names = make([]string, len(header))
		for i, h := range header {
			names[i] = strings.TrimSpace(h)
		}
	}

	values := make([][]float32, len(names))
	for row := 0; ; row++ {
		if row%csvCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}

		line, _ := cr.FieldPos(0)
		if len(record) != len(names) {
			return nil, &ParseError{Line: line, Err: fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(record), len(names))}
		}
		for i, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 32)
			if err != nil {
				return nil, &ParseError{Line: line, Column: i + 1, Value: field, Err: err}
			}
			values[i] = append(values[i], float32(v))
		}
	}

	cols := make([]tableColumn, len(names))
	for i, name := range names {
		cols[i] = tableColumn{name: name, values: values[i]}
		if cols[i].values == nil {
			cols[i].values = []float32{}
		}
	}
	return fromTable(cols, o)
}
