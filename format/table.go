package format

import (
	"github.com/hupe1980/pcgo"
)

// tableColumn is one named column of a tabular encoding.
type tableColumn struct {
	name   string
	values []float32
}

var reservedOrder = []string{
	pcgo.ColumnX, pcgo.ColumnY, pcgo.ColumnZ,
	pcgo.ColumnIntensity,
	pcgo.ColumnR, pcgo.ColumnG, pcgo.ColumnB,
}

// toTable lays out pc as x, y, z, then intensity and r, g, b when present,
// then named attributes in lexical order. Attributes whose name matches a
// reserved file column would be read back as that column and are rejected.
func toTable(pc *pcgo.PointCloud, o *options) ([]tableColumn, error) {
	if err := o.validateNames(); err != nil {
		return nil, err
	}
	reserved := make(map[string]bool, len(reservedOrder))
	for _, c := range reservedOrder {
		reserved[o.columnName(c)] = true
	}

	cols := pc.Columns()
	out := make([]tableColumn, 0, len(cols))
	for _, c := range reservedOrder {
		if values, ok := cols[c]; ok {
			out = append(out, tableColumn{name: o.columnName(c), values: values})
		}
	}
	for _, name := range pc.AttributeNames() {
		if reserved[name] {
			return nil, &pcgo.ErrDuplicateAttribute{Name: name}
		}
		values, err := pc.Attribute(name)
		if err != nil {
			return nil, err
		}
		out = append(out, tableColumn{name: name, values: values})
	}
	return out, nil
}

// fromTable is the inverse of toTable. Columns are matched by file name; any
// column that is not a reserved name becomes a named attribute.
func fromTable(cols []tableColumn, o *options) (*pcgo.PointCloud, error) {
	if err := o.validateNames(); err != nil {
		return nil, err
	}
	canonical := make(map[string]string, len(reservedOrder))
	for _, c := range reservedOrder {
		canonical[o.columnName(c)] = c
	}

	slots := make(map[string][]float32, len(reservedOrder))
	var attrs []tableColumn
	for _, col := range cols {
		c, ok := canonical[col.name]
		if !ok {
			attrs = append(attrs, col)
			continue
		}
		if _, dup := slots[c]; dup {
			return nil, &pcgo.ErrDuplicateAttribute{Name: col.name}
		}
		slots[c] = col.values
	}

	xs, okX := slots[pcgo.ColumnX]
	ys, okY := slots[pcgo.ColumnY]
	zs, okZ := slots[pcgo.ColumnZ]
	if !okX || !okY || !okZ {
		return nil, &pcgo.ErrInvalidArgument{
			Name:   "columns",
			Value:  o.columnName(pcgo.ColumnX) + "," + o.columnName(pcgo.ColumnY) + "," + o.columnName(pcgo.ColumnZ),
			Reason: "coordinate columns are required",
		}
	}
	n := len(xs)
	if len(ys) != n || len(zs) != n {
		return nil, &pcgo.ErrDimensionMismatch{Name: pcgo.ColumnY, Expected: n, Actual: max(len(ys), len(zs))}
	}

	xyz := make([]float32, 3*n)
	for i := range n {
		xyz[3*i], xyz[3*i+1], xyz[3*i+2] = xs[i], ys[i], zs[i]
	}
	pc, err := pcgo.FromXYZ(xyz)
	if err != nil {
		return nil, err
	}

	if v, ok := slots[pcgo.ColumnIntensity]; ok {
		if err := pc.SetIntensity(v); err != nil {
			return nil, err
		}
	}
	r, okR := slots[pcgo.ColumnR]
	g, okG := slots[pcgo.ColumnG]
	b, okB := slots[pcgo.ColumnB]
	switch {
	case okR && okG && okB:
		if err := pc.SetRGB(r, g, b); err != nil {
			return nil, err
		}
	case okR || okG || okB:
		return nil, &pcgo.ErrInvalidArgument{Name: "columns", Value: "r,g,b", Reason: "colour needs all three channels"}
	}

	for _, col := range attrs {
		if err := pc.AddAttribute(col.name, col.values); err != nil {
			return nil, err
		}
	}
	return pc, nil
}
