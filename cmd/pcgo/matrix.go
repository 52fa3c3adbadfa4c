package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// parseMatrix parses rows separated by ';' and values separated by ',' or
// whitespace, e.g. "1,0,0; 0,1,0; 0,0,1".
func parseMatrix(s string) ([][]float32, error) {
	var m [][]float32
	for i, row := range strings.Split(s, ";") {
		if strings.TrimSpace(row) == "" {
			continue
		}
		vals, err := parseVector(row)
		if err != nil {
			return nil, fmt.Errorf("matrix row %d: %w", i+1, err)
		}
		m = append(m, vals)
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("empty matrix")
	}
	return m, nil
}

func parseVector(s string) ([]float32, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty vector")
	}
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", f, err)
		}
		out[i] = float32(v)
	}
	return out, nil
}

// eulerRotation returns the row-major matrix Rz·Ry·Rx for angles in degrees.
func eulerRotation(deg []float32) ([][]float32, error) {
	if len(deg) != 3 {
		return nil, fmt.Errorf("euler angles need 3 values, got %d", len(deg))
	}
	m := mgl32.Rotate3DZ(mgl32.DegToRad(deg[2])).
		Mul3(mgl32.Rotate3DY(mgl32.DegToRad(deg[1]))).
		Mul3(mgl32.Rotate3DX(mgl32.DegToRad(deg[0])))

	rows := make([][]float32, 3)
	for r := range rows {
		rows[r] = []float32{m.At(r, 0), m.At(r, 1), m.At(r, 2)}
	}
	return rows, nil
}
