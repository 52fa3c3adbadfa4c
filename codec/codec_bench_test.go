package codec

import (
	"fmt"
	"testing"
)

type benchColumn struct {
	Name        string `json:"name"`
	Offset      int64  `json:"offset"`
	Stored      int64  `json:"stored"`
	Raw         int64  `json:"raw"`
	Compression string `json:"compression"`
	CRC         uint32 `json:"crc"`
}

// directory mirrors a native file with sixteen attribute columns.
func directory() []benchColumn {
	cols := make([]benchColumn, 16)
	for i := range cols {
		cols[i] = benchColumn{
			Name:        fmt.Sprintf("attr_%02d", i),
			Offset:      int64(64 + i*40_000_000),
			Stored:      31_000_000,
			Raw:         40_000_000,
			Compression: "zstd",
			CRC:         uint32(i) * 2654435761,
		}
	}
	return cols
}

func BenchmarkDirectory(b *testing.B) {
	dir := directory()

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		data, err := c.Marshal(dir)
		if err != nil {
			b.Fatal(err)
		}

		b.Run(c.Name()+"/marshal", func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(data)))
			for b.Loop() {
				if _, err := c.Marshal(dir); err != nil {
					b.Fatal(err)
				}
			}
		})
		b.Run(c.Name()+"/unmarshal", func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(data)))
			var out []benchColumn
			for b.Loop() {
				if err := c.Unmarshal(data, &out); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
