// Package codec centralizes metadata encoding for persisted point cloud files.
//
// The native format stores the ID of the codec that wrote its column
// directory, so files stay readable when the default codec changes.
package codec

import "fmt"

// Codec encodes and decodes column directories.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Header IDs. Never renumber.
const (
	IDJSON   uint8 = 1
	IDGoJSON uint8 = 2
)

var registry = []struct {
	id    uint8
	codec Codec
}{
	{IDJSON, JSON{}},
	{IDGoJSON, GoJSON{}},
}

// ByName looks up a built-in codec by name.
func ByName(name string) (Codec, bool) {
	for _, r := range registry {
		if r.codec.Name() == name {
			return r.codec, true
		}
	}
	return nil, false
}

// ByID looks up a built-in codec by header ID.
func ByID(id uint8) (Codec, bool) {
	for _, r := range registry {
		if r.id == id {
			return r.codec, true
		}
	}
	return nil, false
}

// IDOf returns the header ID of c. Only built-in codecs have one.
func IDOf(c Codec) (uint8, error) {
	for _, r := range registry {
		if r.codec.Name() == c.Name() {
			return r.id, nil
		}
	}
	return 0, fmt.Errorf("codec %q has no header id", c.Name())
}
