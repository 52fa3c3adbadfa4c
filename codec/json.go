package codec

import (
	"encoding/json"

	gojson "github.com/goccy/go-json"
)

// Default encodes the directory of newly written files.
var Default Codec = GoJSON{}

// GoJSON encodes with github.com/goccy/go-json. It is the default.
type GoJSON struct{}

func (GoJSON) Marshal(v any) ([]byte, error)      { return gojson.Marshal(v) }
func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }
func (GoJSON) Name() string                       { return "go-json" }

// JSON encodes with encoding/json. Its output is interchangeable with GoJSON;
// it stays registered so files written under ID 1 remain readable.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSON) Name() string                       { return "json" }
