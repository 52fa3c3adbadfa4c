package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type column struct {
	Name   string `json:"name"`
	Offset int64  `json:"offset"`
	CRC    uint32 `json:"crc"`
}

func TestCodecsInterchangeable(t *testing.T) {
	in := []column{{Name: "x", Offset: 64, CRC: 0xdeadbeef}, {Name: "intensity", Offset: 128}}

	for _, enc := range []Codec{JSON{}, GoJSON{}} {
		data, err := enc.Marshal(in)
		require.NoError(t, err)

		for _, dec := range []Codec{JSON{}, GoJSON{}} {
			t.Run(enc.Name()+"->"+dec.Name(), func(t *testing.T) {
				var out []column
				require.NoError(t, dec.Unmarshal(data, &out))
				assert.Equal(t, in, out)
			})
		}
	}
}

func TestLookup(t *testing.T) {
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		id, err := IDOf(c)
		require.NoError(t, err)

		byID, ok := ByID(id)
		require.True(t, ok)
		assert.Equal(t, c.Name(), byID.Name())

		byName, ok := ByName(c.Name())
		require.True(t, ok)
		assert.Equal(t, c, byName)
	}

	_, ok := ByID(0)
	assert.False(t, ok)
	_, ok = ByName("msgpack")
	assert.False(t, ok)

	id, err := IDOf(Default)
	require.NoError(t, err)
	assert.Equal(t, IDGoJSON, id)
}
