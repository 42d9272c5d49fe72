package compress

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomBytes(n int) []byte {
	r := rand.New(rand.NewPCG(1, 2))
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(r.IntN(256))
	}
	return b
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"small", []byte("hello world")},
		{"record", []byte(`{"id":"id-1","name":"Mining Bot Alpha","owner_id":"user123","bot_type":"WORKER"}`)},
		{"repetitive", bytes.Repeat([]byte("soul_chip_slot "), 4000)},
		{"random", randomBytes(10000)},
	}

	for _, typ := range Types() {
		c, err := New(typ)
		require.NoError(t, err)
		assert.Equal(t, string(typ), c.Name())

		for _, tc := range cases {
			t.Run(string(typ)+"/"+tc.name, func(t *testing.T) {
				packed, err := c.Compress(tc.data)
				require.NoError(t, err)
				out, err := c.Decompress(packed)
				require.NoError(t, err)
				assert.Equal(t, len(tc.data), len(out))
				assert.True(t, bytes.Equal(tc.data, out))
			})
		}

		nilOut, err := c.Compress(nil)
		require.NoError(t, err)
		assert.Nil(t, nilOut)
	}
}

func TestCompressionShrinksRepetitiveData(t *testing.T) {
	data := bytes.Repeat([]byte("EQUIPPED "), 10000)
	for _, typ := range []Type{TypeSnappy, TypeZstd, TypeLZ4} {
		c, err := New(typ)
		require.NoError(t, err)
		packed, err := c.Compress(data)
		require.NoError(t, err)
		assert.Less(t, len(packed), len(data)/4, typ)
	}
}

func TestLZ4Corrupt(t *testing.T) {
	c, err := New(TypeLZ4)
	require.NoError(t, err)

	_, err = c.Decompress([]byte{7})
	assert.ErrorIs(t, err, errCorrupt)
	_, err = c.Decompress([]byte{9, 3, 'a', 'b', 'c'})
	assert.ErrorIs(t, err, errCorrupt)
	_, err = c.Decompress([]byte{lz4Raw, 5, 'a'})
	assert.ErrorIs(t, err, errCorrupt)
}

func TestUnsupported(t *testing.T) {
	_, err := New("brotli")
	assert.True(t, errors.Is(err, ErrUnsupported))

	c, err := New("")
	require.NoError(t, err)
	assert.Equal(t, "none", c.Name())
}
