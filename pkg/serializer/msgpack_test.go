package serializer

import (
	"bytes"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/pkg/checksum"
	"github.com/lk2023060901/xdooria-artifact/pkg/compress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStruct struct {
	Name  string `codec:"name"`
	Value int    `codec:"value"`
	Data  []byte `codec:"data"`
}

func TestEncodeDecode(t *testing.T) {
	t.Run("struct", func(t *testing.T) {
		original := &testStruct{Name: "test", Value: 42, Data: []byte("hello")}

		data, err := Encode(original)
		require.NoError(t, err)
		assert.NotEmpty(t, data)

		var decoded testStruct
		require.NoError(t, Decode(data, &decoded))
		assert.Equal(t, *original, decoded)
	})

	t.Run("map keeps strings", func(t *testing.T) {
		original := map[string]any{"name": "Mining Bot Alpha", "slot": "soul"}

		data, err := Encode(original)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, Decode(data, &decoded))
		assert.Equal(t, "Mining Bot Alpha", decoded["name"])
		assert.Equal(t, "soul", decoded["slot"])
	})

	t.Run("invalid data", func(t *testing.T) {
		var decoded testStruct
		assert.Error(t, Decode([]byte{0xc1}, &decoded))
	})
}

func TestByName(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		wantErr     bool
	}{
		{name: "", contentType: "application/json"},
		{name: "json", contentType: "application/json"},
		{name: "msgpack", contentType: "application/msgpack"},
		{name: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ByName(tt.name)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnknownCodec))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.contentType, s.ContentType())

			data, err := s.Serialize(map[string]any{"k": "v"})
			require.NoError(t, err)
			var out map[string]any
			require.NoError(t, s.Deserialize(data, &out))
			assert.Equal(t, "v", out["k"])
		})
	}
}

func TestWithCompression(t *testing.T) {
	s, err := WithCompression(NewMsgpack(), compress.TypeNone)
	require.NoError(t, err)
	assert.Equal(t, "application/msgpack", s.ContentType())

	for _, typ := range []compress.Type{compress.TypeSnappy, compress.TypeZstd, compress.TypeLZ4} {
		s, err := WithCompression(NewJSON(), typ)
		require.NoError(t, err)
		assert.Equal(t, "application/json+"+string(typ), s.ContentType())

		in := map[string]any{"name": "Warden", "bot_type": "KING"}
		data, err := s.Serialize(in)
		require.NoError(t, err)
		var out map[string]any
		require.NoError(t, s.Deserialize(data, &out))
		assert.Equal(t, in, out)
	}

	_, err = WithCompression(NewJSON(), "brotli")
	assert.True(t, errors.Is(err, compress.ErrUnsupported))

	s, err = WithCompression(NewJSON(), compress.TypeZstd)
	require.NoError(t, err)
	var out map[string]any
	assert.Error(t, s.Deserialize([]byte("not zstd"), &out))
}

func TestWithChecksum(t *testing.T) {
	s, err := WithChecksum(NewJSON(), checksum.TypeNone)
	require.NoError(t, err)
	assert.Equal(t, "application/json", s.ContentType())

	packed, err := WithCompression(NewMsgpack(), compress.TypeSnappy)
	require.NoError(t, err)
	s, err = WithChecksum(packed, checksum.TypeXXHash)
	require.NoError(t, err)
	assert.Equal(t, "application/msgpack+snappy;xxhash", s.ContentType())

	in := map[string]any{"name": "Warden", "bot_type": "KING"}
	data, err := s.Serialize(in)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, s.Deserialize(data, &out))
	assert.Equal(t, in, out)

	corrupt := bytes.Clone(data)
	corrupt[0] ^= 0xff
	assert.True(t, errors.Is(s.Deserialize(corrupt, &out), ErrChecksumMismatch))
	assert.True(t, errors.Is(s.Deserialize([]byte{1, 2}, &out), ErrChecksumMismatch))

	_, err = WithChecksum(NewJSON(), "sha1")
	assert.True(t, errors.Is(err, checksum.ErrUnsupported))
}
