package manifest

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

func gzipJSON(t *testing.T, js string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(js))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestEncodeDecode(t *testing.T) {
	m := Manifest{
		"index.html": File("aabbccddeeff00112233", 412),
		"logo.png":   File("ffeeddccbbaa99887766", 91002),
		"assets":     Folder("0123456789abcdef0123"),
	}

	encoded, err := m.Encode()
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, m, decoded)
}

func TestEncodeIsDeterministic(t *testing.T) {
	m := Manifest{
		"b.txt": File("bbbbbbbbbbbbbbbbbbbb", 10),
		"a.txt": File("aaaaaaaaaaaaaaaaaaaa", 10),
		"sub":   Folder("cccccccccccccccccccc"),
	}
	first, err := m.Encode()
	require.NoError(t, err)
	second, err := m.Encode()
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEncodeIsCompressedEncodeJSON(t *testing.T) {
	m := Manifest{
		"a.txt": File("aaaaaaaaaaaaaaaaaaaa", 12),
		"sub":   Folder("bbbbbbbbbbbbbbbbbbbb"),
	}
	js, err := m.EncodeJSON()
	require.NoError(t, err)
	encoded, err := m.Encode()
	require.NoError(t, err)

	gz, err := gzip.NewReader(bytes.NewReader(encoded))
	require.NoError(t, err)
	decompressed, err := io.ReadAll(gz)
	require.NoError(t, err)
	require.Equal(t, js, decompressed)
}

func TestNamesOrder(t *testing.T) {
	m := Manifest{
		"big.bin":   File("aaaaaaaaaaaaaaaaaaaa", 500),
		"small.bin": File("bbbbbbbbbbbbbbbbbbbb", 5),
		"zfolder":   Folder("cccccccccccccccccccc"),
		"afolder":   Folder("dddddddddddddddddddd"),
	}
	// Folders (wire size 0) first, then files by ascending size.
	require.Equal(t, []string{"afolder", "zfolder", "small.bin", "big.bin"}, m.Names())
}

func TestEncodeRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name string
		m    Manifest
	}{
		{name: "zero-size file", m: Manifest{"a": {Hash: "aa", Size: 0}}},
		{name: "negative-size file", m: Manifest{"a": {Hash: "aa", Size: -1}}},
		{name: "empty hash", m: Manifest{"a": {Size: 4}}},
		{name: "empty name", m: Manifest{"": File("aa", 4)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.m.Encode()
			require.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestDecodeCorrupt(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "not gzip", data: []byte(`{"a.txt": ["aabb", 2]}`)},
		{name: "truncated gzip", data: gzipJSON(t, `{"a.txt": ["aabb", 2]}`)[:8]},
		{name: "not json", data: gzipJSON(t, `not json at all`)},
		{name: "json array", data: gzipJSON(t, `[1, 2, 3]`)},
		{name: "value not an array", data: gzipJSON(t, `{"a.txt": "aabb"}`)},
		{name: "one-element value", data: gzipJSON(t, `{"a.txt": ["aabb"]}`)},
		{name: "three-element value", data: gzipJSON(t, `{"a.txt": ["aabb", 2, 3]}`)},
		{name: "non-string hash", data: gzipJSON(t, `{"a.txt": [17, 2]}`)},
		{name: "non-integer size", data: gzipJSON(t, `{"a.txt": ["aabb", 2.5]}`)},
		{name: "string size", data: gzipJSON(t, `{"a.txt": ["aabb", "2"]}`)},
		{name: "negative size", data: gzipJSON(t, `{"a.txt": ["aabb", -2]}`)},
		{name: "empty hash", data: gzipJSON(t, `{"a.txt": ["", 2]}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			require.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestDecodeFolderEntry(t *testing.T) {
	m, err := Decode(gzipJSON(t, `{"sub": ["aabbccdd", 0], "a.txt": ["eeff0011", 7]}`))
	require.NoError(t, err)

	require.True(t, m["sub"].Dir)
	require.Equal(t, "aabbccdd", m["sub"].Hash)
	require.False(t, m["a.txt"].Dir)
	require.Equal(t, int64(7), m["a.txt"].Size)
}

func TestDecodeEmptyManifest(t *testing.T) {
	m, err := Decode(gzipJSON(t, `{}`))
	require.NoError(t, err)
	require.Empty(t, m)
}
