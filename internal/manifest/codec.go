package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/klauspost/compress/gzip"
)

// EncodeJSON serializes the manifest to canonical JSON. Entries are written
// in Names order so encoding is deterministic. Manifest blobs are named by
// the hash of these bytes, before compression, so a snapshot identifier
// depends only on the manifest's content and never on the exact output of
// the compressor.
func (m Manifest) EncodeJSON() ([]byte, error) {
	var js bytes.Buffer
	js.WriteByte('{')
	for i, name := range m.Names() {
		e := m[name]
		if err := e.validate(name); err != nil {
			return nil, err
		}
		if i > 0 {
			js.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, fmt.Errorf("could not marshal entry name '%s': %w", name, err)
		}
		hash, err := json.Marshal(e.Hash)
		if err != nil {
			return nil, fmt.Errorf("could not marshal entry hash '%s': %w", e.Hash, err)
		}
		js.Write(key)
		js.WriteString(": [")
		js.Write(hash)
		js.WriteString(", ")
		js.WriteString(strconv.FormatInt(e.wireSize(), 10))
		js.WriteByte(']')
	}
	js.WriteByte('}')
	return js.Bytes(), nil
}

// Encode serializes the manifest to its stored representation:
// gzip-compressed canonical JSON.
func (m Manifest) Encode() ([]byte, error) {
	js, err := m.EncodeJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	gz, err := gzip.NewWriterLevel(&out, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("could not create gzip writer: %w", err)
	}
	if _, err = gz.Write(js); err != nil {
		return nil, fmt.Errorf("could not compress manifest: %w", err)
	}
	if err = gz.Close(); err != nil {
		return nil, fmt.Errorf("could not finish compressing manifest: %w", err)
	}
	return out.Bytes(), nil
}

// Decode parses gzip-compressed manifest JSON. Any framing or schema
// violation is reported as ErrCorrupt.
func Decode(data []byte) (Manifest, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: not gzip-framed: %s", ErrCorrupt, err)
	}
	js, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("%w: truncated gzip frame: %s", ErrCorrupt, err)
	}
	if err = gz.Close(); err != nil {
		return nil, fmt.Errorf("%w: invalid gzip frame: %s", ErrCorrupt, err)
	}

	var raw map[string]json.RawMessage
	if err = json.Unmarshal(js, &raw); err != nil {
		return nil, fmt.Errorf("%w: not a JSON object: %s", ErrCorrupt, err)
	}

	m := make(Manifest, len(raw))
	for name, value := range raw {
		entry, err := decodeEntry(name, value)
		if err != nil {
			return nil, err
		}
		m[name] = entry
	}
	return m, nil
}

func decodeEntry(name string, value json.RawMessage) (Entry, error) {
	var pair []json.RawMessage
	if err := json.Unmarshal(value, &pair); err != nil {
		return Entry{}, fmt.Errorf("%w: entry '%s' is not an array: %s", ErrCorrupt, name, err)
	}
	if len(pair) != 2 {
		return Entry{}, fmt.Errorf("%w: entry '%s' has %d elements, want 2", ErrCorrupt, name, len(pair))
	}

	var hash string
	if err := json.Unmarshal(pair[0], &hash); err != nil {
		return Entry{}, fmt.Errorf("%w: entry '%s' hash is not a string: %s", ErrCorrupt, name, err)
	}

	var num json.Number
	if err := json.Unmarshal(pair[1], &num); err != nil {
		return Entry{}, fmt.Errorf("%w: entry '%s' size is not a number: %s", ErrCorrupt, name, err)
	}
	size, err := strconv.ParseInt(num.String(), 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: entry '%s' size '%s' is not an integer: %s", ErrCorrupt, name, num, err)
	}
	if size < 0 {
		return Entry{}, fmt.Errorf("%w: entry '%s' has negative size %d", ErrCorrupt, name, size)
	}

	entry := Entry{Hash: hash, Size: size, Dir: size == 0}
	if err := entry.validate(name); err != nil {
		return Entry{}, err
	}
	return entry, nil
}
