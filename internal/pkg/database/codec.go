// Package database holds the on-disk encoding shared by the result stores.
// Scores are stored as zlib-compressed JSON.
package database

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"errors"
	"io"

	"github.com/ohowland/cgc_resilience/internal/pkg/resilience"
)

// ErrNotFound is returned by stores when no results exist for an id.
var ErrNotFound = errors.New("database: results not found")

// EncodeResults serializes r as zlib-compressed JSON.
func EncodeResults(r resilience.Results) ([]byte, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeResults reverses EncodeResults.
func DecodeResults(b []byte) (resilience.Results, error) {
	r, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	results := make(resilience.Results)
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, err
	}
	return results, nil
}
