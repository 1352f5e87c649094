// Package blob encodes and decodes node values for the typed value store.
// It uses msgpack rather than encoding/json so arbitrary producer output
// structs round-trip as an opaque binary blob with no tagging or adapter
// code required from callers.
package blob

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode serializes v into an opaque byte slice.
func Encode(v any) ([]byte, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("blob: encode: %w", err)
	}
	return b, nil
}

// Decode deserializes b into a freshly allocated T.
func Decode[T any](b []byte) (T, error) {
	var v T
	if err := msgpack.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("blob: decode: %w", err)
	}
	return v, nil
}
