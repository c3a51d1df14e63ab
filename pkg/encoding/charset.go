// Package encoding provides fixed-width string field helpers for binary
// model formats, with optional legacy code page conversion.
package encoding

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	textenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

var (
	// ErrFieldOverflow is returned when a string does not fit a fixed-width
	// field together with its NUL terminator.
	ErrFieldOverflow = errors.New("string does not fit fixed-width field")

	// ErrUnknownCharset is returned for charset names x/text does not know.
	ErrUnknownCharset = errors.New("unknown charset")
)

// Charset converts between UTF-8 and the byte encoding used in a file.
// The zero value passes bytes through unchanged (UTF-8 files).
type Charset struct {
	name string
	enc  textenc.Encoding
}

// LookupCharset returns the charset registered under name (WHATWG labels
// such as "windows-1250" or "iso-8859-2"). Empty, "utf-8" and "utf8" give
// the pass-through charset.
func LookupCharset(name string) (Charset, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return Charset{}, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return Charset{}, fmt.Errorf("%w: %s", ErrUnknownCharset, name)
	}
	return Charset{name: name, enc: enc}, nil
}

// Name returns the charset label, "utf-8" for the pass-through charset.
func (c Charset) Name() string {
	if c.enc == nil {
		return "utf-8"
	}
	return c.name
}

// Decode converts file bytes to a UTF-8 string.
func (c Charset) Decode(data []byte) (string, error) {
	if c.enc == nil {
		return string(data), nil
	}
	out, err := c.enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", c.name, err)
	}
	return string(out), nil
}

// Encode converts a UTF-8 string to file bytes.
func (c Charset) Encode(s string) ([]byte, error) {
	if c.enc == nil {
		return []byte(s), nil
	}
	out, err := c.enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", c.name, err)
	}
	return out, nil
}

// TrimNull returns data up to its first NUL byte.
func TrimNull(data []byte) []byte {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return data[:i]
	}
	return data
}

// DecodeFixedString converts a NUL-terminated fixed-width field to UTF-8.
// A field without terminator is taken whole.
func (c Charset) DecodeFixedString(data []byte) (string, error) {
	return c.Decode(TrimNull(data))
}

// EncodeFixedString converts s to a NUL-padded field of exactly size bytes.
// The encoded string must be shorter than size so the field stays
// NUL-terminated.
func (c Charset) EncodeFixedString(s string, size int) ([]byte, error) {
	encoded, err := c.Encode(s)
	if err != nil {
		return nil, err
	}
	if len(encoded) >= size {
		return nil, fmt.Errorf("%w: %q is %d bytes, field holds %d", ErrFieldOverflow, s, len(encoded), size-1)
	}
	field := make([]byte, size)
	copy(field, encoded)
	return field, nil
}
