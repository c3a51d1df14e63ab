// Package formats implements the model codecs and the registry that resolves
// them by format name or file extension.
//
// Supported formats:
//   - old / colobot (.mod): fixed-layout binary model, version 1.2
//   - new_txt (.txt): line-oriented text model
//   - obj (.obj + .mtl): Wavefront OBJ with an MTL material library
//   - default: picks one of the above from the file extension
package formats

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Faultbox/modconv/pkg/geometry"
)

// ErrInvalidParam is returned when a codec parameter has an unusable value.
var ErrInvalidParam = errors.New("invalid codec parameter")

// Codec reads and writes one model format.
//
// Read appends to model; Write consumes it. A non-nil error means the step
// failed. Bytes already written to path are left in place.
type Codec interface {
	Description() string
	// Extension returns the declared file extension without the dot, or ""
	// if the codec has none.
	Extension() string
	Read(path string, model *geometry.Model, params Params) error
	Write(path string, model *geometry.Model, params Params) error
}

// Params holds string-keyed codec options. Unrecognized keys are ignored.
type Params map[string]string

// Has reports whether key is present, whatever its value.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Get returns the value of key, or def if it is absent.
func (p Params) Get(key, def string) string {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Int returns the integer value of key, or def if it is absent.
func (p Params) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidParam, key, v)
	}
	return n, nil
}

// Merge returns a new Params holding p overridden by over.
func (p Params) Merge(over Params) Params {
	out := make(Params, len(p)+len(over))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// formatFloat prints f with the fewest digits that read back to the same
// float32.
func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

// parseFloat parses a float32 token.
func parseFloat(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, err
	}
	return float32(v), nil
}
