package formats

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/modconv/pkg/geometry"
)

// Registry lookup errors.
var (
	ErrUnknownFormat    = errors.New("unknown format")
	ErrUnknownExtension = errors.New("unknown file extension")
)

// FormatInfo describes a registered format for listings.
type FormatInfo struct {
	Name        string
	Description string
	Extension   string
}

// ExtensionInfo describes a registered extension for listings.
type ExtensionInfo struct {
	Extension   string
	Format      string
	Description string
}

// Registry maps format names to codecs and file extensions to format names.
// Create one at startup and pass it to whatever needs codecs.
type Registry struct {
	codecs     map[string]Codec
	names      []string
	extensions map[string]string
	exts       []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		codecs:     make(map[string]Codec),
		extensions: make(map[string]string),
	}
}

// NewDefaultRegistry returns a registry holding the built-in codecs.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	return r
}

// RegisterBuiltins registers the built-in codecs under their usual names.
func RegisterBuiltins(r *Registry) {
	mod := &ModCodec{}
	r.Register("colobot", mod)
	r.Register("old", mod)
	r.RegisterExtension("mod", "old")

	r.Register("new_txt", &TextCodec{})
	r.RegisterExtension("txt", "new_txt")

	r.Register("obj", &ObjCodec{})
	r.RegisterExtension("obj", "obj")

	r.Register("default", NewDefaultCodec(r))
}

// Register adds or replaces the codec for name.
func (r *Registry) Register(name string, c Codec) {
	if _, exists := r.codecs[name]; !exists {
		r.names = append(r.names, name)
	}
	r.codecs[name] = c
}

// RegisterExtension maps ext (without dot) to a format name.
func (r *Registry) RegisterExtension(ext, name string) {
	if _, exists := r.extensions[ext]; !exists {
		r.exts = append(r.exts, ext)
	}
	r.extensions[ext] = name
}

// Lookup returns the codec registered under name.
func (r *Registry) Lookup(name string) (Codec, bool) {
	c, ok := r.codecs[name]
	return c, ok
}

// LookupExtension returns the codec whose format is mapped to ext.
func (r *Registry) LookupExtension(ext string) (Codec, bool) {
	name, ok := r.extensions[ext]
	if !ok {
		return nil, false
	}
	return r.Lookup(name)
}

// ForFile returns the codec for filename's extension.
func (r *Registry) ForFile(filename string) (Codec, bool) {
	ext, ok := ExtensionOf(filename)
	if !ok {
		return nil, false
	}
	return r.LookupExtension(ext)
}

// Formats lists the registered formats in registration order.
func (r *Registry) Formats() []FormatInfo {
	infos := make([]FormatInfo, 0, len(r.names))
	for _, name := range r.names {
		c := r.codecs[name]
		infos = append(infos, FormatInfo{
			Name:        name,
			Description: c.Description(),
			Extension:   c.Extension(),
		})
	}
	return infos
}

// Extensions lists the registered extensions in registration order.
func (r *Registry) Extensions() []ExtensionInfo {
	infos := make([]ExtensionInfo, 0, len(r.exts))
	for _, ext := range r.exts {
		name := r.extensions[ext]
		info := ExtensionInfo{Extension: ext, Format: name}
		if c, ok := r.codecs[name]; ok {
			info.Description = c.Description()
		}
		infos = append(infos, info)
	}
	return infos
}

// ExtensionOf returns the text after the last '.' in filename.
func ExtensionOf(filename string) (string, bool) {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return "", false
	}
	return filename[i+1:], true
}

// DefaultCodec picks the codec from the file extension on every call.
type DefaultCodec struct {
	registry *Registry
}

// NewDefaultCodec returns a codec resolving through r.
func NewDefaultCodec(r *Registry) *DefaultCodec {
	return &DefaultCodec{registry: r}
}

// Description implements Codec.
func (c *DefaultCodec) Description() string { return "Default model format" }

// Extension implements Codec. The default codec has none of its own.
func (c *DefaultCodec) Extension() string { return "" }

// Read implements Codec.
func (c *DefaultCodec) Read(path string, model *geometry.Model, params Params) error {
	codec, err := c.resolve(path)
	if err != nil {
		return err
	}
	return codec.Read(path, model, params)
}

// Write implements Codec.
func (c *DefaultCodec) Write(path string, model *geometry.Model, params Params) error {
	codec, err := c.resolve(path)
	if err != nil {
		return err
	}
	return codec.Write(path, model, params)
}

func (c *DefaultCodec) resolve(path string) (Codec, error) {
	codec, ok := c.registry.ForFile(path)
	if !ok || codec == Codec(c) {
		return nil, fmt.Errorf("%w: file %s cannot be processed", ErrUnknownExtension, path)
	}
	return codec, nil
}
