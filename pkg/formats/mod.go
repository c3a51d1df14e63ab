package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/modconv/pkg/encoding"
	"github.com/Faultbox/modconv/pkg/geometry"
)

// MOD format errors.
var (
	ErrUnsupportedModVersion = errors.New("unsupported mod version")
	ErrTruncatedModData      = errors.New("truncated mod data")
	ErrInvalidTriangleCount  = errors.New("invalid mod triangle count")
)

// MOD layout constants.
const (
	ModVersionMajor = 1
	ModVersionMinor = 2

	modTextureSize = 20
	modRangeMin    = 0.0
	modRangeMax    = 10000.0
)

// modHeader is the 52-byte file header.
type modHeader struct {
	VersionMajor  int32
	VersionMinor  int32
	TriangleCount int32
	_             [40]byte
}

// modVertex is one 40-byte vertex block.
type modVertex struct {
	Position [3]float32
	Normal   [3]float32
	Tex1     [2]float32
	Tex2     [2]float32
}

// modTriangle is one 232-byte triangle record.
type modTriangle struct {
	Used     uint8
	Selected uint8
	_        [2]byte
	Vertices [3]modVertex
	Diffuse  [4]float32
	Ambient  [4]float32
	Specular [4]float32
	_        [5]float32 // Emissive color and power
	Texture  [modTextureSize]byte
	RangeMin float32
	RangeMax float32
	State    int32
	Dirt     uint16 // Dirt texture number, 0 = none
	_        [3]uint16
}

var (
	modHeaderSize   = binary.Size(modHeader{})
	modTriangleSize = binary.Size(modTriangle{})
)

// ModOptions controls MOD encoding and decoding.
type ModOptions struct {
	// Dirt is written as the dirt texture number of every triangle.
	Dirt uint16
	// Charset of the texture name field.
	Charset encoding.Charset
}

// ModOptionsFromParams reads the "dirt" and "charset" parameters.
func ModOptionsFromParams(params Params) (ModOptions, error) {
	var opts ModOptions

	dirt, err := params.Int("dirt", 0)
	if err != nil {
		return opts, err
	}
	if dirt < 0 || dirt > 0xFFFF {
		return opts, fmt.Errorf("%w: dirt=%d out of range", ErrInvalidParam, dirt)
	}
	opts.Dirt = uint16(dirt)

	opts.Charset, err = encoding.LookupCharset(params.Get("charset", ""))
	if err != nil {
		return opts, err
	}
	return opts, nil
}

// DirtTextureName returns the secondary texture name for dirt number d.
func DirtTextureName(d uint16) string {
	return fmt.Sprintf("dirty%02d.png", d)
}

// DecodeMod parses MOD data and appends its triangles to model.
// Materials are interned so identical looks share one instance.
func DecodeMod(data []byte, model *geometry.Model, opts ModOptions) error {
	if len(data) < modHeaderSize {
		return fmt.Errorf("%w: header needs %d bytes, got %d", ErrTruncatedModData, modHeaderSize, len(data))
	}

	r := bytes.NewReader(data)

	var hdr modHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("%w: reading header", ErrTruncatedModData)
	}

	if hdr.VersionMajor != ModVersionMajor || hdr.VersionMinor != ModVersionMinor {
		return fmt.Errorf("%w: %d.%d", ErrUnsupportedModVersion, hdr.VersionMajor, hdr.VersionMinor)
	}

	if hdr.TriangleCount < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTriangleCount, hdr.TriangleCount)
	}

	count := int(hdr.TriangleCount)
	if r.Len() < count*modTriangleSize {
		return fmt.Errorf("%w: %d triangles need %d bytes, got %d",
			ErrTruncatedModData, count, count*modTriangleSize, r.Len())
	}

	interner := geometry.NewMaterialInterner()
	for i := 0; i < count; i++ {
		var raw modTriangle
		if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
			return fmt.Errorf("%w: triangle %d", ErrTruncatedModData, i)
		}

		tri, err := raw.triangle(opts)
		if err != nil {
			return fmt.Errorf("triangle %d: %w", i, err)
		}
		tri.Material = interner.Intern(tri.Material)
		model.AddTriangle(tri)
	}

	return nil
}

// triangle converts a raw record to a triangle with its own material.
func (raw *modTriangle) triangle(opts ModOptions) (geometry.Triangle, error) {
	var tri geometry.Triangle
	for i, v := range raw.Vertices {
		tri.Vertices[i] = geometry.Vertex{
			Position: geometry.Vector3D{X: v.Position[0], Y: v.Position[1], Z: v.Position[2]},
			Normal:   geometry.Vector3D{X: v.Normal[0], Y: v.Normal[1], Z: v.Normal[2]},
			Tex1:     geometry.TexCoord{U: v.Tex1[0], V: v.Tex1[1]},
			Tex2:     geometry.TexCoord{U: v.Tex2[0], V: v.Tex2[1]},
		}
	}

	mat := geometry.NewMaterial()
	mat.Diffuse = raw.Diffuse
	mat.Ambient = raw.Ambient
	mat.Specular = raw.Specular
	mat.State = geometry.State(uint32(raw.State))

	texture, err := opts.Charset.DecodeFixedString(raw.Texture[:])
	if err != nil {
		return tri, fmt.Errorf("texture name: %w", err)
	}
	mat.Texture1 = texture

	if raw.Dirt != 0 {
		mat.Texture2 = DirtTextureName(raw.Dirt)
	}

	tri.Material = mat
	return tri, nil
}

// EncodeMod writes model in MOD format.
func EncodeMod(w io.Writer, model *geometry.Model, opts ModOptions) error {
	bw := bufio.NewWriter(w)

	hdr := modHeader{
		VersionMajor:  ModVersionMajor,
		VersionMinor:  ModVersionMinor,
		TriangleCount: int32(len(model.Triangles)),
	}
	if err := binary.Write(bw, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	fallback := geometry.NewMaterial()
	for i := range model.Triangles {
		raw, err := newModTriangle(&model.Triangles[i], fallback, opts)
		if err != nil {
			return fmt.Errorf("triangle %d: %w", i, err)
		}
		if err := binary.Write(bw, binary.LittleEndian, raw); err != nil {
			return fmt.Errorf("writing triangle %d: %w", i, err)
		}
	}

	return bw.Flush()
}

// newModTriangle builds the raw record for t. Triangles without a material
// are written with fallback.
func newModTriangle(t *geometry.Triangle, fallback *geometry.Material, opts ModOptions) (*modTriangle, error) {
	mat := t.Material
	if mat == nil {
		mat = fallback
	}

	raw := &modTriangle{
		Used:     1,
		Diffuse:  mat.Diffuse,
		Ambient:  mat.Ambient,
		Specular: mat.Specular,
		RangeMin: modRangeMin,
		RangeMax: modRangeMax,
		State:    int32(mat.State),
		Dirt:     opts.Dirt,
	}

	for i, v := range t.Vertices {
		raw.Vertices[i] = modVertex{
			Position: [3]float32{v.Position.X, v.Position.Y, v.Position.Z},
			Normal:   [3]float32{v.Normal.X, v.Normal.Y, v.Normal.Z},
			Tex1:     [2]float32{v.Tex1.U, v.Tex1.V},
			Tex2:     [2]float32{v.Tex2.U, v.Tex2.V},
		}
	}

	texture, err := opts.Charset.EncodeFixedString(mat.Texture1, modTextureSize)
	if err != nil {
		return nil, fmt.Errorf("texture name: %w", err)
	}
	copy(raw.Texture[:], texture)

	return raw, nil
}

// ModCodec reads and writes the binary MOD format.
type ModCodec struct{}

// Description implements Codec.
func (c *ModCodec) Description() string { return "Colobot Old Binary format" }

// Extension implements Codec.
func (c *ModCodec) Extension() string { return "mod" }

// Read implements Codec.
func (c *ModCodec) Read(path string, model *geometry.Model, params Params) error {
	opts, err := ModOptionsFromParams(params)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading mod file: %w", err)
	}

	if err := DecodeMod(data, model, opts); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Write implements Codec. The "version" parameter is accepted and ignored,
// MOD has a single layout.
func (c *ModCodec) Write(path string, model *geometry.Model, params Params) error {
	opts, err := ModOptionsFromParams(params)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating mod file: %w", err)
	}

	if err := EncodeMod(f, model, opts); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
