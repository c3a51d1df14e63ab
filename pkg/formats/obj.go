package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Faultbox/modconv/pkg/geometry"
)

// OBJ format errors.
var (
	ErrUnknownMaterial = errors.New("undefined material")
	ErrFaceIndex       = errors.New("face index out of range")
)

// objReader holds the state of one OBJ parse.
type objReader struct {
	path   string
	line   int
	mirror mirror

	positions []geometry.Vector3D
	texCoords []geometry.TexCoord
	normals   []geometry.Vector3D

	materials map[string]*geometry.Material
	current   *geometry.Material
	model     *geometry.Model
}

func (r *objReader) errorf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%s:%d: %w: %s", r.path, r.line, sentinel, fmt.Sprintf(format, args...))
}

// decodeOBJ parses OBJ data read from path and appends its triangles to
// model. Material libraries are resolved relative to path's directory.
func decodeOBJ(in io.Reader, path string, model *geometry.Model, mr mirror) error {
	r := &objReader{
		path:      path,
		mirror:    mr,
		materials: make(map[string]*geometry.Material),
		model:     model,
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		r.line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if err := r.parseLine(fields); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (r *objReader) parseLine(fields []string) error {
	switch fields[0] {
	case "mtllib":
		if len(fields) < 2 {
			return r.errorf(ErrMalformedLine, "mtllib without file name")
		}
		for _, name := range fields[1:] {
			if !filepath.IsAbs(name) {
				name = filepath.Join(filepath.Dir(r.path), name)
			}
			mats, err := readMTL(name)
			if err != nil {
				return fmt.Errorf("%s:%d: %w", r.path, r.line, err)
			}
			for k, v := range mats {
				r.materials[k] = v
			}
		}
	case "usemtl":
		if len(fields) < 2 {
			return r.errorf(ErrMalformedLine, "usemtl without material name")
		}
		name := strings.Join(fields[1:], " ")
		mat, ok := r.materials[name]
		if !ok {
			return r.errorf(ErrUnknownMaterial, "%q", name)
		}
		r.current = mat
	case "v":
		v, err := parseVector(fields)
		if err != nil {
			return r.errorf(ErrMalformedLine, "v: %v", err)
		}
		r.positions = append(r.positions, r.mirror.position(v))
	case "vn":
		v, err := parseVector(fields)
		if err != nil {
			return r.errorf(ErrMalformedLine, "vn: %v", err)
		}
		r.normals = append(r.normals, r.mirror.normal(v))
	case "vt":
		t, err := parseTexCoord(fields)
		if err != nil {
			return r.errorf(ErrMalformedLine, "vt: %v", err)
		}
		r.texCoords = append(r.texCoords, t)
	case "f":
		return r.parseFace(fields[1:])
	}
	return nil
}

// parseFace triangulates a face and appends it with the current material.
func (r *objReader) parseFace(corners []string) error {
	if len(corners) < 3 {
		return r.errorf(ErrMalformedLine, "face needs at least 3 vertices, got %d", len(corners))
	}

	polygon := make([]geometry.Vertex, 0, len(corners))
	for _, corner := range corners {
		v, err := r.parseCorner(corner)
		if err != nil {
			return err
		}
		polygon = append(polygon, v)
	}

	if r.current == nil {
		r.current = geometry.NewMaterial()
	}
	r.model.AddTriangles(geometry.Triangulate(polygon, r.mirror.flipOrder()), r.current)
	return nil
}

// parseCorner resolves one "v", "v/vt", "v//vn" or "v/vt/vn" reference.
// A missing texture coordinate is (0,0), a missing normal the zero vector.
func (r *objReader) parseCorner(corner string) (geometry.Vertex, error) {
	var v geometry.Vertex
	parts := strings.Split(corner, "/")
	if len(parts) > 3 {
		return v, r.errorf(ErrMalformedLine, "face vertex %q", corner)
	}

	idx, err := r.resolveIndex(parts[0], len(r.positions))
	if err != nil {
		return v, err
	}
	v.Position = r.positions[idx]

	if len(parts) > 1 && parts[1] != "" {
		idx, err := r.resolveIndex(parts[1], len(r.texCoords))
		if err != nil {
			return v, err
		}
		v.Tex1 = r.texCoords[idx]
	}

	if len(parts) > 2 && parts[2] != "" {
		idx, err := r.resolveIndex(parts[2], len(r.normals))
		if err != nil {
			return v, err
		}
		v.Normal = r.normals[idx]
	}

	return v, nil
}

// resolveIndex converts a 1-based or negative (relative) OBJ index into a
// slice index.
func (r *objReader) resolveIndex(s string, count int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, r.errorf(ErrMalformedLine, "index %q is not an integer", s)
	}

	idx := n - 1
	if n < 0 {
		idx = count + n
	}
	if n == 0 || idx < 0 || idx >= count {
		return 0, r.errorf(ErrFaceIndex, "%d of %d", n, count)
	}
	return idx, nil
}

func parseVector(fields []string) (geometry.Vector3D, error) {
	if len(fields) < 4 {
		return geometry.Vector3D{}, fmt.Errorf("expected 3 components, got %d", len(fields)-1)
	}
	var f [3]float32
	for i := range f {
		v, err := parseFloat(fields[i+1])
		if err != nil {
			return geometry.Vector3D{}, fmt.Errorf("%q is not a number", fields[i+1])
		}
		f[i] = v
	}
	return geometry.Vector3D{X: f[0], Y: f[1], Z: f[2]}, nil
}

// parseTexCoord parses "vt u [v [w]]", converting v to the engine's
// top-left origin.
func parseTexCoord(fields []string) (geometry.TexCoord, error) {
	if len(fields) < 2 {
		return geometry.TexCoord{}, fmt.Errorf("expected at least 1 component")
	}
	u, err := parseFloat(fields[1])
	if err != nil {
		return geometry.TexCoord{}, fmt.Errorf("%q is not a number", fields[1])
	}
	var v float32
	if len(fields) > 2 {
		if v, err = parseFloat(fields[2]); err != nil {
			return geometry.TexCoord{}, fmt.Errorf("%q is not a number", fields[2])
		}
	}
	return geometry.TexCoord{U: u, V: 1 - v}, nil
}

// approxEqualer is a value with tolerant equality.
type approxEqualer[T any] interface {
	ApproxEqual(T) bool
}

// indexOf returns the index of the first element of list approximately
// equal to v, appending v when there is none.
func indexOf[T approxEqualer[T]](list []T, v T) ([]T, int) {
	for i, cur := range list {
		if cur.ApproxEqual(v) {
			return list, i
		}
	}
	return append(list, v), len(list)
}

// objCorner holds 0-based position, texture and normal indices.
type objCorner struct {
	v, vt, vn int
}

type objFace struct {
	material *geometry.Material
	corners  [3]objCorner
}

// objScene is a model flattened into deduplicated OBJ arrays.
type objScene struct {
	positions []geometry.Vector3D
	texCoords []geometry.TexCoord
	normals   []geometry.Vector3D
	materials *geometry.MaterialInterner
	faces     []objFace
}

// buildOBJScene deduplicates vertex attributes and materials of model.
// Every distinct material gets its MTL name assigned.
func buildOBJScene(model *geometry.Model) *objScene {
	s := &objScene{materials: geometry.NewMaterialInterner()}

	var fallback *geometry.Material
	for i := range model.Triangles {
		t := &model.Triangles[i]

		mat := t.Material
		if mat == nil {
			if fallback == nil {
				fallback = geometry.NewMaterial()
			}
			mat = fallback
		}

		known := s.materials.Len()
		mat = s.materials.Intern(mat)
		if s.materials.Len() > known {
			mat.Name = materialName(s.materials.Len(), mat)
		}

		face := objFace{material: mat}
		for n, v := range t.Vertices {
			var c objCorner
			s.positions, c.v = indexOf(s.positions, v.Position)
			s.texCoords, c.vt = indexOf(s.texCoords, v.Tex1)
			s.normals, c.vn = indexOf(s.normals, v.Normal)
			face.corners[n] = c
		}
		s.faces = append(s.faces, face)
	}

	return s
}

// encodeOBJ writes the geometry of s, referencing the material library mtlName.
func encodeOBJ(w io.Writer, s *objScene, mtlName string, mr mirror) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "mtllib %s\n", mtlName)

	for _, p := range s.positions {
		p = mr.position(p)
		fmt.Fprintf(bw, "v %s %s %s\n", formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Z))
	}
	for _, t := range s.texCoords {
		fmt.Fprintf(bw, "vt %s %s\n", formatFloat(t.U), formatFloat(1-t.V))
	}
	for _, n := range s.normals {
		n = mr.normal(n)
		fmt.Fprintf(bw, "vn %s %s %s\n", formatFloat(n.X), formatFloat(n.Y), formatFloat(n.Z))
	}

	fmt.Fprintln(bw, "s off")

	order := [3]int{0, 1, 2}
	if mr.flipOrder() {
		order = [3]int{0, 2, 1}
	}

	var last *geometry.Material
	for _, f := range s.faces {
		if f.material != last {
			fmt.Fprintf(bw, "usemtl %s\n", f.material.Name)
			last = f.material
		}

		fmt.Fprint(bw, "f")
		for _, i := range order {
			c := f.corners[i]
			fmt.Fprintf(bw, " %d/%d/%d", c.v+1, c.vt+1, c.vn+1)
		}
		fmt.Fprintln(bw)
	}

	return bw.Flush()
}

// ObjCodec reads and writes Wavefront OBJ files with an MTL library.
type ObjCodec struct{}

// Description implements Codec.
func (c *ObjCodec) Description() string { return "Wavefront .OBJ format" }

// Extension implements Codec.
func (c *ObjCodec) Extension() string { return "obj" }

// Read implements Codec. Parameters flipX, flipY and flipZ mirror the
// corresponding axis.
func (c *ObjCodec) Read(path string, model *geometry.Model, params Params) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening obj file: %w", err)
	}
	defer f.Close()

	return decodeOBJ(f, path, model, newMirror(params))
}

// Write implements Codec. The material library is written first, next to
// path with an .mtl extension. Texture V is written as 1-v, the inverse of
// Read, so exported files follow the OBJ bottom-left origin and read back
// unchanged.
func (c *ObjCodec) Write(path string, model *geometry.Model, params Params) error {
	mr := newMirror(params)
	scene := buildOBJScene(model)
	mtlPath := mtlPathFor(path)

	if err := writeFile(mtlPath, func(w io.Writer) error {
		return encodeMTL(w, scene.materials.Materials())
	}); err != nil {
		return err
	}

	return writeFile(path, func(w io.Writer) error {
		return encodeOBJ(w, scene, filepath.Base(mtlPath), mr)
	})
}

// writeFile creates path and fills it with encode.
func writeFile(path string, encode func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := encode(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
