package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/modconv/pkg/geometry"
)

// Text format errors.
var (
	ErrMalformedLine          = errors.New("malformed line")
	ErrUnsupportedTextVersion = errors.New("unsupported text model version")
)

// Text format versions. Version 1 carries a lod_level line per triangle.
const (
	TextVersion1 = 1
	TextVersion2 = 2
)

// TextOptions controls text model encoding.
type TextOptions struct {
	Version int
	// Dirt replaces every tex2 name and marks it variable when HasDirt is set.
	Dirt    string
	HasDirt bool
}

// TextOptionsFromParams reads the "version" and "dirt" parameters.
func TextOptionsFromParams(params Params) (TextOptions, error) {
	version, err := params.Int("version", TextVersion2)
	if err != nil {
		return TextOptions{}, err
	}
	if version != TextVersion1 && version != TextVersion2 {
		return TextOptions{}, fmt.Errorf("%w: %d", ErrUnsupportedTextVersion, version)
	}

	opts := TextOptions{Version: version}
	if params.Has("dirt") {
		opts.Dirt = params["dirt"]
		opts.HasDirt = true
	}
	return opts, nil
}

// textReader holds the state of one text model parse.
type textReader struct {
	name     string
	line     int
	model    *geometry.Model
	interner *geometry.MaterialInterner
	tri      geometry.Triangle
	mat      *geometry.Material
}

// DecodeText parses a text model and appends its triangles to model.
// name is used in error messages.
func DecodeText(r io.Reader, name string, model *geometry.Model) error {
	tr := &textReader{
		name:     name,
		model:    model,
		interner: geometry.NewMaterialInterner(),
		mat:      geometry.NewMaterial(),
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		tr.line++
		if err := tr.parseLine(strings.TrimSuffix(scanner.Text(), "\r")); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (tr *textReader) errorf(format string, args ...any) error {
	return fmt.Errorf("%s:%d: %w: %s", tr.name, tr.line, ErrMalformedLine, fmt.Sprintf(format, args...))
}

func (tr *textReader) parseLine(line string) error {
	if strings.HasPrefix(line, "#") {
		return nil
	}

	cmd, rest, _ := strings.Cut(line, " ")
	switch cmd {
	case "version":
		v, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return tr.errorf("version %q", rest)
		}
		tr.model.Version = v
	case "p1", "p2", "p3":
		v, err := parseTextVertex(strings.Fields(line))
		if err != nil {
			return tr.errorf("%s: %v", cmd, err)
		}
		tr.tri.Vertices[cmd[1]-'1'] = v
	case "mat":
		if err := parseTextColors(strings.Fields(line), tr.mat); err != nil {
			return tr.errorf("mat: %v", err)
		}
	case "tex1":
		tr.mat.Texture1 = strings.TrimSpace(rest)
	case "tex2":
		tr.mat.Texture2 = strings.TrimSpace(rest)
	case "lod_level":
		v, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return tr.errorf("lod_level %q", rest)
		}
		tr.mat.LOD = v
	case "state":
		v, err := strconv.ParseUint(strings.TrimSpace(rest), 10, 32)
		if err != nil {
			return tr.errorf("state %q", rest)
		}
		tr.mat.State = geometry.State(v)
		tr.finishTriangle()
	}
	// "triangles", "var_tex2", "total_triangles" and blank lines carry
	// nothing the model keeps.
	return nil
}

// finishTriangle stores the accumulated triangle and starts a new one.
func (tr *textReader) finishTriangle() {
	tr.tri.Material = tr.interner.Intern(tr.mat)
	tr.model.AddTriangle(tr.tri)
	tr.tri = geometry.Triangle{}
	tr.mat = geometry.NewMaterial()
}

// parseTextVertex parses "pN c x y z n nx ny nz t1 u v t2 u v".
func parseTextVertex(fields []string) (geometry.Vertex, error) {
	var v geometry.Vertex
	if len(fields) != 15 {
		return v, fmt.Errorf("expected 15 fields, got %d", len(fields))
	}
	if fields[1] != "c" || fields[5] != "n" || fields[9] != "t1" || fields[12] != "t2" {
		return v, fmt.Errorf("unexpected field tags %q %q %q %q", fields[1], fields[5], fields[9], fields[12])
	}

	var f [10]float32
	for i, idx := range [10]int{2, 3, 4, 6, 7, 8, 10, 11, 13, 14} {
		val, err := parseFloat(fields[idx])
		if err != nil {
			return v, fmt.Errorf("field %d: %q is not a number", idx, fields[idx])
		}
		f[i] = val
	}

	v.Position = geometry.Vector3D{X: f[0], Y: f[1], Z: f[2]}
	v.Normal = geometry.Vector3D{X: f[3], Y: f[4], Z: f[5]}
	v.Tex1 = geometry.TexCoord{U: f[6], V: f[7]}
	v.Tex2 = geometry.TexCoord{U: f[8], V: f[9]}
	return v, nil
}

// parseTextColors parses "mat dif r g b a amb r g b a spc r g b a" into mat.
func parseTextColors(fields []string, mat *geometry.Material) error {
	if len(fields) != 16 {
		return fmt.Errorf("expected 16 fields, got %d", len(fields))
	}
	if fields[1] != "dif" || fields[6] != "amb" || fields[11] != "spc" {
		return fmt.Errorf("unexpected field tags %q %q %q", fields[1], fields[6], fields[11])
	}

	colors := []*geometry.Color{&mat.Diffuse, &mat.Ambient, &mat.Specular}
	for c, color := range colors {
		for i := 0; i < 4; i++ {
			idx := 2 + c*5 + i
			val, err := parseFloat(fields[idx])
			if err != nil {
				return fmt.Errorf("field %d: %q is not a number", idx, fields[idx])
			}
			color[i] = val
		}
	}
	return nil
}

// EncodeText writes model in text format.
func EncodeText(w io.Writer, model *geometry.Model, opts TextOptions) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "# Colobot text model")
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "### HEAD")
	fmt.Fprintf(bw, "version %d\n", opts.Version)
	fmt.Fprintf(bw, "total_triangles %d\n", len(model.Triangles))
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "### TRIANGLES")

	fallback := geometry.NewMaterial()
	for i := range model.Triangles {
		t := &model.Triangles[i]
		for n, v := range t.Vertices {
			fmt.Fprintf(bw, "p%d c %s %s %s n %s %s %s t1 %s %s t2 %s %s\n", n+1,
				formatFloat(v.Position.X), formatFloat(v.Position.Y), formatFloat(v.Position.Z),
				formatFloat(v.Normal.X), formatFloat(v.Normal.Y), formatFloat(v.Normal.Z),
				formatFloat(v.Tex1.U), formatFloat(v.Tex1.V),
				formatFloat(v.Tex2.U), formatFloat(v.Tex2.V))
		}

		mat := t.Material
		if mat == nil {
			mat = fallback
		}

		fmt.Fprintf(bw, "mat dif %s amb %s spc %s\n",
			formatColor(mat.Diffuse), formatColor(mat.Ambient), formatColor(mat.Specular))

		// The material's own secondary texture is kept when no dirt
		// texture replaces it, rather than writing an empty tex2.
		tex2, variable := mat.Texture2, "N"
		if opts.HasDirt {
			tex2, variable = opts.Dirt, "Y"
		}
		fmt.Fprintf(bw, "tex1 %s\n", mat.Texture1)
		fmt.Fprintf(bw, "tex2 %s\n", tex2)
		fmt.Fprintf(bw, "var_tex2 %s\n", variable)

		if opts.Version == TextVersion1 {
			fmt.Fprintf(bw, "lod_level %d\n", mat.LOD)
		}

		fmt.Fprintf(bw, "state %d\n", uint32(mat.State))
		fmt.Fprintln(bw)
	}

	return bw.Flush()
}

func formatColor(c geometry.Color) string {
	return formatFloat(c[0]) + " " + formatFloat(c[1]) + " " + formatFloat(c[2]) + " " + formatFloat(c[3])
}

// TextCodec reads and writes the line-oriented text format.
type TextCodec struct{}

// Description implements Codec.
func (c *TextCodec) Description() string { return "Colobot New Text format" }

// Extension implements Codec.
func (c *TextCodec) Extension() string { return "txt" }

// Read implements Codec.
func (c *TextCodec) Read(path string, model *geometry.Model, params Params) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening text model: %w", err)
	}
	defer f.Close()

	return DecodeText(f, path, model)
}

// Write implements Codec.
func (c *TextCodec) Write(path string, model *geometry.Model, params Params) error {
	opts, err := TextOptionsFromParams(params)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating text model: %w", err)
	}

	if err := EncodeText(f, model, opts); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
