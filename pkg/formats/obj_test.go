package formats

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/modconv/pkg/geometry"
)

// writeTestFiles writes name -> content pairs into a temp dir and returns it.
func writeTestFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	return dir
}

func readOBJ(t *testing.T, path string, params Params) *geometry.Model {
	t.Helper()
	model := geometry.NewModel()
	if err := (&ObjCodec{}).Read(path, model, params); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	return model
}

func vertex(x, y, z, u, v float32) geometry.Vertex {
	return geometry.Vertex{
		Position: geometry.Vector3D{X: x, Y: y, Z: z},
		Normal:   geometry.Vector3D{X: 0, Y: 0, Z: 1},
		Tex1:     geometry.TexCoord{U: u, V: v},
	}
}

const cubeMTL = `# Materials

newmtl Material_1_[wrap,fog]
map_Kd lava.png
Ns 96.078431
Ka 0.1 0.1 0.1
Kd 1 0.5 0.25
Ks 0.5 0.5 0.5
illum 2

newmtl plain
Kd 0 0 1
`

const quadOBJ = `# quad
mtllib cube.mtl
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
usemtl Material_1_[wrap,fog]
f 1/1/1 2/2/1 3/3/1 4/4/1
usemtl plain
f -4//1 -3//1 -2//1
`

func TestObjCodec_Read(t *testing.T) {
	dir := writeTestFiles(t, map[string]string{"cube.mtl": cubeMTL, "quad.obj": quadOBJ})
	model := readOBJ(t, filepath.Join(dir, "quad.obj"), nil)

	if len(model.Triangles) != 3 {
		t.Fatalf("got %d triangles, want 3", len(model.Triangles))
	}

	// Quad is fanned around its first corner.
	want := [][3]geometry.Vertex{
		{vertex(0, 0, 0, 0, 1), vertex(1, 0, 0, 1, 1), vertex(1, 1, 0, 1, 0)},
		{vertex(0, 0, 0, 0, 1), vertex(1, 1, 0, 1, 0), vertex(0, 1, 0, 0, 0)},
	}
	for i, w := range want {
		for n := range w {
			if !model.Triangles[i].Vertices[n].ApproxEqual(w[n]) {
				t.Errorf("triangle %d vertex %d = %+v, want %+v", i, n, model.Triangles[i].Vertices[n], w[n])
			}
		}
	}

	lava := model.Triangles[0].Material
	if lava != model.Triangles[1].Material {
		t.Error("quad triangles should share a material")
	}
	if lava.Texture1 != "lava.png" {
		t.Errorf("texture = %q", lava.Texture1)
	}
	if lava.State != geometry.StateWrap|geometry.StateFog {
		t.Errorf("state = %v, want wrap,fog", lava.State)
	}
	if lava.Diffuse != (geometry.Color{1, 0.5, 0.25, 0}) {
		t.Errorf("diffuse = %v", lava.Diffuse)
	}

	plain := model.Triangles[2].Material
	if plain.State != geometry.StateNormal || plain.Diffuse != (geometry.Color{0, 0, 1, 0}) {
		t.Errorf("plain material = %+v", plain)
	}
	if model.Triangles[2].Vertices[0].Tex1 != (geometry.TexCoord{U: 0, V: 0}) {
		t.Errorf("missing vt should give (0,0), got %v", model.Triangles[2].Vertices[0].Tex1)
	}
}

func TestObjCodec_ReadWithoutMaterials(t *testing.T) {
	dir := writeTestFiles(t, map[string]string{
		"tri.obj": "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\nf 3 2 1\n",
	})
	model := readOBJ(t, filepath.Join(dir, "tri.obj"), nil)

	if len(model.Triangles) != 2 {
		t.Fatalf("got %d triangles, want 2", len(model.Triangles))
	}
	mat := model.Triangles[0].Material
	if mat == nil || mat != model.Triangles[1].Material {
		t.Fatal("faces before usemtl should share a default material")
	}
	if !mat.ApproxEqual(geometry.NewMaterial()) {
		t.Errorf("material = %+v, want defaults", mat)
	}
	if n := model.Triangles[0].Vertices[1].Normal; n != (geometry.Vector3D{}) {
		t.Errorf("missing normal should be zero, got %v", n)
	}
}

func TestObjCodec_ReadErrors(t *testing.T) {
	tests := []struct {
		name string
		obj  string
		want error
	}{
		{"index past end", "v 0 0 0\nv 1 0 0\nf 1 2 3\n", ErrFaceIndex},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", ErrFaceIndex},
		{"negative past start", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf -4 1 2\n", ErrFaceIndex},
		{"normal index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1//1 2//1 3//1\n", ErrFaceIndex},
		{"unknown material", "usemtl missing\n", ErrUnknownMaterial},
		{"short vertex", "v 0 0\n", ErrMalformedLine},
		{"bad texcoord", "vt x\n", ErrMalformedLine},
		{"two-vertex face", "v 0 0 0\nv 1 0 0\nf 1 2\n", ErrMalformedLine},
		{"bad index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 b 3\n", ErrMalformedLine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeTestFiles(t, map[string]string{"bad.obj": tt.obj})
			err := (&ObjCodec{}).Read(filepath.Join(dir, "bad.obj"), geometry.NewModel(), nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestObjCodec_ReadMissingLibrary(t *testing.T) {
	dir := writeTestFiles(t, map[string]string{"a.obj": "mtllib nope.mtl\n"})
	if err := (&ObjCodec{}).Read(filepath.Join(dir, "a.obj"), geometry.NewModel(), nil); err == nil {
		t.Error("expected error for missing material library")
	}
}

func TestObjCodec_ReadMirror(t *testing.T) {
	const obj = "v 1 2 3\nv 4 5 6\nv 7 8 9\nvn 1 1 1\nf 1//1 2//1 3//1\n"
	dir := writeTestFiles(t, map[string]string{"m.obj": obj})
	path := filepath.Join(dir, "m.obj")

	tests := []struct {
		name    string
		params  Params
		sign    geometry.Vector3D
		swapped bool
	}{
		{"none", nil, geometry.Vector3D{X: 1, Y: 1, Z: 1}, false},
		{"x", Params{ParamFlipX: ""}, geometry.Vector3D{X: -1, Y: 1, Z: 1}, true},
		{"z", Params{ParamFlipZ: "1"}, geometry.Vector3D{X: 1, Y: 1, Z: -1}, true},
		{"x and y", Params{ParamFlipX: "", ParamFlipY: ""}, geometry.Vector3D{X: -1, Y: -1, Z: 1}, false},
		{"all", Params{ParamFlipX: "", ParamFlipY: "", ParamFlipZ: ""}, geometry.Vector3D{X: -1, Y: -1, Z: -1}, true},
	}

	source := []geometry.Vector3D{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}, {X: 7, Y: 8, Z: 9}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := readOBJ(t, path, tt.params)
			tri := model.Triangles[0]

			order := []int{0, 1, 2}
			if tt.swapped {
				order = []int{0, 2, 1}
			}
			for n, src := range order {
				p := source[src]
				want := geometry.Vector3D{X: p.X * tt.sign.X, Y: p.Y * tt.sign.Y, Z: p.Z * tt.sign.Z}
				if !tri.Vertices[n].Position.ApproxEqual(want) {
					t.Errorf("vertex %d = %v, want %v", n, tri.Vertices[n].Position, want)
				}
				if !tri.Vertices[n].Normal.ApproxEqual(tt.sign) {
					t.Errorf("normal %d = %v, want %v", n, tri.Vertices[n].Normal, tt.sign)
				}
			}
		})
	}
}

func quadModel(mat *geometry.Material) *geometry.Model {
	model := geometry.NewModel()
	quad := []geometry.Vertex{
		vertex(0, 0, 0, 0, 0.75),
		vertex(1, 0, 0, 1, 0.75),
		vertex(1, 1, 0, 1, 0),
		vertex(0, 1, 0, 0, 0),
	}
	model.AddTriangles(geometry.Triangulate(quad, false), mat)
	return model
}

func TestObjCodec_Write(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quad.obj")

	mat := lavaMaterial()
	model := quadModel(mat)
	other := geometry.NewMaterial()
	other.Diffuse = geometry.Color{0, 1, 0, 0}
	model.AddTriangle(geometry.Triangle{
		Vertices: [3]geometry.Vertex{vertex(0, 0, 0, 0, 0.75), vertex(1, 1, 0, 1, 0), vertex(0, 0, 5, 0, 0)},
		Material: other,
	})

	if err := (&ObjCodec{}).Write(path, model, nil); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	objData, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	obj := string(objData)

	if !strings.HasPrefix(obj, "mtllib quad.mtl\n") {
		t.Errorf("obj does not start with mtllib:\n%s", obj)
	}
	if n := strings.Count(obj, "\nv "); n != 5 {
		t.Errorf("got %d positions, want 5 after dedup", n)
	}
	if n := strings.Count(obj, "\nvn "); n != 1 {
		t.Errorf("got %d normals, want 1 after dedup", n)
	}
	if !strings.Contains(obj, "vt 1 0.25\n") {
		t.Errorf("texture V not flipped:\n%s", obj)
	}
	if n := strings.Count(obj, "usemtl "); n != 2 {
		t.Errorf("got %d usemtl lines, want 2", n)
	}
	for _, want := range []string{
		"s off\nusemtl Material_1_[wrap,fog]\nf 1/1/1 2/2/1 3/3/1\nf 1/1/1 3/3/1 4/4/1\n",
		"usemtl Material_2_[normal]\nf 1/1/1 3/3/1 5/4/1\n",
	} {
		if !strings.Contains(obj, want) {
			t.Errorf("obj missing %q:\n%s", want, obj)
		}
	}

	mtlData, err := os.ReadFile(filepath.Join(dir, "quad.mtl"))
	if err != nil {
		t.Fatalf("material library not written: %v", err)
	}
	mtl := string(mtlData)
	for _, want := range []string{
		"# Materials\n",
		"newmtl Material_1_[wrap,fog]\nmap_Kd lava.png\nNs 96.078431\nKa 0.1 0.1 0.1\nKd 1 0.5 0.25\nKs 0.5 0.5 0.5\nNi 1.000000\nd 1.000000\nillum 2\n",
		"newmtl Material_2_[normal]\nNs 96.078431\n",
	} {
		if !strings.Contains(mtl, want) {
			t.Errorf("mtl missing %q:\n%s", want, mtl)
		}
	}
}

func TestObjCodec_WriteMirrorOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tri.obj")

	model := geometry.NewModel()
	model.AddTriangle(geometry.Triangle{
		Vertices: [3]geometry.Vertex{vertex(1, 2, 3, 0, 1), vertex(4, 5, 6, 0, 1), vertex(7, 8, 9, 0, 1)},
		Material: geometry.NewMaterial(),
	})

	if err := (&ObjCodec{}).Write(path, model, Params{ParamFlipX: ""}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	obj := string(data)

	for _, want := range []string{"v -1 2 3\n", "v -7 8 9\n", "f 1/1/1 3/1/1 2/1/1\n"} {
		if !strings.Contains(obj, want) {
			t.Errorf("obj missing %q:\n%s", want, obj)
		}
	}
}

func TestObjCodec_RoundTrip(t *testing.T) {
	for _, params := range []Params{nil, {ParamFlipZ: ""}, {ParamFlipX: "", ParamFlipY: ""}} {
		path := filepath.Join(t.TempDir(), "quad.obj")
		model := quadModel(lavaMaterial())

		if err := (&ObjCodec{}).Write(path, model, params); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		got := readOBJ(t, path, params)
		assertTrianglesEqual(t, got, model)
	}
}

func TestObjCodec_WriteNilMaterial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bare.obj")
	model := quadModel(nil)

	if err := (&ObjCodec{}).Write(path, model, nil); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got := readOBJ(t, path, nil)
	if got.Triangles[0].Material != got.Triangles[1].Material {
		t.Error("triangles without material should share the default one")
	}
}

func TestDecodeMTL_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"color before newmtl", "Kd 1 1 1\n"},
		{"short color", "newmtl a\nKa 1 1\n"},
		{"bad state label", "newmtl Material_1_[sparkly]\n"},
		{"newmtl without name", "newmtl\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeMTL(strings.NewReader(tt.src), "bad.mtl")
			if !errors.Is(err, ErrMalformedLine) {
				t.Errorf("error = %v, want ErrMalformedLine", err)
			}
		})
	}
}

func TestDecodeMTL_KeepsAlpha(t *testing.T) {
	mats, err := decodeMTL(strings.NewReader("newmtl m\nKs 0.2 0.3 0.4\n"), "a.mtl")
	if err != nil {
		t.Fatalf("decodeMTL failed: %v", err)
	}
	if got := mats["m"].Specular; got != (geometry.Color{0.2, 0.3, 0.4, 0}) {
		t.Errorf("specular = %v", got)
	}
	if mats["m"].Name != "m" {
		t.Errorf("name = %q", mats["m"].Name)
	}
}

func TestMtlPathFor(t *testing.T) {
	tests := map[string]string{
		"model.obj":       "model.mtl",
		"dir/model.OBJ":   "dir/model.mtl",
		"model":           "model.mtl",
		"model.out":       "model.out.mtl",
		"dir.v2/model":    "dir.v2/model.mtl",
		"archive.tar.obj": "archive.tar.mtl",
	}
	for in, want := range tests {
		if got := mtlPathFor(in); got != want {
			t.Errorf("mtlPathFor(%q) = %q, want %q", in, got, want)
		}
	}
}
