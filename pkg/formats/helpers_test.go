package formats

import (
	"testing"

	"github.com/Faultbox/modconv/pkg/geometry"
)

// testTriangle builds a triangle whose attributes are derived from seed.
func testTriangle(seed float32, mat *geometry.Material) geometry.Triangle {
	var tri geometry.Triangle
	for i := range tri.Vertices {
		f := seed + float32(i)
		tri.Vertices[i] = geometry.Vertex{
			Position: geometry.Vector3D{X: f, Y: f * 2, Z: -f},
			Normal:   geometry.Vector3D{X: 0, Y: 1, Z: 0},
			Tex1:     geometry.TexCoord{U: f / 10, V: 0.25},
			Tex2:     geometry.TexCoord{U: 0.5, V: f / 20},
		}
	}
	tri.Material = mat
	return tri
}

func lavaMaterial() *geometry.Material {
	mat := geometry.NewMaterial()
	mat.Texture1 = "lava.png"
	mat.Diffuse = geometry.Color{1, 0.5, 0.25, 0}
	mat.Ambient = geometry.Color{0.1, 0.1, 0.1, 0}
	mat.State = geometry.StateWrap | geometry.StateFog
	return mat
}

// assertTrianglesEqual compares geometry and materials of two models within
// tolerance.
func assertTrianglesEqual(t *testing.T, got, want *geometry.Model) {
	t.Helper()

	if len(got.Triangles) != len(want.Triangles) {
		t.Fatalf("got %d triangles, want %d", len(got.Triangles), len(want.Triangles))
	}
	for i := range want.Triangles {
		g, w := got.Triangles[i], want.Triangles[i]
		for n := range w.Vertices {
			if !g.Vertices[n].ApproxEqual(w.Vertices[n]) {
				t.Errorf("triangle %d vertex %d = %+v, want %+v", i, n, g.Vertices[n], w.Vertices[n])
			}
		}
		if !g.Material.ApproxEqual(w.Material) {
			t.Errorf("triangle %d material = %+v, want %+v", i, g.Material, w.Material)
		}
	}
}
