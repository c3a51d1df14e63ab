package geometry

// Vertex is a single triangle corner.
type Vertex struct {
	Position Vector3D
	Normal   Vector3D
	Tex1     TexCoord // Primary texture coordinate
	Tex2     TexCoord // Secondary (dirt) texture coordinate
}

// ApproxEqual reports whether all attributes of v are within Tolerance of other.
func (v Vertex) ApproxEqual(other Vertex) bool {
	return v.Position.ApproxEqual(other.Position) &&
		v.Normal.ApproxEqual(other.Normal) &&
		v.Tex1.ApproxEqual(other.Tex1) &&
		v.Tex2.ApproxEqual(other.Tex2)
}

// Triangle is a face with exactly three vertices and a shared material.
type Triangle struct {
	Vertices [3]Vertex
	Material *Material
}

// Model is an ordered list of triangles.
type Model struct {
	Triangles []Triangle
	Version   int
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{}
}

// AddTriangle appends t to the model.
func (m *Model) AddTriangle(t Triangle) {
	m.Triangles = append(m.Triangles, t)
}

// AddTriangles appends ts to the model, assigning mat to each of them.
func (m *Model) AddTriangles(ts []Triangle, mat *Material) {
	for _, t := range ts {
		t.Material = mat
		m.Triangles = append(m.Triangles, t)
	}
}

// Materials returns the distinct material instances in first-use order.
// Triangles without a material are skipped.
func (m *Model) Materials() []*Material {
	seen := make(map[*Material]bool)
	var mats []*Material
	for i := range m.Triangles {
		mat := m.Triangles[i].Material
		if mat == nil || seen[mat] {
			continue
		}
		seen[mat] = true
		mats = append(mats, mat)
	}
	return mats
}
