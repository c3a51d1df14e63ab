package geometry

// Material describes how a triangle is rendered.
//
// Name is assigned by writers that need one (the OBJ/MTL codec) and is not
// part of the material's identity. Version is informational as well.
type Material struct {
	Texture1 string
	Texture2 string
	Ambient  Color
	Diffuse  Color
	Specular Color
	State    State
	LOD      int
	Version  int
	Name     string
}

// NewMaterial returns a material with the engine's default colors.
func NewMaterial() *Material {
	return &Material{
		Ambient:  Color{0, 0, 0, 0},
		Diffuse:  Color{0.8, 0.8, 0.8, 0},
		Specular: Color{0.5, 0.5, 0.5, 0},
		Version:  2,
	}
}

// Clone returns a copy of m.
func (m *Material) Clone() *Material {
	c := *m
	return &c
}

// ApproxEqual reports whether m and other describe the same material.
// Textures, state and LOD compare exactly; the 12 color channels compare
// within Tolerance.
func (m *Material) ApproxEqual(other *Material) bool {
	if m == other {
		return true
	}
	if m == nil || other == nil {
		return false
	}
	if m.Texture1 != other.Texture1 || m.Texture2 != other.Texture2 {
		return false
	}
	if m.State != other.State || m.LOD != other.LOD {
		return false
	}
	return m.Ambient.ApproxEqual(other.Ambient) &&
		m.Diffuse.ApproxEqual(other.Diffuse) &&
		m.Specular.ApproxEqual(other.Specular)
}
