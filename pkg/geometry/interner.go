package geometry

// MaterialInterner deduplicates materials with ApproxEqual so that
// triangles sharing a look share one *Material. Use one interner per model.
type MaterialInterner struct {
	materials []*Material
}

// NewMaterialInterner returns an empty interner.
func NewMaterialInterner() *MaterialInterner {
	return &MaterialInterner{}
}

// Intern returns the first previously seen material approximately equal to
// candidate, or records candidate and returns it.
func (in *MaterialInterner) Intern(candidate *Material) *Material {
	for _, m := range in.materials {
		if m.ApproxEqual(candidate) {
			return m
		}
	}
	in.materials = append(in.materials, candidate)
	return candidate
}

// Materials returns the interned materials in insertion order.
func (in *MaterialInterner) Materials() []*Material {
	return in.materials
}

// Len returns the number of distinct materials.
func (in *MaterialInterner) Len() int {
	return len(in.materials)
}

// Index returns the position of m in insertion order, or -1.
func (in *MaterialInterner) Index(m *Material) int {
	for i, cur := range in.materials {
		if cur == m {
			return i
		}
	}
	return -1
}
