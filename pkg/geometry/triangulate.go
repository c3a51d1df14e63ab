package geometry

// Triangulate fan-triangulates a polygon around its first vertex.
//
// A polygon of n vertices yields n-2 triangles (v0, v[i-1], v[i]). When flip
// is true the second and third vertex of every triangle are swapped, which
// reverses the winding after an odd number of mirrored axes. No convexity
// check is made. Polygons with fewer than 3 vertices yield nothing. The
// returned triangles have no material.
func Triangulate(polygon []Vertex, flip bool) []Triangle {
	if len(polygon) < 3 {
		return nil
	}

	result := make([]Triangle, 0, len(polygon)-2)
	anchor := polygon[0]
	for i := 2; i < len(polygon); i++ {
		second, third := polygon[i-1], polygon[i]
		if flip {
			second, third = third, second
		}
		result = append(result, Triangle{Vertices: [3]Vertex{anchor, second, third}})
	}
	return result
}
