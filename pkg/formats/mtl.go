package formats

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/Faultbox/modconv/pkg/geometry"
)

// statePattern extracts the state labels of names like "Material_1_[wrap,fog]".
var statePattern = regexp.MustCompile(`^.+(\[(.+?)\])$`)

// readMTL parses the material library at path.
func readMTL(path string) (map[string]*geometry.Material, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening material library: %w", err)
	}
	defer f.Close()

	return decodeMTL(f, path)
}

// decodeMTL parses a material library. Only newmtl, Ka, Kd, Ks and map_Kd
// are used; colors set RGB and keep the default alpha.
func decodeMTL(r io.Reader, name string) (map[string]*geometry.Material, error) {
	materials := make(map[string]*geometry.Material)
	var current *geometry.Material

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		errorf := func(format string, args ...any) error {
			return fmt.Errorf("%s:%d: %w: %s", name, lineNum, ErrMalformedLine, fmt.Sprintf(format, args...))
		}

		if fields[0] != "newmtl" && current == nil {
			switch fields[0] {
			case "Ka", "Kd", "Ks", "map_Kd":
				return nil, errorf("%s before newmtl", fields[0])
			}
			continue
		}

		switch fields[0] {
		case "newmtl":
			if len(fields) < 2 {
				return nil, errorf("newmtl without name")
			}
			matName := strings.Join(fields[1:], " ")
			current = geometry.NewMaterial()
			current.Name = matName

			if match := statePattern.FindStringSubmatch(matName); match != nil {
				state, err := geometry.EncodeState(match[2])
				if err != nil {
					return nil, errorf("material %q: %v", matName, err)
				}
				current.State = state
			}
			materials[matName] = current
		case "Ka", "Kd", "Ks":
			rgb, err := parseRGB(fields)
			if err != nil {
				return nil, errorf("%s: %v", fields[0], err)
			}
			color := map[string]*geometry.Color{
				"Ka": &current.Ambient,
				"Kd": &current.Diffuse,
				"Ks": &current.Specular,
			}[fields[0]]
			copy(color[:3], rgb[:])
		case "map_Kd":
			if len(fields) < 2 {
				return nil, errorf("map_Kd without texture")
			}
			current.Texture1 = fields[len(fields)-1]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return materials, nil
}

func parseRGB(fields []string) ([3]float32, error) {
	var rgb [3]float32
	if len(fields) < 4 {
		return rgb, fmt.Errorf("expected 3 components, got %d", len(fields)-1)
	}
	for i := range rgb {
		v, err := parseFloat(fields[i+1])
		if err != nil {
			return rgb, fmt.Errorf("%q is not a number", fields[i+1])
		}
		rgb[i] = v
	}
	return rgb, nil
}

// materialName returns the MTL name of the n-th (1-based) written material.
func materialName(n int, mat *geometry.Material) string {
	return fmt.Sprintf("Material_%d_[%s]", n, geometry.DecodeState(mat.State))
}

// encodeMTL writes the material library for materials.
func encodeMTL(w io.Writer, materials []*geometry.Material) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "# Materials")
	for _, mat := range materials {
		fmt.Fprintln(bw)
		fmt.Fprintf(bw, "newmtl %s\n", mat.Name)
		if mat.Texture1 != "" {
			fmt.Fprintf(bw, "map_Kd %s\n", mat.Texture1)
		}
		fmt.Fprintln(bw, "Ns 96.078431")
		fmt.Fprintf(bw, "Ka %s\n", formatRGB(mat.Ambient))
		fmt.Fprintf(bw, "Kd %s\n", formatRGB(mat.Diffuse))
		fmt.Fprintf(bw, "Ks %s\n", formatRGB(mat.Specular))
		fmt.Fprintln(bw, "Ni 1.000000")
		fmt.Fprintln(bw, "d 1.000000")
		fmt.Fprintln(bw, "illum 2")
	}

	return bw.Flush()
}

func formatRGB(c geometry.Color) string {
	return formatFloat(c[0]) + " " + formatFloat(c[1]) + " " + formatFloat(c[2])
}

// mtlPathFor returns the material library path that accompanies objPath.
func mtlPathFor(objPath string) string {
	if ext, ok := ExtensionOf(objPath); ok && strings.EqualFold(ext, "obj") {
		return objPath[:len(objPath)-len(ext)] + "mtl"
	}
	return objPath + ".mtl"
}
