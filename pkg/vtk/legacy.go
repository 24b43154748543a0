package vtk

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
)

// WriteLegacy writes g as an ASCII VTK legacy unstructured grid.
func WriteLegacy(w io.Writer, g *UnstructuredGrid) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# vtk DataFile Version 3.0")
	fmt.Fprintln(bw, "polycube")
	fmt.Fprintln(bw, "ASCII")
	fmt.Fprintln(bw, "DATASET UNSTRUCTURED_GRID")

	if len(g.FieldData) > 0 {
		keys := sortedKeys(g.FieldData)
		fmt.Fprintf(bw, "FIELD FieldData %d\n", len(keys))
		for _, k := range keys {
			typ, val, err := fieldValue(g.FieldData[k])
			if err != nil {
				return fmt.Errorf("field %q: %w", k, err)
			}
			if typ == "string" {
				val = url.PathEscape(val)
			}
			fmt.Fprintf(bw, "%s 1 1 %s\n%s\n", url.PathEscape(k), typ, val)
		}
	}

	fmt.Fprintf(bw, "POINTS %d double\n", len(g.Points))
	for _, p := range g.Points {
		fmt.Fprintf(bw, "%s %s %s\n", ftos(p[0]), ftos(p[1]), ftos(p[2]))
	}

	size := 0
	for _, c := range g.Cells {
		size += 1 + len(c.Points)
	}
	fmt.Fprintf(bw, "CELLS %d %d\n", len(g.Cells), size)
	for _, c := range g.Cells {
		bw.WriteString(strconv.Itoa(len(c.Points)))
		for _, p := range c.Points {
			bw.WriteByte(' ')
			bw.WriteString(strconv.Itoa(p))
		}
		bw.WriteByte('\n')
	}
	fmt.Fprintf(bw, "CELL_TYPES %d\n", len(g.Cells))
	for _, c := range g.Cells {
		fmt.Fprintln(bw, int(c.Type))
	}

	if len(g.CubeIndex) == len(g.Cells) && len(g.Cells) > 0 {
		fmt.Fprintf(bw, "CELL_DATA %d\n", len(g.Cells))
		fmt.Fprintln(bw, "SCALARS cube_index int 1")
		fmt.Fprintln(bw, "LOOKUP_TABLE default")
		for _, c := range g.CubeIndex {
			fmt.Fprintln(bw, c)
		}
	}
	return bw.Flush()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// fieldValue returns the VTK legacy type name and text of a scalar.
func fieldValue(v any) (typ, text string, err error) {
	switch v := v.(type) {
	case string:
		return "string", v, nil
	case bool:
		if v {
			return "int", "1", nil
		}
		return "int", "0", nil
	case int:
		return "long", strconv.Itoa(v), nil
	case int32:
		return "int", strconv.FormatInt(int64(v), 10), nil
	case int64:
		return "long", strconv.FormatInt(v, 10), nil
	case float32:
		return "float", ftos(float64(v)), nil
	case float64:
		return "double", ftos(v), nil
	default:
		return "", "", fmt.Errorf("unsupported field type %T", v)
	}
}

func ftos(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
