package vtk

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
)

var xmlTypes = map[string]string{
	"string": "String",
	"int":    "Int32",
	"long":   "Int64",
	"float":  "Float32",
	"double": "Float64",
}

// WriteXML writes g as an ASCII VTK XML unstructured grid (.vtu).
func WriteXML(w io.Writer, g *UnstructuredGrid) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(xml.Header)
	bw.WriteString(`<VTKFile type="UnstructuredGrid" version="1.0" byte_order="LittleEndian" header_type="UInt64">` + "\n")
	bw.WriteString("  <UnstructuredGrid>\n")

	if len(g.FieldData) > 0 {
		bw.WriteString("    <FieldData>\n")
		for _, k := range sortedKeys(g.FieldData) {
			typ, val, err := fieldValue(g.FieldData[k])
			if err != nil {
				return fmt.Errorf("field %q: %w", k, err)
			}
			if typ == "string" {
				// ASCII string arrays are stored as NUL-terminated bytes.
				var sb bytes.Buffer
				for _, b := range []byte(val) {
					sb.WriteString(strconv.Itoa(int(b)))
					sb.WriteByte(' ')
				}
				sb.WriteByte('0')
				val = sb.String()
			}
			fmt.Fprintf(bw, `      <DataArray type="%s" Name="%s" NumberOfTuples="1" format="ascii">%s</DataArray>`+"\n",
				xmlTypes[typ], escape(k), val)
		}
		bw.WriteString("    </FieldData>\n")
	}

	fmt.Fprintf(bw, `    <Piece NumberOfPoints="%d" NumberOfCells="%d">`+"\n", len(g.Points), len(g.Cells))

	bw.WriteString("      <Points>\n")
	bw.WriteString(`        <DataArray type="Float64" NumberOfComponents="3" format="ascii">` + "\n")
	for _, p := range g.Points {
		fmt.Fprintf(bw, "          %s %s %s\n", ftos(p[0]), ftos(p[1]), ftos(p[2]))
	}
	bw.WriteString("        </DataArray>\n")
	bw.WriteString("      </Points>\n")

	bw.WriteString("      <Cells>\n")
	bw.WriteString(`        <DataArray type="Int64" Name="connectivity" format="ascii">` + "\n")
	for _, c := range g.Cells {
		bw.WriteString("          ")
		for i, p := range c.Points {
			if i > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.Itoa(p))
		}
		bw.WriteByte('\n')
	}
	bw.WriteString("        </DataArray>\n")
	bw.WriteString(`        <DataArray type="Int64" Name="offsets" format="ascii">` + "\n")
	offset := 0
	for _, c := range g.Cells {
		offset += len(c.Points)
		fmt.Fprintf(bw, "          %d\n", offset)
	}
	bw.WriteString("        </DataArray>\n")
	bw.WriteString(`        <DataArray type="UInt8" Name="types" format="ascii">` + "\n")
	for _, c := range g.Cells {
		fmt.Fprintf(bw, "          %d\n", c.Type)
	}
	bw.WriteString("        </DataArray>\n")
	bw.WriteString("      </Cells>\n")

	if len(g.CubeIndex) == len(g.Cells) && len(g.Cells) > 0 {
		bw.WriteString(`      <CellData Scalars="cube_index">` + "\n")
		bw.WriteString(`        <DataArray type="Int64" Name="cube_index" format="ascii">` + "\n")
		for _, c := range g.CubeIndex {
			fmt.Fprintf(bw, "          %d\n", c)
		}
		bw.WriteString("        </DataArray>\n")
		bw.WriteString("      </CellData>\n")
	}

	bw.WriteString("    </Piece>\n")
	bw.WriteString("  </UnstructuredGrid>\n")
	bw.WriteString("</VTKFile>\n")
	return bw.Flush()
}

func escape(s string) string {
	var b bytes.Buffer
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
