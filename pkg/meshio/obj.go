package meshio

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// ReadOBJ decodes the geometry of a Wavefront OBJ stream.
//
// Only "v" and "f" records are used. Polygons are fan-triangulated, and face
// tokens of the form v/vt/vn contribute their vertex index only. Negative
// indices count back from the most recent vertex.
func ReadOBJ(r io.Reader) ([]*model3d.Triangle, error) {
	var verts []model3d.Coord3D
	var tris []*model3d.Triangle

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, errors.Errorf("line %d: vertex needs 3 coordinates", lineNum)
			}
			var xyz [3]float64
			for i := range xyz {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, errors.Wrapf(err, "line %d", lineNum)
				}
				xyz[i] = f
			}
			verts = append(verts, model3d.XYZ(xyz[0], xyz[1], xyz[2]))
		case "f":
			if len(fields) < 4 {
				return nil, errors.Errorf("line %d: face needs at least 3 vertices", lineNum)
			}
			idx := make([]int, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				i, err := objIndex(tok, len(verts))
				if err != nil {
					return nil, errors.Wrapf(err, "line %d", lineNum)
				}
				idx = append(idx, i)
			}
			for i := 1; i+1 < len(idx); i++ {
				tris = append(tris, &model3d.Triangle{verts[idx[0]], verts[idx[i]], verts[idx[i+1]]})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return tris, nil
}

func objIndex(tok string, numVerts int) (int, error) {
	if slash := strings.IndexByte(tok, '/'); slash >= 0 {
		tok = tok[:slash]
	}
	i, err := strconv.Atoi(tok)
	if err != nil {
		return 0, errors.Wrap(err, "face index")
	}
	if i < 0 {
		i = numVerts + i
	} else {
		i--
	}
	if i < 0 || i >= numVerts {
		return 0, errors.Errorf("face index %s out of range", tok)
	}
	return i, nil
}
