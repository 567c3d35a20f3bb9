// Package export writes simplified meshes to Wavefront OBJ.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/multierr"

	"github.com/Faultbox/midgard-lod/pkg/simplify"
)

// ErrAttributeCount is returned when a mesh's normals or texture coordinates
// do not match its vertex count.
var ErrAttributeCount = errors.New("attribute count does not match vertex count")

// Named is one OBJ object.
type Named struct {
	Name    string
	Mesh    *simplify.Buffers
	Normals []float32 // optional, xyz per vertex
}

// SaveOBJ writes meshes to a new file at path.
func SaveOBJ(path string, meshes ...Named) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create obj: %w", err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	return WriteOBJ(f, meshes...)
}

// WriteOBJ writes meshes as separate objects. Vertex, texture and normal
// indices run on across objects, as OBJ requires.
func WriteOBJ(w io.Writer, meshes ...Named) error {
	for _, m := range meshes {
		if err := check(m); err != nil {
			return err
		}
	}

	bw := bufio.NewWriter(w)
	ow := objWriter{w: bw}

	ow.line("# midgard-lod")
	var vOff, vtOff, vnOff int
	for _, m := range meshes {
		ow.object(m, vOff, vtOff, vnOff)
		n := m.Mesh.VertexCount()
		vOff += n
		if len(m.Mesh.TexCoords) > 0 {
			vtOff += n
		}
		if len(m.Normals) > 0 {
			vnOff += n
		}
	}

	if ow.err != nil {
		return ow.err
	}
	return bw.Flush()
}

func check(m Named) error {
	if m.Mesh == nil {
		return fmt.Errorf("object %q: no mesh", m.Name)
	}
	n := m.Mesh.VertexCount()
	if len(m.Mesh.TexCoords) != 0 && len(m.Mesh.TexCoords) != 2*n {
		return fmt.Errorf("object %q: %w: %d texcoord floats for %d vertices", m.Name, ErrAttributeCount, len(m.Mesh.TexCoords), n)
	}
	if len(m.Normals) != 0 && len(m.Normals) != 3*n {
		return fmt.Errorf("object %q: %w: %d normal floats for %d vertices", m.Name, ErrAttributeCount, len(m.Normals), n)
	}
	for _, idx := range m.Mesh.Indices {
		if int(idx) >= n {
			return fmt.Errorf("object %q: index %d out of range", m.Name, idx)
		}
	}
	return nil
}

// objWriter keeps the first write error so record emitters stay linear.
type objWriter struct {
	w   *bufio.Writer
	buf []byte
	err error
}

func (o *objWriter) line(s string) {
	if o.err != nil {
		return
	}
	_, o.err = o.w.WriteString(s + "\n")
}

func (o *objWriter) floats(tag string, vals ...float32) {
	if o.err != nil {
		return
	}
	o.buf = append(o.buf[:0], tag...)
	for _, v := range vals {
		o.buf = append(o.buf, ' ')
		o.buf = strconv.AppendFloat(o.buf, float64(v), 'f', -1, 32)
	}
	o.buf = append(o.buf, '\n')
	_, o.err = o.w.Write(o.buf)
}

func (o *objWriter) object(m Named, vOff, vtOff, vnOff int) {
	b := m.Mesh
	if m.Name != "" {
		o.line("o " + m.Name)
	}

	for i := 0; i < b.VertexCount(); i++ {
		o.floats("v", b.Positions[3*i:3*i+3]...)
	}
	hasUV := len(b.TexCoords) > 0
	for i := 0; hasUV && i < b.VertexCount(); i++ {
		o.floats("vt", b.TexCoords[2*i:2*i+2]...)
	}
	hasNormals := len(m.Normals) > 0
	for i := 0; hasNormals && i < b.VertexCount(); i++ {
		o.floats("vn", m.Normals[3*i:3*i+3]...)
	}

	for t := 0; t < b.TriangleCount(); t++ {
		if o.err != nil {
			return
		}
		o.buf = append(o.buf[:0], 'f')
		for k := 0; k < 3; k++ {
			idx := int(b.Indices[3*t+k])
			o.buf = append(o.buf, ' ')
			o.buf = strconv.AppendInt(o.buf, int64(vOff+idx+1), 10)
			switch {
			case hasUV && hasNormals:
				o.buf = append(o.buf, '/')
				o.buf = strconv.AppendInt(o.buf, int64(vtOff+idx+1), 10)
				o.buf = append(o.buf, '/')
				o.buf = strconv.AppendInt(o.buf, int64(vnOff+idx+1), 10)
			case hasUV:
				o.buf = append(o.buf, '/')
				o.buf = strconv.AppendInt(o.buf, int64(vtOff+idx+1), 10)
			case hasNormals:
				o.buf = append(o.buf, '/', '/')
				o.buf = strconv.AppendInt(o.buf, int64(vnOff+idx+1), 10)
			}
		}
		o.buf = append(o.buf, '\n')
		_, o.err = o.w.Write(o.buf)
	}
}
