package viewer

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-lod/pkg/simplify"
)

// gpuMesh holds the GPU buffers for one snapshot.
type gpuMesh struct {
	vao, vbo, ebo uint32
	indexCount    int32
}

// renderer draws a mesh as lit fill with a wireframe overlay.
type renderer struct {
	program   uint32
	locMVP    int32
	locLight  int32
	locColor  int32
	locWire   int32
	mesh      gpuMesh
	wireframe bool
}

func newRenderer() (*renderer, error) {
	program, err := compileProgram(meshVertexShader, meshFragmentShader)
	if err != nil {
		return nil, err
	}

	r := &renderer{
		program:   program,
		locMVP:    uniform(program, "uMVP"),
		locLight:  uniform(program, "uLightDir"),
		locColor:  uniform(program, "uColor"),
		locWire:   uniform(program, "uWireframe"),
		wireframe: true,
	}

	gl.GenVertexArrays(1, &r.mesh.vao)
	gl.GenBuffers(1, &r.mesh.vbo)
	gl.GenBuffers(1, &r.mesh.ebo)

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.MULTISAMPLE)
	gl.ClearColor(0.12, 0.13, 0.16, 1)
	return r, nil
}

// upload replaces the GPU copy of the mesh. Positions and normals are
// interleaved.
func (r *renderer) upload(buf *simplify.Buffers, normals []float32) {
	n := buf.VertexCount()
	interleaved := make([]float32, 0, 6*n)
	for i := 0; i < n; i++ {
		interleaved = append(interleaved, buf.Positions[3*i:3*i+3]...)
		interleaved = append(interleaved, normals[3*i:3*i+3]...)
	}

	gl.BindVertexArray(r.mesh.vao)

	gl.BindBuffer(gl.ARRAY_BUFFER, r.mesh.vbo)
	if len(interleaved) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(interleaved)*4, gl.Ptr(interleaved), gl.DYNAMIC_DRAW)
	}

	const stride = 6 * 4
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.mesh.ebo)
	if len(buf.Indices) > 0 {
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(buf.Indices)*4, gl.Ptr(buf.Indices), gl.DYNAMIC_DRAW)
	}
	r.mesh.indexCount = int32(len(buf.Indices))

	gl.BindVertexArray(0)
}

func (r *renderer) draw(view, proj mgl32.Mat4, width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	if r.mesh.indexCount == 0 {
		return
	}

	mvp := proj.Mul4(view)
	light := mgl32.Vec3{0.4, 1, 0.3}.Normalize()

	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.locMVP, 1, false, &mvp[0])
	gl.Uniform3f(r.locLight, light[0], light[1], light[2])
	gl.BindVertexArray(r.mesh.vao)

	// Fill, pushed back so the wireframe wins the depth test.
	gl.Enable(gl.POLYGON_OFFSET_FILL)
	gl.PolygonOffset(1, 1)
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	gl.Uniform1i(r.locWire, 0)
	gl.Uniform4f(r.locColor, 0.55, 0.68, 0.45, 1)
	gl.DrawElements(gl.TRIANGLES, r.mesh.indexCount, gl.UNSIGNED_INT, nil)
	gl.Disable(gl.POLYGON_OFFSET_FILL)

	if r.wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		gl.Uniform1i(r.locWire, 1)
		gl.Uniform4f(r.locColor, 0.05, 0.05, 0.05, 1)
		gl.DrawElements(gl.TRIANGLES, r.mesh.indexCount, gl.UNSIGNED_INT, nil)
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}

	gl.BindVertexArray(0)
}

func (r *renderer) destroy() {
	gl.DeleteBuffers(1, &r.mesh.vbo)
	gl.DeleteBuffers(1, &r.mesh.ebo)
	gl.DeleteVertexArrays(1, &r.mesh.vao)
	gl.DeleteProgram(r.program)
}
