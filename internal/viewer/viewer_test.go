package viewer

import (
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-lod/internal/terrain"
	"github.com/Faultbox/midgard-lod/pkg/simplify"
)

func vecNear(a, b mgl32.Vec3, tol float32) bool {
	return a.Sub(b).Len() <= tol
}

func TestOrbitCameraPosition(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = mgl32.Vec3{10, 0, 10}
	c.Distance = 100

	tests := []struct {
		name       string
		pitch, yaw float32
		want       mgl32.Vec3
	}{
		{"level behind", 0, 0, mgl32.Vec3{10, 0, 110}},
		{"level side", 0, math.Pi / 2, mgl32.Vec3{110, 0, 10}},
		{"overhead", math.Pi / 2, 0, mgl32.Vec3{10, 100, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.Pitch, c.Yaw = tt.pitch, tt.yaw
			if got := c.Position(); !vecNear(got, tt.want, 1e-3) {
				t.Errorf("Position() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrbitCameraViewMatrix(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = mgl32.Vec3{5, 5, 5}
	c.Distance = 50

	// The orbit center sits straight ahead of the eye.
	p := c.ViewMatrix().Mul4x1(c.Center.Vec4(1)).Vec3()
	if !vecNear(p, mgl32.Vec3{0, 0, -50}, 1e-3) {
		t.Errorf("center in view space = %v, want (0, 0, -50)", p)
	}
}

func TestOrbitCameraClamps(t *testing.T) {
	c := NewOrbitCamera()

	c.HandleDrag(0, 1e6)
	if c.Pitch != c.MaxPitch {
		t.Errorf("expected pitch clamped to %v, got %v", c.MaxPitch, c.Pitch)
	}
	c.HandleDrag(0, -1e6)
	if c.Pitch != c.MinPitch {
		t.Errorf("expected pitch clamped to %v, got %v", c.MinPitch, c.Pitch)
	}

	before := c.Distance
	c.HandleZoom(1)
	if c.Distance >= before {
		t.Errorf("expected zoom in to shrink distance, got %v from %v", c.Distance, before)
	}
	c.HandleZoom(-1e9)
	if c.Distance != c.MaxDistance {
		t.Errorf("expected distance clamped to %v, got %v", c.MaxDistance, c.Distance)
	}
}

func TestOrbitCameraFitToBounds(t *testing.T) {
	c := NewOrbitCamera()
	b := terrain.Bounds{Min: [3]float32{0, 0, 0}, Max: [3]float32{400, 20, 300}}
	c.FitToBounds(b)

	if !vecNear(c.Center, mgl32.Vec3{200, 10, 150}, 1e-3) {
		t.Errorf("expected center at bounds center, got %v", c.Center)
	}
	radius := b.Size().Len() / 2
	if c.Distance < radius {
		t.Errorf("expected distance of at least %v to see the bounds, got %v", radius, c.Distance)
	}
}

func TestProjectionMatrixAspect(t *testing.T) {
	c := NewOrbitCamera()
	wide := c.ProjectionMatrix(1600, 800)
	square := c.ProjectionMatrix(800, 800)
	if math.Abs(float64(square[0]/wide[0]-2)) > 1e-4 {
		t.Errorf("expected 2:1 aspect to halve the x scale, got %v vs %v", wide[0], square[0])
	}
	// Zero height must not divide by zero.
	if m := c.ProjectionMatrix(100, 0); math.IsNaN(float64(m[0])) {
		t.Error("projection with zero height is NaN")
	}
}

func flatSession(t *testing.T, target, steps int) *Session {
	t.Helper()
	hm := &terrain.Heightmap{Width: 9, Height: 9, Samples: make([]float32, 81)}
	buf := terrain.BuildGrid(hm, terrain.Region{Cols: 8, Rows: 8}, terrain.Params{TileSize: 10, HeightScale: 1})
	m, err := simplify.New(*buf, simplify.DefaultOptions())
	if err != nil {
		t.Fatalf("simplify.New() error = %v", err)
	}
	return NewSession(m, target, steps)
}

func TestSessionAdvance(t *testing.T) {
	s := flatSession(t, 10, 5)

	buf, normals, changed := s.Frame()
	if !changed {
		t.Error("expected the first frame to be marked changed")
	}
	if buf.TriangleCount() != 128 || len(normals) != 3*buf.VertexCount() {
		t.Errorf("expected full grid with normals, got %d triangles and %d normal floats", buf.TriangleCount(), len(normals))
	}
	if _, _, changed := s.Frame(); changed {
		t.Error("expected frame to be unchanged on second read")
	}

	if n := s.Advance(); n != 5 {
		t.Errorf("Advance() = %d, want 5", n)
	}
	buf, _, changed = s.Frame()
	if !changed {
		t.Error("expected frame to change after Advance")
	}
	if buf.TriangleCount() >= 128 {
		t.Errorf("expected fewer triangles after Advance, got %d", buf.TriangleCount())
	}
	if s.Done() {
		t.Error("session reported done after a full batch")
	}
	if !strings.Contains(s.Status(), "/128 triangles") {
		t.Errorf("unexpected status %q", s.Status())
	}
}

func TestSessionFinish(t *testing.T) {
	s := flatSession(t, 10, 5)

	if n := s.Finish(); n == 0 {
		t.Error("expected Finish to contract edges")
	}
	if !s.Done() {
		t.Error("expected session to be done after Finish")
	}
	buf, _, _ := s.Frame()
	if buf.TriangleCount() != 2 {
		t.Errorf("expected flat grid to end at 2 triangles, got %d", buf.TriangleCount())
	}
	if n := s.Advance(); n != 0 {
		t.Errorf("Advance() after Finish = %d, want 0", n)
	}

	// Bounds stay those of the starting mesh.
	if b := s.Bounds(); b.Max != [3]float32{80, 0, 80} {
		t.Errorf("Bounds() = %+v", b)
	}
}
