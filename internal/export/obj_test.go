package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/midgard-lod/pkg/simplify"
)

func triangle() *simplify.Buffers {
	return &simplify.Buffers{
		Positions: []float32{0, 0, 0, 1.5, 0, 0, 0, 0, 2},
		TexCoords: []float32{0, 0, 1, 0, 0, 1},
		Indices:   []uint32{0, 2, 1},
	}
}

func TestWriteOBJ(t *testing.T) {
	var buf bytes.Buffer
	err := WriteOBJ(&buf,
		Named{Name: "chunk_0_0", Mesh: triangle(), Normals: []float32{0, 1, 0, 0, 1, 0, 0, 1, 0}},
		Named{Name: "chunk_1_0", Mesh: triangle(), Normals: []float32{0, 1, 0, 0, 1, 0, 0, 1, 0}},
	)
	if err != nil {
		t.Fatalf("WriteOBJ() error = %v", err)
	}

	out := buf.String()
	want := []string{
		"o chunk_0_0",
		"v 1.5 0 0",
		"vt 0 1",
		"vn 0 1 0",
		"f 1/1/1 3/3/3 2/2/2",
		"o chunk_1_0",
		// Second object continues the numbering.
		"f 4/4/4 6/6/6 5/5/5",
	}
	for _, w := range want {
		if !strings.Contains(out, w+"\n") {
			t.Errorf("expected line %q in output:\n%s", w, out)
		}
	}

	counts := map[string]int{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		counts[strings.Fields(line)[0]]++
	}
	if counts["v"] != 6 || counts["vt"] != 6 || counts["vn"] != 6 || counts["f"] != 2 || counts["o"] != 2 {
		t.Errorf("unexpected record counts: %v", counts)
	}
}

func TestWriteOBJFaceFormats(t *testing.T) {
	noUV := triangle()
	noUV.TexCoords = nil

	tests := []struct {
		name string
		mesh Named
		face string
	}{
		{"positions only", Named{Mesh: noUV}, "f 1 3 2"},
		{"texcoords", Named{Mesh: triangle()}, "f 1/1 3/3 2/2"},
		{"normals", Named{Mesh: noUV, Normals: make([]float32, 9)}, "f 1//1 3//3 2//2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteOBJ(&buf, tt.mesh); err != nil {
				t.Fatalf("WriteOBJ() error = %v", err)
			}
			if !strings.Contains(buf.String(), tt.face+"\n") {
				t.Errorf("expected face %q, got:\n%s", tt.face, buf.String())
			}
			if strings.Contains(buf.String(), "o ") {
				t.Error("unnamed mesh should not start an object")
			}
		})
	}
}

func TestWriteOBJRejectsMismatchedAttributes(t *testing.T) {
	tests := []struct {
		name string
		mesh Named
	}{
		{"short normals", Named{Name: "a", Mesh: triangle(), Normals: []float32{0, 1, 0}}},
		{"short texcoords", Named{Name: "b", Mesh: &simplify.Buffers{Positions: make([]float32, 9), TexCoords: []float32{0, 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := WriteOBJ(&buf, tt.mesh)
			if !errors.Is(err, ErrAttributeCount) {
				t.Errorf("WriteOBJ() error = %v, want %v", err, ErrAttributeCount)
			}
			if buf.Len() != 0 {
				t.Error("expected nothing written on validation failure")
			}
		})
	}

	bad := triangle()
	bad.Indices = []uint32{0, 1, 7}
	if err := WriteOBJ(&bytes.Buffer{}, Named{Mesh: bad}); err == nil {
		t.Error("expected out-of-range index to be rejected")
	}
	if err := WriteOBJ(&bytes.Buffer{}, Named{Name: "empty"}); err == nil {
		t.Error("expected missing mesh to be rejected")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteOBJPropagatesWriteErrors(t *testing.T) {
	big := &simplify.Buffers{Positions: make([]float32, 3*10000)}
	if err := WriteOBJ(failingWriter{}, Named{Mesh: big}); err == nil {
		t.Error("expected write error to be returned")
	}
}

func TestSaveOBJ(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terrain.obj")
	if err := SaveOBJ(path, Named{Name: "tri", Mesh: triangle()}); err != nil {
		t.Fatalf("SaveOBJ() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(data), "# midgard-lod\no tri\n") {
		t.Errorf("unexpected file start: %q", string(data[:min(len(data), 40)]))
	}

	if err := SaveOBJ(filepath.Join(t.TempDir(), "missing", "x.obj"), Named{Mesh: triangle()}); err == nil {
		t.Error("expected error creating file in missing directory")
	}
}
