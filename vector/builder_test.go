package vector

import (
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/ByLCY/vectorizer/raster"
	"github.com/ByLCY/vectorizer/trace"
)

// stubTracer 记录调用顺序，并为每个像素返回一条固定线段，避免依赖真实的曲线构建。
type stubTracer struct {
	calls [][]image.Point
}

func (s *stubTracer) Trace(origin image.Point, neighbors []image.Point, tolerance float64) trace.PixelCurve {
	s.calls = append(s.calls, neighbors)
	pc := trace.PixelCurve{Origin: origin}
	pc.Segments = []trace.Segment{{X1: float64(origin.X), Y1: float64(origin.Y), X2: tolerance, Y2: float64(len(neighbors))}}
	return pc
}

func newGrid(w, h int, dark ...image.Point) *raster.Grid {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	for _, p := range dark {
		img.SetNRGBA(p.X, p.Y, color.NRGBA{A: 255})
	}
	return raster.NewGrid(img)
}

var defaultParams = Params{Radius: 3, Tolerance: 5, RedThreshold: 128}

func TestBuildAllWhiteIsEmpty(t *testing.T) {
	doc, err := Build(newGrid(4, 4), BuildOptions{Params: defaultParams})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !doc.Empty() {
		t.Fatalf("expected empty document, got %d curves", len(doc.Curves))
	}
	if doc.Width != 4 || doc.Height != 4 {
		t.Fatalf("canvas size = %dx%d", doc.Width, doc.Height)
	}
	if len(doc.Table()) != 0 {
		t.Fatalf("expected empty table")
	}
}

func TestBuildSingleDarkPixel(t *testing.T) {
	grid := newGrid(4, 4, image.Pt(0, 0))
	doc, err := Build(grid, BuildOptions{Params: Params{Radius: 1, Tolerance: 5, RedThreshold: 128}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(doc.Curves) != 1 {
		t.Fatalf("expected exactly one curve, got %d", len(doc.Curves))
	}
	c := doc.Curves[0]
	if c.X != 0 || c.Y != 0 {
		t.Fatalf("curve origin = (%d,%d)", c.X, c.Y)
	}
	if c.D != "M0,0 Q0,0 0,0" {
		t.Fatalf("unexpected path data %q", c.D)
	}
	if rows := doc.Table(); len(rows) != 1 {
		t.Fatalf("expected one export row, got %d", len(rows))
	}
}

func TestBuildFollowsScanOrder(t *testing.T) {
	dark := []image.Point{{2, 0}, {0, 1}, {1, 1}, {3, 2}}
	stub := &stubTracer{}
	doc, err := Build(newGrid(4, 3, dark...), BuildOptions{Params: Params{Radius: 1, Tolerance: 2, RedThreshold: 128}, Tracer: stub})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []image.Point{{2, 0}, {0, 1}, {1, 1}, {3, 2}}
	if len(doc.Curves) != len(want) {
		t.Fatalf("expected %d curves, got %d", len(want), len(doc.Curves))
	}
	for i, p := range want {
		if doc.Curves[i].X != p.X || doc.Curves[i].Y != p.Y {
			t.Fatalf("curve %d at (%d,%d), want %v", i, doc.Curves[i].X, doc.Curves[i].Y, p)
		}
	}
	// (1,1) 的邻居：(0,1) (1,1) (2,0)，按列遍历
	got := stub.calls[2]
	wantNeighbors := []image.Point{{0, 1}, {1, 1}, {2, 0}}
	if len(got) != len(wantNeighbors) {
		t.Fatalf("neighbors of (1,1) = %v", got)
	}
	for i := range got {
		if got[i] != wantNeighbors[i] {
			t.Fatalf("neighbors of (1,1) = %v, want %v", got, wantNeighbors)
		}
	}
	table := doc.Table()
	if len(table) != 4 || table[0].X2 != 2 {
		t.Fatalf("tolerance not forwarded to tracer: %+v", table)
	}
}

func TestBuildRejectsInvalidParams(t *testing.T) {
	for _, p := range []Params{
		{Radius: 0, Tolerance: 5, RedThreshold: 128},
		{Radius: 1, Tolerance: -1, RedThreshold: 128},
		{Radius: 1, Tolerance: 1, RedThreshold: 256},
		{Radius: 1, Tolerance: 1, RedThreshold: -1},
	} {
		_, err := Build(newGrid(2, 2), BuildOptions{Params: p})
		var pe *ParamError
		if !errors.As(err, &pe) {
			t.Fatalf("params %+v: expected ParamError, got %v", p, err)
		}
	}
	if _, err := Build(nil, BuildOptions{Params: defaultParams}); err == nil {
		t.Fatalf("expected error for nil grid")
	}
}

func TestBuildThresholdBoundaries(t *testing.T) {
	grid := newGrid(2, 2, image.Pt(1, 1))
	doc, err := Build(grid, BuildOptions{Params: Params{Radius: 1, RedThreshold: 0}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !doc.Empty() {
		t.Fatalf("threshold 0 must select nothing")
	}
	doc, err = Build(grid, BuildOptions{Params: Params{Radius: 1, RedThreshold: 255}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(doc.Curves) != 1 {
		t.Fatalf("threshold 255 should select only the black pixel, got %d", len(doc.Curves))
	}
}

func TestWriteDebugJSON(t *testing.T) {
	grid := newGrid(3, 3, image.Pt(1, 1), image.Pt(2, 2))
	doc, err := Build(grid, BuildOptions{Params: defaultParams, Debug: DebugOptions{Neighbors: true}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := WriteDebugJSON(doc, path); err != nil {
		t.Fatalf("WriteDebugJSON: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var back Document
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back.Curves) != 2 || back.Curves[0].Debug == nil || len(back.Curves[0].Debug.Neighbors) != 2 {
		t.Fatalf("debug info missing: %+v", back.Curves)
	}
}
