package trace

import (
	"image"
	"strings"
	"testing"

	"honnef.co/go/curve"
)

func TestBuildCurveSelfNeighbor(t *testing.T) {
	pc := BuildCurve(image.Pt(0, 0), []image.Point{{0, 0}}, 5)
	if got, want := pc.D(), "M0,0 Q0,0 0,0"; got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}
	diff(t, []Segment{{0, 0, 0, 0}}, pc.Segments)
	if pc.Origin != image.Pt(0, 0) {
		t.Fatalf("origin = %v", pc.Origin)
	}
}

func TestBuildCurveCollinearFanCollapses(t *testing.T) {
	pc := BuildCurve(image.Pt(0, 0), []image.Point{{0, 0}, {1, 0}}, 5)
	if got, want := pc.D(), "M0,0 Q1,0 1,0"; got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}
	diff(t, []Segment{{0, 0, 1, 0}}, pc.Segments)
	if !pc.Simplified {
		t.Fatalf("expected simplified curve")
	}
}

func TestBuildCurvePairsSimplifiedPoints(t *testing.T) {
	// 折线: (0.5,0.5) (0,0) (1.5,0.5) (2,0)，容差 0 时全部保留
	pc := BuildCurve(image.Pt(1, 1), []image.Point{{0, 0}, {2, 0}}, 0)
	if got, want := pc.D(), "M0.5,0.5 Q0,0 1.5,0.5 Q2,0 2,0"; got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}
	diff(t, []Segment{
		{0.5, 0.5, 0, 0},
		{0, 0, 1.5, 0.5},
		{1.5, 0.5, 2, 0},
	}, pc.Segments)
}

func TestBuildCurveWithoutNeighborsFallsBack(t *testing.T) {
	pc := BuildCurve(image.Pt(3, 4), nil, 5)
	if pc.Simplified {
		t.Fatalf("empty fan cannot be simplified")
	}
	if got := pc.D(); got != "M3,4" {
		t.Fatalf("path = %q", got)
	}
	if len(pc.Segments) != 0 {
		t.Fatalf("expected no segments, got %v", pc.Segments)
	}
}

func TestBuildCurveShapeInvariants(t *testing.T) {
	var neighbors []image.Point
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			if (i+j)%2 == 0 {
				neighbors = append(neighbors, image.Pt(i, j))
			}
		}
	}
	for _, tol := range []float64{0, 1, 3, 10} {
		pc := BuildCurve(image.Pt(2, 2), neighbors, tol)
		if len(pc.Path) == 0 || pc.Path[0].Kind != curve.MoveToKind {
			t.Fatalf("tol %g: path must start with MoveTo", tol)
		}
		quads := 0
		for _, el := range pc.Path[1:] {
			if el.Kind != curve.QuadToKind {
				t.Fatalf("tol %g: unexpected element %v", tol, el)
			}
			quads++
		}
		points := len(pc.Segments) + 1
		if want := points / 2; quads != want {
			t.Fatalf("tol %g: %d quads for %d points, want %d", tol, quads, points, want)
		}
		if points > 2*len(neighbors) {
			t.Fatalf("tol %g: simplified polyline longer than input", tol)
		}
		d := pc.D()
		if !strings.HasPrefix(d, "M") || strings.Count(d, "Q") != quads {
			t.Fatalf("tol %g: malformed path data %q", tol, d)
		}
		// 相邻线段首尾相接
		for i := 1; i < len(pc.Segments); i++ {
			prev, cur := pc.Segments[i-1], pc.Segments[i]
			if prev.X2 != cur.X1 || prev.Y2 != cur.Y1 {
				t.Fatalf("tol %g: segments %d and %d are not chained", tol, i-1, i)
			}
		}
	}
}

func TestBuilderTraceDelegates(t *testing.T) {
	neighbors := []image.Point{{0, 0}, {1, 1}}
	a := Builder{}.Trace(image.Pt(0, 0), neighbors, 2)
	b := BuildCurve(image.Pt(0, 0), neighbors, 2)
	if a.D() != b.D() {
		t.Fatalf("Builder.Trace diverges from BuildCurve: %q vs %q", a.D(), b.D())
	}
}
