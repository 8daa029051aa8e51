// Package trace builds the per-pixel quadratic curve fans and simplifies them.
package trace

import (
	"image"

	"honnef.co/go/curve"
)

// Segment is one exported line segment (x1, y1) → (x2, y2).
type Segment struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// SegmentOf 由两个点构造线段。
func SegmentOf(a, b curve.Point) Segment {
	return Segment{X1: a.X, Y1: a.Y, X2: b.X, Y2: b.Y}
}

// PixelCurve is the emitted geometry for one dark pixel.
type PixelCurve struct {
	Origin   image.Point
	Path     curve.BezPath
	Segments []Segment
	// Simplified 为 false 表示退回到了未简化的原始曲线。
	Simplified bool
}

// D returns the SVG path data, e.g. "M0,0 Q0.5,0 1,0".
func (pc PixelCurve) D() string {
	return pc.Path.SVG(curve.SVGOptions{})
}

// Builder is the default curve builder used by the document assembler.
type Builder struct{}

// Trace implements vector.Tracer.
func (Builder) Trace(origin image.Point, neighbors []image.Point, tolerance float64) PixelCurve {
	return BuildCurve(origin, neighbors, tolerance)
}

// BuildCurve 为 origin 构造指向每个邻居的二次曲线：控制点取两点中点，终点为邻居本身。
// 所有曲线的控制点与终点按邻居顺序拼成一条折线，经 Simplify 简化后重新组装：
// 先 MoveTo 第一个点，之后每两个点组成一条 QuadTo；剩下单独一个点时以自身为控制点。
// 导出线段取简化折线中相邻两点。
func BuildCurve(origin image.Point, neighbors []image.Point, tolerance float64) PixelCurve {
	o := curve.Pt(float64(origin.X), float64(origin.Y))

	raw := PixelCurve{Origin: origin}
	raw.Path.MoveTo(o)
	polyline := make([]curve.Point, 0, 2*len(neighbors))
	for _, n := range neighbors {
		end := curve.Pt(float64(n.X), float64(n.Y))
		ctrl := o.Midpoint(end)
		raw.Path.QuadTo(ctrl, end)
		raw.Segments = append(raw.Segments, SegmentOf(o, end))
		polyline = append(polyline, ctrl, end)
	}
	if len(polyline) < 2 {
		return raw
	}

	simplified := Simplify(polyline, tolerance)
	if len(simplified) < 2 {
		return raw
	}
	return assemble(origin, simplified)
}

func assemble(origin image.Point, pts []curve.Point) PixelCurve {
	pc := PixelCurve{Origin: origin, Simplified: true}
	pc.Path.MoveTo(pts[0])
	i := 1
	for ; i+1 < len(pts); i += 2 {
		pc.Path.QuadTo(pts[i], pts[i+1])
	}
	if i < len(pts) {
		pc.Path.QuadTo(pts[i], pts[i])
	}
	pc.Segments = make([]Segment, 0, len(pts)-1)
	for j := 1; j < len(pts); j++ {
		pc.Segments = append(pc.Segments, SegmentOf(pts[j-1], pts[j]))
	}
	return pc
}
