package trace

import (
	"math"

	"honnef.co/go/curve"
)

// Simplify reduces a polyline with the Ramer–Douglas–Peucker algorithm.
//
// Points whose perpendicular distance to the chord between the current first
// and last point exceeds tolerance are kept and split the range in two; all
// others are dropped. On ties the first maximal point wins. Inputs with fewer
// than three points are returned as a copy. A negative tolerance behaves like 0.
//
// The recursion is unrolled onto an explicit stack so near-collinear inputs
// with many points cannot exhaust the goroutine stack.
func Simplify(points []curve.Point, tolerance float64) []curve.Point {
	if len(points) < 3 {
		return append([]curve.Point(nil), points...)
	}
	if tolerance < 0 || math.IsNaN(tolerance) {
		tolerance = 0
	}

	keep := make([]bool, len(points))
	keep[0], keep[len(points)-1] = true, true

	type span struct{ first, last int }
	stack := []span{{0, len(points) - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.last-s.first < 2 {
			continue
		}
		k, dmax := farthest(points[s.first:s.last+1])
		if dmax <= tolerance {
			continue
		}
		k += s.first
		keep[k] = true
		// 先压右半段，保证左半段先处理；结果只取决于 keep，与顺序无关。
		stack = append(stack, span{k, s.last}, span{s.first, k})
	}

	out := make([]curve.Point, 0, len(points))
	for i, p := range points {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

// farthest 返回距离弦最远的点的下标（取第一个最大值）及其距离。
func farthest(points []curve.Point) (int, float64) {
	a, b := points[0], points[len(points)-1]
	idx, dmax := 0, 0.0
	for i, p := range points {
		if d := chordDistance(p, a, b); d > dmax {
			idx, dmax = i, d
		}
	}
	return idx, dmax
}

// chordDistance 计算 p 到直线 ab 的垂直距离；a、b 重合时退化为到 a 的距离。
func chordDistance(p, a, b curve.Point) float64 {
	chord := b.Sub(a)
	length := chord.Hypot()
	if length == 0 {
		return p.Sub(a).Hypot()
	}
	return math.Abs(chord.Cross(p.Sub(a))) / length
}
