// Package vector assembles per-pixel curves into a vector document and its
// flat segment export.
package vector

import (
	"fmt"
	"image"

	"github.com/ByLCY/vectorizer/raster"
	"github.com/ByLCY/vectorizer/trace"
)

// Build 按行扫描网格，为每个暗像素查找邻居并生成曲线。
func Build(grid *raster.Grid, opts BuildOptions) (*Document, error) {
	if grid == nil {
		return nil, fmt.Errorf("vector: 网格为空")
	}
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Builder{}
	}

	p := opts.Params
	doc := &Document{Width: grid.Width, Height: grid.Height}
	grid.Scan(p.RedThreshold, func(x, y int) bool {
		neighbors := grid.Neighbors(x, y, p.Radius, p.RedThreshold)
		if len(neighbors) == 0 {
			return true
		}
		pc := tracer.Trace(image.Pt(x, y), neighbors, float64(p.Tolerance))
		c := Curve{X: x, Y: y, D: pc.D(), Segments: pc.Segments}
		if opts.Debug.Neighbors {
			c.Debug = &CurveDebug{Neighbors: neighbors, Simplified: pc.Simplified}
		}
		doc.Curves = append(doc.Curves, c)
		return true
	})
	return doc, nil
}
