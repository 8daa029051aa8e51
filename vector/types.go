package vector

import (
	"fmt"
	"image"

	"github.com/ByLCY/vectorizer/trace"
)

// 该文件定义矢量文档与导出表，供 SVG/CSV 渲染、PDF 预览与调试 JSON 共用。

// Document 保存按扫描顺序排列的曲线，画布尺寸等于缩放后的网格尺寸。
type Document struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Curves []Curve `json:"curves"`
}

// Curve 对应一个暗像素生成的路径。
type Curve struct {
	X        int             `json:"x"`
	Y        int             `json:"y"`
	D        string          `json:"d"` // SVG path data：M 后接若干 Q
	Segments []trace.Segment `json:"segments"`
	Debug    *CurveDebug     `json:"debug,omitempty"`
}

// CurveDebug holds optional debug info, filled only when enabled by BuildOptions.
type CurveDebug struct {
	Neighbors  []image.Point `json:"neighbors,omitempty"`
	Simplified bool          `json:"simplified"`
}

// Empty 表示文档中没有任何曲线。
func (d *Document) Empty() bool {
	return d == nil || len(d.Curves) == 0
}

// Table flattens the per-curve segments in document order.
func (d *Document) Table() []trace.Segment {
	if d == nil {
		return nil
	}
	n := 0
	for _, c := range d.Curves {
		n += len(c.Segments)
	}
	rows := make([]trace.Segment, 0, n)
	for _, c := range d.Curves {
		rows = append(rows, c.Segments...)
	}
	return rows
}

// Params 是核心流水线的三个参数。
type Params struct {
	Radius       int `json:"radius"`
	Tolerance    int `json:"simplifyTolerance"`
	RedThreshold int `json:"redThreshold"`
}

// ParamError 描述越界的参数。
type ParamError struct {
	Name  string
	Value int
	Rule  string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("vector: 参数 %s=%d 不合法（要求 %s）", e.Name, e.Value, e.Rule)
}

// Validate 只检查核心自身的约束；业务范围（如 radius ≤ 10）由调用方负责。
func (p Params) Validate() error {
	switch {
	case p.Radius < 1:
		return &ParamError{Name: "radius", Value: p.Radius, Rule: ">= 1"}
	case p.Tolerance < 0:
		return &ParamError{Name: "simplify_tolerance", Value: p.Tolerance, Rule: ">= 0"}
	case p.RedThreshold < 0 || p.RedThreshold > 255:
		return &ParamError{Name: "red_threshold", Value: p.RedThreshold, Rule: "0..255"}
	}
	return nil
}
