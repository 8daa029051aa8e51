package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/vectorizer/renderer"
	"github.com/ByLCY/vectorizer/vector"
)

const defaultStrokeWidth = 0.2

// Renderer draws a vector document into a single-page PDF preview via
// github.com/tdewolff/canvas. One source pixel maps to one millimetre.
type Renderer struct {
	strokeWidth float64
	stroke      color.Color
	background  color.Color
	meta        Meta
}

var _ renderer.Renderer = (*Renderer)(nil)

// Options configures the canvas renderer.
type Options struct {
	StrokeWidth float64     // mm，<=0 时使用默认值
	Stroke      color.Color // 为空时为黑色
	Background  color.Color // 为空时不绘制背景
	Meta        Meta
}

// Meta 写入 PDF 文档信息。
type Meta struct {
	Title   string
	Subject string
	Author  string
	Creator string
}

// NewRenderer creates a renderer with default stroke settings.
func NewRenderer() *Renderer { return NewRendererWithOptions(Options{}) }

// NewRendererWithOptions creates a renderer with explicit stroke and page settings.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		strokeWidth: opts.StrokeWidth,
		stroke:      opts.Stroke,
		background:  opts.Background,
		meta:        opts.Meta,
	}
	if r.strokeWidth <= 0 {
		r.strokeWidth = defaultStrokeWidth
	}
	if r.stroke == nil {
		r.stroke = canvas.Black
	}
	if r.meta.Creator == "" {
		r.meta.Creator = "vectorizer"
	}
	return r
}

// Render renders the document into a PDF byte slice.
func (r *Renderer) Render(doc *vector.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("渲染文档为空")
	}
	if doc.Empty() {
		return nil, fmt.Errorf("缺少可渲染的曲线")
	}
	if doc.Width <= 0 || doc.Height <= 0 {
		return nil, fmt.Errorf("画布尺寸无效: %dx%d", doc.Width, doc.Height)
	}

	width, height := float64(doc.Width), float64(doc.Height)
	var buf bytes.Buffer
	writer := pdf.New(&buf, width, height, nil)
	writer.SetInfo(r.meta.Title, r.meta.Subject, "", r.meta.Author, r.meta.Creator)

	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 与 SVG 保持左上角为原点

	if r.background != nil {
		ctx.SetFillColor(r.background)
		ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
		ctx.DrawPath(0, 0, canvas.Rectangle(width, height))
	}
	if err := r.drawCurves(ctx, doc.Curves); err != nil {
		return nil, err
	}
	c.RenderTo(writer)

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// drawCurves 逐条解析 SVG path data 并以描边方式绘制，不填充。
func (r *Renderer) drawCurves(ctx *canvas.Context, curves []vector.Curve) error {
	ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
	ctx.SetStrokeColor(r.stroke)
	ctx.SetStrokeWidth(r.strokeWidth)
	ctx.SetStrokeCapper(canvas.RoundCap)
	for _, c := range curves {
		p, err := canvas.ParseSVGPath(c.D)
		if err != nil {
			return fmt.Errorf("解析像素 (%d,%d) 的路径失败: %w", c.X, c.Y, err)
		}
		ctx.DrawPath(0, 0, p)
	}
	return nil
}
