// Package svgrenderer writes a vector document as a minimal SVG Tiny 1.2 file.
package svgrenderer

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/ByLCY/vectorizer/renderer"
	"github.com/ByLCY/vectorizer/vector"
)

// FileName 是打包时使用的成员名。
const FileName = "result.svg"

// Renderer draws every curve as one stroke-only path element.
type Renderer struct {
	Stroke string // 为空时为 black
}

var _ renderer.Renderer = (*Renderer)(nil)

// NewRenderer creates an SVG renderer with black strokes.
func NewRenderer() *Renderer { return &Renderer{Stroke: "black"} }

type svgRoot struct {
	XMLName     xml.Name  `xml:"svg"`
	Xmlns       string    `xml:"xmlns,attr"`
	Version     string    `xml:"version,attr"`
	BaseProfile string    `xml:"baseProfile,attr"`
	Width       int       `xml:"width,attr"`
	Height      int       `xml:"height,attr"`
	Defs        struct{}  `xml:"defs"`
	Paths       []svgPath `xml:"path"`
}

type svgPath struct {
	D      string `xml:"d,attr"`
	Fill   string `xml:"fill,attr"`
	Stroke string `xml:"stroke,attr"`
}

// Render 返回 UTF-8 编码的 SVG；文档为空时返回 nil，表示没有需要打包的内容。
func (r *Renderer) Render(doc *vector.Document) ([]byte, error) {
	if doc.Empty() {
		return nil, nil
	}
	stroke := r.Stroke
	if stroke == "" {
		stroke = "black"
	}
	root := svgRoot{
		Xmlns:       "http://www.w3.org/2000/svg",
		Version:     "1.2",
		BaseProfile: "tiny",
		Width:       doc.Width,
		Height:      doc.Height,
		Paths:       make([]svgPath, 0, len(doc.Curves)),
	}
	for _, c := range doc.Curves {
		root.Paths = append(root.Paths, svgPath{D: c.D, Fill: "none", Stroke: stroke})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("svg: 序列化失败: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("svg: 序列化失败: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
