// Package vectorizer chains decoding, tracing, rendering and packaging into a
// single call: image bytes in, ZIP archive bytes out.
package vectorizer

import (
	"fmt"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/ByLCY/vectorizer/bundle"
	"github.com/ByLCY/vectorizer/raster"
	"github.com/ByLCY/vectorizer/renderer"
	csvrenderer "github.com/ByLCY/vectorizer/renderer/csv"
	svgrenderer "github.com/ByLCY/vectorizer/renderer/svg"
	"github.com/ByLCY/vectorizer/vector"
)

// Options 配置流水线中可替换的部分，零值即默认行为。
type Options struct {
	Kernel xdraw.Interpolator // 缩放插值，为空时使用 CatmullRom
	Tracer vector.Tracer      // 为空时使用 trace.Builder
	Bundle bundle.Options
	Debug  vector.DebugOptions
}

type member struct {
	name string
	r    renderer.Renderer
}

func members() []member {
	return []member{
		{name: svgrenderer.FileName, r: svgrenderer.NewRenderer()},
		{name: csvrenderer.FileName, r: csvrenderer.Renderer{}},
	}
}

// Vectorize decodes and resizes the image, then builds the vector document.
func Vectorize(data []byte, params vector.Params, opts Options) (*vector.Document, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	grid, err := raster.Load(data, opts.Kernel)
	if err != nil {
		return nil, err
	}
	return vector.Build(grid, vector.BuildOptions{Params: params, Tracer: opts.Tracer, Debug: opts.Debug})
}

// Convert runs the whole pipeline. It returns nil bytes and a nil error when
// the image has no dark pixels, meaning there is nothing to deliver.
func Convert(data []byte, params vector.Params, opts Options) ([]byte, error) {
	log := Logger()
	start := time.Now()

	doc, err := Vectorize(data, params, opts)
	if err != nil {
		return nil, err
	}
	log.Debug("vector document built",
		"width", doc.Width, "height", doc.Height, "curves", len(doc.Curves))

	archive, err := Package(doc, opts.Bundle)
	if err != nil {
		return nil, err
	}
	if archive == nil {
		log.Info("no dark pixels, nothing to bundle", "elapsed", time.Since(start))
		return nil, nil
	}
	log.Info("conversion finished",
		"curves", len(doc.Curves), "bytes", len(archive), "elapsed", time.Since(start))
	return archive, nil
}

// Package renders doc to result.svg and vectors.csv and bundles them.
func Package(doc *vector.Document, opts bundle.Options) ([]byte, error) {
	ms := members()
	entries := make([]bundle.Entry, 0, len(ms))
	for _, m := range ms {
		content, err := m.r.Render(doc)
		if err != nil {
			return nil, fmt.Errorf("渲染 %s 失败: %w", m.name, err)
		}
		entries = append(entries, bundle.Entry{Name: m.name, Content: content})
	}
	archive, err := bundle.Package(entries, opts)
	if err != nil {
		return nil, fmt.Errorf("打包失败: %w", err)
	}
	return archive, nil
}
