package vector

import (
	"image"

	"github.com/ByLCY/vectorizer/trace"
)

// BuildOptions 配置文档构建阶段的参数与依赖。
type BuildOptions struct {
	Params Params
	Tracer Tracer // 为空时使用 trace.Builder
	Debug  DebugOptions
}

// DebugOptions 控制调试相关输出。
type DebugOptions struct {
	Neighbors bool // 在调试 JSON 中输出每条曲线的邻居集合
}

// Tracer 负责把一个暗像素及其邻居转换为曲线。
type Tracer interface {
	Trace(origin image.Point, neighbors []image.Point, tolerance float64) trace.PixelCurve
}
