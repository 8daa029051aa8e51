package renderer

import "github.com/ByLCY/vectorizer/vector"

// Renderer 将矢量文档输出为最终文件，例如 SVG、CSV 或 PDF 预览。
// Render 返回生成的二进制数据以及可能的错误；文档没有可导出的内容时可以返回空切片。
type Renderer interface {
	Render(doc *vector.Document) ([]byte, error)
}
