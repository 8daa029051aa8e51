// Package csvrenderer exports the flat segment table of a vector document.
package csvrenderer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/ByLCY/vectorizer/renderer"
	"github.com/ByLCY/vectorizer/vector"
)

// FileName 是打包时使用的成员名。
const FileName = "vectors.csv"

// Header 是导出表固定的表头。
var Header = []string{"x1", "y1", "x2", "y2"}

// Renderer writes one row per segment, grouped by source pixel in scan order.
type Renderer struct{}

var _ renderer.Renderer = Renderer{}

// Render 返回 UTF-8 CSV；没有任何线段时返回 nil（只有表头不算内容）。
func (Renderer) Render(doc *vector.Document) ([]byte, error) {
	rows := doc.Table()
	if len(rows) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Header); err != nil {
		return nil, fmt.Errorf("csv: 写入表头失败: %w", err)
	}
	record := make([]string, 4)
	for _, s := range rows {
		record[0] = formatCoord(s.X1)
		record[1] = formatCoord(s.Y1)
		record[2] = formatCoord(s.X2)
		record[3] = formatCoord(s.Y2)
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("csv: 写入数据失败: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv: 写入数据失败: %w", err)
	}
	return buf.Bytes(), nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
