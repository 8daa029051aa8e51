// Package reply holds the bot's reply texts and fills their ${name}
// placeholders.
package reply

import (
	"fmt"
	"regexp"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Render 将文本中的 ${name} 替换为 data[name]。
// 若 data 为空或键不存在，则保留原占位符。
func Render(template string, data map[string]any) string {
	if len(data) == 0 {
		return template
	}
	return exprPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := strings.TrimSpace(match[2 : len(match)-1])
		if val, ok := data[key]; ok {
			return fmt.Sprint(val)
		}
		return match
	})
}
