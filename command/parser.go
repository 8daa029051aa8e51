// Package command parses bot command messages such as "/radius 4" or
// "/start@VectorBot".
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var ErrNotCommand = errors.New("command: 不是命令")

var (
	commandLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "Command", Pattern: `/[A-Za-z0-9_]+(?:@[A-Za-z0-9_]+)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
		{Name: "Word", Pattern: `[^ \t\r\n"]+`},
	})

	lineParser = participle.MustBuild[line](
		participle.Lexer(commandLexer),
		participle.Elide("Whitespace"),
	)
)

// line is the AST of one command message.
type line struct {
	Head head   `parser:"@Command"`
	Args []*arg `parser:"@@*"`
}

// head 捕获 "/name@bot" 并拆分。
type head struct {
	Name string
	Bot  string
}

// Capture implements participle.Capture.
func (h *head) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("command capture requires value")
	}
	raw := strings.TrimPrefix(values[0], "/")
	name, bot, _ := strings.Cut(raw, "@")
	h.Name = strings.ToLower(name)
	h.Bot = bot
	return nil
}

type arg struct {
	Quoted *stringLiteral `parser:"  @String"`
	Word   *string        `parser:"| @( Word | Command )"`
}

func (a *arg) value() string {
	switch {
	case a.Quoted != nil:
		return string(*a.Quoted)
	case a.Word != nil:
		return *a.Word
	default:
		return ""
	}
}

// stringLiteral unquotes Go-style strings on capture.
type stringLiteral string

// Capture implements participle.Capture.
func (s *stringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = stringLiteral(val)
	return nil
}

// Command is a parsed command message.
type Command struct {
	Name string   // 不含 "/"，已转为小写
	Bot  string   // "/cmd@bot" 中的 bot，可能为空
	Args []string // 以空白分隔，双引号内可含空格
}

// Parse parses a message text. Text that does not start with "/" yields
// ErrNotCommand.
func Parse(text string) (*Command, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return nil, ErrNotCommand
	}
	ast, err := lineParser.ParseString("", text)
	if err != nil {
		return nil, fmt.Errorf("command: 解析 %q 失败: %w", text, err)
	}
	cmd := &Command{Name: ast.Head.Name, Bot: ast.Head.Bot, Args: make([]string, 0, len(ast.Args))}
	for _, a := range ast.Args {
		cmd.Args = append(cmd.Args, a.value())
	}
	return cmd, nil
}

// Int parses argument i as a base-10 integer.
func (c *Command) Int(i int) (int, error) {
	if i < 0 || i >= len(c.Args) {
		return 0, fmt.Errorf("command: /%s 缺少第 %d 个参数", c.Name, i+1)
	}
	v, err := strconv.Atoi(c.Args[i])
	if err != nil {
		return 0, fmt.Errorf("command: /%s 的参数 %q 不是整数: %w", c.Name, c.Args[i], err)
	}
	return v, nil
}

// String formats the command back into message form.
func (c *Command) String() string {
	var b strings.Builder
	b.WriteByte('/')
	b.WriteString(c.Name)
	if c.Bot != "" {
		b.WriteByte('@')
		b.WriteString(c.Bot)
	}
	for _, a := range c.Args {
		b.WriteByte(' ')
		if a == "" || strings.ContainsAny(a, " \t\r\n\"") {
			a = strconv.Quote(a)
		}
		b.WriteString(a)
	}
	return b.String()
}
