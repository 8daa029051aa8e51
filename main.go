package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	xdraw "golang.org/x/image/draw"

	"github.com/ByLCY/vectorizer/bot"
	"github.com/ByLCY/vectorizer/bundle"
	"github.com/ByLCY/vectorizer/jobs"
	canvasrenderer "github.com/ByLCY/vectorizer/renderer/canvas"
	"github.com/ByLCY/vectorizer/settings"
	"github.com/ByLCY/vectorizer/vector"
	"github.com/ByLCY/vectorizer/vectorizer"
)

// config 汇总命令行参数。
type config struct {
	input       string
	output      string
	previewPath string
	debugPath   string
	settings    settings.Settings
	kernel      string
	zstd        bool
	stroke      string
}

func main() {
	def := settings.Default()
	var cfg config
	flag.StringVar(&cfg.input, "in", "", "输入图片路径（-list 时为归档路径）")
	flag.StringVar(&cfg.output, "out", "output/result.zip", "ZIP 输出路径")
	flag.IntVar(&cfg.settings.Radius, "radius", def.Radius, "邻居搜索半径 [1,10]")
	flag.IntVar(&cfg.settings.SimplifyTolerance, "tolerance", def.SimplifyTolerance, "曲线简化容差 [1,10]")
	flag.IntVar(&cfg.settings.RedThreshold, "threshold", def.RedThreshold, "红色通道阈值 [1,255]")
	flag.StringVar(&cfg.kernel, "kernel", "catmullrom", "缩放插值：catmullrom|bilinear|approxbilinear|nearest")
	flag.BoolVar(&cfg.zstd, "zstd", false, "使用 Zstandard 压缩归档成员")
	flag.StringVar(&cfg.previewPath, "preview", "", "PDF 预览输出路径")
	flag.StringVar(&cfg.stroke, "stroke", "0.2mm", "PDF 预览线宽（mm/cm/in/pt/px）")
	flag.StringVar(&cfg.debugPath, "debug", "", "矢量文档调试 JSON 输出路径")
	list := flag.Bool("list", false, "列出 -in 指定归档中的成员")
	verbose := flag.Bool("v", false, "输出日志到 stderr")

	var sc serveConfig
	flag.StringVar(&sc.addr, "serve", "", "以 Telegram webhook 服务运行并监听该地址，如 :8080")
	flag.StringVar(&sc.token, "token", "", "bot token，默认读取 "+TokenEnv)
	flag.StringVar(&sc.apiURL, "api-url", "", "Bot API 地址，默认 "+bot.DefaultAPIURL)
	flag.StringVar(&sc.settingsPath, "settings", "", "用户设置 JSON 文件；为空时仅保存在内存")
	flag.StringVar(&sc.botName, "bot-name", "", "机器人用户名，用于忽略 /cmd@other")
	flag.IntVar(&sc.workers, "workers", 2, "并发转换任务数")
	flag.DurationVar(&sc.jobTimeout, "job-timeout", jobs.DefaultTimeout, "单个转换任务超时")
	flag.StringVar(&sc.webhookURL, "webhook-url", "", "启动时向 Telegram 注册的 webhook 地址")
	flag.StringVar(&sc.webhookSecret, "webhook-secret", "", "webhook 密钥，校验 "+bot.SecretHeader)
	flag.Parse()

	if *verbose {
		vectorizer.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	if sc.addr != "" {
		sc.kernel, sc.zstd = cfg.kernel, cfg.zstd
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := serve(ctx, sc); err != nil {
			log.Fatalf("服务异常退出: %v", err)
		}
		return
	}
	if cfg.input == "" {
		log.Fatalf("缺少 -in 参数")
	}
	if *list {
		if err := listArchive(cfg.input, os.Stdout); err != nil {
			log.Fatalf("读取归档失败: %v", err)
		}
		return
	}

	written, err := run(cfg)
	if err != nil {
		log.Fatalf("矢量化失败: %v", err)
	}
	if !written {
		fmt.Println("图片中没有暗像素，未生成归档")
		return
	}
	fmt.Printf("已生成归档：%s\n", cfg.output)
}

// run 串联解码、矢量化、打包与可选的预览输出。返回是否写出了归档。
func run(cfg config) (bool, error) {
	if err := cfg.settings.Validate(); err != nil {
		return false, err
	}
	kernel, err := parseKernel(cfg.kernel)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(cfg.input)
	if err != nil {
		return false, fmt.Errorf("无法读取图片 %s: %w", cfg.input, err)
	}

	opts := vectorizer.Options{Kernel: kernel}
	if cfg.zstd {
		opts.Bundle.Method = bundle.Zstd
	}
	if cfg.debugPath != "" {
		opts.Debug.Neighbors = true
	}

	doc, err := vectorizer.Vectorize(data, cfg.settings.Params(), opts)
	if err != nil {
		return false, err
	}
	if cfg.debugPath != "" {
		if err := writeDebug(doc, cfg.debugPath); err != nil {
			return false, err
		}
	}
	if cfg.previewPath != "" && !doc.Empty() {
		if err := writePreview(doc, cfg.previewPath, cfg.stroke); err != nil {
			return false, err
		}
	}

	archive, err := vectorizer.Package(doc, opts.Bundle)
	if err != nil {
		return false, err
	}
	if archive == nil {
		return false, nil
	}
	if err := writeFile(cfg.output, archive); err != nil {
		return false, fmt.Errorf("写入归档失败: %w", err)
	}
	return true, nil
}

func parseKernel(name string) (xdraw.Interpolator, error) {
	switch strings.ToLower(name) {
	case "", "catmullrom":
		return xdraw.CatmullRom, nil
	case "bilinear":
		return xdraw.BiLinear, nil
	case "approxbilinear":
		return xdraw.ApproxBiLinear, nil
	case "nearest":
		return xdraw.NearestNeighbor, nil
	}
	return nil, fmt.Errorf("未知的插值方式 %q", name)
}

func writePreview(doc *vector.Document, path, stroke string) error {
	width, err := canvasrenderer.ParseLength(stroke)
	if err != nil {
		return fmt.Errorf("解析线宽失败: %w", err)
	}
	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		StrokeWidth: width.ToMM(),
		Meta:        canvasrenderer.Meta{Title: filepath.Base(path)},
	})
	pdfBytes, err := r.Render(doc)
	if err != nil {
		return fmt.Errorf("渲染 PDF 预览失败: %w", err)
	}
	if err := writeFile(path, pdfBytes); err != nil {
		return fmt.Errorf("写入 PDF 预览失败: %w", err)
	}
	return nil
}

func writeDebug(doc *vector.Document, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := vector.WriteDebugJSON(doc, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func listArchive(path string, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	names, err := bundle.Names(data)
	if err != nil {
		return err
	}
	files, err := bundle.Open(data)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%d\n", name, len(files[name]))
	}
	return nil
}
