package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ByLCY/vectorizer/bot"
	"github.com/ByLCY/vectorizer/bundle"
	"github.com/ByLCY/vectorizer/jobs"
	"github.com/ByLCY/vectorizer/settings"
	"github.com/ByLCY/vectorizer/vectorizer"
)

// TokenEnv 为未通过 -token 指定时读取的环境变量。
const TokenEnv = "TELEGRAM_API_TOKEN"

// serveConfig 汇总 bot 服务参数。
type serveConfig struct {
	addr          string
	token         string
	apiURL        string
	settingsPath  string
	botName       string
	workers       int
	jobTimeout    time.Duration
	webhookURL    string
	webhookSecret string
	kernel        string
	zstd          bool
}

// service 持有服务运行期间的组件，Close 时按依赖顺序释放。
type service struct {
	handler http.Handler
	client  *bot.Client
	pool    *jobs.Pool
}

// newService 组装 FileStore → Pool → Dispatcher → webhook。
func newService(cfg serveConfig) (*service, error) {
	if cfg.token == "" {
		cfg.token = os.Getenv(TokenEnv)
	}
	if cfg.token == "" {
		return nil, fmt.Errorf("缺少 bot token（-token 或 %s）", TokenEnv)
	}
	kernel, err := parseKernel(cfg.kernel)
	if err != nil {
		return nil, err
	}
	var store settings.Store = settings.NewMemoryStore()
	if cfg.settingsPath != "" {
		fs, err := settings.OpenFileStore(cfg.settingsPath)
		if err != nil {
			return nil, fmt.Errorf("打开设置文件失败: %w", err)
		}
		store = fs
	}

	log := vectorizer.Logger()
	pool := jobs.NewPool(jobs.Options{
		Workers:        cfg.workers,
		DefaultTimeout: cfg.jobTimeout,
		Logger:         log,
		OnDone: func(job jobs.Job, err error) {
			if err != nil {
				log.Warn("job failed", "id", job.ID, "err", err)
			}
		},
	})
	client := bot.NewClient(cfg.token, bot.ClientOptions{APIURL: cfg.apiURL})

	vopts := vectorizer.Options{Kernel: kernel}
	if cfg.zstd {
		vopts.Bundle.Method = bundle.Zstd
	}
	d, err := bot.New(bot.Options{
		Store:      store,
		Messenger:  client,
		Files:      client,
		Jobs:       pool,
		BotName:    cfg.botName,
		JobTimeout: cfg.jobTimeout,
		Vectorizer: vopts,
		Logger:     log,
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/webhook", bot.NewWebhook(d, bot.WebhookOptions{Secret: cfg.webhookSecret, Logger: log}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return &service{handler: mux, client: client, pool: pool}, nil
}

// serve 监听 cfg.addr 直到 ctx 结束，然后等待在途任务完成。
func serve(ctx context.Context, cfg serveConfig) error {
	svc, err := newService(cfg)
	if err != nil {
		return err
	}
	log := vectorizer.Logger()

	if cfg.webhookURL != "" {
		if err := svc.client.SetWebhook(ctx, cfg.webhookURL, cfg.webhookSecret); err != nil {
			svc.pool.Close()
			return fmt.Errorf("注册 webhook 失败: %w", err)
		}
		log.Info("webhook registered", "url", cfg.webhookURL)
	}

	srv := &http.Server{
		Addr:              cfg.addr,
		Handler:           svc.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err = <-errc:
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err = srv.Shutdown(shutdownCtx)
	}
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}

	// 在途转换可能耗时数分钟，这里等待其结束或超时
	wait := cfg.jobTimeout
	if wait <= 0 {
		wait = jobs.DefaultTimeout
	}
	poolCtx, cancel := context.WithTimeout(context.Background(), wait+time.Minute)
	defer cancel()
	if perr := svc.pool.Shutdown(poolCtx); perr != nil {
		log.Warn("job pool shutdown", "err", perr)
	}
	return err
}
