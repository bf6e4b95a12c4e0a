package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"text-summarizer-app/internal/config"
	"text-summarizer-app/internal/presentation/di"
	"text-summarizer-app/internal/presentation/http/router"
)

// configPathEnvKey 設定ファイルのパスを上書きする環境変数
const configPathEnvKey = "SUMMARIZER_CONFIG"

const (
	// defaultWriteTimeout レスポンス書き込みの最低限の猶予
	defaultWriteTimeout = 30 * time.Second
	// writeTimeoutMargin 要約エンドポイントの待ち時間に上乗せする猶予
	writeTimeoutMargin = 10 * time.Second
)

// AppConfig アプリケーション設定
type AppConfig struct {
	ConfigPath string
	Port       string
}

// ServerInterface サーバーインターフェース（Seam化）
type ServerInterface interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// App アプリケーション構造体（Seamパターン）
type App struct {
	config     *AppConfig
	cfg        *config.Config
	container  *di.Container
	logger     *slog.Logger
	server     *http.Server
	serverSeam ServerInterface // テスト用のSeam
	out        io.Writer
}

// NewApp 新しいAppを作成
func NewApp(appCfg *AppConfig) (*App, error) {
	if appCfg.Port == "" {
		appCfg.Port = "8080"
	}

	cfg, err := config.Load(appCfg.ConfigPath)
	if err != nil {
		log.Printf("Failed to load config: %v. Using defaults.", err)
		cfg = config.DefaultConfig()
	}

	container, err := di.NewContainer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DI container: %w", err)
	}
	logger := container.Logger()

	// 未設定のエンドポイントでも起動はする（要約時に失敗メッセージを表示）
	if err := cfg.Validate(); err != nil {
		logger.Warn("Configuration is incomplete", "error", err)
	}

	server := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      router.NewRouter(container),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: serverWriteTimeout(cfg.Summarizer.Timeout),
		IdleTimeout:  60 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	return &App{
		config:     appCfg,
		cfg:        cfg,
		container:  container,
		logger:     logger,
		server:     server,
		serverSeam: server,
		out:        os.Stdout,
	}, nil
}

// Start サーバーを起動
func (a *App) Start() error {
	a.printStartupMessage()
	return a.serverSeam.ListenAndServe()
}

// printStartupMessage 起動メッセージを出力
func (a *App) printStartupMessage() {
	cache := "disabled"
	if a.container.CacheEnabled() {
		cache = "redis"
	}

	fmt.Fprintln(a.out, "=== Text Summarizer Server ===")
	fmt.Fprintf(a.out, "Summarizer: %s (%s)\n", a.container.SummarizeUseCase().GetProviderName(), a.cfg.Summarizer.EndpointURL)
	fmt.Fprintf(a.out, "Cache: %s\n", cache)
	fmt.Fprintf(a.out, "Server listening on http://0.0.0.0:%s\n", a.config.Port)
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Endpoints:")
	fmt.Fprintln(a.out, "  GET  /                  - Summarizer page")
	fmt.Fprintln(a.out, "  POST /input             - Update input text")
	fmt.Fprintln(a.out, "  POST /summarize         - Submit text for summary")
	fmt.Fprintln(a.out, "  POST /clear             - Clear input and summary")
	fmt.Fprintln(a.out, "  POST /copy              - Copy summary")
	fmt.Fprintln(a.out, "  GET  /state             - View state (JSON)")
	fmt.Fprintln(a.out, "  POST /api/v1/summarize  - Summary API (JSON)")
	fmt.Fprintln(a.out, "  GET  /health            - Health check")
	fmt.Fprintln(a.out, "  GET  /metrics           - Prometheus metrics")
	fmt.Fprintln(a.out)
}

// Shutdown サーバーをシャットダウン
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down server")

	if err := a.serverSeam.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// 実行中の要約をキャンセルしてセッションを破棄
	if err := a.container.Close(); err != nil {
		return fmt.Errorf("container close failed: %w", err)
	}

	a.logger.Info("Server stopped")
	return nil
}

// Run アプリケーションを実行（グレースフルシャットダウン付き）
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext ctxが終了するまでサーバーを実行する
func (a *App) RunContext(ctx context.Context) error {
	serverErr := make(chan error, 1)
	go func() {
		if err := a.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		_ = a.container.Close()
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return a.Shutdown(shutdownCtx)
	}
}

// serverWriteTimeout 要約APIがエンドポイントの応答を待っている間に
// 接続が切られないよう、書き込みタイムアウトを要約タイムアウトより長くする
func serverWriteTimeout(summarizerTimeout time.Duration) time.Duration {
	if d := summarizerTimeout + writeTimeoutMargin; d > defaultWriteTimeout {
		return d
	}
	return defaultWriteTimeout
}

// defaultConfigPath 設定ファイルのパスを決める
func defaultConfigPath() string {
	if p := os.Getenv(configPathEnvKey); p != "" {
		return p
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Failed to get home directory: %v. Using current directory.", err)
		homeDir = "."
	}
	return filepath.Join(homeDir, ".text-summarizer", "config.yaml")
}

// realMain 実際のmain処理（テスト可能にするため分離）
func realMain() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	app, err := NewApp(&AppConfig{
		ConfigPath: defaultConfigPath(),
		Port:       port,
	})
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	return app.Run()
}

func main() {
	if err := realMain(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}
