// Package main テキスト要約のCLI
// Usage: summarize [--text TEXT] [--config PATH] [--endpoint URL] [--sanitize] [--output text|json] [--write-config PATH]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"text-summarizer-app/internal/config"
	"text-summarizer-app/internal/logging"
	sharedAI "text-summarizer-app/internal/modules/shared/infrastructure/ai"
	sharedCache "text-summarizer-app/internal/modules/shared/infrastructure/cache"
	"text-summarizer-app/internal/modules/summary/domain"
	"text-summarizer-app/internal/modules/summary/usecase"
)

// SummaryOutput JSON出力の形式
type SummaryOutput struct {
	Success    bool    `json:"success"`
	Summary    string  `json:"summary,omitempty"`
	Error      string  `json:"error,omitempty"`
	Provider   string  `json:"provider,omitempty"`
	CacheHit   bool    `json:"cache_hit"`
	InputChars int     `json:"input_chars"`
	Ratio      float64 `json:"compression_ratio,omitempty"`
}

// maxStdinBytes 標準入力から読み込む上限
const maxStdinBytes = 1 << 20

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("summarize", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		text         string
		configPath   string
		endpoint     string
		outputFormat string
		sanitize     bool
		timeout      time.Duration
		writeConfig  string
	)
	fs.StringVar(&text, "text", "", "Text to summarize (reads stdin when empty)")
	fs.StringVar(&configPath, "config", "config.yaml", "Path to the YAML config file")
	fs.StringVar(&endpoint, "endpoint", "", "Summarization endpoint URL (overrides config)")
	fs.StringVar(&outputFormat, "output", "text", "Output format: text or json")
	fs.BoolVar(&sanitize, "sanitize", false, "Apply legacy character replacement before sending")
	fs.DurationVar(&timeout, "timeout", 0, "Request timeout (overrides config)")
	fs.StringVar(&writeConfig, "write-config", "", "Write the effective configuration to PATH and exit")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if outputFormat != "text" && outputFormat != "json" {
		fmt.Fprintf(stderr, "Error: Invalid output format '%s' (must be 'text' or 'json')\n", outputFormat)
		return 2
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: Failed to load configuration: %v\n", err)
		return 1
	}
	if endpoint != "" {
		cfg.Summarizer.EndpointURL = endpoint
	}
	if timeout > 0 {
		cfg.Summarizer.Timeout = timeout
	}
	if sanitize {
		cfg.Summarizer.Sanitize = true
	}

	// 上書き後の設定を雛形として書き出して終了
	if writeConfig != "" {
		if err := cfg.Save(writeConfig); err != nil {
			fmt.Fprintf(stderr, "Error: Failed to write configuration: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Configuration written to %s\n", writeConfig)
		return 0
	}

	logger := logging.NewLoggerTo(stderr, &cfg.Log)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		fmt.Fprintf(stderr, "Error: Invalid configuration: %v\n", err)
		return 1
	}

	if text == "" {
		data, err := io.ReadAll(io.LimitReader(stdin, maxStdinBytes))
		if err != nil {
			fmt.Fprintf(stderr, "Error: Failed to read stdin: %v\n", err)
			return 1
		}
		text = string(data)
	}

	opts := []usecase.Option{
		usecase.WithSanitize(cfg.Summarizer.Sanitize),
		usecase.WithLogger(logger),
	}
	if cfg.Redis.Enabled {
		cacheRepo, err := sharedCache.NewRedisRepository(&cfg.Redis)
		if err != nil {
			logger.Warn("Redis cache unavailable, continuing without cache", slog.Any("error", err))
		} else {
			defer func() { _ = cacheRepo.Close() }()
			opts = append(opts, usecase.WithCache(cacheRepo, cfg.Redis.TTL))
		}
	}

	uc := usecase.NewSummarizeUseCase(sharedAI.NewEndpointRepository(&cfg.Summarizer), opts...)

	result, err := uc.Summarize(ctx, text)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyInput) {
			fmt.Fprintln(stderr, "Error: No text to summarize")
			return 2
		}
		logger.Error("summarize failed", slog.Any("error", err))
		writeFailure(stdout, outputFormat, text)
		return 1
	}

	if outputFormat == "json" {
		outputJSON(stdout, result)
	} else {
		outputText(stdout, result)
	}
	return 0
}

// writeFailure 利用者向けの固定メッセージを出力
func writeFailure(w io.Writer, format, text string) {
	if format == "json" {
		_ = json.NewEncoder(w).Encode(SummaryOutput{
			Success:    false,
			Error:      domain.FailureMessage,
			InputChars: len([]rune(text)),
		})
		return
	}
	fmt.Fprintln(w, domain.FailureMessage)
}

func outputText(w io.Writer, result *domain.SummaryResult) {
	fmt.Fprintln(w, strings.TrimRight(result.Summary, "\n"))
}

func outputJSON(w io.Writer, result *domain.SummaryResult) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(SummaryOutput{
		Success:    true,
		Summary:    result.Summary,
		Provider:   result.Provider,
		CacheHit:   result.CacheHit,
		InputChars: len([]rune(result.OriginalText)),
		Ratio:      result.CompressionRatio(),
	})
}
