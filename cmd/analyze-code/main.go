// Package main: консольный анализ одного файла без запуска HTTP-сервера.
//
// Пример:
//
//	analyze-code ./internal/app/app.go --config config/local.yaml
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/review-service/internal/cache"
	"github.com/magabrotheeeer/review-service/internal/config"
	"github.com/magabrotheeeer/review-service/internal/lib/gemini"
	"github.com/magabrotheeeer/review-service/internal/lib/sl"
	analysisservice "github.com/magabrotheeeer/review-service/internal/services/analysis"
)

var (
	language   string
	configPath string
	noCache    bool
)

var rootCmd = &cobra.Command{
	Use:   "analyze-code [file]",
	Short: "Analyze a source file and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	rootCmd.Flags().StringVarP(&language, "language", "l", "", "source language (detected from extension when empty)")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to config file")
	rootCmd.Flags().BoolVar(&noCache, "no-cache", false, "do not read or write the redis cache")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if configPath == "" {
		return errors.New("config path is required: use --config or CONFIG_PATH")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))

	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	lang := language
	if lang == "" {
		lang = analysisservice.DetectLanguage(args[0])
	}
	if lang == "" {
		return fmt.Errorf("cannot detect language of %s, pass --language", args[0])
	}

	ctx := cmd.Context()
	generator, err := gemini.New(ctx, cfg.Analysis.APIKey, cfg.Analysis.Model, cfg.Analysis.MaxOutputTokens)
	if err != nil {
		return err
	}

	var store analysisservice.Cache
	if !noCache && cfg.AddressRedis != "" {
		c, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			logger.Warn("redis unavailable, running without cache", sl.Err(err))
		} else {
			defer func() { _ = c.Close() }()
			store = c
		}
	}

	svc, err := analysisservice.NewAnalysisService(logger, generator, store, cfg.Analysis.CacheTTL)
	if err != nil {
		return err
	}
	res, err := svc.Analyze(ctx, string(source), lang)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
