package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jask/gvoss/internal/config"
	"github.com/jask/gvoss/internal/database"
	"github.com/jask/gvoss/internal/database/repository"
	"github.com/jask/gvoss/internal/logging"
	"github.com/jask/gvoss/internal/presets"
	"github.com/jask/gvoss/internal/service"
	"github.com/jask/gvoss/internal/tui"
	"github.com/jask/gvoss/internal/vqa"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("warn: .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatalf("mkdir db dir: %v", err)
	}
	if err := database.RunMigrations(cfg.Database.Path); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	queries := repository.NewQueryRepo(db)

	provider := vqa.NewHFProvider(
		vqa.WithEndpoint(cfg.Inference.Endpoint),
		vqa.WithTimeout(cfg.Inference.Timeout()),
		vqa.WithRateLimit(cfg.Inference.RequestsPerMinute),
		vqa.WithLogger(logger),
	)

	questions, err := presets.Load(cfg.Presets.Path)
	if err != nil {
		logger.Warn("presets unavailable, using defaults", zap.Error(err))
		questions = presets.Default()
	}

	var imagePath string
	if len(os.Args) > 1 {
		imagePath = os.Args[1]
	}

	logger.Info("starting",
		zap.String("endpoint", provider.Endpoint()),
		zap.String("db", cfg.Database.Path),
	)

	p := tea.NewProgram(tui.New(ctx,
		tui.Services{
			Ask:     &service.AskService{Provider: provider, Queries: queries, Log: logger},
			History: &service.HistoryService{DB: db, Queries: queries},
		},
		tui.Options{
			APIKey:    config.ResolveAPIKey(cfg),
			ImagePath: imagePath,
			Questions: questions,
			Log:       logger,
		},
	), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("program exited", zap.Error(err))
		fmt.Printf("error: %v\n", err)
	}
}
