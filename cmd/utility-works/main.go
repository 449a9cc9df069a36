package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"utility-works/internal/config"
	"utility-works/internal/controller"
	"utility-works/internal/model"
	"utility-works/internal/repository"
	"utility-works/internal/service"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const usage = "usage: utility-works [serve|migrate|seed]"

func main() {
	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	db, err := repository.Open(cfg.DBDSN, cfg.GormLogLevel())
	if err != nil {
		logger.Error("open database", slog.Any("error", err))
		os.Exit(1)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	switch command {
	case "serve":
		err = serve(ctx, cfg, db, logger)
	case "migrate":
		err = repository.Migrate(db)
		if err == nil {
			logger.Info("migrations applied")
		}
	case "seed":
		err = seed(ctx, cfg, db, logger)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error(command, slog.Any("error", err))
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, db *gorm.DB, logger *slog.Logger) error {
	if cfg.DBAutoMigrate {
		if err := repository.Migrate(db); err != nil {
			return err
		}
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	entries := service.NewEntryService(repository.NewWorkRepository(db), logger)
	router := controller.NewRouter(controller.NewEntryController(entries, logger), logger)

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func seed(ctx context.Context, cfg *config.Config, db *gorm.DB, logger *slog.Logger) error {
	if err := repository.Migrate(db); err != nil {
		return err
	}
	if cfg.SeedReset {
		if err := repository.ClearLedger(ctx, db); err != nil {
			return err
		}
	}

	now := time.Now()
	var years []int
	for _, year := range model.ReportYears(now) {
		if year <= now.Year() {
			years = append(years, year)
		}
	}

	entries := service.NewEntryService(repository.NewWorkRepository(db), logger)
	created, err := service.NewSeeder(entries, cfg.SeedRandom).Seed(ctx, years)
	if err != nil {
		return err
	}
	logger.Info("seeded ledger", slog.Int("entries", created), slog.Any("years", years))
	return nil
}
