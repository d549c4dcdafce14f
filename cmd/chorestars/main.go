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

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/chorestars/internal/auth"
	"github.com/dukerupert/chorestars/internal/backup"
	"github.com/dukerupert/chorestars/internal/config"
	"github.com/dukerupert/chorestars/internal/database"
	"github.com/dukerupert/chorestars/internal/logging"
	"github.com/dukerupert/chorestars/internal/roster"
	"github.com/dukerupert/chorestars/internal/scheduler"
	"github.com/dukerupert/chorestars/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chorestars: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if len(os.Args) == 3 && os.Args[1] == "restore" {
		return restore(cfg, os.Args[2], logger)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	r := roster.New(cfg.Children)
	authenticator, err := auth.NewAuthenticator(cfg.ParentPassword, cfg.ChildPasswords, 0)
	if err != nil {
		return fmt.Errorf("build authenticator: %w", err)
	}
	if authenticator.Roles() == 0 {
		logger.Warn("no passwords configured; nobody can log in")
	}

	srv := server.New(db, r, authenticator, cfg.WeeklyPeriod, logger)
	if err := srv.Ledger().SeedChildren(r.Children()); err != nil {
		return fmt.Errorf("seed children: %w", err)
	}
	if _, err := srv.Ledger().SeedStarterTasks(r.StarterTemplates()); err != nil {
		return fmt.Errorf("seed starter tasks: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobs := srv.Jobs(cfg.RefreshCheckInterval, cfg.SessionCleanupInterval, cfg.SessionMaxIdle)
	if cfg.Backup.Enabled() {
		mgr, err := backup.NewManager(cfg.Backup, db, logger.With("component", "backup"))
		if err != nil {
			return fmt.Errorf("backup manager: %w", err)
		}
		jobs = append(jobs, mgr.Job(cfg.BackupInterval))
	} else {
		logger.Info("offsite backup disabled")
	}
	sched := scheduler.New(logger.With("component", "scheduler"), jobs...)

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sched.Start(gctx)
		<-gctx.Done()
		sched.Stop()
		return nil
	})

	g.Go(func() error {
		logger.Info("chorestars running", "addr", httpServer.Addr, "children", r.Children())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// restore replaces the database file with a stored snapshot. It runs
// before the database is opened.
func restore(cfg *config.Config, key string, logger *slog.Logger) error {
	mgr, err := backup.NewManager(cfg.Backup, nil, logger.With("component", "backup"))
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	return mgr.Restore(ctx, key, cfg.DBPath)
}
