package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/riteshkumar/terminal-bank/internal/config"
	"github.com/riteshkumar/terminal-bank/internal/repository"
	"github.com/riteshkumar/terminal-bank/internal/service"
	"github.com/riteshkumar/terminal-bank/internal/store"
)

// app holds everything a subcommand needs once the store is open.
type app struct {
	cfg          *config.Config
	logger       *slog.Logger
	db           *store.DB
	accounts     *service.AccountServiceImpl
	transactions *service.TransactionServiceImpl
	reserveID    int

	logOut io.Closer
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(*envFile)
	if err != nil {
		return nil, err
	}

	logger, logOut, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	db, err := store.Open(ctx, cfg.DBDriver, cfg.DBDSN, logger)
	if err != nil {
		logger.Error("failed to open database", "driver", cfg.DBDriver, "error", err.Error())
		logOut.Close()
		return nil, err
	}

	accountRepo := repository.NewAccountRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)

	a := &app{
		cfg:          cfg,
		logger:       logger,
		db:           db,
		accounts:     service.NewAccountService(accountRepo, logger),
		transactions: service.NewTransactionService(db, accountRepo, transactionRepo, logger),
		logOut:       logOut,
	}

	a.reserveID, err = a.accounts.EnsureReserve(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to set up reserve account: %w", err)
	}
	return a, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", "error", err.Error())
	}
	a.logOut.Close()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newLogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, err
	}

	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if cfg.LogFile != "-" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out, closer = f, f
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(out, opts)), closer, nil
	}
	return slog.New(slog.NewJSONHandler(out, opts)), closer, nil
}
