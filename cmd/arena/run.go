package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TokenArena/internal/arena"
	"TokenArena/internal/challenge"
	"TokenArena/internal/gateway"
	"TokenArena/internal/notifier"
	"TokenArena/internal/payout"
	"TokenArena/internal/recorder"
	"TokenArena/internal/scheduler"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// shutdownGrace is added to the payout timeout when waiting for the
// in-flight round on shutdown, to cover the announcement.
const shutdownGrace = 2 * time.Minute

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the arena and run rounds on schedule",
	Args:  cobra.NoArgs,
	RunE:  runArena,
}

func runArena(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log.Info("TokenArena starting...")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	rec := openRecorder(cfg.Database.SQLitePath)
	defer rec.Close()

	token, err := payout.DialERC20(ctx, cfg.Wallet.RPCURL, cfg.Wallet.TokenAddress, cfg.Wallet.PrivateKey)
	if err != nil {
		return fmt.Errorf("connect to token: %w", err)
	}
	defer token.Close()
	wallet := payout.NewEngine(token, cfg.Wallet.Confirmations)
	log.Infof("prize wallet: %s", wallet.SignerAddress())

	if balance, err := wallet.CheckBalance(ctx); err != nil {
		log.Warnf("could not read prize wallet balance: %v", err)
	} else if balance.LessThan(cfg.Prize()) {
		log.Warnf("prize wallet holds %s tokens, less than one prize of %s", balance, cfg.Prize())
	} else {
		log.Infof("prize wallet holds %s tokens", balance)
	}

	gw := gateway.NewClient(cfg.Moltbook.BaseURL, cfg.Moltbook.APIKey, cfg.Proxy)

	var (
		alerts notifier.Notifier = notifier.NoopNotifier{}
		tn     *notifier.TelegramNotifier
	)
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		alerts = tn
	} else {
		log.Info("telegram not configured, operator alerts disabled")
	}

	engine := arena.NewEngine(arena.Settings{
		Category:      cfg.Moltbook.Category,
		Prize:         cfg.Prize(),
		Window:        cfg.Arena.Window,
		WaitStep:      cfg.Arena.WaitStep,
		PayoutTimeout: cfg.Wallet.PayoutTimeout,
		ExplorerTxURL: cfg.Arena.ExplorerTxURL,
	}, challenge.NewCatalog(challenge.Default), gw, wallet, rec, alerts)

	sched := scheduler.NewScheduler(ctx, engine, wallet, rec, cfg.Prize())
	if err := sched.Register(cfg.Arena.Schedule); err != nil {
		return err
	}
	sched.Start()

	pollDone := make(chan struct{})
	if tn != nil {
		go func() {
			defer close(pollDone)
			tn.StartPolling(ctx, sched.HandleCommand)
		}()
		log.Info("telegram polling started")
	} else {
		close(pollDone)
	}

	if cfg.ShouldRunOnStart() {
		log.Info("run on start enabled, starting first round now")
		sched.RunAsync()
	}

	log.Infof("arena running in m/%s (prize %s, window %s). Press Ctrl+C to stop.",
		cfg.Moltbook.Category, cfg.Prize(), cfg.Arena.Window)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	select {
	case <-sigCh:
		log.Info("shutdown signal received, stopping...")
	case <-ctx.Done():
	}
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Wallet.PayoutTimeout+shutdownGrace)
	defer stopCancel()
	// No operator command may start a round once the scheduler is stopping.
	select {
	case <-pollDone:
	case <-stopCtx.Done():
		log.Warn("telegram polling did not stop in time")
	}
	if err := sched.Stop(stopCtx); err != nil {
		log.Errorf("stopping scheduler: %v", err)
	}
	log.Info("TokenArena stopped")
	return nil
}

func openRecorder(path string) recorder.Recorder {
	if path == "" {
		log.Warn("sqlite path not set, round history kept in memory")
		return recorder.NewMemoryRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(path)
	if err != nil {
		log.Warnf("init sqlite recorder failed, using memory: %v", err)
		return recorder.NewMemoryRecorder()
	}
	return sr
}
