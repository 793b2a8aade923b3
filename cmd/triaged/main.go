package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"triage/internal/classifier"
	"triage/internal/config"
	"triage/internal/daemon"
	"triage/internal/logging"
	"triage/internal/notifications"
	"triage/internal/queue"
	"triage/internal/store"
	"triage/internal/workflow"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	queueStore, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return
	}

	entryStore, err := store.Open(cfg)
	if err != nil {
		logger.Error("open feedback store", logging.Error(err))
		_ = queueStore.Close()
		return
	}

	notifier := notifications.NewService(cfg)
	engine := workflow.NewEngineWithNotifier(cfg, queueStore, logger, notifier,
		classifier.NewHandler(classifier.NewLLMClient(cfg.GetLLM()), logger),
		store.NewHandler(entryStore, logger),
		notifications.NewHandler(notifier, cfg.Notifications.Critical, logger),
	)

	d, err := daemon.New(cfg, queueStore, entryStore, logger, engine)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("triaged shutting down")
}
