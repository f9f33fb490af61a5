package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"midas/api"
	"midas/config"
	"midas/domain/orderbook"
	"midas/infra/logging"
	"midas/infra/memory"
	"midas/infra/monitoring"
	"midas/infra/outbox"
	"midas/infra/sequence"
	"midas/infra/wal"
	"midas/jobs/broadcaster"
	"midas/service"
	"midas/snapshot"
)

func main() {
	cfg := config.LoadFromEnv("")

	logger, err := logging.NewLogger(cfg.Server.LogLevel)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	monitoring.Init()

	// ---------------- Journal ----------------

	journal, err := wal.Open(wal.Config{
		Dir:             cfg.Journal.Dir,
		SegmentSize:     cfg.Journal.SegmentSize,
		SegmentDuration: cfg.Journal.SegmentAge,
	})
	if err != nil {
		logger.Fatal("journal init failed", zap.Error(err))
	}
	defer journal.Close()

	// ---------------- Trade outbox ----------------

	ob, err := outbox.Open(cfg.Outbox.Dir)
	if err != nil {
		logger.Fatal("outbox init failed", zap.Error(err))
	}
	defer ob.Close()

	// ---------------- Engine ----------------

	seq := sequence.New(0)
	pool := memory.NewPool[orderbook.Order](nil)
	tape := memory.NewRing[orderbook.Trade](cfg.Tape.Size)
	engine := orderbook.NewMatchingEngine(pool)

	// ---------------- Recovery ----------------

	if err := service.Recover(engine, seq, cfg.Journal.Dir, cfg.Snapshot.Dir, logger); err != nil {
		logger.Fatal("recovery failed", zap.Error(err))
	}

	// ---------------- Service ----------------

	svc := service.NewOrderService(engine, seq, journal, ob, tape, logger)

	// ---------------- Background jobs ----------------

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc.StartSnapshotJob(ctx, cfg.Snapshot.Dir, cfg.Snapshot.Interval)

	if cfg.BroadcastEnabled() {
		producer, err := broadcaster.Dial(cfg.Kafka.Brokers)
		if err != nil {
			logger.Fatal("kafka producer init failed", zap.Error(err))
		}
		bc := broadcaster.New(ob, producer, cfg.Kafka.Topic, cfg.Broadcast.Interval, logger)
		bc.Start(ctx)
		defer bc.Close()
	} else {
		logger.Info("trade broadcast disabled, no kafka brokers configured")
	}

	// ---------------- API ----------------

	srv := api.NewServer(svc, logger)
	svc.OnTrade(srv.BroadcastTrade)

	go func() {
		if err := srv.Start(cfg.Server.ListenAddr); err != nil {
			logger.Fatal("api server exited", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api shutdown failed", zap.Error(err))
	}

	// One last checkpoint so the next boot replays a short tail.
	if err := svc.CheckpointNow(&snapshot.Writer{Dir: cfg.Snapshot.Dir}); err != nil {
		logger.Warn("final checkpoint failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
