package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-quickcart/internal/config"
	kafkax "github.com/ariefcatur/go-quickcart/internal/kafka"
	"github.com/ariefcatur/go-quickcart/internal/logging"
	"github.com/ariefcatur/go-quickcart/internal/notify"
	"github.com/ariefcatur/go-quickcart/internal/orders"
	"github.com/ariefcatur/go-quickcart/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logging.Init(logging.Options{
		Service:   cfg.ServiceName + "-notifier",
		File:      cfg.LogFile,
		Level:     cfg.LogLevel,
		Console:   true,
	})
	if len(cfg.KafkaBrokers) == 0 {
		log.Error("KAFKA_BROKERS is required")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("redis ping", "addr", cfg.RedisAddr, "err", err)
		os.Exit(1)
	}

	svc := &notify.Service{
		Cache: &redisx.StatusCache{RDB: rdb, Service: cfg.ServiceName + "-notifier"},
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, orders.TopicOrders, cfg.NotifierWorkers)
	log.Info("notifier started", "group", cfg.NotifierGroup, "topic", orders.TopicOrders, "workers", cfg.NotifierWorkers)
	if err := cons.Start(logging.WithCtx(ctx, logging.New("notifier")), svc.HandleOrderEvent); err != nil {
		log.Error("consumer exit", "err", err)
		os.Exit(1)
	}
	log.Info("notifier stopped")
}
