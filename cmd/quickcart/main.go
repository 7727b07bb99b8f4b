package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-quickcart/internal/cli"
	"github.com/ariefcatur/go-quickcart/internal/config"
	"github.com/ariefcatur/go-quickcart/internal/filestore"
	kafkax "github.com/ariefcatur/go-quickcart/internal/kafka"
	"github.com/ariefcatur/go-quickcart/internal/logging"
	"github.com/ariefcatur/go-quickcart/internal/postgres"
	"github.com/ariefcatur/go-quickcart/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fatal("config: %v", err)
	}
	log := logging.Init(logging.Options{
		Service:   cfg.ServiceName,
		File:      cfg.LogFile,
		Level:     cfg.LogLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		// after the first signal a second one kills the process outright
		<-ctx.Done()
		stop()
	}()

	var store session.Store
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			fatal("db connect: %v", err)
		}
		defer db.Close()
		pg := &postgres.Store{DB: db}
		if err := pg.EnsureSchema(ctx); err != nil {
			fatal("%v", err)
		}
		store = pg
	default:
		fs, err := filestore.Open(cfg.DataDir)
		if err != nil {
			fatal("%v", err)
		}
		store = fs
	}

	opts := []session.Option{
		session.WithLogger(logging.New("session")),
		session.WithServiceName(cfg.ServiceName),
	}
	if len(cfg.KafkaBrokers) > 0 {
		prodCtx, cancelProd := context.WithCancel(context.Background())
		prod := kafkax.NewProducer(cfg.KafkaBrokers, 256)
		prod.Start(prodCtx)
		defer func() {
			prod.Close()
			prod.WaitClosed()
			cancelProd()
		}()
		opts = append(opts, session.WithPublisher(prod))
		log.Info("publishing events", "brokers", cfg.KafkaBrokers)
	}

	s, err := session.Open(ctx, store, opts...)
	if err != nil {
		fatal("%v", err)
	}

	fmt.Println("QuickCart...")
	cli.NewUI(s, os.Stdin, os.Stdout).Run(ctx)
	if ctx.Err() != nil {
		fmt.Println("\nInterrupted.")
	}
	log.Info("session ended")
}

func fatal(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logging.Base().Error(msg)
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
