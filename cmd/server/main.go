/*
Entry point of the respd server. It loads configuration, starts the
active-expiry sweep, opens the listener, and runs until a shutdown
signal arrives.
*/
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lineframe/respd/internal/config"
	"github.com/lineframe/respd/internal/logging"
	"github.com/lineframe/respd/internal/resp"
	"github.com/lineframe/respd/internal/server"
	"github.com/lineframe/respd/internal/store"
)

func main() {
	log := logging.New()

	configPath := flag.String("config", "", "path to a redis.conf-style config file")
	host := flag.String("host", "", "override the listen host")
	port := flag.Int("port", 0, "override the listen port")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config: %v", err)
		os.Exit(1)
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}

	log.Info(">>>> respd server <<<<")
	log.Info("config file: %s", cfg.Filepath())

	st := store.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	expirer := store.NewExpirer(st, time.Duration(cfg.ExpireIntervalMs)*time.Millisecond)
	go expirer.Run(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Warn("signal received, starting graceful shutdown...")
		cancel()
	}()

	limits := resp.Limits{
		MaxBulkBytes: cfg.MaxBulkBytes,
		MaxArrayLen:  cfg.MaxArrayLen,
	}

	if err := server.Listen(ctx, cfg.Addr(), st, log, limits); err != nil {
		log.Error("listener failed: %v", err)
		os.Exit(1)
	}

	log.Warn("all connections closed, goodbye")
}
