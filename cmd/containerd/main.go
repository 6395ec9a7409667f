// Package main runs containerd, a small operator-facing daemon that hosts a
// fixed set of pkg/container instances in memory, exposes their statistics
// over HTTP, periodically checkpoints them to disk (and optionally S3), and
// reacts to external mutation events — following the same flag-parsing,
// .env-loading, gops-agent, and signal-driven graceful shutdown idiom as the
// teacher's cmd/cc-backend/main.go.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/google/gops/agent"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sokoban-go/sokoban/internal/containerconfig"
	"github.com/sokoban-go/sokoban/internal/daemon"
)

func main() {
	var flagConfigFile string
	var flagGops bool
	var flagLogLevel string
	flag.StringVar(&flagConfigFile, "config", "./config.json", "Overwrite the default sizing and wiring options by those specified in `config.json`")
	flag.BoolVar(&flagGops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	flag.StringVar(&flagLogLevel, "loglevel", "info", "One of: debug, info, warn, err")
	flag.Parse()

	cclog.Init(flagLogLevel, true)

	if flagGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			cclog.Fatalf("gops/agent.Listen failed: %s", err.Error())
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		cclog.Fatalf("parsing '.env' file failed: %s", err.Error())
	}

	cfg, err := containerconfig.Load(flagConfigFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && flagConfigFile == "./config.json" {
			cfg = containerconfig.Default()
		} else {
			cclog.Fatal(err)
		}
	}

	if cfg.Gops && !flagGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			cclog.Fatalf("gops/agent.Listen failed: %s", err.Error())
		}
	}

	d, err := daemon.New(cfg)
	if err != nil {
		cclog.Fatalf("constructing daemon: %s", err.Error())
	}

	if cfg.Nats.Address != "" {
		pub, err := daemon.NewEventPublisher(cfg.Nats.Address, cfg.Nats.Subject)
		if err != nil {
			cclog.Fatalf("connecting to nats: %s", err.Error())
		}
		d.AttachEvents(pub)
		defer pub.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interval, err := cfg.CheckpointInterval()
	if err != nil {
		cclog.Fatal(err)
	}
	checkpointer, err := daemon.NewCheckpointer(ctx, d, cfg.Checkpoint)
	if err != nil {
		cclog.Fatalf("constructing checkpointer: %s", err.Error())
	}
	if err := checkpointer.Start(ctx, interval); err != nil {
		cclog.Fatalf("starting checkpoint scheduler: %s", err.Error())
	}

	root := mux.NewRouter()
	reg := prometheus.NewRegistry()
	root.Handle("/metrics", d.RegisterMetrics(reg)).Methods(http.MethodGet)
	root.PathPrefix("/inspect/").Handler(d.InspectRouter(cfg.RateLimitPerSecond))

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      root,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		cclog.Infof("containerd listening at %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			cclog.Fatal(err)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	cclog.Info("containerd: shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		cclog.Errorf("containerd: server shutdown: %s", err.Error())
	}
	if err := checkpointer.Shutdown(); err != nil {
		cclog.Errorf("containerd: checkpoint scheduler shutdown: %s", err.Error())
	}
	cancel()
	wg.Wait()
}
