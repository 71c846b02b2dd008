package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgellow/chat-front/internal/assets"
	"github.com/dgellow/chat-front/internal/authclient"
	"github.com/dgellow/chat-front/internal/captcha"
	"github.com/dgellow/chat-front/internal/config"
	"github.com/dgellow/chat-front/internal/log"
	"github.com/dgellow/chat-front/internal/metrics"
	"github.com/dgellow/chat-front/internal/server"
	"github.com/dgellow/chat-front/internal/upstream"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

var BuildVersion = "dev"

func main() {
	version := flag.Bool("version", false, "print version and exit")
	envFile := flag.String("env-file", "", "load environment from this file before reading config")
	flag.Parse()

	if *version {
		fmt.Println(BuildVersion)
		return
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.LogError("Failed to load env file %s: %v", *envFile, err)
			os.Exit(1)
		}
	} else {
		// A local .env is optional.
		_ = godotenv.Load()
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.LogError("Invalid configuration: %v", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		log.LogError("Gateway exited with error: %v", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	log.LogInfoWithFields("main", "Starting chat-front", map[string]any{
		"version": BuildVersion,
		"addr":    cfg.Addr,
	})

	store := assets.Empty()
	if cfg.AssetsDir != "" {
		var err error
		store, err = assets.New(os.DirFS(cfg.AssetsDir))
		if err != nil {
			return fmt.Errorf("failed to load assets from %s: %w", cfg.AssetsDir, err)
		}
	}

	var authOpts []authclient.Option
	if cfg.AuthOrigin != "" {
		authOpts = append(authOpts, authclient.WithOrigin(cfg.AuthOrigin))
	}

	var collector *metrics.Collector
	if cfg.MetricsAddr != "" {
		collector = metrics.NewCollector(nil)
	}

	gateway := server.New(
		cfg,
		store,
		captcha.NewVerifier(cfg.CaptchaSiteKey, cfg.CaptchaSecretKey),
		authclient.New(cfg.AuthClientID, authOpts...),
		upstream.New(cfg.UpstreamOrigin),
		collector,
	)

	httpServer := server.NewHTTPServer(gateway.Handler(), cfg.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(httpServer.Start)

	var metricsServer *server.HTTPServer
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsServer = server.NewHTTPServer(mux, cfg.MetricsAddr)
		group.Go(metricsServer.Start)
	}

	group.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if metricsServer != nil {
			_ = metricsServer.Stop(shutdownCtx)
		}
		return httpServer.Stop(shutdownCtx)
	})

	return group.Wait()
}
