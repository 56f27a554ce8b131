// Command ecfr ingests eCFR data into SQLite and serves the read API.
//
//	ecfr [-config ecfr.yaml] sync             ingest agencies + all configured titles
//	ecfr [-config ecfr.yaml] run DATE TITLE   one pipeline run for (date, title)
//	ecfr [-config ecfr.yaml] admin            agency directory only
//	ecfr [-config ecfr.yaml] serve            read-only HTTP API
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/ecfr/etl"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config (defaults apply if omitted)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cfg := etl.DefaultConfig()
	if *cfgPath != "" {
		var err error
		cfg, err = etl.LoadConfig(*cfgPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	svc, err := etl.New(cfg, logger)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "sync":
		if err := svc.SyncAll(ctx); err != nil {
			log.Fatalf("sync: %v", err)
		}
	case "run":
		if len(args) != 3 {
			usage()
			os.Exit(2)
		}
		if err := svc.Run(ctx, args[1], args[2]); err != nil {
			log.Fatalf("run: %v", err)
		}
	case "admin":
		if err := svc.RunAdmin(ctx); err != nil {
			log.Fatalf("admin: %v", err)
		}
	case "serve":
		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)
		svc.RegisterHTTP(r)

		logger.Info("ecfr read API listening", "addr", cfg.Listen)
		srv := &http.Server{Addr: cfg.Listen, Handler: r}
		go func() {
			<-ctx.Done()
			srv.Shutdown(context.Background())
		}()
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: ecfr [-config ecfr.yaml] <command>

commands:
  sync             ingest the agency directory, then every configured title
  run DATE TITLE   one full pipeline run for a title on an ISO 8601 date
  admin            ingest the agency directory only
  serve            serve the read-only HTTP API`)
}
