package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jcooper22-22/extreme-day-trip-finder/internal/airports"
	"github.com/jcooper22-22/extreme-day-trip-finder/internal/auth"
	"github.com/jcooper22-22/extreme-day-trip-finder/internal/config"
	"github.com/jcooper22-22/extreme-day-trip-finder/internal/daytrip"
	"github.com/jcooper22-22/extreme-day-trip-finder/internal/httpx"
	"github.com/jcooper22-22/extreme-day-trip-finder/internal/provider"
	"github.com/jcooper22-22/extreme-day-trip-finder/pkg/logger"
	"github.com/jcooper22-22/extreme-day-trip-finder/pkg/metrics"
)

func main() {
	// .env is optional; real deployments set env vars directly
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logger.New(cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	catalog, err := airports.LoadFile(cfg.AirportsCSV)
	if err != nil {
		log.Fatalw("could not load airport catalog", "path", cfg.AirportsCSV, "err", err)
	}
	served, err := catalog.ServedFile(cfg.ServedCSV)
	if err != nil {
		log.Fatalw("could not load served airports", "path", cfg.ServedCSV, "err", err)
	}

	met := metrics.New("daytrip")
	fetcher := provider.NewRyanair(cfg, log)
	searchSvc := daytrip.NewService(fetcher, cfg, log, met)

	publicMux := http.NewServeMux()

	// Public: login to get JWT
	publicMux.HandleFunc("/auth/login", auth.LoginHandler(cfg))

	// Protected group with JWT
	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("/trips/search", httpx.SearchHandler(searchSvc, catalog, log))
	protectedMux.HandleFunc("/airports", httpx.AirportsHandler(served))
	protectedMux.HandleFunc("/ws/", httpx.SubscribeWSHandler(searchSvc, catalog, log)) // /ws/STN?start=...&end=...&budget=...
	protectedMux.Handle("/metrics", promhttp.HandlerFor(met.Registry, promhttp.HandlerOpts{}))

	// handler to control authenticated routes
	root := auth.JWTMiddleware(publicMux, protectedMux, cfg, log)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           root,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      0,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Infow("server listening", "addr", srv.Addr)
		if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
			log.Infow("tls enabled")
			log.Fatalw("server stopped", "err", srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile))
		} else {
			log.Fatalw("server stopped", "err", srv.ListenAndServe())
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
