package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/analysis"
	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/config"
	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/imagery"
	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/mapstore"
	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/server"
	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/session"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	maps, err := mapstore.Open(cfg.MapsDir)
	if err != nil {
		log.Fatalf("open map store %s: %v", cfg.MapsDir, err)
	}
	defer maps.Close()

	store := session.NewStore()
	runner := analysis.NewRunner(store)
	provider := imagery.NewSynthetic()

	srv := server.New(cfg, store, runner, provider, maps)

	// Janitor: evict terminal sessions past the retention window.
	janitorDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.SessionRetention / 4)
		defer ticker.Stop()
		for {
			select {
			case <-janitorDone:
				return
			case <-ticker.C:
				if n := store.Sweep(cfg.SessionRetention); n > 0 {
					log.Printf("evicted %d expired sessions", n)
				}
			}
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv.Handler(),
	}

	// Graceful shutdown on signals.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Println("Shutting down...")
		close(janitorDone)
		httpServer.Close()
	}()

	log.Printf("Urban Heat Island Analyzer running on http://localhost:%d", cfg.Port)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("HTTP server error: %v", err)
	}
}
