package surveydashboard

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var (
	server *http.Server
)

// StartServer exposes the output directory read-only under /data/,
// health and last-run JSON under /api/, and Prometheus metrics under
// /metrics. No authentication; the port is meant to stay local.
func StartServer(collector *Collector) {
	mux := http.NewServeMux()
	mux.Handle("/api/health", countRequests(collector, "/api/health", http.HandlerFunc(handleHealth)))
	mux.Handle("/api/summary", countRequests(collector, "/api/summary", http.HandlerFunc(handleSummary)))
	mux.Handle("/api/catchment", countRequests(collector, "/api/catchment", http.HandlerFunc(handleCatchment)))
	mux.Handle("/api/cities", countRequests(collector, "/api/cities", http.HandlerFunc(handleCities)))
	files := http.StripPrefix("/data/", http.FileServer(http.Dir(Config.Output.Dir)))
	mux.Handle("/data/", countRequests(collector, "/data/", files))
	mux.Handle("/metrics", collector.Handler())

	addr := fmt.Sprintf(":%d", Config.Server.Port)
	server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()
	log.Printf("server listening on %s, serving %s", addr, Config.Output.Dir)
}

func HandleGracefulShutdown() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Printf("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("server shutdown error: %v", err)
		} else {
			log.Printf("server shut down successfully")
		}
	}
}

func countRequests(c *Collector, label string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.Requests.WithLabelValues(label).Inc()
		next.ServeHTTP(w, r)
	})
}
