package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"illustration-grid/backend/pipeline"
)

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	cfg := pipeline.DefaultConfig()
	if s := os.Getenv("GRID_STRATEGY"); s != "" {
		cfg.Strategy = pipeline.Strategy(strings.ToLower(s))
	}
	addr := os.Getenv("GRID_ADDR")
	if addr == "" {
		addr = ":8085"
	}

	srv := &server{pipeline: pipeline.New(cfg), maxDocs: cfg.MaxDocuments}

	mux := http.NewServeMux()
	mux.Handle("/api/process-pdfs", corsMiddleware(http.HandlerFunc(srv.handleProcess)))
	mux.Handle("/", http.FileServer(http.Dir("static")))

	log.Printf("listening on %s (strategy=%s)", addr, cfg.Strategy)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
