// Kanbase is a small project-tracking backend: tickets, workflow columns,
// and sprints persisted in a sheet-style tabular store and exposed through
// a single request-dispatch endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kanbase/internal/board"
	"kanbase/internal/sheet"
	"kanbase/internal/store"
	"kanbase/internal/web"
)

func main() {
	// .env is optional; real env always wins.
	_ = godotenv.Load()

	var (
		addr   = flag.String("addr", envOr("KANBASE_ADDR", ":8080"), "Listen address")
		dbPath = flag.String("db", envOr("KANBASE_DB", "kanbase.db"), "SQLite database path")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	backend, err := sheet.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer backend.Close()

	st := store.New(backend)
	if err := st.Seed(time.Now()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to seed store: %v\n", err)
		os.Exit(1)
	}

	b := board.New(st, logger)
	gw := board.NewGateway(b, backend.Lock(), logger)
	server := web.NewServer(gw, b, logger)

	// Handle signals
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.Start(*addr); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
