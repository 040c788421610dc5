/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the allocation and payment-scheduling server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Build the business calendar and the daily ceiling
  3. Initialize SQLite store
  4. Create API handler with dependencies
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: letras.db)
           Use ":memory:" for in-memory database

ENVIRONMENT:
  CEILING        initial daily ceiling (decimal, default 5000)
  HOLIDAYS       comma-separated YYYY-MM-DD dates added to the default set
  HOLIDAYS_FILE  file with one YYYY-MM-DD date per line, same effect

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/letras.db"

  # Run with in-memory database and a custom ceiling
  CEILING=8000 ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/andino/letras-engine/api"
	"github.com/andino/letras-engine/engine"
	"github.com/andino/letras-engine/store/sqlite"
)

func main() {
	// .env is optional; real env always wins.
	_ = godotenv.Load()

	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "letras.db", "SQLite database path")
	flag.Parse()

	calendar, err := buildCalendar()
	if err != nil {
		log.Fatalf("Failed to build calendar: %v", err)
	}
	ceiling := engine.NewCeiling(envCeiling())

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler and router
	handler := api.NewHandler(store, calendar, ceiling)
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// buildCalendar merges the default holiday set with any dates from the
// HOLIDAYS environment variable and the HOLIDAYS_FILE file.
func buildCalendar() (*engine.Calendar, error) {
	holidays := engine.DefaultHolidays()
	if extra := os.Getenv("HOLIDAYS"); extra != "" {
		for _, h := range strings.Split(extra, ",") {
			if h = strings.TrimSpace(h); h != "" {
				holidays = append(holidays, h)
			}
		}
	}
	if path := os.Getenv("HOLIDAYS_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read holidays file: %w", err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				holidays = append(holidays, line)
			}
		}
	}
	return engine.NewCalendarFromStrings(holidays)
}

// envCeiling reads CEILING; a missing or invalid value falls back to
// the default inside NewCeiling.
func envCeiling() decimal.Decimal {
	raw := os.Getenv("CEILING")
	if raw == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		log.Printf("Warning: invalid CEILING %q, using default", raw)
		return decimal.Zero
	}
	return value
}
