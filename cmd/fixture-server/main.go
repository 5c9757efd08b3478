// The fixture server exposes seeded rows over the store wire protocol so the
// insights server can be pointed at local data. By default rows live in an
// in-memory SQLite database and disappear on exit; pass -db for a file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/tjfontaine/support-insights/internal/devstore"
)

func main() {
	addr := flag.String("addr", ":9091", "listen address")
	db := flag.String("db", "file:fixtures?mode=memory&cache=shared", "SQLite DSN")
	seed := flag.String("seed", "", `seed file holding {"threads":[...],"messages":[...],"comparisons":[...]}`)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	fixtures, err := devstore.Open(*db)
	if err != nil {
		log.Fatalf("Failed to open fixture store: %v", err)
	}
	defer fixtures.Close()

	if *seed != "" {
		raw, err := os.ReadFile(*seed)
		if err != nil {
			log.Fatalf("Failed to read seed file: %v", err)
		}
		var ds devstore.Dataset
		if err := json.Unmarshal(raw, &ds); err != nil {
			log.Fatalf("Failed to parse seed file: %v", err)
		}
		if err := fixtures.Seed(context.Background(), ds); err != nil {
			log.Fatalf("Failed to seed fixture store: %v", err)
		}
		logger.Info("fixtures seeded",
			slog.Int("threads", len(ds.Threads)),
			slog.Int("messages", len(ds.Messages)),
			slog.Int("comparisons", len(ds.Comparisons)),
		)
	}

	logger.Info("fixture store listening", slog.String("addr", *addr))
	if err := http.ListenAndServe(*addr, fixtures.Handler()); err != nil {
		log.Fatalf("Fixture server failed: %v", err)
	}
}
