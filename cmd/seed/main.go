// Command seed credits starting stock to agents through the engine, so the
// seeded quantities are journaled like any other replenishment.
//
// Usage: seed -agent u1 -item sim -qty 10
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/rl1809/teleshop-ledger/internal/adapter/storage"
	"github.com/rl1809/teleshop-ledger/internal/core/domain"
	"github.com/rl1809/teleshop-ledger/internal/core/service"
)

func main() {
	driver := flag.String("driver", "sqlite", "database driver (sqlite or mysql)")
	dsn := flag.String("dsn", "teleshop.db", "database DSN")
	agent := flag.String("agent", "", "agent id to credit")
	item := flag.String("item", "", "item type (sim, swap, credit50, credit100)")
	qty := flag.Int("qty", 0, "quantity to credit")
	flag.Parse()

	itemType, ok := domain.ResolveItemType(*item)
	if !ok {
		log.Fatalf("unknown item type %q", *item)
	}
	if *agent == "" || *qty <= 0 {
		log.Fatal("-agent and a positive -qty are required")
	}

	ctx := context.Background()
	db, err := sql.Open(*driver, *dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	if *driver != "mysql" {
		db.SetMaxOpenConns(1)
	}
	if err := storage.InitSchema(ctx, db); err != nil {
		log.Fatalf("failed to init schema: %v", err)
	}

	store := storage.NewSQLAdapter(db)
	ingest := service.NewIngestService(store, nil, nil)
	if err := ingest.Replenish(ctx, *agent, itemType, *qty); err != nil {
		log.Fatalf("replenish failed: %v", err)
	}

	total, err := store.GetQuantity(ctx, *agent, itemType)
	if err != nil {
		log.Fatalf("read back failed: %v", err)
	}
	log.Printf("credited %d %s to %s (now %d)", *qty, itemType, *agent, total)
}
