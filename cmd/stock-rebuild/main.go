// stock-rebuild recomputes products.stock from the stock_movements journal.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME_2=... REDIS_ADDRESS=... go run ./cmd/stock-rebuild
//
// With --dry-run it only reports products whose stored stock drifted from the
// journal sum, without changing anything.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/stationery_backend/config"
	"bitbucket.org/mmdatafocus/stationery_backend/models"
	"bitbucket.org/mmdatafocus/stationery_backend/utils"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Report drifted products without rewriting stock")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	if *dryRun {
		type driftRow struct {
			ProductId int
			Name      string
			Stock     int
			Journal   int
		}
		var rows []driftRow
		if err := db.WithContext(ctx).Raw(`
			SELECT p.id AS product_id, p.name, p.stock, COALESCE(m.total, 0) AS journal
			FROM products p
			LEFT JOIN (
				SELECT product_id, SUM(delta) AS total
				FROM stock_movements
				GROUP BY product_id
			) m ON m.product_id = p.id
			WHERE p.stock <> COALESCE(m.total, 0)
			ORDER BY p.id`).Scan(&rows).Error; err != nil {
			fmt.Fprintf(os.Stderr, "drift query failed: %v\n", err)
			os.Exit(1)
		}
		if len(rows) == 0 {
			fmt.Println("no drift: every product matches its movement journal")
			return
		}
		for _, r := range rows {
			fmt.Printf("product=%d name=%q stock=%d journal=%d\n", r.ProductId, r.Name, r.Stock, r.Journal)
		}
		fmt.Printf("%d product(s) drifted\n", len(rows))
		return
	}

	// The rewrite races with live sales, so only one runner at a time.
	config.ConnectRedisWithRetry()
	lock, err := utils.ObtainLock(ctx, "Rebuild", "stock", 5*time.Minute, "stock-rebuild", "main")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer lock.Release(ctx)

	updated, err := models.RebuildProductStock(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("stock rebuild complete (%d product rows written)\n", updated)
}
