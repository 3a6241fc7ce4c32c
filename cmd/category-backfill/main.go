package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/fieldsales_backend/backfill"
	"bitbucket.org/mmdatafocus/fieldsales_backend/config"
	"bitbucket.org/mmdatafocus/fieldsales_backend/erp"
	"bitbucket.org/mmdatafocus/fieldsales_backend/models"
	"bitbucket.org/mmdatafocus/fieldsales_backend/utils"
)

func main() {
	pageSize := flag.Int("page-size", 0, "Rows per batch (default from BACKFILL_PAGE_SIZE or 100)")
	chunkSize := flag.Int("chunk-size", 0, "Rows per update chunk (default from BACKFILL_UPDATE_CHUNK_SIZE or 50)")
	dryRun := flag.Bool("dry-run", false, "Resolve categories but write nothing")
	flag.Parse()

	ctx := context.Background()

	// Configuration errors are fatal before any work starts.
	erpClient, err := erp.New(erp.Config{
		URL:      strings.TrimSpace(os.Getenv("ERP_URL")),
		Database: strings.TrimSpace(os.Getenv("ERP_DB")),
		Username: strings.TrimSpace(os.Getenv("ERP_USERNAME")),
		Password: os.Getenv("ERP_PASSWORD"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "erp configuration invalid: %v\n", err)
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 0)
	ctx = utils.SetUserNameInContext(ctx, "CategoryBackfill")

	if _, err := erpClient.Authenticate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "erp authentication failed: %v\n", err)
		os.Exit(1)
	}

	runner := backfill.NewRunner(db, erpClient, config.GetLogger())
	if *pageSize > 0 {
		runner.PageSize = *pageSize
	}
	if *chunkSize > 0 {
		runner.UpdateChunkSize = *chunkSize
	}
	runner.DryRun = *dryRun

	fmt.Printf("Backfilling stock item categories page_size=%d chunk_size=%d dry_run=%v\n",
		runner.PageSize, runner.UpdateChunkSize, runner.DryRun)

	result, err := runner.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backfill aborted after %d rows (%d updated, %d skipped): %v\n",
			result.Scanned, result.Updated, result.Skipped, err)
		os.Exit(1)
	}

	fmt.Printf("Backfill complete: scanned=%d updated=%d skipped=%d\n",
		result.Scanned, result.Updated, result.Skipped)
}
