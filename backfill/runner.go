// Package backfill resolves placeholder stock-item categories against the
// ERP product catalog. It is built to be run manually and rerun from scratch:
// rows already categorized no longer match the placeholder filter, so a
// second pass over the same data performs zero updates.
package backfill

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/fieldsales_backend/config"
	"bitbucket.org/mmdatafocus/fieldsales_backend/erp"
	"bitbucket.org/mmdatafocus/fieldsales_backend/models"
	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const moduleName = "backfill"

const lockKey = "lock:category-backfill"

// Runner walks stock items whose category is still the placeholder, resolves
// categories through the ERP, and writes them back. All remote calls are
// sequential; chunk sizes exist to respect payload limits, not to
// parallelize.
type Runner struct {
	db     *gorm.DB
	erp    *erp.Client
	logger *logrus.Logger

	// PageSize is the FETCH_BATCH row limit (keyset pagination by id).
	PageSize int
	// UpdateChunkSize bounds rows per UPSERT write.
	UpdateChunkSize int
	// DryRun reports what would change without writing.
	DryRun bool
}

// Result totals one run. Nothing here is persisted; only the log line
// carries it.
type Result struct {
	Scanned int
	Skipped int
	Updated int
}

func NewRunner(db *gorm.DB, erpClient *erp.Client, logger *logrus.Logger) *Runner {
	return &Runner{
		db:              db,
		erp:             erpClient,
		logger:          logger,
		PageSize:        config.IntFromEnv("BACKFILL_PAGE_SIZE", 100),
		UpdateChunkSize: config.IntFromEnv("BACKFILL_UPDATE_CHUNK_SIZE", 50),
	}
}

type update struct {
	id       uint64
	category string
}

// Run executes FETCH_BATCH -> EXTRACT_IDS -> LOOKUP_EXTERNAL ->
// COMPUTE_UPDATES -> UPSERT until a fetch returns no rows. The cursor is the
// last-seen primary key, in memory only; any failure aborts the whole run
// and a rerun starts over, re-skipping already-categorized rows.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	var result Result

	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, lockKey, 30*time.Minute, nil)
		if err == redislock.ErrNotObtained {
			return result, errors.New("another category backfill is already running")
		} else if err != nil {
			return result, err
		}
		defer func() {
			_ = lock.Release(ctx)
		}()
	}

	var cursor uint64
	for {
		rows, err := r.fetchBatch(ctx, cursor)
		if err != nil {
			return result, err
		}
		if len(rows) == 0 {
			break
		}
		cursor = rows[len(rows)-1].ID
		result.Scanned += len(rows)

		refByRow := make(map[uint64]int64, len(rows))
		var ids []int64
		seen := make(map[int64]bool)
		for _, row := range rows {
			ref, ok := ExtractExternalRef(row)
			if !ok {
				result.Skipped++
				continue
			}
			refByRow[row.ID] = ref
			if !seen[ref] {
				seen[ref] = true
				ids = append(ids, ref)
			}
		}
		if len(ids) == 0 {
			continue
		}

		products, err := r.erp.ReadProducts(ctx, ids)
		if err != nil {
			return result, fmt.Errorf("erp lookup failed: %w", err)
		}
		categoryByRef := make(map[int64]string, len(products))
		for _, p := range products {
			if strings.TrimSpace(p.Category) != "" {
				categoryByRef[p.ID] = strings.TrimSpace(p.Category)
			}
		}

		var updates []update
		for _, row := range rows {
			ref, ok := refByRow[row.ID]
			if !ok {
				continue
			}
			category, ok := categoryByRef[ref]
			if !ok {
				result.Skipped++
				continue
			}
			updates = append(updates, update{id: row.ID, category: category})
		}

		if err := r.applyUpdates(ctx, updates); err != nil {
			return result, err
		}
		result.Updated += len(updates)

		r.logger.WithFields(logrus.Fields{
			"module":  moduleName,
			"cursor":  cursor,
			"scanned": result.Scanned,
			"skipped": result.Skipped,
			"updated": result.Updated,
		}).Info("batch complete")
	}

	return result, nil
}

func (r *Runner) fetchBatch(ctx context.Context, cursor uint64) ([]models.StockItem, error) {
	var rows []models.StockItem
	err := r.db.WithContext(ctx).
		Where("category = ? AND id > ?", models.CategoryPlaceholder, cursor).
		Order("id ASC").
		Limit(r.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// applyUpdates writes categories back in fixed-size chunks. A failed chunk
// aborts the run; earlier chunks stay committed and the placeholder filter
// keeps the rerun from touching them again.
func (r *Runner) applyUpdates(ctx context.Context, updates []update) error {
	if r.DryRun {
		return nil
	}
	for start := 0; start < len(updates); start += r.UpdateChunkSize {
		end := start + r.UpdateChunkSize
		if end > len(updates) {
			end = len(updates)
		}
		chunk := updates[start:end]
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, u := range chunk {
				if err := tx.Model(&models.StockItem{}).
					Where("id = ? AND category = ?", u.id, models.CategoryPlaceholder).
					Update("category", u.category).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("upsert chunk failed: %w", err)
		}
	}
	return nil
}

type noteRef struct {
	ErpProductId int64 `json:"erp_product_id"`
}

// ExtractExternalRef pulls the ERP product id out of a stock item: a JSON
// blob in Notes wins, the raw ExternalRef column is the fallback. Rows that
// yield neither are skipped by the run (counted, never retried).
func ExtractExternalRef(item models.StockItem) (int64, bool) {
	if notes := strings.TrimSpace(item.Notes); notes != "" {
		var ref noteRef
		if err := json.Unmarshal([]byte(notes), &ref); err == nil && ref.ErpProductId > 0 {
			return ref.ErpProductId, true
		}
	}
	if item.ExternalRef > 0 {
		return item.ExternalRef, true
	}
	return 0, false
}
