package backfill

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/fieldsales_backend/config"
	"bitbucket.org/mmdatafocus/fieldsales_backend/erp"
	"bitbucket.org/mmdatafocus/fieldsales_backend/models"
)

func TestExtractExternalRef(t *testing.T) {
	cases := []struct {
		name string
		item models.StockItem
		want int64
		ok   bool
	}{
		{
			name: "notes JSON wins",
			item: models.StockItem{Notes: `{"erp_product_id":42}`, ExternalRef: 99},
			want: 42,
			ok:   true,
		},
		{
			name: "raw column fallback on free text",
			item: models.StockItem{Notes: "delivered friday", ExternalRef: 99},
			want: 99,
			ok:   true,
		},
		{
			name: "raw column fallback on empty notes",
			item: models.StockItem{ExternalRef: 7},
			want: 7,
			ok:   true,
		},
		{
			name: "JSON without the id falls back",
			item: models.StockItem{Notes: `{"supplier":"x"}`, ExternalRef: 3},
			want: 3,
			ok:   true,
		},
		{
			name: "nothing to extract",
			item: models.StockItem{Notes: "no id here"},
			ok:   false,
		},
	}

	for _, c := range cases {
		got, ok := ExtractExternalRef(c.item)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("%s: got (%d,%v), want (%d,%v)", c.name, got, ok, c.want, c.ok)
		}
	}
}

// fakeERP answers authenticate and product.product read. Even ids resolve to
// Beverages, odd ids to Snacks, except id 13 which has no category.
func fakeERP(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Params struct {
				Method string `json:"method"`
				Args   []any  `json:"args"`
			} `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode rpc: %v", err)
		}
		if req.Params.Method == "authenticate" {
			w.Write([]byte(`{"jsonrpc":"2.0","result":7}`))
			return
		}

		// args: [db, uid, password, model, method, [[ids],[fields]], kwargs]
		call := req.Params.Args[5].([]any)
		ids := call[0].([]any)
		var rows []string
		for _, raw := range ids {
			id := int64(raw.(float64))
			if id == 13 {
				rows = append(rows, fmt.Sprintf(`{"id":%d,"categ_id":false}`, id))
				continue
			}
			category := "Snacks"
			if id%2 == 0 {
				category = "Beverages"
			}
			rows = append(rows, fmt.Sprintf(`{"id":%d,"categ_id":[1,"%s"]}`, id, category))
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","result":[%s]}`, strings.Join(rows, ","))
	}))
}

func TestBackfillIdempotentAndKeysetPaginated(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires mysql)")
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	models.MigrateTable()
	db := config.GetDB()

	if err := db.Exec("DELETE FROM stock_items").Error; err != nil {
		t.Fatalf("clean stock_items: %v", err)
	}

	// 230 rows: most with a notes JSON id, some with only the raw ref, some
	// unparseable, and one pointing at the category-less product 13.
	for i := 1; i <= 230; i++ {
		item := models.StockItem{
			ProductName: fmt.Sprintf("Item %d", i),
			Category:    models.CategoryPlaceholder,
		}
		switch {
		case i%10 == 0:
			item.Notes = "hand-entered row, no reference"
		case i%7 == 0:
			item.ExternalRef = int64(i)
		case i%50 == 3:
			item.Notes = `{"erp_product_id":13}`
		default:
			item.Notes = fmt.Sprintf(`{"erp_product_id":%d}`, i)
		}
		if err := db.Create(&item).Error; err != nil {
			t.Fatalf("seed row %d: %v", i, err)
		}
	}

	srv := fakeERP(t)
	defer srv.Close()
	erpClient, err := erp.New(erp.Config{
		URL: srv.URL, Database: "test", Username: "u", Password: "p",
	})
	if err != nil {
		t.Fatalf("erp.New: %v", err)
	}

	runner := NewRunner(db, erpClient, config.GetLogger())
	runner.PageSize = 100

	// Keyset pagination: every id of batch N+1 is strictly greater than the
	// maximum id of batch N.
	batch1, err := runner.fetchBatch(ctx, 0)
	if err != nil {
		t.Fatalf("fetchBatch: %v", err)
	}
	if len(batch1) != 100 {
		t.Fatalf("expected a full first batch, got %d", len(batch1))
	}
	maxID := batch1[len(batch1)-1].ID
	batch2, err := runner.fetchBatch(ctx, maxID)
	if err != nil {
		t.Fatalf("fetchBatch: %v", err)
	}
	for _, row := range batch2 {
		if row.ID <= maxID {
			t.Fatalf("batch 2 revisited id %d (batch 1 max %d)", row.ID, maxID)
		}
	}

	first, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Scanned != 230 {
		t.Errorf("first run scanned %d, want 230", first.Scanned)
	}
	if first.Updated == 0 {
		t.Error("first run updated nothing")
	}

	// Rerun from scratch: every previously updated row fails the placeholder
	// filter, so the second pass writes nothing.
	second, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Updated != 0 {
		t.Errorf("second run updated %d rows, want 0", second.Updated)
	}
	if second.Scanned != first.Skipped {
		t.Errorf("second run should rescan exactly the skipped rows: scanned %d, skipped before %d",
			second.Scanned, first.Skipped)
	}

	var remaining int64
	if err := db.Model(&models.StockItem{}).
		Where("category = ?", models.CategoryPlaceholder).
		Count(&remaining).Error; err != nil {
		t.Fatalf("count remaining: %v", err)
	}
	if remaining != int64(first.Skipped) {
		t.Errorf("remaining placeholder rows %d, want %d", remaining, first.Skipped)
	}
}
