package erp

import (
	"context"
	"encoding/json"
)

// Product is the slice of the ERP product record the backfill cares about.
type Product struct {
	ID       int64
	Category string
}

type productRow struct {
	ID    int64           `json:"id"`
	Categ json.RawMessage `json:"categ_id"`
}

// ReadProducts resolves category names for the given catalog ids, chunking
// the ids to respect the per-call limit. Calls run sequentially.
func (c *Client) ReadProducts(ctx context.Context, ids []int64) ([]Product, error) {
	var products []Product
	for _, chunk := range ChunkIDs(ids, maxIDsPerRead) {
		result, err := c.ExecuteKw(ctx, "product.product", "read",
			[]any{chunk, []string{"categ_id"}}, nil)
		if err != nil {
			return nil, err
		}

		var rows []productRow
		if err := json.Unmarshal(result, &rows); err != nil {
			return nil, err
		}
		for _, row := range rows {
			products = append(products, Product{
				ID:       row.ID,
				Category: categoryName(row.Categ),
			})
		}
	}
	return products, nil
}

// categoryName unpacks the ERP's many2one tuple [id, "name"]. Records with no
// category come back as `false`, which yields an empty name.
func categoryName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var tuple []json.RawMessage
	if err := json.Unmarshal(raw, &tuple); err != nil || len(tuple) < 2 {
		return ""
	}
	var name string
	if err := json.Unmarshal(tuple[1], &name); err != nil {
		return ""
	}
	return name
}

// ChunkIDs splits ids into slices of at most size elements, preserving order.
func ChunkIDs(ids []int64, size int) [][]int64 {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	var chunks [][]int64
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
