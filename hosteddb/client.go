// Package hosteddb reads from an independently hosted Postgres project over
// its REST query interface. Only the filter shapes this app needs are
// supported: equality, not-null, ordering and limit.
package hosteddb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config carries everything the client needs. Credentials are injected by the
// caller at construction time; nothing here reads the process environment.
type Config struct {
	BaseURL string `validate:"required,url"`
	APIKey  string `validate:"required"`
	Timeout time.Duration
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New builds a client from an explicit Config. There is no package-level
// singleton; callers own the lifecycle.
func New(cfg Config) (*Client, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("hosteddb config invalid: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// Query accumulates filters for a single table read.
type Query struct {
	selects string
	params  []param
	order   string
	limit   int
}

type param struct {
	key   string
	value string
}

func NewQuery() *Query {
	return &Query{}
}

func (q *Query) Select(columns string) *Query {
	q.selects = columns
	return q
}

func (q *Query) Eq(column string, value string) *Query {
	q.params = append(q.params, param{key: column, value: "eq." + value})
	return q
}

func (q *Query) NotNull(column string) *Query {
	q.params = append(q.params, param{key: column, value: "not.is.null"})
	return q
}

func (q *Query) OrderAsc(column string) *Query {
	q.order = column + ".asc"
	return q
}

func (q *Query) OrderDesc(column string) *Query {
	q.order = column + ".desc"
	return q
}

func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

func (q *Query) encode() string {
	values := url.Values{}
	if q.selects != "" {
		values.Set("select", q.selects)
	}
	for _, p := range q.params {
		values.Add(p.key, p.value)
	}
	if q.order != "" {
		values.Set("order", q.order)
	}
	if q.limit > 0 {
		values.Set("limit", strconv.Itoa(q.limit))
	}
	return values.Encode()
}

// Get reads rows from table into dest (a pointer to a slice of row structs).
// Failures are surfaced to the caller and never retried here; the fetch paths
// treat them as reportable errors, not fatal ones.
func (c *Client) Get(ctx context.Context, table string, q *Query, dest any) error {
	endpoint := c.baseURL + "/rest/v1/" + table
	if q != nil {
		if encoded := q.encode(); encoded != "" {
			endpoint = endpoint + "?" + encoded
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("hosteddb error %d on %s: %s", resp.StatusCode, table, strings.TrimSpace(string(body)))
	}

	return json.Unmarshal(body, dest)
}

// DistinctColumn reads a single text column off every row of a table and
// dedupes client-side, preserving first-seen order. The REST interface has no
// distinct operator; the unbounded read is acceptable only because the
// external projects are small.
func (c *Client) DistinctColumn(ctx context.Context, table string, column string) ([]string, error) {
	var rows []map[string]string
	q := NewQuery().Select(column).NotNull(column)
	if err := c.Get(ctx, table, q, &rows); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(rows))
	var out []string
	for _, row := range rows {
		v := strings.TrimSpace(row[column])
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out, nil
}
