package reconcile

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// External tables live in the second hosted project and are read-only here:
// each fetch sees an immutable snapshot, created and updated entirely outside
// this system.
const (
	targetsTable  = "sales_targets"
	invoicesTable = "invoices"
)

// ExternalCustomer is a sales-target row keyed by customer name.
type ExternalCustomer struct {
	CustomerName       string          `json:"customer_name"`
	TargetYear         int             `json:"target_year"`
	TargetMonths       string          `json:"target_months"`
	TargetData         json.RawMessage `json:"target_data"`
	InitialTotalValue  decimal.Decimal `json:"initial_total_value"`
	AdjustedTotalValue decimal.Decimal `json:"adjusted_total_value"`
}

// ExternalInvoiceRecord is an invoice row keyed by partner name.
type ExternalInvoiceRecord struct {
	PartnerName string          `json:"partner_name"`
	DateOrder   string          `json:"date_order"`
	AmountTotal decimal.Decimal `json:"amount_total"`
	OrderLines  json.RawMessage `json:"order_lines"`
}

// ExternalData is what the fetch path hands to callers. Empty slices (not an
// error) are the contract for "no external data available".
type ExternalData struct {
	Match    MatchResult             `json:"match"`
	Targets  []ExternalCustomer      `json:"targets"`
	Invoices []ExternalInvoiceRecord `json:"invoices"`
}
