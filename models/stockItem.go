package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryPlaceholder marks stock items whose category has not been resolved
// against the ERP product catalog yet. The category backfill selects on it,
// which is what makes a rerun idempotent.
const CategoryPlaceholder = "UNCATEGORIZED"

type StockItem struct {
	ID          uint64          `gorm:"primary_key" json:"id"`
	ProductName string          `gorm:"size:200;not null" json:"product_name"`
	Sku         string          `gorm:"size:100" json:"sku"`
	Category    string          `gorm:"size:100;not null;default:'UNCATEGORIZED';index" json:"category"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	// ExternalRef is the raw ERP product id, when the importer captured one.
	ExternalRef int64 `gorm:"default:0" json:"external_ref"`
	// Notes is free-form; imported rows often carry a JSON blob here with an
	// embedded erp_product_id. The backfill tries Notes first, ExternalRef second.
	Notes     string    `gorm:"type:text" json:"notes"`
	AgencyId  int       `gorm:"index" json:"agency_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
