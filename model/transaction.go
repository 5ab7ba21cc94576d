package model

import (
	"time"

	"gorm.io/datatypes"
)

// Transaction is one completed sale. Rows are append-only: nothing in the
// service updates or deletes them after checkout commits.
type Transaction struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	Code          string            `gorm:"uniqueIndex;not null" json:"code"`
	CashierID     *uint             `json:"cashier_id"`
	Total         int64             `gorm:"not null" json:"total"`
	ItemsSnapshot datatypes.JSON    `gorm:"type:jsonb" json:"items_snapshot"`
	Items         []TransactionItem `json:"items"`
	CreatedAt     time.Time         `json:"created_at"`
}

// TransactionItem is one sold line. UnitPrice is the price at the moment of
// sale; the live product row may change or be soft-deleted afterwards.
type TransactionItem struct {
	ID            uint     `gorm:"primaryKey" json:"id"`
	TransactionID uint     `gorm:"index;not null" json:"transaction_id"`
	ProductID     uint     `gorm:"not null" json:"product_id"`
	Product       *Product `json:"product,omitempty"`
	Quantity      int64    `gorm:"not null" json:"quantity"`
	UnitPrice     int64    `gorm:"not null" json:"unit_price"`
	Subtotal      int64    `gorm:"not null" json:"subtotal"`
}

// ProductSnapshot is the denormalized receipt line stored in
// Transaction.ItemsSnapshot, mirroring what the cashier saw at sale time.
type ProductSnapshot struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Qty       int64  `json:"qty"`
	Subtotal  int64  `json:"subtotal"`
}
