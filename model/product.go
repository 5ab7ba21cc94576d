package model

import (
	"time"

	"gorm.io/gorm"
)

// Product is a catalog item. Stock is nullable: NULL means the product's
// inventory is untracked and checkout never constrains it. Rows are
// soft-deleted so historical transaction items keep a valid reference.
type Product struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Name       string         `gorm:"not null" json:"name"`
	Barcode    string         `gorm:"uniqueIndex" json:"barcode"`
	Price      int64          `gorm:"not null" json:"price"`
	Stock      *int64         `json:"stock"`
	CategoryID *uint          `json:"category_id"`
	Category   *Category      `json:"category,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// Tracked reports whether the product's stock is counted at all.
func (p *Product) Tracked() bool {
	return p.Stock != nil
}

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
