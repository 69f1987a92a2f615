package models

import (
	"time"
)

// SequenceCeiling is the last value a warehouse counter reaches before it wraps back to 1.
const SequenceCeiling = 100000

// Warehouse represents a booking/delivery point. Sequence and MemoSequence are
// the per-warehouse counters behind tracking IDs and ledger memo numbers.
type Warehouse struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	WarehouseCode string    `gorm:"column:warehouse_code;uniqueIndex;not null" json:"warehouseCode"`
	Name          string    `gorm:"not null" json:"name"`
	Address       string    `json:"address"`
	PhoneNo       string    `json:"phoneNo"`
	IsSource      bool      `gorm:"default:false" json:"isSource"`
	DisplayOrder  int       `gorm:"column:display_order;default:0" json:"order"`
	Sequence      int       `gorm:"not null;default:0" json:"sequence"`
	MemoSequence  int       `gorm:"not null;default:0" json:"memoSequence"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TableName specifies the table name for Warehouse model
func (Warehouse) TableName() string {
	return "warehouses"
}

// NextSequence returns the counter value that follows current, wrapping at SequenceCeiling.
func NextSequence(current int) int {
	if current >= SequenceCeiling {
		return 1
	}
	return current + 1
}
