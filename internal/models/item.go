package models

import (
	"time"

	"github.com/friendstransport/fleetgo/internal/money"
)

// ItemType is a cargo category from the item-type catalog
type ItemType struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name      string    `gorm:"not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for ItemType model
func (ItemType) TableName() string {
	return "item_types"
}

// Item is one line of cargo inside a parcel. Freight and Hamali are per-unit
// amounts scaled by 100.
type Item struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	ParcelID   string    `gorm:"type:uuid;not null;index" json:"parcelId"`
	Position   int       `gorm:"not null;default:0" json:"position"`
	Name       string    `gorm:"not null" json:"name"`
	ItemTypeID string    `gorm:"type:uuid;not null;index" json:"itemTypeId"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	Freight    int64     `gorm:"not null;default:0" json:"freight"`
	Hamali     int64     `gorm:"not null;default:0" json:"hamali"`
	CreatedAt  time.Time `json:"createdAt"`

	// Relations
	ItemType *ItemType `gorm:"foreignKey:ItemTypeID" json:"itemType,omitempty"`
}

// TableName specifies the table name for Item model
func (Item) TableName() string {
	return "items"
}

// LineFreight returns freight for the whole line (per-unit freight × quantity)
func (i Item) LineFreight() (int64, error) {
	return money.Mul(i.Freight, i.Quantity)
}

// LineHamali returns hamali for the whole line (per-unit hamali × quantity)
func (i Item) LineHamali() (int64, error) {
	return money.Mul(i.Hamali, i.Quantity)
}
