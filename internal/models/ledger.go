package models

import (
	"time"
)

// LedgerStatus defines the manifest lifecycle
type LedgerStatus string

const (
	LedgerStatusDispatched LedgerStatus = "dispatched"
	LedgerStatusDelivered  LedgerStatus = "delivered"
)

// Ledger is a dispatch manifest: one vehicle trip's worth of parcels bound for one destination.
// A ledger with no member parcels must not persist.
type Ledger struct {
	ID                     string       `gorm:"primaryKey;type:uuid" json:"id"`
	LedgerNo               string       `gorm:"column:ledger_no;uniqueIndex;not null" json:"ledgerNo"`
	VehicleNo              string       `gorm:"not null;index" json:"vehicleNo"`
	SourceWarehouseID      string       `gorm:"type:uuid;not null" json:"sourceWarehouseId"`
	DestinationWarehouseID string       `gorm:"type:uuid;not null;index" json:"destinationWarehouseId"`
	Status                 LedgerStatus `gorm:"type:varchar(16);not null;default:dispatched" json:"status"`
	Charges                int64        `gorm:"not null;default:0" json:"charges"`
	DispatchedAt           time.Time    `gorm:"not null" json:"dispatchedAt"`
	DeliveredAt            *time.Time   `json:"deliveredAt,omitempty"`
	AddedBy                *string      `gorm:"type:uuid" json:"addedBy,omitempty"`
	CreatedAt              time.Time    `json:"createdAt"`

	// Member parcel IDs, loaded from ledger_parcels
	ParcelIDs []string `gorm:"-" json:"parcels"`
}

// TableName specifies the table name for Ledger model
func (Ledger) TableName() string {
	return "ledgers"
}

// LedgerParcel is one membership row of a ledger. A parcel belongs to at most one ledger.
type LedgerParcel struct {
	LedgerID string `gorm:"primaryKey;type:uuid;index" json:"ledgerId"`
	ParcelID string `gorm:"primaryKey;type:uuid;uniqueIndex" json:"parcelId"`
}

// TableName specifies the table name for LedgerParcel model
func (LedgerParcel) TableName() string {
	return "ledger_parcels"
}
