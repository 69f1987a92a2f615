package models

import (
	"time"
)

// ParcelStatus defines the consignment lifecycle
type ParcelStatus string

const (
	ParcelStatusArrived    ParcelStatus = "arrived"
	ParcelStatusDispatched ParcelStatus = "dispatched"
	ParcelStatusDelivered  ParcelStatus = "delivered"
)

// Valid reports whether s is a known lifecycle status
func (s ParcelStatus) Valid() bool {
	switch s {
	case ParcelStatusArrived, ParcelStatusDispatched, ParcelStatusDelivered:
		return true
	}
	return false
}

// PaymentMode defines who pays for the consignment
type PaymentMode string

const (
	PaymentToPay PaymentMode = "To Pay" // collected from the receiver
	PaymentPaid  PaymentMode = "Paid"   // settled at booking
)

// Valid reports whether m is a known payment mode
func (m PaymentMode) Valid() bool {
	return m == PaymentToPay || m == PaymentPaid
}

// Parcel is the central consignment record.
// Freight and Hamali are always Σ item amount × quantity over the current items.
type Parcel struct {
	ID                     string       `gorm:"primaryKey;type:uuid" json:"id"`
	TrackingID             string       `gorm:"column:tracking_id;uniqueIndex;not null" json:"trackingId"`
	SenderID               string       `gorm:"type:uuid;not null" json:"senderId"`
	ReceiverID             string       `gorm:"type:uuid;not null" json:"receiverId"`
	SourceWarehouseID      string       `gorm:"type:uuid;not null;index" json:"sourceWarehouseId"`
	DestinationWarehouseID string       `gorm:"type:uuid;not null;index" json:"destinationWarehouseId"`
	Status                 ParcelStatus `gorm:"type:varchar(16);not null;default:arrived;index" json:"status"`
	Payment                PaymentMode  `gorm:"type:varchar(16);not null" json:"payment"`
	IsDoorDelivery         bool         `gorm:"default:false" json:"isDoorDelivery"`
	DoorDeliveryCharge     int64        `gorm:"not null;default:0" json:"doorDeliveryCharge"`
	Freight                int64        `gorm:"not null;default:0" json:"freight"`
	Hamali                 int64        `gorm:"not null;default:0" json:"hamali"`
	LedgerID               *string      `gorm:"type:uuid;index" json:"ledgerId,omitempty"`
	AddedBy                *string      `gorm:"type:uuid" json:"addedBy,omitempty"`
	LastModifiedBy         *string      `gorm:"type:uuid" json:"lastModifiedBy,omitempty"`
	PlacedAt               time.Time    `gorm:"not null;index" json:"placedAt"`
	LastModifiedAt         *time.Time   `json:"lastModifiedAt,omitempty"`

	// Relations
	Items                []Item     `gorm:"foreignKey:ParcelID" json:"items,omitempty"`
	Sender               *Client    `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver             *Client    `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
	SourceWarehouse      *Warehouse `gorm:"foreignKey:SourceWarehouseID" json:"sourceWarehouse,omitempty"`
	DestinationWarehouse *Warehouse `gorm:"foreignKey:DestinationWarehouseID" json:"destinationWarehouse,omitempty"`
}

// TableName specifies the table name for Parcel model
func (Parcel) TableName() string {
	return "parcels"
}

// Bare returns a copy of the parcel with relations stripped, as stored in the parcels table
func (p Parcel) Bare() Parcel {
	p.Items = nil
	p.Sender = nil
	p.Receiver = nil
	p.SourceWarehouse = nil
	p.DestinationWarehouse = nil
	return p
}
