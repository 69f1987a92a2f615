package models

import (
	"time"
)

// PaymentStatus is the collection state of a "To Pay" parcel
type PaymentStatus string

const (
	PaymentStatusToPay    PaymentStatus = "To Pay"
	PaymentStatusReceived PaymentStatus = "Payment Received"
)

// Valid reports whether s is a known payment status
func (s PaymentStatus) Valid() bool {
	return s == PaymentStatusToPay || s == PaymentStatusReceived
}

// PaymentTracking shadows a "To Pay" parcel. At most one row per parcel;
// a missing row means PaymentStatusToPay.
type PaymentTracking struct {
	ID            string        `gorm:"primaryKey;type:uuid" json:"id"`
	ParcelID      string        `gorm:"type:uuid;not null;uniqueIndex" json:"parcelId"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(32);not null;default:'To Pay';index" json:"paymentStatus"`
	ReceivedBy    *string       `gorm:"type:uuid" json:"receivedBy,omitempty"`
	ReceivedAt    *time.Time    `json:"receivedAt,omitempty"`
	CreatedAt     time.Time     `gorm:"index" json:"createdAt"`
}

// TableName specifies the table name for PaymentTracking model
func (PaymentTracking) TableName() string {
	return "payment_trackings"
}
