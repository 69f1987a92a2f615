package models

import (
	"time"

	"gorm.io/datatypes"
)

// EventKind names what happened to a parcel
type EventKind string

const (
	EventBooked     EventKind = "booked"
	EventEdited     EventKind = "edited"
	EventDeleted    EventKind = "deleted"
	EventDispatched EventKind = "dispatched"
	EventUnloaded   EventKind = "unloaded"
	EventDelivered  EventKind = "delivered"
	EventPayment    EventKind = "payment"
)

// ParcelEvent is the audit trail entry written in the same transaction as the change.
// ParcelID is kept after the parcel itself is gone.
type ParcelEvent struct {
	ID         string         `gorm:"primaryKey;type:uuid" json:"id"`
	ParcelID   string         `gorm:"type:uuid;not null;index" json:"parcelId"`
	TrackingID string         `gorm:"index" json:"trackingId"`
	Kind       EventKind      `gorm:"type:varchar(16);not null" json:"kind"`
	ActorID    *string        `gorm:"type:uuid" json:"actorId,omitempty"`
	Snapshot   datatypes.JSON `json:"snapshot,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"createdAt"`
}

// TableName specifies the table name for ParcelEvent model
func (ParcelEvent) TableName() string {
	return "parcel_events"
}
