// Package store declares the persistence collaborators of the consignment core.
// All reads and writes happen through a Tx obtained from Store.WithTx, so that a
// multi-entity operation commits or rolls back as one unit.
package store

import (
	"context"

	"github.com/friendstransport/fleetgo/internal/models"
)

// Store opens transactions. fn's error aborts and rolls back everything written through tx.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx exposes the repositories bound to one transaction
type Tx interface {
	Warehouses() WarehouseRepo
	ItemTypes() ItemTypeRepo
	Items() ItemRepo
	Clients() ClientRepo
	Parcels() ParcelRepo
	Ledgers() LedgerRepo
	Payments() PaymentRepo
	Events() EventRepo
	Employees() EmployeeRepo
}

// WarehouseRepo reads warehouses and advances their counters
type WarehouseRepo interface {
	FindByCode(code string) (*models.Warehouse, error)
	FindByID(id string) (*models.Warehouse, error)
	List() ([]models.Warehouse, error)
	Create(w *models.Warehouse) error
	// AtomicIncrementSequence advances the tracking counter with wraparound in a
	// single store-side operation and returns the new value.
	AtomicIncrementSequence(warehouseID string) (int, error)
	// AtomicIncrementMemoSequence does the same for the ledger memo counter.
	AtomicIncrementMemoSequence(warehouseID string) (int, error)
}

// ItemTypeRepo resolves catalog entries
type ItemTypeRepo interface {
	FindByNameFold(name string) (*models.ItemType, error)
	Create(t *models.ItemType) error
}

// ItemRepo manages the items of a parcel
type ItemRepo interface {
	Create(item *models.Item) error
	ListByParcel(parcelID string) ([]models.Item, error)
	Delete(id string) error
	DeleteByParcel(parcelID string) error
}

// ClientRepo manages sender/receiver snapshots
type ClientRepo interface {
	Create(c *models.Client) error
	FindByID(id string) (*models.Client, error)
	Save(c *models.Client) error
	Delete(id string) error
}

// ParcelRepo manages parcels. key is either a tracking ID or an internal ID.
type ParcelRepo interface {
	Create(p *models.Parcel) error
	Get(key string) (*models.Parcel, error)
	// GetForUpdate is Get with the parcel row locked until the transaction ends.
	// Every read-modify-Save of a parcel goes through it.
	GetForUpdate(key string) (*models.Parcel, error)
	// GetDetailed loads items (in position order), clients and warehouses along with the parcel
	GetDetailed(key string) (*models.Parcel, error)
	Save(p *models.Parcel) error
	Delete(id string) error
}

// DetachResult is the outcome of removing a parcel from a ledger
type DetachResult int

const (
	// LedgerStillHasMembers: the reference was pulled and other parcels remain
	LedgerStillHasMembers DetachResult = iota + 1
	// LedgerNowEmpty: the pulled parcel was the last member and the ledger was deleted
	LedgerNowEmpty
	// LedgerAlreadyGone: the ledger no longer exists
	LedgerAlreadyGone
)

func (r DetachResult) String() string {
	switch r {
	case LedgerStillHasMembers:
		return "still_has_members"
	case LedgerNowEmpty:
		return "now_empty"
	case LedgerAlreadyGone:
		return "already_gone"
	}
	return "unknown"
}

// LedgerRepo manages manifests and their membership
type LedgerRepo interface {
	Create(l *models.Ledger, parcelIDs []string) error
	Get(key string) (*models.Ledger, error)
	// GetForUpdate is Get with the ledger row locked until the transaction ends.
	// Lock member parcels first, then the ledger.
	GetForUpdate(key string) (*models.Ledger, error)
	// Save writes the ledger's own columns; membership is untouched
	Save(l *models.Ledger) error
	// AttachParcel adds parcelID to the ledger. A parcel already on a ledger is a conflict.
	AttachParcel(ledgerID, parcelID string) error
	// DetachParcel pulls parcelID out of the ledger and deletes the ledger if it is
	// left empty. The count check and the delete run under a lock on the ledger row.
	DetachParcel(ledgerID, parcelID string) (DetachResult, error)
}

// PaymentRepo manages PaymentTracking rows
type PaymentRepo interface {
	// EnsureExists inserts a row for parcelID unless one is present; created reports whether it inserted
	EnsureExists(parcelID string, status models.PaymentStatus) (created bool, err error)
	Upsert(pt *models.PaymentTracking) error
	FindByParcel(parcelID string) (*models.PaymentTracking, error)
	FindByParcels(parcelIDs []string) ([]models.PaymentTracking, error)
	DeleteByParcel(parcelID string) error
}

// EventRepo appends to the parcel audit trail
type EventRepo interface {
	Append(ev *models.ParcelEvent) error
	ListByParcel(parcelID string) ([]models.ParcelEvent, error)
}

// EmployeeRepo resolves staff accounts for login
type EmployeeRepo interface {
	FindByUsername(username string) (*models.Employee, error)
	Create(e *models.Employee) error
}
