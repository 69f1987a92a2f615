// Package gormstore implements store.Store on PostgreSQL through gorm.
package gormstore

import (
	"context"
	"errors"
	"log"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/store"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL error codes the store distinguishes
const (
	PgErrUniqueViolation      = "23505" // unique_violation
	PgErrForeignKeyViolation  = "23503" // foreign_key_violation
	PgErrSerializationFailure = "40001" // serialization_failure
)

// Store is the PostgreSQL-backed store
type Store struct {
	db *gorm.DB
}

// New creates a store on top of an open gorm connection
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx runs fn inside a database transaction
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&txRepos{db: db})
	})
	return classify(err)
}

// classify maps driver errors onto the apperr taxonomy, leaving apperr errors untouched
func classify(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("record not found")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case PgErrUniqueViolation:
			log.Printf("🔴 Store: unique violation on %s (%s)", pgErr.TableName, pgErr.ConstraintName)
			return apperr.Conflict(err, "duplicate %s", pgErr.TableName)
		case PgErrForeignKeyViolation:
			return apperr.Consistency(err, "referenced record is missing")
		case PgErrSerializationFailure:
			log.Printf("⚠️ Store: serialization failure, caller may retry: %v", pgErr.Message)
		}
	}

	return apperr.Unavailable(err)
}

// notFound turns gorm.ErrRecordNotFound into a typed not-found with a caller-safe message
func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(format, args...)
	}
	return classify(err)
}

type txRepos struct {
	db *gorm.DB
}

func (t *txRepos) Warehouses() store.WarehouseRepo { return warehouseRepo{db: t.db} }
func (t *txRepos) ItemTypes() store.ItemTypeRepo   { return itemTypeRepo{db: t.db} }
func (t *txRepos) Items() store.ItemRepo           { return itemRepo{db: t.db} }
func (t *txRepos) Clients() store.ClientRepo       { return clientRepo{db: t.db} }
func (t *txRepos) Parcels() store.ParcelRepo       { return parcelRepo{db: t.db} }
func (t *txRepos) Ledgers() store.LedgerRepo       { return ledgerRepo{db: t.db} }
func (t *txRepos) Payments() store.PaymentRepo     { return paymentRepo{db: t.db} }
func (t *txRepos) Events() store.EventRepo         { return eventRepo{db: t.db} }
func (t *txRepos) Employees() store.EmployeeRepo   { return employeeRepo{db: t.db} }
