// Package storetest holds store wrappers for service tests.
package storetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/store"
)

// LockAudit wraps a store and records every parcel write that was not
// preceded by GetForUpdate of the same parcel in the same transaction.
type LockAudit struct {
	inner store.Store

	mu         sync.Mutex
	violations []string
}

// NewLockAudit wraps inner
func NewLockAudit(inner store.Store) *LockAudit {
	return &LockAudit{inner: inner}
}

// WithTx implements store.Store
func (a *LockAudit) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return a.inner.WithTx(ctx, func(tx store.Tx) error {
		return fn(auditTx{Tx: tx, audit: a, held: map[string]bool{}})
	})
}

// Violations lists the unlocked writes seen so far
func (a *LockAudit) Violations() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.violations...)
}

func (a *LockAudit) record(op, id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.violations = append(a.violations, fmt.Sprintf("%s %s without row lock", op, id))
}

type auditTx struct {
	store.Tx
	audit *LockAudit
	held  map[string]bool
}

func (t auditTx) Parcels() store.ParcelRepo {
	return auditParcels{ParcelRepo: t.Tx.Parcels(), tx: t}
}

type auditParcels struct {
	store.ParcelRepo
	tx auditTx
}

func (r auditParcels) GetForUpdate(key string) (*models.Parcel, error) {
	p, err := r.ParcelRepo.GetForUpdate(key)
	if err == nil {
		r.tx.held[p.ID] = true
	}
	return p, err
}

func (r auditParcels) Save(p *models.Parcel) error {
	if !r.tx.held[p.ID] {
		r.tx.audit.record("save", p.ID)
	}
	return r.ParcelRepo.Save(p)
}

func (r auditParcels) Delete(id string) error {
	if !r.tx.held[id] {
		r.tx.audit.record("delete", id)
	}
	return r.ParcelRepo.Delete(id)
}
