// Package sequence hands out per-warehouse counter values and turns them into
// tracking IDs and ledger memo numbers.
//
// The counters live on the warehouse row and are advanced by a single
// store-side update, so concurrent bookings at one warehouse, from any number
// of processes, never see the same value.
package sequence

import (
	"context"

	"github.com/friendstransport/fleetgo/internal/store"
)

// Allocator advances warehouse counters
type Allocator struct {
	store store.Store
}

// NewAllocator creates an allocator on top of s
func NewAllocator(s store.Store) *Allocator {
	return &Allocator{store: s}
}

// AllocateNext advances the tracking counter of warehouseID in its own
// transaction and returns the new value. Fails with not_found if the
// warehouse does not exist.
func (a *Allocator) AllocateNext(ctx context.Context, warehouseID string) (int, error) {
	var seq int
	err := a.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		seq, err = AllocateNextTx(tx, warehouseID)
		return err
	})
	return seq, err
}

// AllocateNextMemo advances the memo counter of warehouseID in its own transaction
func (a *Allocator) AllocateNextMemo(ctx context.Context, warehouseID string) (int, error) {
	var seq int
	err := a.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		seq, err = AllocateNextMemoTx(tx, warehouseID)
		return err
	})
	return seq, err
}

// AllocateNextTx advances the tracking counter inside an open transaction, so
// that the value is given back if the surrounding booking rolls back.
func AllocateNextTx(tx store.Tx, warehouseID string) (int, error) {
	return tx.Warehouses().AtomicIncrementSequence(warehouseID)
}

// AllocateNextMemoTx advances the memo counter inside an open transaction
func AllocateNextMemoTx(tx store.Tx, warehouseID string) (int, error) {
	return tx.Warehouses().AtomicIncrementMemoSequence(warehouseID)
}
