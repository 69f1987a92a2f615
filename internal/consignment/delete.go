package consignment

import (
	"context"
	"log"

	"github.com/friendstransport/fleetgo/internal/events"
	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/store"
)

// DeleteParcel removes the parcel identified by key together with its items,
// clients and payment tracking, and pulls it out of its ledger, deleting the
// ledger if it was the last member. It returns the parcel as it was before
// deletion.
func (s *Service) DeleteParcel(ctx context.Context, key string, actor models.EmployeeContext) (*models.Parcel, error) {
	var (
		snapshot *models.Parcel
		ev       models.ParcelEvent
		detached store.DetachResult
	)
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		locked, err := tx.Parcels().GetForUpdate(key)
		if err != nil {
			return err
		}
		p, err := tx.Parcels().GetDetailed(locked.ID)
		if err != nil {
			return err
		}
		snapshot = p

		if err := tx.Items().DeleteByParcel(p.ID); err != nil {
			return err
		}

		if p.LedgerID != nil {
			detached, err = tx.Ledgers().DetachParcel(*p.LedgerID, p.ID)
			if err != nil {
				return err
			}
			if detached == store.LedgerAlreadyGone {
				log.Printf("⚠️ Parcel %s pointed at ledger %s which no longer exists", p.TrackingID, *p.LedgerID)
			}
		}

		if err := tx.Payments().DeleteByParcel(p.ID); err != nil {
			return err
		}

		now := s.now()
		if ev, err = events.Record(tx, events.New(models.EventDeleted, p, actor.ID, p, now)); err != nil {
			return err
		}

		if err := tx.Parcels().Delete(p.ID); err != nil {
			return err
		}
		if err := tx.Clients().Delete(p.SenderID); err != nil {
			return err
		}
		return tx.Clients().Delete(p.ReceiverID)
	})
	if err != nil {
		logFault("DeleteParcel", key, err)
		return nil, err
	}

	if detached == store.LedgerNowEmpty {
		log.Printf("🧹 Ledger %s removed with its last parcel %s", *snapshot.LedgerID, snapshot.TrackingID)
	}
	log.Printf("✅ Parcel %s deleted by %s", snapshot.TrackingID, actor.ID)
	s.notifier.Publish(ev)
	return snapshot, nil
}
