package consignment

import (
	"context"
	"log"
	"time"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/events"
	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/payment"
	"github.com/friendstransport/fleetgo/internal/store"
)

// EditParcel applies patch to the parcel identified by key and returns the
// updated parcel with its relations loaded. Freight and hamali are always
// recomputed from the items stored after the patch. A status change from a
// non-admin is dropped without error.
func (s *Service) EditParcel(ctx context.Context, key string, patch ParcelPatch, actor models.EmployeeContext) (*models.Parcel, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var (
		updated *models.Parcel
		ev      models.ParcelEvent
	)
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		parcel, err := tx.Parcels().GetForUpdate(key)
		if err != nil {
			return err
		}
		now := s.now()

		if parcel.LedgerID != nil && (patch.DestinationWarehouse != nil || patch.SourceWarehouse != nil) {
			return apperr.Validation("parcel %s is on a ledger; remove it from the ledger before changing its route", parcel.TrackingID)
		}

		if patch.DestinationWarehouse != nil {
			wh, err := warehouseByCode(tx, *patch.DestinationWarehouse, "destination")
			if err != nil {
				return err
			}
			parcel.DestinationWarehouseID = wh.ID
		}
		if patch.SourceWarehouse != nil {
			wh, err := warehouseByCode(tx, *patch.SourceWarehouse, "source")
			if err != nil {
				return err
			}
			parcel.SourceWarehouseID = wh.ID
		}

		if err := applyItems(tx, parcel, patch, now); err != nil {
			return err
		}

		if err := patchClient(tx, parcel.SenderID, patch.SenderDetails); err != nil {
			return err
		}
		if err := patchClient(tx, parcel.ReceiverID, patch.ReceiverDetails); err != nil {
			return err
		}

		if patch.Payment != nil {
			parcel.Payment = *patch.Payment
			if parcel.Payment == models.PaymentToPay {
				_, err = payment.EnsureTx(tx, parcel.ID, models.PaymentStatusToPay)
			} else {
				err = tx.Payments().DeleteByParcel(parcel.ID)
			}
			if err != nil {
				return err
			}
		}
		if patch.IsDoorDelivery != nil {
			parcel.IsDoorDelivery = *patch.IsDoorDelivery
		}
		if patch.DoorDeliveryCharge != nil {
			parcel.DoorDeliveryCharge = patch.DoorDeliveryCharge.Scaled()
		}
		if patch.Status != nil {
			if actor.IsAdmin() {
				parcel.Status = *patch.Status
			} else {
				log.Printf("⚠️ Ignoring status change on %s from non-admin %s", parcel.TrackingID, actor.ID)
			}
		}

		parcel.LastModifiedBy = models.ActorRef(actor.ID)
		parcel.LastModifiedAt = &now
		if err := tx.Parcels().Save(parcel); err != nil {
			return err
		}

		if ev, err = events.Record(tx, events.New(models.EventEdited, parcel, actor.ID, patch, now)); err != nil {
			return err
		}
		updated, err = tx.Parcels().GetDetailed(parcel.ID)
		return err
	})
	if err != nil {
		logFault("EditParcel", key, err)
		return nil, err
	}

	s.notifier.Publish(ev)
	return updated, nil
}

// applyItems removes and appends items, then recomputes the aggregates from
// what is stored in this transaction.
func applyItems(tx store.Tx, parcel *models.Parcel, patch ParcelPatch, now time.Time) error {
	current, err := tx.Items().ListByParcel(parcel.ID)
	if err != nil {
		return err
	}

	owned := make(map[string]bool, len(current))
	next := 0
	for _, it := range current {
		owned[it.ID] = true
		if it.Position >= next {
			next = it.Position + 1
		}
	}

	added, err := newTypeCache(tx.ItemTypes()).materialize(parcel.ID, patch.AddItems, next, now)
	if err != nil {
		return err
	}

	for _, id := range patch.DelItems {
		if !owned[id] {
			continue
		}
		if err := tx.Items().Delete(id); err != nil {
			return err
		}
		delete(owned, id)
	}
	for i := range added {
		if err := tx.Items().Create(&added[i]); err != nil {
			return err
		}
	}

	stored, err := tx.Items().ListByParcel(parcel.ID)
	if err != nil {
		return err
	}
	parcel.Freight, parcel.Hamali, err = Totals(stored)
	return err
}

func patchClient(tx store.Tx, id string, patch *PartyPatch) error {
	if patch == nil {
		return nil
	}
	c, err := tx.Clients().FindByID(id)
	if err != nil {
		return err
	}
	patch.apply(c)
	return tx.Clients().Save(c)
}
