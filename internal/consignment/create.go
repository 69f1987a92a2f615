package consignment

import (
	"context"
	"log"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/events"
	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/payment"
	"github.com/friendstransport/fleetgo/internal/sequence"
	"github.com/friendstransport/fleetgo/internal/store"
)

// CreateParcel books a parcel and returns its tracking ID. Nothing is
// persisted unless every step succeeds.
func (s *Service) CreateParcel(ctx context.Context, req BookingRequest, actor models.EmployeeContext) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	var (
		trackingID string
		ev         models.ParcelEvent
	)
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		src, err := sourceWarehouse(tx, req.SourceWarehouse, actor)
		if err != nil {
			return err
		}
		dst, err := warehouseByCode(tx, req.DestinationWarehouse, "destination")
		if err != nil {
			return err
		}

		now := s.now()
		parcelID := models.NewID()

		// Resolve every item type before the first write
		items, err := newTypeCache(tx.ItemTypes()).materialize(parcelID, req.Items, 0, now)
		if err != nil {
			return err
		}

		seq, err := sequence.AllocateNextTx(tx, src.ID)
		if err != nil {
			return err
		}
		trackingID, err = sequence.FormatTrackingID(src.WarehouseCode, seq)
		if err != nil {
			return apperr.Consistency(err, "warehouse %s cannot issue tracking IDs", src.WarehouseCode)
		}

		sender := req.Sender.client(models.ClientRoleSender)
		receiver := req.Receiver.client(models.ClientRoleReceiver)
		if err := tx.Clients().Create(sender); err != nil {
			return err
		}
		if err := tx.Clients().Create(receiver); err != nil {
			return err
		}

		freight, hamali, err := Totals(items)
		if err != nil {
			return err
		}
		parcel := &models.Parcel{
			ID:                     parcelID,
			TrackingID:             trackingID,
			SenderID:               sender.ID,
			ReceiverID:             receiver.ID,
			SourceWarehouseID:      src.ID,
			DestinationWarehouseID: dst.ID,
			Status:                 models.ParcelStatusArrived,
			Payment:                req.Payment,
			IsDoorDelivery:         req.IsDoorDelivery,
			DoorDeliveryCharge:     req.DoorDeliveryCharge.Scaled(),
			Freight:                freight,
			Hamali:                 hamali,
			AddedBy:                models.ActorRef(actor.ID),
			PlacedAt:               now,
		}
		if err := tx.Parcels().Create(parcel); err != nil {
			if apperr.Is(err, apperr.KindConflict) {
				log.Printf("🔴 Tracking ID %s already taken at %s (sequence %d)", trackingID, src.WarehouseCode, seq)
				return apperr.Conflict(err, "tracking ID %s already exists", trackingID)
			}
			return err
		}
		for i := range items {
			if err := tx.Items().Create(&items[i]); err != nil {
				return err
			}
		}

		if req.Payment == models.PaymentToPay {
			if _, err := payment.EnsureTx(tx, parcel.ID, models.PaymentStatusToPay); err != nil {
				return err
			}
		}

		parcel.Items = items
		ev, err = events.Record(tx, events.New(models.EventBooked, parcel, actor.ID, parcel, now))
		return err
	})
	if err != nil {
		logFault("CreateParcel", trackingID, err)
		return "", err
	}

	log.Printf("📦 Parcel %s booked by %s", trackingID, actor.ID)
	s.notifier.Publish(ev)
	return trackingID, nil
}
