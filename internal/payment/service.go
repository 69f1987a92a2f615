// Package payment keeps the PaymentTracking shadow of "To Pay" parcels.
// A parcel without a row is treated as still to pay.
package payment

import (
	"context"
	"strings"
	"time"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/events"
	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/store"
)

// Service updates payment tracking rows
type Service struct {
	store    store.Store
	notifier events.Notifier
	now      func() time.Time
}

// NewService creates a payment tracking service. A nil notifier discards events.
func NewService(s store.Store, n events.Notifier) *Service {
	if n == nil {
		n = events.Discard{}
	}
	return &Service{
		store:    s,
		notifier: n,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// BatchResult counts the rows a ledger batch update touched
type BatchResult struct {
	LedgerNo string `json:"ledgerNo"`
	Received int    `json:"received"`
	ToPay    int    `json:"toPay"`
}

// EnsureTx inserts a tracking row for parcelID unless one exists
func EnsureTx(tx store.Tx, parcelID string, status models.PaymentStatus) (bool, error) {
	if !status.Valid() {
		return false, apperr.Validation("invalid payment status %q", status)
	}
	return tx.Payments().EnsureExists(parcelID, status)
}

// SetStatusTx writes status for parcelID, creating the row if needed. Moving to
// Payment Received stamps who and when; moving back to To Pay clears both.
func SetStatusTx(tx store.Tx, parcelID string, status models.PaymentStatus, actorID string, at time.Time) (*models.PaymentTracking, error) {
	if !status.Valid() {
		return nil, apperr.Validation("invalid payment status %q", status)
	}

	pt := &models.PaymentTracking{ParcelID: parcelID, PaymentStatus: status}
	if status == models.PaymentStatusReceived {
		pt.ReceivedAt = &at
		if actorID != "" {
			pt.ReceivedBy = &actorID
		}
	}
	if err := tx.Payments().Upsert(pt); err != nil {
		return nil, err
	}
	return pt, nil
}

// EnsureTrackingExists creates the tracking row for parcelID with the given
// status if none exists. Calling it again is a no-op.
func (s *Service) EnsureTrackingExists(ctx context.Context, parcelID string, status models.PaymentStatus) error {
	return s.store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Parcels().Get(parcelID); err != nil {
			return err
		}
		_, err := EnsureTx(tx, parcelID, status)
		return err
	})
}

// SetStatus sets the payment status of parcelID
func (s *Service) SetStatus(ctx context.Context, parcelID string, status models.PaymentStatus, actorID string) (*models.PaymentTracking, error) {
	var (
		pt *models.PaymentTracking
		ev models.ParcelEvent
	)
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		parcel, err := tx.Parcels().Get(parcelID)
		if err != nil {
			return err
		}
		if pt, err = SetStatusTx(tx, parcel.ID, status, actorID, s.now()); err != nil {
			return err
		}
		ev, err = events.Record(tx, events.New(models.EventPayment, parcel, actorID, pt, s.now()))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Publish(ev)
	return pt, nil
}

// MarkReceived records that the receiver paid for the parcel identified by key
func (s *Service) MarkReceived(ctx context.Context, key string, actor models.EmployeeContext) (*models.PaymentTracking, error) {
	return s.mark(ctx, key, models.PaymentStatusReceived, actor)
}

// MarkToPay reverts the parcel identified by key to unpaid
func (s *Service) MarkToPay(ctx context.Context, key string, actor models.EmployeeContext) (*models.PaymentTracking, error) {
	return s.mark(ctx, key, models.PaymentStatusToPay, actor)
}

func (s *Service) mark(ctx context.Context, key string, status models.PaymentStatus, actor models.EmployeeContext) (*models.PaymentTracking, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, apperr.Validation("parcel id is required")
	}

	var (
		pt *models.PaymentTracking
		ev models.ParcelEvent
	)
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		parcel, err := tx.Parcels().Get(key)
		if err != nil {
			return err
		}
		if parcel.Payment != models.PaymentToPay {
			return apperr.Validation("parcel payment is not %q", models.PaymentToPay)
		}
		if !canTouch(actor, parcel.DestinationWarehouseID) {
			return apperr.Forbidden("you do not have access to modify this payment")
		}

		if pt, err = SetStatusTx(tx, parcel.ID, status, actor.ID, s.now()); err != nil {
			return err
		}
		ev, err = events.Record(tx, events.New(models.EventPayment, parcel, actor.ID, pt, s.now()))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Publish(ev)
	return pt, nil
}

// BatchUpdateForLedger settles the delivered "To Pay" parcels of one ledger:
// those whose tracking IDs are listed become Payment Received, the rest go
// back to To Pay.
func (s *Service) BatchUpdateForLedger(ctx context.Context, ledgerKey string, receivedTrackingIDs []string, actor models.EmployeeContext) (*BatchResult, error) {
	ledgerKey = strings.TrimSpace(ledgerKey)
	if ledgerKey == "" {
		return nil, apperr.Validation("memoId is required")
	}
	if receivedTrackingIDs == nil {
		return nil, apperr.Validation("orderIds must be an array")
	}

	received := make(map[string]bool, len(receivedTrackingIDs))
	for _, id := range receivedTrackingIDs {
		received[strings.TrimSpace(id)] = true
	}

	var (
		result BatchResult
		evs    []models.ParcelEvent
	)
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		ledger, err := tx.Ledgers().Get(ledgerKey)
		if err != nil {
			return err
		}
		if !canTouch(actor, ledger.DestinationWarehouseID) {
			return apperr.Forbidden("you do not have access to update payments for this memo")
		}
		result.LedgerNo = ledger.LedgerNo

		now := s.now()
		for _, parcelID := range ledger.ParcelIDs {
			parcel, err := tx.Parcels().Get(parcelID)
			if err != nil {
				return err
			}
			if parcel.Payment != models.PaymentToPay || parcel.Status != models.ParcelStatusDelivered {
				continue
			}

			status := models.PaymentStatusToPay
			if received[parcel.TrackingID] {
				status = models.PaymentStatusReceived
				result.Received++
			} else {
				result.ToPay++
			}

			pt, err := SetStatusTx(tx, parcel.ID, status, actor.ID, now)
			if err != nil {
				return err
			}
			ev, err := events.Record(tx, events.New(models.EventPayment, parcel, actor.ID, pt, now))
			if err != nil {
				return err
			}
			evs = append(evs, ev)
		}

		if len(evs) == 0 {
			return apperr.NotFound("no delivered To Pay parcels found in memo %s", ledger.LedgerNo)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	events.PublishAll(s.notifier, evs)
	return &result, nil
}

// canTouch reports whether actor may change payments for parcels bound to
// destinationID. Staff are limited to their own warehouse.
func canTouch(actor models.EmployeeContext, destinationID string) bool {
	if actor.Role != models.RoleStaff || actor.WarehouseID == "" {
		return true
	}
	return actor.WarehouseID == destinationID
}
