// Package consignment books, edits, tracks and deletes parcels.
//
// Every operation runs in one store transaction: a booking allocates its
// tracking number, writes items, clients, the parcel and its payment tracking
// together, and a deletion removes the whole subtree and repairs the ledger the
// parcel belonged to. Events are written in the same transaction and published
// to the notifier only after commit.
package consignment

import (
	"context"
	"log"
	"time"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/events"
	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/store"
)

// Service implements the parcel lifecycle
type Service struct {
	store    store.Store
	notifier events.Notifier
	now      func() time.Time
}

// NewService creates a consignment service. A nil notifier discards events.
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

// Tracking is the read view of a parcel
type Tracking struct {
	Parcel        *models.Parcel       `json:"parcel"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus,omitempty"`
	Events        []models.ParcelEvent `json:"events"`
}

// Track loads a parcel by tracking ID or internal ID with its items, clients,
// warehouses, payment status and history.
func (s *Service) Track(ctx context.Context, key string) (*Tracking, error) {
	var out Tracking
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		p, err := tx.Parcels().GetDetailed(key)
		if err != nil {
			return err
		}
		out.Parcel = p

		if p.Payment == models.PaymentToPay {
			out.PaymentStatus = models.PaymentStatusToPay
			pt, err := tx.Payments().FindByParcel(p.ID)
			switch {
			case err == nil:
				out.PaymentStatus = pt.PaymentStatus
			case !apperr.Is(err, apperr.KindNotFound):
				return err
			}
		}

		out.Events, err = tx.Events().ListByParcel(p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// logFault reports a consistency fault loudly; the caller still fails the operation
func logFault(op, trackingID string, err error) {
	if apperr.Is(err, apperr.KindConsistency) {
		log.Printf("🔴 %s %s: consistency fault: %v", op, trackingID, err)
	}
}
