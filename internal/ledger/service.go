// Package ledger groups arrived parcels into dispatch manifests.
package ledger

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/events"
	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/money"
	"github.com/friendstransport/fleetgo/internal/sequence"
	"github.com/friendstransport/fleetgo/internal/store"
)

// CreateRequest lists the parcels loaded onto one vehicle.
// SourceWarehouse defaults to the actor's warehouse.
type CreateRequest struct {
	VehicleNo            string       `json:"vehicleNo"`
	SourceWarehouse      string       `json:"sourceWarehouse"`
	DestinationWarehouse string       `json:"destinationWarehouse"`
	Charges              money.Amount `json:"charges"`
	Parcels              []string     `json:"parcels"`
}

// Service creates and reads ledgers
type Service struct {
	store    store.Store
	notifier events.Notifier
	now      func() time.Time
}

// NewService creates a ledger service. A nil notifier discards events.
func NewService(s store.Store, n events.Notifier) *Service {
	if n == nil {
		n = events.Discard{}
	}
	return &Service{store: s, notifier: n, now: func() time.Time { return time.Now().UTC() }}
}

func (r CreateRequest) validate() error {
	if strings.TrimSpace(r.VehicleNo) == "" {
		return apperr.Validation("vehicle number is required")
	}
	if strings.TrimSpace(r.DestinationWarehouse) == "" {
		return apperr.Validation("destination warehouse is required")
	}
	if len(r.Parcels) == 0 {
		return apperr.Validation("at least one parcel is required")
	}
	if r.Charges < 0 || r.Charges.Scaled() > money.MaxAmount {
		return apperr.Validation("charges must be between 0 and %s", money.Format(money.MaxAmount))
	}
	seen := make(map[string]bool, len(r.Parcels))
	for _, key := range r.Parcels {
		key = strings.TrimSpace(key)
		if key == "" {
			return apperr.Validation("parcel id must not be blank")
		}
		if seen[key] {
			return apperr.Validation("parcel %s listed twice", key)
		}
		seen[key] = true
	}
	return nil
}

// Create dispatches the listed parcels under a new memo number taken from the
// source warehouse. Every parcel must be arrived, unassigned and travel
// between the same two warehouses as the ledger.
func (s *Service) Create(ctx context.Context, req CreateRequest, actor models.EmployeeContext) (*models.Ledger, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var (
		ledger *models.Ledger
		evs    []models.ParcelEvent
	)
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		src, err := resolveSource(tx, req.SourceWarehouse, actor)
		if err != nil {
			return err
		}
		dst, err := tx.Warehouses().FindByCode(req.DestinationWarehouse)
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.Validation("destination warehouse not found")
		}
		if err != nil {
			return err
		}

		parcels := make([]*models.Parcel, 0, len(req.Parcels))
		ids := make([]string, 0, len(req.Parcels))
		for _, key := range req.Parcels {
			p, err := tx.Parcels().GetForUpdate(strings.TrimSpace(key))
			if err != nil {
				return err
			}
			switch {
			case p.LedgerID != nil:
				return apperr.Conflict(nil, "parcel %s is already on a ledger", p.TrackingID)
			case p.Status != models.ParcelStatusArrived:
				return apperr.Validation("parcel %s is %s, not arrived", p.TrackingID, p.Status)
			case p.SourceWarehouseID != src.ID || p.DestinationWarehouseID != dst.ID:
				return apperr.Validation("parcel %s does not travel %s to %s", p.TrackingID, src.WarehouseCode, dst.WarehouseCode)
			}
			parcels = append(parcels, p)
			ids = append(ids, p.ID)
		}

		seq, err := sequence.AllocateNextMemoTx(tx, src.ID)
		if err != nil {
			return err
		}
		memoNo, err := sequence.FormatMemoNo(src.WarehouseCode, seq)
		if err != nil {
			return apperr.Consistency(err, "warehouse %s cannot issue memo numbers", src.WarehouseCode)
		}

		now := s.now()
		ledger = &models.Ledger{
			LedgerNo:               memoNo,
			VehicleNo:              strings.ToUpper(strings.TrimSpace(req.VehicleNo)),
			SourceWarehouseID:      src.ID,
			DestinationWarehouseID: dst.ID,
			Status:                 models.LedgerStatusDispatched,
			Charges:                req.Charges.Scaled(),
			DispatchedAt:           now,
			AddedBy:                models.ActorRef(actor.ID),
			CreatedAt:              now,
		}
		if err := tx.Ledgers().Create(ledger, ids); err != nil {
			return err
		}

		for _, p := range parcels {
			p.LedgerID = &ledger.ID
			p.Status = models.ParcelStatusDispatched
			p.LastModifiedBy = models.ActorRef(actor.ID)
			p.LastModifiedAt = &now
			if err := tx.Parcels().Save(p); err != nil {
				return err
			}
			ev, err := events.Record(tx, events.New(models.EventDispatched, p, actor.ID, map[string]string{"ledgerNo": memoNo}, now))
			if err != nil {
				return err
			}
			evs = append(evs, ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🚚 Ledger %s dispatched with %d parcels", ledger.LedgerNo, len(ledger.ParcelIDs))
	events.PublishAll(s.notifier, evs)
	return ledger, nil
}

// Track loads a ledger by memo number or internal ID
func (s *Service) Track(ctx context.Context, key string) (*models.Ledger, error) {
	var ledger *models.Ledger
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		ledger, err = tx.Ledgers().Get(strings.TrimSpace(key))
		return err
	})
	return ledger, err
}

func resolveSource(tx store.Tx, code string, actor models.EmployeeContext) (*models.Warehouse, error) {
	if code = strings.TrimSpace(code); code != "" {
		wh, err := tx.Warehouses().FindByCode(code)
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Validation("source warehouse not found")
		}
		return wh, err
	}
	if actor.WarehouseID == "" {
		return nil, apperr.Validation("source warehouse is required")
	}
	return tx.Warehouses().FindByID(actor.WarehouseID)
}
