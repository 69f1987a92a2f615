package ledger

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/events"
	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/money"
	"github.com/friendstransport/fleetgo/internal/store"
)

// EditRequest changes a dispatched ledger. Nil and empty fields are left alone.
// Parcels are named by tracking ID or internal ID.
type EditRequest struct {
	VehicleNo     *string       `json:"vehicleNo,omitempty"`
	Charges       *money.Amount `json:"charges,omitempty"`
	AddParcels    []string      `json:"addParcels,omitempty"`
	RemoveParcels []string      `json:"removeParcels,omitempty"`
}

// EditResult is the ledger after an edit. Deleted is set, and Ledger is nil,
// when the edit removed the last member.
type EditResult struct {
	Ledger  *models.Ledger `json:"ledger,omitempty"`
	Deleted bool           `json:"deleted"`
}

func (r EditRequest) validate() error {
	if r.VehicleNo == nil && r.Charges == nil && len(r.AddParcels) == 0 && len(r.RemoveParcels) == 0 {
		return apperr.Validation("update data is required")
	}
	if r.VehicleNo != nil && strings.TrimSpace(*r.VehicleNo) == "" {
		return apperr.Validation("vehicle number must not be blank")
	}
	if r.Charges != nil && (*r.Charges < 0 || r.Charges.Scaled() > money.MaxAmount) {
		return apperr.Validation("charges must be between 0 and %s", money.Format(money.MaxAmount))
	}
	seen := make(map[string]bool, len(r.AddParcels)+len(r.RemoveParcels))
	for _, key := range append(append([]string(nil), r.AddParcels...), r.RemoveParcels...) {
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

// Edit changes the vehicle or charges of a dispatched ledger and moves parcels
// on or off it. Added parcels are checked the way Create checks them. Removed
// parcels go back to arrived. Additions run first, so the ledger is deleted
// only when the edit leaves it with no members at all.
func (s *Service) Edit(ctx context.Context, key string, req EditRequest, actor models.EmployeeContext) (*EditResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var (
		result EditResult
		evs    []models.ParcelEvent
	)
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		ledger, err := tx.Ledgers().Get(strings.TrimSpace(key))
		if err != nil {
			return err
		}
		if err := requireDispatched(ledger); err != nil {
			return err
		}
		if !actor.IsAdmin() && actor.WarehouseID != ledger.SourceWarehouseID {
			return apperr.Forbidden("only the dispatching warehouse can edit ledger %s", ledger.LedgerNo)
		}

		// Parcel rows are locked before the ledger row
		added, err := lockParcels(tx, req.AddParcels)
		if err != nil {
			return err
		}
		removed, err := lockParcels(tx, req.RemoveParcels)
		if err != nil {
			return err
		}
		if ledger, err = tx.Ledgers().GetForUpdate(ledger.ID); err != nil {
			return err
		}
		if err := requireDispatched(ledger); err != nil {
			return err
		}
		now := s.now()

		for _, p := range added {
			switch {
			case p.LedgerID != nil:
				return apperr.Conflict(nil, "parcel %s is already on a ledger", p.TrackingID)
			case p.Status != models.ParcelStatusArrived:
				return apperr.Validation("parcel %s is %s, not arrived", p.TrackingID, p.Status)
			case p.SourceWarehouseID != ledger.SourceWarehouseID || p.DestinationWarehouseID != ledger.DestinationWarehouseID:
				return apperr.Validation("parcel %s does not travel the route of ledger %s", p.TrackingID, ledger.LedgerNo)
			}
			if err := tx.Ledgers().AttachParcel(ledger.ID, p.ID); err != nil {
				return err
			}
			p.LedgerID = &ledger.ID
			p.Status = models.ParcelStatusDispatched
			ev, err := s.saveMember(tx, p, models.EventDispatched, ledger.LedgerNo, actor, now)
			if err != nil {
				return err
			}
			evs = append(evs, ev)
		}

		outcome := store.LedgerStillHasMembers
		for _, p := range removed {
			if p.LedgerID == nil || *p.LedgerID != ledger.ID {
				return apperr.Validation("parcel %s is not on ledger %s", p.TrackingID, ledger.LedgerNo)
			}
			if outcome, err = tx.Ledgers().DetachParcel(ledger.ID, p.ID); err != nil {
				return err
			}
			p.LedgerID = nil
			p.Status = models.ParcelStatusArrived
			ev, err := s.saveMember(tx, p, models.EventUnloaded, ledger.LedgerNo, actor, now)
			if err != nil {
				return err
			}
			evs = append(evs, ev)
		}
		if outcome == store.LedgerNowEmpty {
			result.Deleted = true
			return nil
		}

		if req.VehicleNo != nil {
			ledger.VehicleNo = strings.ToUpper(strings.TrimSpace(*req.VehicleNo))
		}
		if req.Charges != nil {
			ledger.Charges = req.Charges.Scaled()
		}
		if err := tx.Ledgers().Save(ledger); err != nil {
			return err
		}
		result.Ledger, err = tx.Ledgers().Get(ledger.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.Deleted {
		log.Printf("🧹 Ledger %s removed after its last parcel was taken off", key)
	}
	events.PublishAll(s.notifier, evs)
	return &result, nil
}

// Deliver marks parcels of a dispatched ledger as delivered. trackingIDs lists
// the parcels scanned at the destination; an empty list delivers every member.
// Once no member is left undelivered the ledger itself becomes delivered.
// Only the destination warehouse, or an admin, may deliver.
func (s *Service) Deliver(ctx context.Context, key string, trackingIDs []string, actor models.EmployeeContext) (*models.Ledger, error) {
	var (
		ledger *models.Ledger
		evs    []models.ParcelEvent
	)
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		if ledger, err = tx.Ledgers().Get(strings.TrimSpace(key)); err != nil {
			return err
		}
		if err := requireDispatched(ledger); err != nil {
			return err
		}
		if !actor.IsAdmin() && actor.WarehouseID != ledger.DestinationWarehouseID {
			return apperr.Forbidden("ledger %s can only be delivered at its destination", ledger.LedgerNo)
		}

		members, err := lockParcels(tx, ledger.ParcelIDs)
		if err != nil {
			return err
		}
		// Membership or status may have changed before the locks were granted
		current, err := tx.Ledgers().GetForUpdate(ledger.ID)
		if err != nil {
			return err
		}
		if err := requireDispatched(current); err != nil {
			return err
		}
		if !sameMembers(current.ParcelIDs, ledger.ParcelIDs) {
			return apperr.Conflict(nil, "ledger %s changed while delivering; retry", ledger.LedgerNo)
		}
		ledger = current

		wanted, err := scanned(members, trackingIDs, ledger.LedgerNo)
		if err != nil {
			return err
		}

		now := s.now()
		pending := 0
		for _, p := range members {
			if p.Status == models.ParcelStatusDelivered {
				continue
			}
			if wanted != nil && !wanted[p.ID] {
				pending++
				continue
			}
			p.Status = models.ParcelStatusDelivered
			ev, err := s.saveMember(tx, p, models.EventDelivered, ledger.LedgerNo, actor, now)
			if err != nil {
				return err
			}
			evs = append(evs, ev)
		}

		if pending == 0 {
			ledger.Status = models.LedgerStatusDelivered
			ledger.DeliveredAt = &now
			if err := tx.Ledgers().Save(ledger); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if ledger.Status == models.LedgerStatusDelivered {
		log.Printf("📦 Ledger %s delivered", ledger.LedgerNo)
	}
	events.PublishAll(s.notifier, evs)
	return ledger, nil
}

// Manifest loads a ledger and its member parcels, with relations, in one transaction
func (s *Service) Manifest(ctx context.Context, key string) (*models.Ledger, []models.Parcel, error) {
	var (
		ledger  *models.Ledger
		parcels []models.Parcel
	)
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		if ledger, err = tx.Ledgers().Get(strings.TrimSpace(key)); err != nil {
			return err
		}
		parcels = make([]models.Parcel, 0, len(ledger.ParcelIDs))
		for _, id := range ledger.ParcelIDs {
			p, err := tx.Parcels().GetDetailed(id)
			if apperr.Is(err, apperr.KindNotFound) {
				return apperr.Consistency(err, "ledger %s lists missing parcel %s", ledger.LedgerNo, id)
			}
			if err != nil {
				return err
			}
			parcels = append(parcels, *p)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	sort.Slice(parcels, func(i, j int) bool { return parcels[i].TrackingID < parcels[j].TrackingID })
	return ledger, parcels, nil
}

func requireDispatched(l *models.Ledger) error {
	if l.Status != models.LedgerStatusDispatched {
		return apperr.Conflict(nil, "ledger %s is already %s", l.LedgerNo, l.Status)
	}
	return nil
}

// lockParcels takes row locks in a stable order so two ledger operations
// cannot wait on each other.
func lockParcels(tx store.Tx, keys []string) ([]*models.Parcel, error) {
	sorted := make([]string, 0, len(keys))
	for _, k := range keys {
		sorted = append(sorted, strings.TrimSpace(k))
	}
	sort.Strings(sorted)

	parcels := make([]*models.Parcel, 0, len(sorted))
	for _, k := range sorted {
		p, err := tx.Parcels().GetForUpdate(k)
		if err != nil {
			return nil, err
		}
		parcels = append(parcels, p)
	}
	return parcels, nil
}

func (s *Service) saveMember(tx store.Tx, p *models.Parcel, kind models.EventKind, ledgerNo string, actor models.EmployeeContext, now time.Time) (models.ParcelEvent, error) {
	p.LastModifiedBy = models.ActorRef(actor.ID)
	p.LastModifiedAt = &now
	if err := tx.Parcels().Save(p); err != nil {
		return models.ParcelEvent{}, err
	}
	return events.Record(tx, events.New(kind, p, actor.ID, map[string]string{"ledgerNo": ledgerNo}, now))
}

// scanned resolves trackingIDs against the ledger members. nil means all.
func scanned(members []*models.Parcel, trackingIDs []string, ledgerNo string) (map[string]bool, error) {
	if len(trackingIDs) == 0 {
		return nil, nil
	}
	byKey := make(map[string]string, 2*len(members))
	for _, p := range members {
		byKey[p.TrackingID] = p.ID
		byKey[p.ID] = p.ID
	}
	wanted := make(map[string]bool, len(trackingIDs))
	for _, key := range trackingIDs {
		id, ok := byKey[strings.TrimSpace(key)]
		if !ok {
			return nil, apperr.Validation("parcel %s is not on ledger %s", key, ledgerNo)
		}
		wanted[id] = true
	}
	return wanted, nil
}

func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		if !set[id] {
			return false
		}
	}
	return true
}
