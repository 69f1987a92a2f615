package consignment

import (
	"context"
	"testing"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/store"
)

// group puts the parcels into one ledger the way dispatch does
func (f *fixture) group(t *testing.T, ledgerNo string, trackingIDs ...string) *models.Ledger {
	t.Helper()
	ledger := &models.Ledger{LedgerNo: ledgerNo, VehicleNo: "TS09AB1234", SourceWarehouseID: f.hyd.ID, DestinationWarehouseID: f.mnc.ID}
	err := f.store.WithTx(context.Background(), func(tx store.Tx) error {
		var ids []string
		var parcels []*models.Parcel
		for _, tid := range trackingIDs {
			p, err := tx.Parcels().Get(tid)
			if err != nil {
				return err
			}
			ids = append(ids, p.ID)
			parcels = append(parcels, p)
		}
		if err := tx.Ledgers().Create(ledger, ids); err != nil {
			return err
		}
		for _, p := range parcels {
			p.LedgerID = &ledger.ID
			p.Status = models.ParcelStatusDispatched
			if err := tx.Parcels().Save(p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	return ledger
}

func TestDeleteParcelCascades(t *testing.T) {
	f := newFixture(t)
	id := f.book(t, booking())
	ledger := f.group(t, "HYD01-M00001", id)
	before := f.detailed(t, id)

	snapshot, err := f.svc.DeleteParcel(context.Background(), id, f.admin)
	if err != nil {
		t.Fatalf("DeleteParcel: %v", err)
	}
	if snapshot.TrackingID != id || len(snapshot.Items) != 2 || snapshot.Sender == nil {
		t.Errorf("snapshot incomplete: %+v", snapshot)
	}

	f.view(t, func(tx store.Tx) {
		if _, err := tx.Parcels().Get(id); !apperr.Is(err, apperr.KindNotFound) {
			t.Errorf("parcel still present: %v", err)
		}
		if items, _ := tx.Items().ListByParcel(before.ID); len(items) != 0 {
			t.Errorf("%d items left", len(items))
		}
		for _, cid := range []string{before.SenderID, before.ReceiverID} {
			if _, err := tx.Clients().FindByID(cid); !apperr.Is(err, apperr.KindNotFound) {
				t.Errorf("client %s left: %v", cid, err)
			}
		}
		if _, err := tx.Payments().FindByParcel(before.ID); !apperr.Is(err, apperr.KindNotFound) {
			t.Errorf("payment tracking left: %v", err)
		}
		if _, err := tx.Ledgers().Get(ledger.ID); !apperr.Is(err, apperr.KindNotFound) {
			t.Errorf("empty ledger left: %v", err)
		}
		evs, _ := tx.Events().ListByParcel(before.ID)
		if len(evs) == 0 || evs[len(evs)-1].Kind != models.EventDeleted {
			t.Errorf("deleted event missing: %+v", evs)
		}
	})

	sizes := f.store.Sizes()
	for _, table := range []string{"parcels", "items", "clients", "ledgers", "ledger_parcels", "payment_trackings"} {
		if sizes[table] != 0 {
			t.Errorf("%s has %d rows", table, sizes[table])
		}
	}
}

func TestDeleteParcelLeavesRestOfLedger(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, booking())
	b := f.book(t, booking())
	c := f.book(t, booking())
	ledger := f.group(t, "HYD01-M00001", a, b, c)

	if _, err := f.svc.DeleteParcel(context.Background(), b, f.admin); err != nil {
		t.Fatalf("DeleteParcel: %v", err)
	}

	f.view(t, func(tx store.Tx) {
		got, err := tx.Ledgers().Get(ledger.LedgerNo)
		if err != nil {
			t.Fatalf("ledger gone: %v", err)
		}
		if len(got.ParcelIDs) != 2 {
			t.Errorf("expected 2 members, got %v", got.ParcelIDs)
		}
	})

	for _, id := range []string{a, c} {
		p := f.detailed(t, id)
		if len(p.Items) != 2 || p.Sender == nil || p.Receiver == nil {
			t.Errorf("%s lost its subtree", id)
		}
		if p.LedgerID == nil || *p.LedgerID != ledger.ID {
			t.Errorf("%s lost its ledger", id)
		}
	}
}

func TestDeleteParcelWithVanishedLedger(t *testing.T) {
	f := newFixture(t)
	id := f.book(t, booking())
	p := f.detailed(t, id)

	err := f.store.WithTx(context.Background(), func(tx store.Tx) error {
		bare, _ := tx.Parcels().Get(id)
		ghost := models.NewID()
		bare.LedgerID = &ghost
		return tx.Parcels().Save(bare)
	})
	if err != nil {
		t.Fatalf("dangle: %v", err)
	}

	if _, err := f.svc.DeleteParcel(context.Background(), id, f.admin); err != nil {
		t.Fatalf("expected success for already-gone ledger, got %v", err)
	}
	f.view(t, func(tx store.Tx) {
		if _, err := tx.Parcels().Get(p.ID); !apperr.Is(err, apperr.KindNotFound) {
			t.Errorf("parcel survived")
		}
	})
}

func TestDeleteParcelNotMemberOfItsLedgerFails(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, booking())
	b := f.book(t, booking())
	ledger := f.group(t, "HYD01-M00001", a)

	err := f.store.WithTx(context.Background(), func(tx store.Tx) error {
		p, _ := tx.Parcels().Get(b)
		p.LedgerID = &ledger.ID
		return tx.Parcels().Save(p)
	})
	if err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	_, err = f.svc.DeleteParcel(context.Background(), b, f.admin)
	if !apperr.Is(err, apperr.KindConsistency) {
		t.Fatalf("expected consistency fault, got %v", err)
	}
	if p := f.detailed(t, b); len(p.Items) != 2 {
		t.Errorf("failed delete removed items")
	}
}

func TestDeleteParcelNotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.DeleteParcel(context.Background(), "HYD01-00042", f.admin); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not_found, got %v", err)
	}
}

func TestTrack(t *testing.T) {
	f := newFixture(t)
	id := f.book(t, booking())
	p := f.detailed(t, id)

	for _, key := range []string{id, p.ID} {
		tr, err := f.svc.Track(context.Background(), key)
		if err != nil {
			t.Fatalf("Track(%s): %v", key, err)
		}
		if tr.Parcel.TrackingID != id || tr.PaymentStatus != models.PaymentStatusToPay || len(tr.Events) != 1 {
			t.Errorf("unexpected tracking view %+v", tr)
		}
	}
}
