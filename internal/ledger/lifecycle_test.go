package ledger

import (
	"context"
	"testing"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/money"
	"github.com/friendstransport/fleetgo/internal/store"
	"github.com/friendstransport/fleetgo/internal/store/storetest"
)

func ptr[T any](v T) *T { return &v }

func (f *fixture) dispatch(t *testing.T, ids ...string) *models.Ledger {
	t.Helper()
	l, err := f.ledger.Create(context.Background(), CreateRequest{
		VehicleNo:            "TS09AB1234",
		DestinationWarehouse: "MNC-01",
		Charges:              5000,
		Parcels:              ids,
	}, f.actor)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return l
}

// atWarehouse returns a staff actor posted at code
func (f *fixture) atWarehouse(t *testing.T, code string) models.EmployeeContext {
	t.Helper()
	var wh *models.Warehouse
	err := f.store.WithTx(context.Background(), func(tx store.Tx) error {
		var err error
		wh, err = tx.Warehouses().FindByCode(code)
		return err
	})
	if err != nil {
		t.Fatalf("warehouse %s: %v", code, err)
	}
	return models.EmployeeContext{ID: models.NewID(), Role: models.RoleStaff, WarehouseID: wh.ID}
}

func (f *fixture) parcelOf(t *testing.T, key string) *models.Parcel {
	t.Helper()
	tr, err := f.parcel.Track(context.Background(), key)
	if err != nil {
		t.Fatalf("Track(%s): %v", key, err)
	}
	return tr.Parcel
}

func TestDeliverScanThenVerify(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.book(t, "MNC-01"), f.book(t, "MNC-01"), f.book(t, "MNC-01")
	l := f.dispatch(t, a, b, c)
	mnc := f.atWarehouse(t, "MNC-01")
	ctx := context.Background()

	got, err := f.ledger.Deliver(ctx, l.LedgerNo, []string{a, b}, mnc)
	if err != nil {
		t.Fatalf("scan deliver: %v", err)
	}
	if got.Status != models.LedgerStatusDispatched || got.DeliveredAt != nil {
		t.Errorf("ledger closed with a parcel outstanding: %+v", got)
	}
	for id, want := range map[string]models.ParcelStatus{a: models.ParcelStatusDelivered, b: models.ParcelStatusDelivered, c: models.ParcelStatusDispatched} {
		if p := f.parcelOf(t, id); p.Status != want {
			t.Errorf("%s is %s, want %s", id, p.Status, want)
		}
	}

	// Rescanning a delivered parcel is harmless
	if _, err := f.ledger.Deliver(ctx, l.LedgerNo, []string{a}, mnc); err != nil {
		t.Fatalf("rescan: %v", err)
	}

	got, err = f.ledger.Deliver(ctx, l.ID, nil, mnc)
	if err != nil {
		t.Fatalf("verify deliver: %v", err)
	}
	if got.Status != models.LedgerStatusDelivered || got.DeliveredAt == nil {
		t.Errorf("ledger not delivered: %+v", got)
	}
	if p := f.parcelOf(t, c); p.Status != models.ParcelStatusDelivered {
		t.Errorf("%s left as %s", c, p.Status)
	}
	tracked, err := f.ledger.Track(ctx, l.LedgerNo)
	if err != nil || tracked.Status != models.LedgerStatusDelivered || tracked.VehicleNo != "TS09AB1234" || tracked.Charges != 5000 {
		t.Errorf("stored ledger %+v (%v)", tracked, err)
	}

	if _, err := f.ledger.Deliver(ctx, l.LedgerNo, nil, mnc); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("second delivery: expected conflict, got %v", err)
	}
}

func TestDeliverRejects(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, "MNC-01")
	other := f.book(t, "MNC-01")
	l := f.dispatch(t, a)
	mnc := f.atWarehouse(t, "MNC-01")

	tests := []struct {
		name     string
		key      string
		scan     []string
		actor    models.EmployeeContext
		wantKind apperr.Kind
	}{
		{"unknown ledger", "HYD01-M09999", nil, mnc, apperr.KindNotFound},
		{"not at destination", l.LedgerNo, nil, f.actor, apperr.KindForbidden},
		{"parcel not on ledger", l.LedgerNo, []string{other}, mnc, apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.ledger.Deliver(context.Background(), tt.key, tt.scan, tt.actor); !apperr.Is(err, tt.wantKind) {
				t.Fatalf("expected %s, got %v", tt.wantKind, err)
			}
		})
	}

	if p := f.parcelOf(t, a); p.Status != models.ParcelStatusDispatched {
		t.Errorf("rejected delivery changed %s to %s", a, p.Status)
	}

	admin := models.EmployeeContext{ID: models.NewID(), Role: models.RoleAdmin}
	if _, err := f.ledger.Deliver(context.Background(), l.LedgerNo, nil, admin); err != nil {
		t.Errorf("admin delivery: %v", err)
	}
}

func TestEditMovesParcels(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.book(t, "MNC-01"), f.book(t, "MNC-01"), f.book(t, "MNC-01")
	l := f.dispatch(t, a, b)
	ctx := context.Background()

	res, err := f.ledger.Edit(ctx, l.LedgerNo, EditRequest{
		VehicleNo:     ptr("ap 28 x 99"),
		Charges:       ptr(money.Amount(7500)),
		AddParcels:    []string{c},
		RemoveParcels: []string{a},
	}, f.actor)
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if res.Deleted || res.Ledger == nil {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Ledger.VehicleNo != "AP 28 X 99" || res.Ledger.Charges != 7500 || len(res.Ledger.ParcelIDs) != 2 {
		t.Errorf("unexpected ledger %+v", res.Ledger)
	}

	if p := f.parcelOf(t, a); p.LedgerID != nil || p.Status != models.ParcelStatusArrived {
		t.Errorf("removed parcel still linked: %+v", p)
	}
	if p := f.parcelOf(t, c); p.LedgerID == nil || *p.LedgerID != l.ID || p.Status != models.ParcelStatusDispatched {
		t.Errorf("added parcel not linked: %+v", p)
	}

	// A removed parcel can go out on a fresh ledger
	if _, err := f.ledger.Create(ctx, CreateRequest{VehicleNo: "V2", DestinationWarehouse: "MNC-01", Parcels: []string{a}}, f.actor); err != nil {
		t.Errorf("redispatch removed parcel: %v", err)
	}
}

func TestEditRemovingEveryParcelDeletesLedger(t *testing.T) {
	f := newFixture(t)
	a, b := f.book(t, "MNC-01"), f.book(t, "MNC-01")
	l := f.dispatch(t, a, b)

	res, err := f.ledger.Edit(context.Background(), l.LedgerNo, EditRequest{RemoveParcels: []string{a, b}}, f.actor)
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if !res.Deleted || res.Ledger != nil {
		t.Errorf("expected deleted ledger, got %+v", res)
	}
	if _, err := f.ledger.Track(context.Background(), l.LedgerNo); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("empty ledger still stored: %v", err)
	}
	sizes := f.store.Sizes()
	if sizes["ledgers"] != 0 || sizes["ledger_parcels"] != 0 {
		t.Errorf("leftover rows %v", sizes)
	}
}

func TestEditRejects(t *testing.T) {
	f := newFixture(t)
	a, b := f.book(t, "MNC-01"), f.book(t, "MNC-01")
	krn := f.book(t, "KRN-02")
	loose := f.book(t, "MNC-01")
	l := f.dispatch(t, a, b)
	other := f.dispatch(t, f.book(t, "MNC-01"))
	otherMember := other.ParcelIDs[0]

	delivered := f.dispatch(t, f.book(t, "MNC-01"))
	if _, err := f.ledger.Deliver(context.Background(), delivered.LedgerNo, nil, f.atWarehouse(t, "MNC-01")); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	tests := []struct {
		name     string
		key      string
		req      EditRequest
		actor    models.EmployeeContext
		wantKind apperr.Kind
	}{
		{"empty", l.LedgerNo, EditRequest{}, f.actor, apperr.KindValidation},
		{"blank vehicle", l.LedgerNo, EditRequest{VehicleNo: ptr(" ")}, f.actor, apperr.KindValidation},
		{"charges out of range", l.LedgerNo, EditRequest{Charges: ptr(money.Amount(money.MaxAmount + 1))}, f.actor, apperr.KindValidation},
		{"add and remove same parcel", l.LedgerNo, EditRequest{AddParcels: []string{a}, RemoveParcels: []string{a}}, f.actor, apperr.KindValidation},
		{"unknown ledger", "HYD01-M09999", EditRequest{VehicleNo: ptr("V")}, f.actor, apperr.KindNotFound},
		{"delivered ledger", delivered.LedgerNo, EditRequest{VehicleNo: ptr("V")}, f.actor, apperr.KindConflict},
		{"other warehouse", l.LedgerNo, EditRequest{VehicleNo: ptr("V")}, f.atWarehouse(t, "MNC-01"), apperr.KindForbidden},
		{"add wrong route", l.LedgerNo, EditRequest{AddParcels: []string{krn}}, f.actor, apperr.KindValidation},
		{"add parcel on another ledger", l.LedgerNo, EditRequest{AddParcels: []string{otherMember}}, f.actor, apperr.KindConflict},
		{"remove parcel not on ledger", l.LedgerNo, EditRequest{RemoveParcels: []string{loose}}, f.actor, apperr.KindValidation},
		{"remove unknown parcel", l.LedgerNo, EditRequest{RemoveParcels: []string{"HYD01-77777"}}, f.actor, apperr.KindNotFound},
		{"partial failure", l.LedgerNo, EditRequest{AddParcels: []string{loose}, RemoveParcels: []string{a, otherMember}}, f.actor, apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.ledger.Edit(context.Background(), tt.key, tt.req, tt.actor); !apperr.Is(err, tt.wantKind) {
				t.Fatalf("expected %s, got %v", tt.wantKind, err)
			}
		})
	}

	got, err := f.ledger.Track(context.Background(), l.LedgerNo)
	if err != nil || len(got.ParcelIDs) != 2 || got.VehicleNo != "TS09AB1234" {
		t.Errorf("rejected edits changed the ledger: %+v (%v)", got, err)
	}
	if p := f.parcelOf(t, loose); p.LedgerID != nil {
		t.Errorf("rolled back edit left %s on a ledger", loose)
	}
}

func TestManifestLoadsMembers(t *testing.T) {
	f := newFixture(t)
	a, b := f.book(t, "MNC-01"), f.book(t, "MNC-01")
	l := f.dispatch(t, b, a)

	got, parcels, err := f.ledger.Manifest(context.Background(), l.LedgerNo)
	if err != nil {
		t.Fatalf("Manifest: %v", err)
	}
	if got.ID != l.ID || len(parcels) != 2 {
		t.Fatalf("unexpected manifest %+v %d", got, len(parcels))
	}
	if parcels[0].TrackingID != a || parcels[1].TrackingID != b {
		t.Errorf("members out of order: %s %s", parcels[0].TrackingID, parcels[1].TrackingID)
	}
	if parcels[0].Receiver == nil || len(parcels[0].Items) != 1 || parcels[0].DestinationWarehouse == nil {
		t.Errorf("relations not loaded: %+v", parcels[0])
	}
}

func TestLedgerWritesHoldParcelRowLock(t *testing.T) {
	f := newFixture(t)
	audit := storetest.NewLockAudit(f.store)
	svc := NewService(audit, nil)
	ctx := context.Background()
	a, b, c := f.book(t, "MNC-01"), f.book(t, "MNC-01"), f.book(t, "MNC-01")
	mnc := f.atWarehouse(t, "MNC-01")

	l, err := svc.Create(ctx, CreateRequest{VehicleNo: "V", DestinationWarehouse: "MNC-01", Parcels: []string{a, b}}, f.actor)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Edit(ctx, l.LedgerNo, EditRequest{AddParcels: []string{c}, RemoveParcels: []string{a}}, f.actor); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if _, err := svc.Deliver(ctx, l.LedgerNo, []string{b}, mnc); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if _, err := svc.Deliver(ctx, l.LedgerNo, nil, mnc); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if v := audit.Violations(); len(v) != 0 {
		t.Errorf("unlocked writes: %v", v)
	}
}
