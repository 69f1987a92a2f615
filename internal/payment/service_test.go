package payment

import (
	"context"
	"testing"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/store"
	"github.com/friendstransport/fleetgo/internal/store/memstore"
)

type fixture struct {
	store *memstore.Store
	src   *models.Warehouse
	dst   *models.Warehouse
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memstore.New(),
		src:   &models.Warehouse{WarehouseCode: "HYD-01", Name: "Hyderabad"},
		dst:   &models.Warehouse{WarehouseCode: "MNC-01", Name: "Mancherial"},
	}
	err := f.store.WithTx(context.Background(), func(tx store.Tx) error {
		if err := tx.Warehouses().Create(f.src); err != nil {
			return err
		}
		return tx.Warehouses().Create(f.dst)
	})
	if err != nil {
		t.Fatalf("seed warehouses: %v", err)
	}
	return f
}

func (f *fixture) parcel(t *testing.T, trackingID string, mode models.PaymentMode, status models.ParcelStatus) *models.Parcel {
	t.Helper()
	p := &models.Parcel{
		TrackingID:             trackingID,
		SourceWarehouseID:      f.src.ID,
		DestinationWarehouseID: f.dst.ID,
		Status:                 status,
		Payment:                mode,
	}
	err := f.store.WithTx(context.Background(), func(tx store.Tx) error {
		sender := &models.Client{Role: models.ClientRoleSender, Name: "Ravi"}
		receiver := &models.Client{Role: models.ClientRoleReceiver, Name: "Sita"}
		if err := tx.Clients().Create(sender); err != nil {
			return err
		}
		if err := tx.Clients().Create(receiver); err != nil {
			return err
		}
		p.SenderID, p.ReceiverID = sender.ID, receiver.ID
		return tx.Parcels().Create(p)
	})
	if err != nil {
		t.Fatalf("seed parcel: %v", err)
	}
	return p
}

func (f *fixture) tracking(t *testing.T, parcelID string) *models.PaymentTracking {
	t.Helper()
	var pt *models.PaymentTracking
	_ = f.store.WithTx(context.Background(), func(tx store.Tx) error {
		pt, _ = tx.Payments().FindByParcel(parcelID)
		return nil
	})
	return pt
}

func TestEnsureTrackingExistsIsIdempotent(t *testing.T) {
	f := newFixture(t)
	p := f.parcel(t, "HYD01-00001", models.PaymentToPay, models.ParcelStatusArrived)
	svc := NewService(f.store, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := svc.EnsureTrackingExists(ctx, p.ID, models.PaymentStatusToPay); err != nil {
			t.Fatalf("ensure #%d: %v", i+1, err)
		}
	}

	var rows []models.PaymentTracking
	_ = f.store.WithTx(ctx, func(tx store.Tx) error {
		rows, _ = tx.Payments().FindByParcels([]string{p.ID})
		return nil
	})
	if len(rows) != 1 {
		t.Fatalf("expected exactly one row, got %d", len(rows))
	}
	if rows[0].PaymentStatus != models.PaymentStatusToPay {
		t.Errorf("status = %q", rows[0].PaymentStatus)
	}
}

func TestEnsureTrackingExistsUnknownParcel(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store, nil)

	err := svc.EnsureTrackingExists(context.Background(), models.NewID(), models.PaymentStatusToPay)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not_found, got %v", err)
	}
}

func TestSetStatusStampsAndClears(t *testing.T) {
	f := newFixture(t)
	p := f.parcel(t, "HYD01-00001", models.PaymentToPay, models.ParcelStatusDelivered)
	svc := NewService(f.store, nil)
	ctx := context.Background()

	pt, err := svc.SetStatus(ctx, p.ID, models.PaymentStatusReceived, "emp-1")
	if err != nil {
		t.Fatalf("set received: %v", err)
	}
	if pt.ReceivedBy == nil || *pt.ReceivedBy != "emp-1" || pt.ReceivedAt == nil {
		t.Fatalf("received not stamped: %+v", pt)
	}

	if _, err := svc.SetStatus(ctx, p.TrackingID, models.PaymentStatusToPay, "emp-1"); err != nil {
		t.Fatalf("set to pay: %v", err)
	}
	got := f.tracking(t, p.ID)
	if got.PaymentStatus != models.PaymentStatusToPay || got.ReceivedBy != nil || got.ReceivedAt != nil {
		t.Errorf("revert did not clear: %+v", got)
	}

	if _, err := svc.SetStatus(ctx, p.ID, "Half Paid", "emp-1"); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestMarkReceivedRules(t *testing.T) {
	f := newFixture(t)
	toPay := f.parcel(t, "HYD01-00001", models.PaymentToPay, models.ParcelStatusDelivered)
	paid := f.parcel(t, "HYD01-00002", models.PaymentPaid, models.ParcelStatusDelivered)
	svc := NewService(f.store, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		key      string
		actor    models.EmployeeContext
		wantKind apperr.Kind
	}{
		{"admin anywhere", toPay.TrackingID, models.EmployeeContext{ID: "a", Role: models.RoleAdmin}, ""},
		{"staff at destination", toPay.ID, models.EmployeeContext{ID: "s", Role: models.RoleStaff, WarehouseID: f.dst.ID}, ""},
		{"staff elsewhere", toPay.TrackingID, models.EmployeeContext{ID: "s", Role: models.RoleStaff, WarehouseID: f.src.ID}, apperr.KindForbidden},
		{"paid parcel", paid.TrackingID, models.EmployeeContext{ID: "a", Role: models.RoleAdmin}, apperr.KindValidation},
		{"unknown parcel", "HYD01-99999", models.EmployeeContext{ID: "a", Role: models.RoleAdmin}, apperr.KindNotFound},
		{"blank key", " ", models.EmployeeContext{ID: "a", Role: models.RoleAdmin}, apperr.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pt, err := svc.MarkReceived(ctx, tt.key, tt.actor)
			if tt.wantKind != "" {
				if !apperr.Is(err, tt.wantKind) {
					t.Fatalf("expected %s, got %v", tt.wantKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("MarkReceived: %v", err)
			}
			if pt.PaymentStatus != models.PaymentStatusReceived {
				t.Errorf("status = %q", pt.PaymentStatus)
			}
		})
	}
}

type recorder struct{ kinds []models.EventKind }

func (r *recorder) Publish(ev models.ParcelEvent) { r.kinds = append(r.kinds, ev.Kind) }

func TestBatchUpdateForLedger(t *testing.T) {
	f := newFixture(t)
	a := f.parcel(t, "HYD01-00001", models.PaymentToPay, models.ParcelStatusDelivered)
	b := f.parcel(t, "HYD01-00002", models.PaymentToPay, models.ParcelStatusDelivered)
	c := f.parcel(t, "HYD01-00003", models.PaymentPaid, models.ParcelStatusDelivered)
	d := f.parcel(t, "HYD01-00004", models.PaymentToPay, models.ParcelStatusDispatched)

	ledger := &models.Ledger{LedgerNo: "HYD01-M00001", SourceWarehouseID: f.src.ID, DestinationWarehouseID: f.dst.ID}
	if err := f.store.WithTx(context.Background(), func(tx store.Tx) error {
		return tx.Ledgers().Create(ledger, []string{a.ID, b.ID, c.ID, d.ID})
	}); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}

	rec := &recorder{}
	svc := NewService(f.store, rec)
	admin := models.EmployeeContext{ID: "a", Role: models.RoleAdmin}

	res, err := svc.BatchUpdateForLedger(context.Background(), ledger.LedgerNo, []string{a.TrackingID}, admin)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if res.Received != 1 || res.ToPay != 1 {
		t.Errorf("unexpected result %+v", res)
	}
	if got := f.tracking(t, a.ID); got == nil || got.PaymentStatus != models.PaymentStatusReceived {
		t.Errorf("a not received: %+v", got)
	}
	if got := f.tracking(t, b.ID); got == nil || got.PaymentStatus != models.PaymentStatusToPay {
		t.Errorf("b not to pay: %+v", got)
	}
	if f.tracking(t, c.ID) != nil || f.tracking(t, d.ID) != nil {
		t.Error("paid or undelivered parcels must not be touched")
	}
	if len(rec.kinds) != 2 {
		t.Errorf("expected 2 published events, got %d", len(rec.kinds))
	}

	staff := models.EmployeeContext{ID: "s", Role: models.RoleStaff, WarehouseID: f.src.ID}
	if _, err := svc.BatchUpdateForLedger(context.Background(), ledger.LedgerNo, []string{}, staff); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
	if _, err := svc.BatchUpdateForLedger(context.Background(), ledger.LedgerNo, nil, admin); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation for nil list, got %v", err)
	}
}
