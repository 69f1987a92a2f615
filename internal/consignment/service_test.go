package consignment

import (
	"context"
	"sync"
	"testing"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/money"
	"github.com/friendstransport/fleetgo/internal/store"
	"github.com/friendstransport/fleetgo/internal/store/memstore"
	"golang.org/x/sync/errgroup"
)

type recorder struct {
	mu     sync.Mutex
	events []models.ParcelEvent
}

func (r *recorder) Publish(ev models.ParcelEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

type fixture struct {
	store *memstore.Store
	svc   *Service
	rec   *recorder
	hyd   *models.Warehouse
	mnc   *models.Warehouse
	staff models.EmployeeContext
	admin models.EmployeeContext
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memstore.New(),
		rec:   &recorder{},
		hyd:   &models.Warehouse{WarehouseCode: "HYD-01", Name: "Hyderabad", IsSource: true},
		mnc:   &models.Warehouse{WarehouseCode: "MNC-01", Name: "Mancherial"},
	}
	err := f.store.WithTx(context.Background(), func(tx store.Tx) error {
		for _, wh := range []*models.Warehouse{f.hyd, f.mnc} {
			if err := tx.Warehouses().Create(wh); err != nil {
				return err
			}
		}
		for _, name := range []string{"Box", "Bag", "Electronics"} {
			if err := tx.ItemTypes().Create(&models.ItemType{Name: name}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	f.svc = NewService(f.store, f.rec)
	f.staff = models.EmployeeContext{ID: models.NewID(), Role: models.RoleStaff, WarehouseID: f.hyd.ID}
	f.admin = models.EmployeeContext{ID: models.NewID(), Role: models.RoleAdmin}
	return f
}

func booking() BookingRequest {
	return BookingRequest{
		Items: []ItemInput{
			{Name: "Cartons", Type: "box", Quantity: 3, Freight: 500, Hamali: 200},
			{Name: "Sack", Type: "BAG", Quantity: 1, Freight: 1000, Hamali: 300},
		},
		Sender:               PartyDetails{Name: "Ravi", PhoneNo: "9000000001"},
		Receiver:             PartyDetails{Name: "Sita", PhoneNo: "9000000002"},
		SourceWarehouse:      "HYD-01",
		DestinationWarehouse: "MNC-01",
		Payment:              models.PaymentToPay,
	}
}

func (f *fixture) book(t *testing.T, req BookingRequest) string {
	t.Helper()
	id, err := f.svc.CreateParcel(context.Background(), req, f.staff)
	if err != nil {
		t.Fatalf("CreateParcel: %v", err)
	}
	return id
}

func (f *fixture) view(t *testing.T, fn func(tx store.Tx)) {
	t.Helper()
	if err := f.store.WithTx(context.Background(), func(tx store.Tx) error {
		fn(tx)
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}

func (f *fixture) detailed(t *testing.T, key string) *models.Parcel {
	t.Helper()
	var p *models.Parcel
	f.view(t, func(tx store.Tx) {
		var err error
		if p, err = tx.Parcels().GetDetailed(key); err != nil {
			t.Fatalf("GetDetailed(%s): %v", key, err)
		}
	})
	return p
}

func assertAggregates(t *testing.T, p *models.Parcel) {
	t.Helper()
	var freight, hamali int64
	for _, it := range p.Items {
		freight += it.Freight * int64(it.Quantity)
		hamali += it.Hamali * int64(it.Quantity)
	}
	if p.Freight != freight || p.Hamali != hamali {
		t.Fatalf("aggregates %d/%d do not match items %d/%d", p.Freight, p.Hamali, freight, hamali)
	}
}

func TestCreateParcelEndToEnd(t *testing.T) {
	f := newFixture(t)

	id := f.book(t, booking())
	if id != "HYD01-00001" {
		t.Fatalf("tracking ID = %q", id)
	}

	p := f.detailed(t, id)
	if p.Freight != 2500 || p.Hamali != 900 {
		t.Errorf("freight/hamali = %d/%d, want 2500/900", p.Freight, p.Hamali)
	}
	if p.Status != models.ParcelStatusArrived || p.AddedBy == nil || *p.AddedBy != f.staff.ID || p.PlacedAt.IsZero() {
		t.Errorf("unexpected parcel %+v", p)
	}
	if len(p.Items) != 2 || p.Items[0].Name != "Cartons" || p.Items[0].ItemType.Name != "Box" {
		t.Errorf("unexpected items %+v", p.Items)
	}
	if p.Sender.Name != "Ravi" || p.Receiver.Name != "Sita" || p.Sender.Role != models.ClientRoleSender {
		t.Errorf("unexpected clients %+v / %+v", p.Sender, p.Receiver)
	}
	if p.SourceWarehouse.ID != f.hyd.ID || p.DestinationWarehouse.ID != f.mnc.ID {
		t.Errorf("unexpected warehouses")
	}

	f.view(t, func(tx store.Tx) {
		pt, err := tx.Payments().FindByParcel(p.ID)
		if err != nil || pt.PaymentStatus != models.PaymentStatusToPay {
			t.Errorf("expected To Pay tracking row, got %+v (%v)", pt, err)
		}
	})

	if len(f.rec.events) != 1 || f.rec.events[0].Kind != models.EventBooked {
		t.Errorf("expected one booked event, got %+v", f.rec.events)
	}

	second := f.book(t, booking())
	if second != "HYD01-00002" {
		t.Errorf("second tracking ID = %q", second)
	}
}

func TestCreateParcelPaidHasNoTracking(t *testing.T) {
	f := newFixture(t)
	req := booking()
	req.Payment = models.PaymentPaid

	f.book(t, req)
	if n := f.store.Sizes()["payment_trackings"]; n != 0 {
		t.Errorf("expected no tracking rows, got %d", n)
	}
}

func TestCreateParcelDefaultsToActorWarehouse(t *testing.T) {
	f := newFixture(t)
	req := booking()
	req.SourceWarehouse = ""

	id := f.book(t, req)
	if p := f.detailed(t, id); p.SourceWarehouseID != f.hyd.ID {
		t.Errorf("source = %s, want %s", p.SourceWarehouseID, f.hyd.ID)
	}

	if _, err := f.svc.CreateParcel(context.Background(), req, f.admin); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("admin without warehouse: expected validation, got %v", err)
	}
}

func TestCreateParcelValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *BookingRequest)
	}{
		{"missing destination", func(r *BookingRequest) { r.DestinationWarehouse = "" }},
		{"unknown destination", func(r *BookingRequest) { r.DestinationWarehouse = "XYZ-09" }},
		{"unknown source", func(r *BookingRequest) { r.SourceWarehouse = "XYZ-09" }},
		{"no items", func(r *BookingRequest) { r.Items = nil }},
		{"blank item type", func(r *BookingRequest) { r.Items[0].Type = "  " }},
		{"unknown item type", func(r *BookingRequest) { r.Items[1].Type = "Furniture" }},
		{"zero quantity", func(r *BookingRequest) { r.Items[0].Quantity = 0 }},
		{"negative freight", func(r *BookingRequest) { r.Items[0].Freight = -1 }},
		{"quantity too large", func(r *BookingRequest) { r.Items[0].Quantity = MaxQuantity + 1 }},
		{"freight beyond int64 range", func(r *BookingRequest) { r.Items[0].Freight = money.Amount(5_000_000_000_000_000_000) }},
		{"line total overflows", func(r *BookingRequest) {
			r.Items[0].Quantity = 2
			r.Items[0].Freight = money.Amount(money.MaxAmount)
		}},
		{"parcel total overflows", func(r *BookingRequest) {
			r.Items[0].Quantity, r.Items[1].Quantity = 1, 1
			r.Items[0].Hamali, r.Items[1].Hamali = money.Amount(money.MaxAmount), money.Amount(money.MaxAmount)
		}},
		{"door delivery beyond range", func(r *BookingRequest) { r.DoorDeliveryCharge = money.Amount(money.MaxAmount + 1) }},
		{"bad payment", func(r *BookingRequest) { r.Payment = "COD" }},
		{"negative door delivery", func(r *BookingRequest) { r.DoorDeliveryCharge = money.Amount(-5) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := booking()
			tt.mutate(&req)

			_, err := f.svc.CreateParcel(context.Background(), req, f.staff)
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}

			sizes := f.store.Sizes()
			for _, table := range []string{"parcels", "items", "clients", "payment_trackings", "parcel_events"} {
				if sizes[table] != 0 {
					t.Errorf("%s has %d rows after failed booking", table, sizes[table])
				}
			}
			f.view(t, func(tx store.Tx) {
				wh, _ := tx.Warehouses().FindByID(f.hyd.ID)
				if wh.Sequence != 0 {
					t.Errorf("sequence advanced to %d", wh.Sequence)
				}
			})
			if len(f.rec.events) != 0 {
				t.Errorf("events published for failed booking")
			}
		})
	}
}

func TestCreateParcelConcurrentBookingsGetDistinctIDs(t *testing.T) {
	f := newFixture(t)
	const n = 50

	var (
		mu  sync.Mutex
		ids = map[string]bool{}
	)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < n; i++ {
		g.Go(func() error {
			id, err := f.svc.CreateParcel(ctx, booking(), f.staff)
			if err != nil {
				return err
			}
			mu.Lock()
			ids[id] = true
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("booking: %v", err)
	}
	if len(ids) != n {
		t.Errorf("expected %d distinct tracking IDs, got %d", n, len(ids))
	}
}

func TestCreateParcelAfterWraparoundCollision(t *testing.T) {
	f := newFixture(t)
	f.book(t, booking())

	// Force the counter to the ceiling so the next allocation wraps onto HYD01-00001
	if err := f.store.WithTx(context.Background(), func(tx store.Tx) error {
		for i := 1; i < models.SequenceCeiling; i++ {
			if _, err := tx.Warehouses().AtomicIncrementSequence(f.hyd.ID); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		t.Fatalf("advance: %v", err)
	}

	_, err := f.svc.CreateParcel(context.Background(), booking(), f.staff)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on reused tracking ID, got %v", err)
	}
}
