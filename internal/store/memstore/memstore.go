// Package memstore is an in-process store.Store used by tests and by
// STORE_DRIVER=memory. A transaction works on a private copy of the data that
// replaces the live copy only when fn succeeds, and transactions run one at a
// time, so every WithTx call is serializable.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/store"
)

// Store is the in-memory store
type Store struct {
	mu   sync.Mutex
	data *dataset
}

// New returns an empty store
func New() *Store {
	return &Store{data: newDataset()}
}

type dataset struct {
	warehouses map[string]models.Warehouse
	itemTypes  map[string]models.ItemType
	items      map[string]models.Item
	clients    map[string]models.Client
	parcels    map[string]models.Parcel
	ledgers    map[string]models.Ledger
	members    map[string]string // parcel ID -> ledger ID
	payments   map[string]models.PaymentTracking
	events     []models.ParcelEvent
	employees  map[string]models.Employee
}

func newDataset() *dataset {
	return &dataset{
		warehouses: map[string]models.Warehouse{},
		itemTypes:  map[string]models.ItemType{},
		items:      map[string]models.Item{},
		clients:    map[string]models.Client{},
		parcels:    map[string]models.Parcel{},
		ledgers:    map[string]models.Ledger{},
		members:    map[string]string{},
		payments:   map[string]models.PaymentTracking{},
		employees:  map[string]models.Employee{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *dataset) clone() *dataset {
	return &dataset{
		warehouses: cloneMap(d.warehouses),
		itemTypes:  cloneMap(d.itemTypes),
		items:      cloneMap(d.items),
		clients:    cloneMap(d.clients),
		parcels:    cloneMap(d.parcels),
		ledgers:    cloneMap(d.ledgers),
		members:    cloneMap(d.members),
		payments:   cloneMap(d.payments),
		events:     append([]models.ParcelEvent(nil), d.events...),
		employees:  cloneMap(d.employees),
	}
}

// WithTx runs fn against a private copy of the data and publishes it on success
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return apperr.Unavailable(err)
	}

	work := s.data.clone()
	if err := fn(work); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return apperr.Unavailable(err)
	}
	s.data = work
	return nil
}

func (d *dataset) Warehouses() store.WarehouseRepo { return warehouseRepo{d} }
func (d *dataset) ItemTypes() store.ItemTypeRepo   { return itemTypeRepo{d} }
func (d *dataset) Items() store.ItemRepo           { return itemRepo{d} }
func (d *dataset) Clients() store.ClientRepo       { return clientRepo{d} }
func (d *dataset) Parcels() store.ParcelRepo       { return parcelRepo{d} }
func (d *dataset) Ledgers() store.LedgerRepo       { return ledgerRepo{d} }
func (d *dataset) Payments() store.PaymentRepo     { return paymentRepo{d} }
func (d *dataset) Events() store.EventRepo         { return eventRepo{d} }
func (d *dataset) Employees() store.EmployeeRepo   { return employeeRepo{d} }

type warehouseRepo struct{ d *dataset }

func (r warehouseRepo) FindByCode(code string) (*models.Warehouse, error) {
	code = strings.TrimSpace(code)
	for _, wh := range r.d.warehouses {
		if strings.EqualFold(wh.WarehouseCode, code) {
			return &wh, nil
		}
	}
	return nil, apperr.NotFound("warehouse %s not found", code)
}

func (r warehouseRepo) FindByID(id string) (*models.Warehouse, error) {
	wh, ok := r.d.warehouses[id]
	if !ok {
		return nil, apperr.NotFound("warehouse %s not found", id)
	}
	return &wh, nil
}

func (r warehouseRepo) List() ([]models.Warehouse, error) {
	out := make([]models.Warehouse, 0, len(r.d.warehouses))
	for _, wh := range r.d.warehouses {
		out = append(out, wh)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].WarehouseCode < out[j].WarehouseCode
	})
	return out, nil
}

func (r warehouseRepo) Create(w *models.Warehouse) error {
	if w.ID == "" {
		w.ID = models.NewID()
	}
	for _, existing := range r.d.warehouses {
		if existing.WarehouseCode == w.WarehouseCode || existing.ID == w.ID {
			return apperr.Conflict(nil, "duplicate warehouses")
		}
	}
	now := time.Now().UTC()
	w.CreatedAt, w.UpdatedAt = now, now
	r.d.warehouses[w.ID] = *w
	return nil
}

func (r warehouseRepo) AtomicIncrementSequence(warehouseID string) (int, error) {
	wh, ok := r.d.warehouses[warehouseID]
	if !ok {
		return 0, apperr.NotFound("warehouse %s not found", warehouseID)
	}
	wh.Sequence = models.NextSequence(wh.Sequence)
	wh.UpdatedAt = time.Now().UTC()
	r.d.warehouses[warehouseID] = wh
	return wh.Sequence, nil
}

func (r warehouseRepo) AtomicIncrementMemoSequence(warehouseID string) (int, error) {
	wh, ok := r.d.warehouses[warehouseID]
	if !ok {
		return 0, apperr.NotFound("warehouse %s not found", warehouseID)
	}
	wh.MemoSequence = models.NextSequence(wh.MemoSequence)
	wh.UpdatedAt = time.Now().UTC()
	r.d.warehouses[warehouseID] = wh
	return wh.MemoSequence, nil
}

type itemTypeRepo struct{ d *dataset }

func (r itemTypeRepo) FindByNameFold(name string) (*models.ItemType, error) {
	name = strings.TrimSpace(name)
	for _, t := range r.d.itemTypes {
		if strings.EqualFold(t.Name, name) {
			return &t, nil
		}
	}
	return nil, apperr.NotFound("item type %s not found", name)
}

func (r itemTypeRepo) Create(t *models.ItemType) error {
	if t.ID == "" {
		t.ID = models.NewID()
	}
	for _, existing := range r.d.itemTypes {
		if existing.Name == t.Name {
			return apperr.Conflict(nil, "duplicate item_types")
		}
	}
	t.CreatedAt = time.Now().UTC()
	r.d.itemTypes[t.ID] = *t
	return nil
}

type itemRepo struct{ d *dataset }

func (r itemRepo) Create(item *models.Item) error {
	if item.ID == "" {
		item.ID = models.NewID()
	}
	if _, ok := r.d.parcels[item.ParcelID]; !ok {
		return apperr.Consistency(nil, "referenced record is missing")
	}
	if _, ok := r.d.itemTypes[item.ItemTypeID]; !ok {
		return apperr.Consistency(nil, "referenced record is missing")
	}
	if _, ok := r.d.items[item.ID]; ok {
		return apperr.Conflict(nil, "duplicate items")
	}
	stored := *item
	stored.ItemType = nil
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.d.items[stored.ID] = stored
	return nil
}

func (r itemRepo) ListByParcel(parcelID string) ([]models.Item, error) {
	var out []models.Item
	for _, it := range r.d.items {
		if it.ParcelID == parcelID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r itemRepo) Delete(id string) error {
	delete(r.d.items, id)
	return nil
}

func (r itemRepo) DeleteByParcel(parcelID string) error {
	for id, it := range r.d.items {
		if it.ParcelID == parcelID {
			delete(r.d.items, id)
		}
	}
	return nil
}

type clientRepo struct{ d *dataset }

func (r clientRepo) Create(c *models.Client) error {
	if c.ID == "" {
		c.ID = models.NewID()
	}
	if _, ok := r.d.clients[c.ID]; ok {
		return apperr.Conflict(nil, "duplicate clients")
	}
	r.d.clients[c.ID] = *c
	return nil
}

func (r clientRepo) FindByID(id string) (*models.Client, error) {
	c, ok := r.d.clients[id]
	if !ok {
		return nil, apperr.NotFound("client %s not found", id)
	}
	return &c, nil
}

func (r clientRepo) Save(c *models.Client) error {
	r.d.clients[c.ID] = *c
	return nil
}

// Delete refuses to remove a client a parcel still points at, like the FK would
func (r clientRepo) Delete(id string) error {
	for _, p := range r.d.parcels {
		if p.SenderID == id || p.ReceiverID == id {
			return apperr.Consistency(nil, "referenced record is missing")
		}
	}
	delete(r.d.clients, id)
	return nil
}

type parcelRepo struct{ d *dataset }

func (r parcelRepo) Create(p *models.Parcel) error {
	if p.ID == "" {
		p.ID = models.NewID()
	}
	for _, existing := range r.d.parcels {
		if existing.TrackingID == p.TrackingID || existing.ID == p.ID {
			return apperr.Conflict(nil, "duplicate parcels")
		}
	}
	for _, ref := range []string{p.SenderID, p.ReceiverID} {
		if _, ok := r.d.clients[ref]; !ok {
			return apperr.Consistency(nil, "referenced record is missing")
		}
	}
	for _, ref := range []string{p.SourceWarehouseID, p.DestinationWarehouseID} {
		if _, ok := r.d.warehouses[ref]; !ok {
			return apperr.Consistency(nil, "referenced record is missing")
		}
	}
	r.d.parcels[p.ID] = p.Bare()
	return nil
}

func (r parcelRepo) lookup(key string) (models.Parcel, bool) {
	if p, ok := r.d.parcels[key]; ok {
		return p, true
	}
	for _, p := range r.d.parcels {
		if p.TrackingID == key {
			return p, true
		}
	}
	return models.Parcel{}, false
}

func (r parcelRepo) Get(key string) (*models.Parcel, error) {
	p, ok := r.lookup(key)
	if !ok {
		return nil, apperr.NotFound("parcel %s not found", key)
	}
	return &p, nil
}

// GetForUpdate needs no extra locking: transactions are already serialized
func (r parcelRepo) GetForUpdate(key string) (*models.Parcel, error) {
	return r.Get(key)
}

func (r parcelRepo) GetDetailed(key string) (*models.Parcel, error) {
	p, ok := r.lookup(key)
	if !ok {
		return nil, apperr.NotFound("parcel %s not found", key)
	}

	items, _ := itemRepo{r.d}.ListByParcel(p.ID)
	for i := range items {
		if t, ok := r.d.itemTypes[items[i].ItemTypeID]; ok {
			t := t
			items[i].ItemType = &t
		}
	}
	p.Items = items

	if c, ok := r.d.clients[p.SenderID]; ok {
		p.Sender = &c
	}
	if c, ok := r.d.clients[p.ReceiverID]; ok {
		p.Receiver = &c
	}
	if wh, ok := r.d.warehouses[p.SourceWarehouseID]; ok {
		p.SourceWarehouse = &wh
	}
	if wh, ok := r.d.warehouses[p.DestinationWarehouseID]; ok {
		p.DestinationWarehouse = &wh
	}
	return &p, nil
}

func (r parcelRepo) Save(p *models.Parcel) error {
	if _, ok := r.d.parcels[p.ID]; !ok {
		return apperr.NotFound("parcel %s not found", p.ID)
	}
	for id, existing := range r.d.parcels {
		if id != p.ID && existing.TrackingID == p.TrackingID {
			return apperr.Conflict(nil, "duplicate parcels")
		}
	}
	r.d.parcels[p.ID] = p.Bare()
	return nil
}

// Delete refuses to remove a parcel whose items are still present, like the FK would
func (r parcelRepo) Delete(id string) error {
	for _, it := range r.d.items {
		if it.ParcelID == id {
			return apperr.Consistency(nil, "referenced record is missing")
		}
	}
	delete(r.d.parcels, id)
	return nil
}

type ledgerRepo struct{ d *dataset }

func (r ledgerRepo) Create(l *models.Ledger, parcelIDs []string) error {
	if l.ID == "" {
		l.ID = models.NewID()
	}
	for _, existing := range r.d.ledgers {
		if existing.LedgerNo == l.LedgerNo || existing.ID == l.ID {
			return apperr.Conflict(nil, "duplicate ledgers")
		}
	}
	for _, id := range parcelIDs {
		if _, taken := r.d.members[id]; taken {
			return apperr.Conflict(nil, "duplicate ledger_parcels")
		}
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	stored := *l
	stored.ParcelIDs = nil
	r.d.ledgers[l.ID] = stored
	for _, id := range parcelIDs {
		r.d.members[id] = l.ID
	}
	l.ParcelIDs = append([]string(nil), parcelIDs...)
	return nil
}

func (r ledgerRepo) Get(key string) (*models.Ledger, error) {
	l, ok := r.d.ledgers[key]
	if !ok {
		found := false
		for _, candidate := range r.d.ledgers {
			if candidate.LedgerNo == key {
				l, found = candidate, true
				break
			}
		}
		if !found {
			return nil, apperr.NotFound("ledger %s not found", key)
		}
	}
	l.ParcelIDs = r.memberIDs(l.ID)
	return &l, nil
}

// GetForUpdate needs no lock: transactions are already serialized
func (r ledgerRepo) GetForUpdate(key string) (*models.Ledger, error) {
	return r.Get(key)
}

func (r ledgerRepo) memberIDs(ledgerID string) []string {
	var ids []string
	for parcelID, lid := range r.d.members {
		if lid == ledgerID {
			ids = append(ids, parcelID)
		}
	}
	sort.Strings(ids)
	return ids
}

func (r ledgerRepo) Save(l *models.Ledger) error {
	stored, ok := r.d.ledgers[l.ID]
	if !ok {
		return apperr.NotFound("ledger %s not found", l.LedgerNo)
	}
	stored.VehicleNo = l.VehicleNo
	stored.Charges = l.Charges
	stored.Status = l.Status
	stored.DeliveredAt = l.DeliveredAt
	r.d.ledgers[l.ID] = stored
	return nil
}

func (r ledgerRepo) AttachParcel(ledgerID, parcelID string) error {
	if _, ok := r.d.ledgers[ledgerID]; !ok {
		return apperr.Consistency(nil, "referenced record is missing")
	}
	if _, ok := r.d.parcels[parcelID]; !ok {
		return apperr.Consistency(nil, "referenced record is missing")
	}
	if _, taken := r.d.members[parcelID]; taken {
		return apperr.Conflict(nil, "duplicate ledger_parcels")
	}
	r.d.members[parcelID] = ledgerID
	return nil
}

func (r ledgerRepo) DetachParcel(ledgerID, parcelID string) (store.DetachResult, error) {
	l, ok := r.d.ledgers[ledgerID]
	if !ok {
		return store.LedgerAlreadyGone, nil
	}
	if r.d.members[parcelID] != ledgerID {
		return 0, apperr.Consistency(nil, "parcel %s is not a member of ledger %s", parcelID, l.LedgerNo)
	}
	delete(r.d.members, parcelID)

	if len(r.memberIDs(ledgerID)) > 0 {
		return store.LedgerStillHasMembers, nil
	}
	delete(r.d.ledgers, ledgerID)
	return store.LedgerNowEmpty, nil
}

type paymentRepo struct{ d *dataset }

func (r paymentRepo) EnsureExists(parcelID string, status models.PaymentStatus) (bool, error) {
	if _, ok := r.d.payments[parcelID]; ok {
		return false, nil
	}
	r.d.payments[parcelID] = models.PaymentTracking{
		ID:            models.NewID(),
		ParcelID:      parcelID,
		PaymentStatus: status,
		CreatedAt:     time.Now().UTC(),
	}
	return true, nil
}

func (r paymentRepo) Upsert(pt *models.PaymentTracking) error {
	if existing, ok := r.d.payments[pt.ParcelID]; ok {
		existing.PaymentStatus = pt.PaymentStatus
		existing.ReceivedBy = pt.ReceivedBy
		existing.ReceivedAt = pt.ReceivedAt
		r.d.payments[pt.ParcelID] = existing
		*pt = existing
		return nil
	}
	if pt.ID == "" {
		pt.ID = models.NewID()
	}
	if pt.CreatedAt.IsZero() {
		pt.CreatedAt = time.Now().UTC()
	}
	r.d.payments[pt.ParcelID] = *pt
	return nil
}

func (r paymentRepo) FindByParcel(parcelID string) (*models.PaymentTracking, error) {
	pt, ok := r.d.payments[parcelID]
	if !ok {
		return nil, apperr.NotFound("payment tracking for parcel %s not found", parcelID)
	}
	return &pt, nil
}

func (r paymentRepo) FindByParcels(parcelIDs []string) ([]models.PaymentTracking, error) {
	var out []models.PaymentTracking
	for _, id := range parcelIDs {
		if pt, ok := r.d.payments[id]; ok {
			out = append(out, pt)
		}
	}
	return out, nil
}

func (r paymentRepo) DeleteByParcel(parcelID string) error {
	delete(r.d.payments, parcelID)
	return nil
}

type eventRepo struct{ d *dataset }

func (r eventRepo) Append(ev *models.ParcelEvent) error {
	if ev.ID == "" {
		ev.ID = models.NewID()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	r.d.events = append(r.d.events, *ev)
	return nil
}

func (r eventRepo) ListByParcel(parcelID string) ([]models.ParcelEvent, error) {
	var out []models.ParcelEvent
	for _, ev := range r.d.events {
		if ev.ParcelID == parcelID {
			out = append(out, ev)
		}
	}
	return out, nil
}

type employeeRepo struct{ d *dataset }

func (r employeeRepo) FindByUsername(username string) (*models.Employee, error) {
	for _, e := range r.d.employees {
		if e.Username == username {
			return &e, nil
		}
	}
	return nil, apperr.NotFound("employee %s not found", username)
}

func (r employeeRepo) Create(e *models.Employee) error {
	if e.ID == "" {
		e.ID = models.NewID()
	}
	for _, existing := range r.d.employees {
		if existing.Username == e.Username {
			return apperr.Conflict(nil, "duplicate employees")
		}
	}
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	r.d.employees[e.ID] = *e
	return nil
}

// Sizes returns the number of stored rows per table
func (s *Store) Sizes() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]int{
		"warehouses":        len(s.data.warehouses),
		"item_types":        len(s.data.itemTypes),
		"items":             len(s.data.items),
		"clients":           len(s.data.clients),
		"parcels":           len(s.data.parcels),
		"ledgers":           len(s.data.ledgers),
		"ledger_parcels":    len(s.data.members),
		"payment_trackings": len(s.data.payments),
		"parcel_events":     len(s.data.events),
		"employees":         len(s.data.employees),
	}
}
