package sequence

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/store"
	"github.com/friendstransport/fleetgo/internal/store/memstore"
	"golang.org/x/sync/errgroup"
)

func newWarehouse(t *testing.T, s store.Store, code string, start int) *models.Warehouse {
	t.Helper()
	wh := &models.Warehouse{WarehouseCode: code, Name: code, Sequence: start, MemoSequence: start}
	if err := s.WithTx(context.Background(), func(tx store.Tx) error {
		return tx.Warehouses().Create(wh)
	}); err != nil {
		t.Fatalf("create warehouse: %v", err)
	}
	return wh
}

func TestAllocateNextConcurrentUnique(t *testing.T) {
	s := memstore.New()
	wh := newWarehouse(t, s, "HYD-01", 0)
	alloc := NewAllocator(s)

	const n = 200
	var (
		mu   sync.Mutex
		seen []int
	)

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < n; i++ {
		g.Go(func() error {
			seq, err := alloc.AllocateNext(ctx, wh.ID)
			if err != nil {
				return err
			}
			mu.Lock()
			seen = append(seen, seq)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("allocate: %v", err)
	}

	sort.Ints(seen)
	for i, seq := range seen {
		if seq != i+1 {
			t.Fatalf("expected contiguous run 1..%d, position %d holds %d", n, i, seq)
		}
	}
}

func TestAllocateNextWrapsAround(t *testing.T) {
	s := memstore.New()
	wh := newWarehouse(t, s, "HYD-01", models.SequenceCeiling)
	alloc := NewAllocator(s)

	seq, err := alloc.AllocateNext(context.Background(), wh.ID)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if seq != 1 {
		t.Fatalf("expected 1 after ceiling, got %d", seq)
	}
	if got := Pad(seq); got != "00001" {
		t.Errorf("expected 00001, got %q", got)
	}

	id, _ := FormatTrackingID(wh.WarehouseCode, seq)
	if id != "HYD01-00001" {
		t.Errorf("unexpected tracking ID %q", id)
	}
}

func TestAllocateNextUnknownWarehouse(t *testing.T) {
	alloc := NewAllocator(memstore.New())

	if _, err := alloc.AllocateNext(context.Background(), models.NewID()); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not_found, got %v", err)
	}
}

func TestMemoCounterIsIndependent(t *testing.T) {
	s := memstore.New()
	wh := newWarehouse(t, s, "HYD-01", 0)
	alloc := NewAllocator(s)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := alloc.AllocateNext(ctx, wh.ID); err != nil {
			t.Fatalf("allocate: %v", err)
		}
	}
	memo, err := alloc.AllocateNextMemo(ctx, wh.ID)
	if err != nil {
		t.Fatalf("allocate memo: %v", err)
	}
	if memo != 1 {
		t.Errorf("expected memo 1, got %d", memo)
	}
}
