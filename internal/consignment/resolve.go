package consignment

import (
	"strings"
	"time"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/store"
)

// typeCache resolves item type names once per request
type typeCache struct {
	repo  store.ItemTypeRepo
	byKey map[string]*models.ItemType
}

func newTypeCache(repo store.ItemTypeRepo) *typeCache {
	return &typeCache{repo: repo, byKey: map[string]*models.ItemType{}}
}

func (c *typeCache) resolve(name string) (*models.ItemType, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, apperr.Validation("item type is required")
	}
	if t, ok := c.byKey[key]; ok {
		return t, nil
	}

	t, err := c.repo.FindByNameFold(key)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Validation("unknown item type %q", strings.TrimSpace(name))
	}
	if err != nil {
		return nil, err
	}
	c.byKey[key] = t
	return t, nil
}

// materialize turns inputs into unsaved items for parcelID, numbering them from position
func (c *typeCache) materialize(parcelID string, inputs []ItemInput, position int, at time.Time) ([]models.Item, error) {
	items := make([]models.Item, 0, len(inputs))
	for i, in := range inputs {
		t, err := c.resolve(in.Type)
		if err != nil {
			return nil, err
		}
		items = append(items, models.Item{
			ID:         models.NewID(),
			ParcelID:   parcelID,
			Position:   position + i,
			Name:       strings.TrimSpace(in.Name),
			ItemTypeID: t.ID,
			Quantity:   in.Quantity,
			Freight:    in.Freight.Scaled(),
			Hamali:     in.Hamali.Scaled(),
			CreatedAt:  at,
		})
	}
	return items, nil
}

// warehouseByCode maps a missing warehouse to a validation error naming its role
func warehouseByCode(tx store.Tx, code, role string) (*models.Warehouse, error) {
	wh, err := tx.Warehouses().FindByCode(code)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Validation("%s warehouse not found", role)
	}
	return wh, err
}

// sourceWarehouse resolves an explicit code, falling back to the actor's own warehouse
func sourceWarehouse(tx store.Tx, code string, actor models.EmployeeContext) (*models.Warehouse, error) {
	if code = strings.TrimSpace(code); code != "" {
		return warehouseByCode(tx, code, "source")
	}
	if actor.WarehouseID == "" {
		return nil, apperr.Validation("source warehouse is required")
	}
	wh, err := tx.Warehouses().FindByID(actor.WarehouseID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Validation("source warehouse not found")
	}
	return wh, err
}
