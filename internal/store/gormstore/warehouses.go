package gormstore

import (
	"fmt"
	"strings"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/models"
	"gorm.io/gorm"
)

type warehouseRepo struct {
	db *gorm.DB
}

func (r warehouseRepo) FindByCode(code string) (*models.Warehouse, error) {
	var wh models.Warehouse
	if err := r.db.Where("UPPER(warehouse_code) = ?", strings.ToUpper(strings.TrimSpace(code))).Take(&wh).Error; err != nil {
		return nil, notFound(err, "warehouse %s not found", code)
	}
	return &wh, nil
}

func (r warehouseRepo) FindByID(id string) (*models.Warehouse, error) {
	var wh models.Warehouse
	if err := r.db.Where("id = ?", id).Take(&wh).Error; err != nil {
		return nil, notFound(err, "warehouse %s not found", id)
	}
	return &wh, nil
}

func (r warehouseRepo) List() ([]models.Warehouse, error) {
	var warehouses []models.Warehouse
	if err := r.db.Order("display_order ASC").Find(&warehouses).Error; err != nil {
		return nil, classify(err)
	}
	return warehouses, nil
}

func (r warehouseRepo) Create(w *models.Warehouse) error {
	if w.ID == "" {
		w.ID = models.NewID()
	}
	return classify(r.db.Create(w).Error)
}

func (r warehouseRepo) AtomicIncrementSequence(warehouseID string) (int, error) {
	return r.increment(warehouseID, "sequence")
}

func (r warehouseRepo) AtomicIncrementMemoSequence(warehouseID string) (int, error) {
	return r.increment(warehouseID, "memo_sequence")
}

// increment advances column with wraparound in one UPDATE ... RETURNING statement.
// column is one of the two counter names above, never caller input.
func (r warehouseRepo) increment(warehouseID, column string) (int, error) {
	query := fmt.Sprintf(
		`UPDATE warehouses SET %[1]s = CASE WHEN %[1]s >= ? THEN 1 ELSE %[1]s + 1 END, updated_at = NOW() WHERE id = ? RETURNING %[1]s`,
		column,
	)

	var next int
	res := r.db.Raw(query, models.SequenceCeiling, warehouseID).Scan(&next)
	if res.Error != nil {
		return 0, classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, apperr.NotFound("warehouse %s not found", warehouseID)
	}
	return next, nil
}
