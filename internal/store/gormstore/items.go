package gormstore

import (
	"strings"

	"github.com/friendstransport/fleetgo/internal/models"
	"gorm.io/gorm"
)

type itemTypeRepo struct {
	db *gorm.DB
}

func (r itemTypeRepo) FindByNameFold(name string) (*models.ItemType, error) {
	var t models.ItemType
	if err := r.db.Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).Take(&t).Error; err != nil {
		return nil, notFound(err, "item type %s not found", name)
	}
	return &t, nil
}

func (r itemTypeRepo) Create(t *models.ItemType) error {
	if t.ID == "" {
		t.ID = models.NewID()
	}
	return classify(r.db.Create(t).Error)
}

type itemRepo struct {
	db *gorm.DB
}

func (r itemRepo) Create(item *models.Item) error {
	if item.ID == "" {
		item.ID = models.NewID()
	}
	return classify(r.db.Omit("ItemType").Create(item).Error)
}

func (r itemRepo) ListByParcel(parcelID string) ([]models.Item, error) {
	var items []models.Item
	if err := r.db.Where("parcel_id = ?", parcelID).Order("position ASC").Find(&items).Error; err != nil {
		return nil, classify(err)
	}
	return items, nil
}

func (r itemRepo) Delete(id string) error {
	return classify(r.db.Where("id = ?", id).Delete(&models.Item{}).Error)
}

func (r itemRepo) DeleteByParcel(parcelID string) error {
	return classify(r.db.Where("parcel_id = ?", parcelID).Delete(&models.Item{}).Error)
}

type clientRepo struct {
	db *gorm.DB
}

func (r clientRepo) Create(c *models.Client) error {
	if c.ID == "" {
		c.ID = models.NewID()
	}
	return classify(r.db.Create(c).Error)
}

func (r clientRepo) FindByID(id string) (*models.Client, error) {
	var c models.Client
	if err := r.db.Where("id = ?", id).Take(&c).Error; err != nil {
		return nil, notFound(err, "client %s not found", id)
	}
	return &c, nil
}

func (r clientRepo) Save(c *models.Client) error {
	return classify(r.db.Save(c).Error)
}

func (r clientRepo) Delete(id string) error {
	return classify(r.db.Where("id = ?", id).Delete(&models.Client{}).Error)
}
