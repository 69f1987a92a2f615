package gormstore

import (
	"github.com/friendstransport/fleetgo/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type parcelRepo struct {
	db *gorm.DB
}

func (r parcelRepo) Create(p *models.Parcel) error {
	if p.ID == "" {
		p.ID = models.NewID()
	}
	return classify(r.db.Omit(clause.Associations).Create(p).Error)
}

func (r parcelRepo) byKey(db *gorm.DB, key string) *gorm.DB {
	return db.Where("tracking_id = ? OR id::text = ?", key, key)
}

func (r parcelRepo) Get(key string) (*models.Parcel, error) {
	var p models.Parcel
	if err := r.byKey(r.db, key).Take(&p).Error; err != nil {
		return nil, notFound(err, "parcel %s not found", key)
	}
	return &p, nil
}

func (r parcelRepo) GetForUpdate(key string) (*models.Parcel, error) {
	var p models.Parcel
	err := r.byKey(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), key).Take(&p).Error
	if err != nil {
		return nil, notFound(err, "parcel %s not found", key)
	}
	return &p, nil
}

func (r parcelRepo) GetDetailed(key string) (*models.Parcel, error) {
	var p models.Parcel
	err := r.byKey(r.db, key).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Items.ItemType").
		Preload("Sender").
		Preload("Receiver").
		Preload("SourceWarehouse").
		Preload("DestinationWarehouse").
		Take(&p).Error
	if err != nil {
		return nil, notFound(err, "parcel %s not found", key)
	}
	return &p, nil
}

func (r parcelRepo) Save(p *models.Parcel) error {
	bare := p.Bare()
	return classify(r.db.Omit(clause.Associations).Save(&bare).Error)
}

func (r parcelRepo) Delete(id string) error {
	return classify(r.db.Where("id = ?", id).Delete(&models.Parcel{}).Error)
}
