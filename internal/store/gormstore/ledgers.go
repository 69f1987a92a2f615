package gormstore

import (
	"errors"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ledgerRepo struct {
	db *gorm.DB
}

func (r ledgerRepo) Create(l *models.Ledger, parcelIDs []string) error {
	if l.ID == "" {
		l.ID = models.NewID()
	}
	if err := r.db.Create(l).Error; err != nil {
		return classify(err)
	}

	members := make([]models.LedgerParcel, 0, len(parcelIDs))
	for _, id := range parcelIDs {
		members = append(members, models.LedgerParcel{LedgerID: l.ID, ParcelID: id})
	}
	if len(members) > 0 {
		if err := r.db.Create(&members).Error; err != nil {
			return classify(err)
		}
	}
	l.ParcelIDs = append([]string(nil), parcelIDs...)
	return nil
}

func (r ledgerRepo) Get(key string) (*models.Ledger, error) {
	return r.load(r.db, key)
}

func (r ledgerRepo) GetForUpdate(key string) (*models.Ledger, error) {
	return r.load(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), key)
}

func (r ledgerRepo) load(q *gorm.DB, key string) (*models.Ledger, error) {
	var l models.Ledger
	if err := q.Where("ledger_no = ? OR id::text = ?", key, key).Take(&l).Error; err != nil {
		return nil, notFound(err, "ledger %s not found", key)
	}

	if err := r.db.Model(&models.LedgerParcel{}).
		Where("ledger_id = ?", l.ID).
		Order("parcel_id ASC").
		Pluck("parcel_id", &l.ParcelIDs).Error; err != nil {
		return nil, classify(err)
	}
	return &l, nil
}

func (r ledgerRepo) Save(l *models.Ledger) error {
	res := r.db.Model(&models.Ledger{}).Where("id = ?", l.ID).Updates(map[string]interface{}{
		"vehicle_no":   l.VehicleNo,
		"charges":      l.Charges,
		"status":       l.Status,
		"delivered_at": l.DeliveredAt,
	})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("ledger %s not found", l.LedgerNo)
	}
	return nil
}

func (r ledgerRepo) AttachParcel(ledgerID, parcelID string) error {
	return classify(r.db.Create(&models.LedgerParcel{LedgerID: ledgerID, ParcelID: parcelID}).Error)
}

func (r ledgerRepo) DetachParcel(ledgerID, parcelID string) (store.DetachResult, error) {
	// Row lock serializes concurrent detaches of the same ledger until commit
	var l models.Ledger
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", ledgerID).Take(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.LedgerAlreadyGone, nil
	}
	if err != nil {
		return 0, classify(err)
	}

	res := r.db.Where("ledger_id = ? AND parcel_id = ?", ledgerID, parcelID).Delete(&models.LedgerParcel{})
	if res.Error != nil {
		return 0, classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, apperr.Consistency(nil, "parcel %s is not a member of ledger %s", parcelID, l.LedgerNo)
	}

	var remaining int64
	if err := r.db.Model(&models.LedgerParcel{}).Where("ledger_id = ?", ledgerID).Count(&remaining).Error; err != nil {
		return 0, classify(err)
	}
	if remaining > 0 {
		return store.LedgerStillHasMembers, nil
	}

	if err := r.db.Where("id = ?", ledgerID).Delete(&models.Ledger{}).Error; err != nil {
		return 0, classify(err)
	}
	return store.LedgerNowEmpty, nil
}
