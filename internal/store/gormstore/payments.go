package gormstore

import (
	"time"

	"github.com/friendstransport/fleetgo/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type paymentRepo struct {
	db *gorm.DB
}

func (r paymentRepo) EnsureExists(parcelID string, status models.PaymentStatus) (bool, error) {
	pt := models.PaymentTracking{
		ID:            models.NewID(),
		ParcelID:      parcelID,
		PaymentStatus: status,
		CreatedAt:     time.Now().UTC(),
	}
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "parcel_id"}},
		DoNothing: true,
	}).Create(&pt)
	if res.Error != nil {
		return false, classify(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r paymentRepo) Upsert(pt *models.PaymentTracking) error {
	if pt.ID == "" {
		pt.ID = models.NewID()
	}
	if pt.CreatedAt.IsZero() {
		pt.CreatedAt = time.Now().UTC()
	}
	return classify(r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "parcel_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payment_status", "received_by", "received_at"}),
	}, clause.Returning{}).Create(pt).Error)
}

func (r paymentRepo) FindByParcel(parcelID string) (*models.PaymentTracking, error) {
	var pt models.PaymentTracking
	if err := r.db.Where("parcel_id = ?", parcelID).Take(&pt).Error; err != nil {
		return nil, notFound(err, "payment tracking for parcel %s not found", parcelID)
	}
	return &pt, nil
}

func (r paymentRepo) FindByParcels(parcelIDs []string) ([]models.PaymentTracking, error) {
	var rows []models.PaymentTracking
	if len(parcelIDs) == 0 {
		return rows, nil
	}
	if err := r.db.Where("parcel_id IN ?", parcelIDs).Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	return rows, nil
}

func (r paymentRepo) DeleteByParcel(parcelID string) error {
	return classify(r.db.Where("parcel_id = ?", parcelID).Delete(&models.PaymentTracking{}).Error)
}

type eventRepo struct {
	db *gorm.DB
}

func (r eventRepo) Append(ev *models.ParcelEvent) error {
	if ev.ID == "" {
		ev.ID = models.NewID()
	}
	return classify(r.db.Create(ev).Error)
}

func (r eventRepo) ListByParcel(parcelID string) ([]models.ParcelEvent, error) {
	var events []models.ParcelEvent
	if err := r.db.Where("parcel_id = ?", parcelID).Order("created_at ASC").Find(&events).Error; err != nil {
		return nil, classify(err)
	}
	return events, nil
}

type employeeRepo struct {
	db *gorm.DB
}

func (r employeeRepo) FindByUsername(username string) (*models.Employee, error) {
	var e models.Employee
	if err := r.db.Where("username = ?", username).Take(&e).Error; err != nil {
		return nil, notFound(err, "employee %s not found", username)
	}
	return &e, nil
}

func (r employeeRepo) Create(e *models.Employee) error {
	if e.ID == "" {
		e.ID = models.NewID()
	}
	return classify(r.db.Create(e).Error)
}
