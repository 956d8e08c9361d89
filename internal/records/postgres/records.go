package postgres

import (
	"errors"

	"gorm.io/gorm"

	recordsDatamodel "github.com/frahmantamala/healthrecord-management/internal/core/datamodel/records"
	"github.com/frahmantamala/healthrecord-management/internal/records"
)

type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) records.Repository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) GetByID(id int64) (*recordsDatamodel.PatientRecord, error) {
	var record recordsDatamodel.PatientRecord
	err := r.db.Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, records.ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *RecordRepository) Create(record *recordsDatamodel.PatientRecord) error {
	return r.db.Create(record).Error
}

func (r *RecordRepository) Update(record *recordsDatamodel.PatientRecord) error {
	return r.db.Save(record).Error
}

func (r *RecordRepository) Delete(id int64) error {
	return r.db.Delete(&recordsDatamodel.PatientRecord{}, id).Error
}
