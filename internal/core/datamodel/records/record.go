package records

import "time"

type PatientRecord struct {
	ID            int64     `gorm:"primaryKey"`
	OwnerID       int64     `gorm:"column:owner_id;not null;index"`
	Department    string    `gorm:"column:department"`
	AttendingID   *int64    `gorm:"column:attending_id"`
	Summary       string    `gorm:"column:summary"`
	AdmissionDate time.Time `gorm:"column:admission_date"`
	CreatedAt     time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt     time.Time `gorm:"column:updated_at;default:now()"`
}

func (PatientRecord) TableName() string {
	return "patient_records"
}
