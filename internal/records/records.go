package records

import (
	"errors"
	"time"

	recordsDatamodel "github.com/frahmantamala/healthrecord-management/internal/core/datamodel/records"
)

var ErrRecordNotFound = errors.New("patient record not found")

type Repository interface {
	GetByID(id int64) (*recordsDatamodel.PatientRecord, error)
	Create(record *recordsDatamodel.PatientRecord) error
	Update(record *recordsDatamodel.PatientRecord) error
	Delete(id int64) error
}

// PatientRecordView is the API shape.
type PatientRecordView struct {
	ID            int64     `json:"id"`
	OwnerID       int64     `json:"owner_id"`
	Department    string    `json:"department,omitempty"`
	AttendingID   *int64    `json:"attending_id,omitempty"`
	Summary       string    `json:"summary,omitempty"`
	AdmissionDate time.Time `json:"admission_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toView(r *recordsDatamodel.PatientRecord) PatientRecordView {
	return PatientRecordView{
		ID:            r.ID,
		OwnerID:       r.OwnerID,
		Department:    r.Department,
		AttendingID:   r.AttendingID,
		Summary:       r.Summary,
		AdmissionDate: r.AdmissionDate,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
