package records

import "time"

type CreateRecordDTO struct {
	OwnerID       int64     `json:"owner_id"`
	Department    string    `json:"department"`
	AttendingID   *int64    `json:"attending_id"`
	Summary       string    `json:"summary"`
	AdmissionDate time.Time `json:"admission_date"`
}

type UpdateRecordDTO struct {
	Department *string `json:"department"`
	Summary    *string `json:"summary"`
}

type validationError struct {
	msg string
}

func (v validationError) Error() string { return v.msg }

func (d CreateRecordDTO) Validate() error {
	if d.OwnerID == 0 {
		return validationError{msg: "owner_id is required"}
	}
	return nil
}
