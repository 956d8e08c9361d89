package records

import (
	"fmt"
	"time"

	recordsDatamodel "github.com/frahmantamala/healthrecord-management/internal/core/datamodel/records"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(id int64) (*recordsDatamodel.PatientRecord, error) {
	record, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) Create(dto CreateRecordDTO) (*recordsDatamodel.PatientRecord, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	record := &recordsDatamodel.PatientRecord{
		OwnerID:       dto.OwnerID,
		Department:    dto.Department,
		AttendingID:   dto.AttendingID,
		Summary:       dto.Summary,
		AdmissionDate: dto.AdmissionDate,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := s.repo.Create(record); err != nil {
		return nil, fmt.Errorf("create patient record: %w", err)
	}
	return record, nil
}

func (s *Service) Update(id int64, dto UpdateRecordDTO) (*recordsDatamodel.PatientRecord, error) {
	record, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if dto.Department != nil {
		record.Department = *dto.Department
	}
	if dto.Summary != nil {
		record.Summary = *dto.Summary
	}
	record.UpdatedAt = time.Now()

	if err := s.repo.Update(record); err != nil {
		return nil, fmt.Errorf("update patient record: %w", err)
	}
	return record, nil
}

func (s *Service) Delete(id int64) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return err
	}
	return s.repo.Delete(id)
}
