package prescription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/treatwell/treatwell-api/internal/model"
	"github.com/treatwell/treatwell-api/internal/repository"
	"github.com/treatwell/treatwell-api/internal/service/event"
	apperrors "github.com/treatwell/treatwell-api/pkg/errors"
	"github.com/treatwell/treatwell-api/pkg/metrics"
)

// Service links at most one prescription to each appointment. Writes
// pass through the payment gate: the owning appointment must be Done
// and paid.
type Service struct {
	repo    repository.PrescriptionRepository
	aptRepo repository.AppointmentRepository
	events  event.Service
	metrics *metrics.Metrics
}

func NewService(repo repository.PrescriptionRepository, aptRepo repository.AppointmentRepository, events event.Service, metrics *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		aptRepo: aptRepo,
		events:  events,
		metrics: metrics,
	}
}

// Upsert creates or fully replaces the appointment's prescription.
func (s *Service) Upsert(ctx context.Context, req *model.UpsertPrescriptionRequest) (*model.Prescription, error) {
	appointmentID, err := uuid.Parse(req.AppointmentID)
	if err != nil {
		return nil, apperrors.Validation("invalid appointment id", err)
	}

	apt, err := s.aptRepo.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if !apt.CanWritePrescription() {
		s.metrics.GuardRejections.WithLabelValues("prescription").Inc()
		return nil, apperrors.PaymentRequired("prescription requires a completed, paid appointment")
	}

	if err := validateContent(req); err != nil {
		return nil, err
	}

	now := time.Now()
	prescription := &model.Prescription{
		ID:                  uuid.New(),
		AppointmentID:       appointmentID,
		PatientID:           apt.PatientID,
		DoctorID:            apt.DoctorID,
		PatientName:         apt.PatientName,
		DoctorName:          apt.DoctorName,
		DoctorSpeciality:    apt.DoctorSpeciality,
		Diagnosis:           req.Diagnosis,
		ChiefComplaint:      req.ChiefComplaint,
		Medications:         req.Medications,
		GeneralInstructions: req.GeneralInstructions,
		NextVisitDate:       req.NextVisitDate,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.repo.Upsert(ctx, prescription); err != nil {
		return nil, fmt.Errorf("failed to upsert prescription: %w", err)
	}

	s.metrics.PrescriptionsUpserted.Inc()
	if err := s.events.Emit(ctx, model.EventPrescriptionUpserted, prescription); err != nil {
		log.Warn().Err(err).Str("appointment_id", req.AppointmentID).Msg("failed to record outbox event")
	}
	return prescription, nil
}

func (s *Service) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Prescription, error) {
	return s.repo.GetByAppointment(ctx, appointmentID)
}

// validateContent backs up the binding-level validation so the rules
// hold for every caller, not only the HTTP surface.
func validateContent(req *model.UpsertPrescriptionRequest) error {
	if req.Diagnosis == "" {
		return apperrors.Validation("diagnosis is required", nil)
	}
	if req.ChiefComplaint == "" {
		return apperrors.Validation("chief complaint is required", nil)
	}
	if len(req.Medications) == 0 {
		return apperrors.Validation("at least one medication is required", nil)
	}
	for i, med := range req.Medications {
		if med.Name == "" || med.Dosage == "" || med.Frequency == "" || med.Duration == "" {
			return apperrors.Validation(fmt.Sprintf("medication %d is missing required fields", i+1), nil)
		}
	}
	return nil
}
