package appointment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/treatwell/treatwell-api/internal/email"
	"github.com/treatwell/treatwell-api/internal/model"
	"github.com/treatwell/treatwell-api/internal/repository"
	"github.com/treatwell/treatwell-api/internal/service/event"
	apperrors "github.com/treatwell/treatwell-api/pkg/errors"
	"github.com/treatwell/treatwell-api/pkg/metrics"
)

// Service owns the appointment life cycle: booking, the doctor's
// status transition, payment recording and meeting dispatch. All guard
// checks are applied by the repository in the same statement as the
// write; this service maps a lost race to the precise error.
type Service struct {
	repo     repository.AppointmentRepository
	emailSvc email.Service
	events   event.Service
	metrics  *metrics.Metrics
}

func NewService(repo repository.AppointmentRepository, emailSvc email.Service, events event.Service, metrics *metrics.Metrics) *Service {
	return &Service{
		repo:     repo,
		emailSvc: emailSvc,
		events:   events,
		metrics:  metrics,
	}
}

func (s *Service) CreateAppointment(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	now := time.Now()
	id := uuid.New()

	apt := &model.Appointment{
		Base: model.Base{
			ID:        id,
			CreatedAt: now,
			UpdatedAt: now,
		},
		AppointmentID:       humanID(id),
		PatientID:           req.PatientID,
		DoctorID:            req.DoctorID,
		PatientName:         req.PatientName,
		PatientEmail:        req.PatientEmail,
		DoctorName:          req.DoctorName,
		DoctorSpeciality:    req.DoctorSpeciality,
		DoctorQualification: req.DoctorQualification,
		DoctorDesignation:   req.DoctorDesignation,
		DoctorLocation:      req.DoctorLocation,
		DoctorAbout:         req.DoctorAbout,
		AppointmentDate:     req.AppointmentDate,
		AppointmentDay:      req.AppointmentDay,
		AppointmentTime:     req.AppointmentTime,
		Status:              model.AppointmentStatusPending,
		PaymentStatus:       model.PaymentStatusUnpaid,
		PaymentAmount:       0,
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.metrics.AppointmentsCreated.Inc()
	s.emit(ctx, model.EventAppointmentCreated, apt)
	return apt, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	appointments, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// UpdateStatus applies the doctor's decision. Legal only from pending
// to Done or Declined.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) (*model.Appointment, error) {
	canonical, known := status.Canonical()
	if !known || canonical.Equals(model.AppointmentStatusPending) {
		s.metrics.GuardRejections.WithLabelValues("status").Inc()
		return nil, apperrors.InvalidTransition(fmt.Sprintf("cannot transition appointment to %q", status))
	}

	applied, err := s.repo.UpdateStatusIfPending(ctx, id, canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	if !applied {
		apt, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		s.metrics.GuardRejections.WithLabelValues("status").Inc()
		return nil, apperrors.InvalidTransition(fmt.Sprintf("appointment is already %s", apt.Status))
	}

	s.metrics.StatusTransitions.WithLabelValues(string(canonical)).Inc()

	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, model.EventStatusUpdated, apt)
	return apt, nil
}

// RecordPayment accepts exactly the fixed consultation fee, once.
func (s *Service) RecordPayment(ctx context.Context, id uuid.UUID, amount int) (*model.Appointment, error) {
	if amount != model.ConsultationFee {
		s.metrics.GuardRejections.WithLabelValues("payment").Inc()
		return nil, apperrors.InvalidAmount(fmt.Sprintf("payment amount must be exactly %d", model.ConsultationFee))
	}

	applied, err := s.repo.RecordPaymentIfUnpaid(ctx, id, amount, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	if !applied {
		if _, err := s.repo.Get(ctx, id); err != nil {
			return nil, err
		}
		s.metrics.GuardRejections.WithLabelValues("payment").Inc()
		return nil, apperrors.InvalidAmount("appointment is already paid")
	}

	s.metrics.PaymentsRecorded.Inc()

	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, model.EventPaymentRecorded, apt)
	return apt, nil
}

// ScheduleMeeting records the meeting time and link against a paid,
// completed appointment and sends the patient a notification email.
// The email is best-effort: a delivery failure is logged and does not
// roll back the scheduling.
func (s *Service) ScheduleMeeting(ctx context.Context, req *model.ScheduleMeetingRequest) (*model.Appointment, error) {
	id, err := uuid.Parse(req.AppointmentID)
	if err != nil {
		return nil, apperrors.Validation("invalid appointment id", err)
	}

	applied, err := s.repo.ScheduleMeetingIfEligible(ctx, id, req.MeetingTime, req.MeetingLink)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule meeting: %w", err)
	}
	if !applied {
		apt, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !apt.CanWritePrescription() {
			s.metrics.GuardRejections.WithLabelValues("meeting").Inc()
			return nil, apperrors.PaymentRequired("appointment must be completed and paid before scheduling a meeting")
		}
		s.metrics.GuardRejections.WithLabelValues("meeting").Inc()
		return nil, apperrors.InvalidTransition("meeting is already scheduled")
	}

	s.metrics.MeetingsScheduled.Inc()

	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.emailSvc.SendMeetingLink(ctx, apt); err != nil {
		log.Warn().Err(err).
			Str("appointment_id", apt.AppointmentID).
			Msg("failed to send meeting link email")
	} else {
		if err := s.repo.MarkMeetingEmailSent(ctx, id); err != nil {
			log.Warn().Err(err).
				Str("appointment_id", apt.AppointmentID).
				Msg("failed to mark meeting email sent")
		} else {
			apt.MeetingEmailSent = true
		}
	}

	s.emit(ctx, model.EventMeetingScheduled, apt)
	return apt, nil
}

// CancelAppointment deletes the booking. Legal only while pending.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) error {
	applied, err := s.repo.DeleteIfPending(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to cancel appointment: %w", err)
	}
	if !applied {
		apt, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		s.metrics.GuardRejections.WithLabelValues("cancel").Inc()
		return apperrors.InvalidTransition(fmt.Sprintf("cannot cancel an appointment that is %s", apt.Status))
	}

	s.emit(ctx, model.EventAppointmentCancelled, map[string]string{"id": id.String()})
	return nil
}

func (s *Service) emit(ctx context.Context, eventType string, payload interface{}) {
	if err := s.events.Emit(ctx, eventType, payload); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("failed to record outbox event")
	}
}

func humanID(id uuid.UUID) string {
	return "APT-" + strings.ToUpper(strings.SplitN(id.String(), "-", 2)[0])
}
