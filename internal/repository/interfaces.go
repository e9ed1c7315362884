package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/treatwell/treatwell-api/internal/model"
)

// AppointmentRepository persists appointments. The guarded mutations
// are conditional updates: the guard is evaluated by the store in the
// same statement as the write, and the bool result reports whether a
// row was changed. Callers map a false result to the precise guard
// error after re-reading.
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *model.Appointment) error
	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	UpdateStatusIfPending(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) (bool, error)
	RecordPaymentIfUnpaid(ctx context.Context, id uuid.UUID, amount int, paidAt time.Time) (bool, error)
	ScheduleMeetingIfEligible(ctx context.Context, id uuid.UUID, meetingTime, meetingLink string) (bool, error)
	MarkMeetingEmailSent(ctx context.Context, id uuid.UUID) error
	DeleteIfPending(ctx context.Context, id uuid.UUID) (bool, error)
}

// PrescriptionRepository persists the at-most-one prescription per
// appointment.
type PrescriptionRepository interface {
	Upsert(ctx context.Context, prescription *model.Prescription) error
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Prescription, error)
}

// HealthDataRepository persists per-patient metric histories.
type HealthDataRepository interface {
	Get(ctx context.Context, patientID string) (*model.HealthData, error)
	Save(ctx context.Context, data *model.HealthData) error
}

// OutboxRepository persists workflow events for asynchronous publishing.
type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
