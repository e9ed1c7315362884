package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/treatwell/treatwell-api/internal/model"
	apperrors "github.com/treatwell/treatwell-api/pkg/errors"
)

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, appointment_id, patient_id, doctor_id,
			patient_name, patient_email,
			doctor_name, doctor_speciality, doctor_qualification,
			doctor_designation, doctor_location, doctor_about,
			appointment_date, appointment_day, appointment_time,
			status, payment_status, payment_amount,
			meeting_scheduled, meeting_email_sent,
			created_at, updated_at
		) VALUES (
			:id, :appointment_id, :patient_id, :doctor_id,
			:patient_name, :patient_email,
			:doctor_name, :doctor_speciality, :doctor_qualification,
			:doctor_designation, :doctor_location, :doctor_about,
			:appointment_date, :appointment_day, :appointment_time,
			:status, :payment_status, :payment_amount,
			:meeting_scheduled, :meeting_email_sent,
			:created_at, :updated_at
		)
	`
	_, err := r.db.NamedExecContext(ctx, query, appointment)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT * FROM appointments WHERE id = $1`

	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `SELECT * FROM appointments WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters.PatientID != "" {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}

	if filters.DoctorID != "" {
		query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
		args = append(args, filters.DoctorID)
		argCount++
	}

	// Most recently booked first.
	query += " ORDER BY created_at DESC"

	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// UpdateStatusIfPending applies the pending -> Done/Declined transition
// as a single conditional update so two concurrent transitions cannot
// both observe pending and both win.
func (r *appointmentRepository) UpdateStatusIfPending(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) (bool, error) {
	query := `
		UPDATE appointments
		SET status = $2, updated_at = $3
		WHERE id = $1 AND lower(status) = 'pending'
	`
	result, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to update appointment status: %w", err)
	}
	return affected(result)
}

func (r *appointmentRepository) RecordPaymentIfUnpaid(ctx context.Context, id uuid.UUID, amount int, paidAt time.Time) (bool, error) {
	query := `
		UPDATE appointments
		SET payment_status = $2, payment_amount = $3, payment_date = $4, updated_at = $4
		WHERE id = $1 AND payment_status = 'unpaid'
	`
	result, err := r.db.ExecContext(ctx, query, id, model.PaymentStatusPaid, amount, paidAt)
	if err != nil {
		return false, fmt.Errorf("failed to record payment: %w", err)
	}
	return affected(result)
}

// ScheduleMeetingIfEligible requires a completed, paid appointment with
// no meeting yet. The one-shot guard lives here rather than in the
// service so the check and the write are one statement.
func (r *appointmentRepository) ScheduleMeetingIfEligible(ctx context.Context, id uuid.UUID, meetingTime, meetingLink string) (bool, error) {
	query := `
		UPDATE appointments
		SET meeting_scheduled = true, meeting_time = $2, meeting_link = $3, updated_at = $4
		WHERE id = $1
		  AND lower(status) = 'done'
		  AND payment_status = 'paid'
		  AND meeting_scheduled = false
	`
	result, err := r.db.ExecContext(ctx, query, id, meetingTime, meetingLink, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to schedule meeting: %w", err)
	}
	return affected(result)
}

func (r *appointmentRepository) MarkMeetingEmailSent(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE appointments
		SET meeting_email_sent = true, updated_at = $2
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark meeting email sent: %w", err)
	}
	return nil
}

func (r *appointmentRepository) DeleteIfPending(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `DELETE FROM appointments WHERE id = $1 AND lower(status) = 'pending'`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to cancel appointment: %w", err)
	}
	return affected(result)
}

func affected(result sql.Result) (bool, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
