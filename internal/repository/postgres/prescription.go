package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/treatwell/treatwell-api/internal/model"
	apperrors "github.com/treatwell/treatwell-api/pkg/errors"
)

// Upsert creates or fully replaces the prescription of an appointment.
// The UNIQUE constraint on appointment_id enforces at-most-one per
// appointment at the store level.
func (r *prescriptionRepository) Upsert(ctx context.Context, prescription *model.Prescription) error {
	medications, err := json.Marshal(prescription.Medications)
	if err != nil {
		return fmt.Errorf("failed to marshal medications: %w", err)
	}
	prescription.MedicationsJSON = medications

	query := `
		INSERT INTO prescriptions (
			id, appointment_id, patient_id, doctor_id,
			patient_name, doctor_name, doctor_speciality,
			diagnosis, chief_complaint, medications,
			general_instructions, next_visit_date,
			created_at, updated_at
		) VALUES (
			:id, :appointment_id, :patient_id, :doctor_id,
			:patient_name, :doctor_name, :doctor_speciality,
			:diagnosis, :chief_complaint, :medications,
			:general_instructions, :next_visit_date,
			:created_at, :updated_at
		)
		ON CONFLICT (appointment_id) DO UPDATE SET
			diagnosis = EXCLUDED.diagnosis,
			chief_complaint = EXCLUDED.chief_complaint,
			medications = EXCLUDED.medications,
			general_instructions = EXCLUDED.general_instructions,
			next_visit_date = EXCLUDED.next_visit_date,
			updated_at = EXCLUDED.updated_at
	`
	prescription.UpdatedAt = time.Now()

	_, err = r.db.NamedExecContext(ctx, query, prescription)
	if err != nil {
		return fmt.Errorf("failed to upsert prescription: %w", err)
	}
	return nil
}

func (r *prescriptionRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Prescription, error) {
	query := `SELECT * FROM prescriptions WHERE appointment_id = $1`

	var prescription model.Prescription
	err := r.db.GetContext(ctx, &prescription, query, appointmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("prescription", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}

	if len(prescription.MedicationsJSON) > 0 {
		if err := json.Unmarshal(prescription.MedicationsJSON, &prescription.Medications); err != nil {
			return nil, fmt.Errorf("failed to unmarshal medications: %w", err)
		}
	}
	return &prescription, nil
}
