package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Prescription is the doctor-authored diagnosis and medication list
// tied 1:1 to a paid, completed appointment. Patient and doctor fields
// are point-in-time snapshots like on the appointment itself.
type Prescription struct {
	ID                  uuid.UUID       `db:"id" json:"id"`
	AppointmentID       uuid.UUID       `db:"appointment_id" json:"appointmentId"`
	PatientID           string          `db:"patient_id" json:"patientId"`
	DoctorID            string          `db:"doctor_id" json:"doctorId"`
	PatientName         string          `db:"patient_name" json:"patientName"`
	DoctorName          string          `db:"doctor_name" json:"doctorName"`
	DoctorSpeciality    string          `db:"doctor_speciality" json:"doctorSpeciality"`
	Diagnosis           string          `db:"diagnosis" json:"diagnosis"`
	ChiefComplaint      string          `db:"chief_complaint" json:"chiefComplaint"`
	MedicationsJSON     json.RawMessage `db:"medications" json:"-"`
	Medications         []Medication    `db:"-" json:"medications"`
	GeneralInstructions string          `db:"general_instructions" json:"generalInstructions,omitempty"`
	NextVisitDate       string          `db:"next_visit_date" json:"nextVisitDate,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updatedAt"`
}

// Medication is one entry of the ordered medication list.
type Medication struct {
	Name         string `json:"name" binding:"required"`
	Dosage       string `json:"dosage" binding:"required"`
	Frequency    string `json:"frequency" binding:"required"`
	Duration     string `json:"duration" binding:"required"`
	Instructions string `json:"instructions,omitempty"`
}

// UpsertPrescriptionRequest creates or fully replaces the prescription
// of an appointment.
type UpsertPrescriptionRequest struct {
	AppointmentID       string       `json:"appointmentId" binding:"required,uuid"`
	Diagnosis           string       `json:"diagnosis" binding:"required"`
	ChiefComplaint      string       `json:"chiefComplaint" binding:"required"`
	Medications         []Medication `json:"medications" binding:"required,min=1,dive"`
	GeneralInstructions string       `json:"generalInstructions"`
	NextVisitDate       string       `json:"nextVisitDate" binding:"omitempty,ddmmyyyy"`
}
