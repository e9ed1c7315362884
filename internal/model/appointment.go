package model

import (
	"strings"
	"time"
)

type AppointmentStatus string

// Stored canonical forms. Comparisons are case-insensitive throughout
// because the wire format mixes "pending" with "Done"/"Declined".
const (
	AppointmentStatusPending  AppointmentStatus = "pending"
	AppointmentStatusDone     AppointmentStatus = "Done"
	AppointmentStatusDeclined AppointmentStatus = "Declined"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// ConsultationFee is the fixed fee every consultation costs. Payments
// must match it exactly; partial and over-payments are rejected.
const ConsultationFee = 1000

// Equals compares statuses ignoring case.
func (s AppointmentStatus) Equals(other AppointmentStatus) bool {
	return strings.EqualFold(string(s), string(other))
}

// Canonical normalizes a status to its stored form, returning false for
// unknown values.
func (s AppointmentStatus) Canonical() (AppointmentStatus, bool) {
	for _, known := range []AppointmentStatus{
		AppointmentStatusPending,
		AppointmentStatusDone,
		AppointmentStatusDeclined,
	} {
		if s.Equals(known) {
			return known, true
		}
	}
	return s, false
}

// Appointment is a booked consultation slot between a patient and a
// doctor. Doctor and patient descriptive fields are snapshots taken at
// booking time so the record stays stable if profiles change later.
type Appointment struct {
	Base
	AppointmentID       string            `db:"appointment_id" json:"appointmentId"`
	PatientID           string            `db:"patient_id" json:"patientId"`
	DoctorID            string            `db:"doctor_id" json:"doctorId"`
	PatientName         string            `db:"patient_name" json:"patientName"`
	PatientEmail        string            `db:"patient_email" json:"patientEmail,omitempty"`
	DoctorName          string            `db:"doctor_name" json:"doctorName"`
	DoctorSpeciality    string            `db:"doctor_speciality" json:"doctorSpeciality"`
	DoctorQualification string            `db:"doctor_qualification" json:"doctorQualification,omitempty"`
	DoctorDesignation   string            `db:"doctor_designation" json:"doctorDesignation,omitempty"`
	DoctorLocation      string            `db:"doctor_location" json:"doctorLocation,omitempty"`
	DoctorAbout         string            `db:"doctor_about" json:"doctorAbout,omitempty"`
	AppointmentDate     string            `db:"appointment_date" json:"appointmentDate"`
	AppointmentDay      string            `db:"appointment_day" json:"appointmentDay"`
	AppointmentTime     string            `db:"appointment_time" json:"appointmentTime"`
	Status              AppointmentStatus `db:"status" json:"status"`
	PaymentStatus       PaymentStatus     `db:"payment_status" json:"paymentStatus"`
	PaymentAmount       int               `db:"payment_amount" json:"paymentAmount"`
	PaymentDate         *time.Time        `db:"payment_date" json:"paymentDate,omitempty"`
	MeetingScheduled    bool              `db:"meeting_scheduled" json:"meetingScheduled"`
	MeetingTime         string            `db:"meeting_time" json:"meetingTime,omitempty"`
	MeetingLink         string            `db:"meeting_link" json:"meetingLink,omitempty"`
	MeetingEmailSent    bool              `db:"meeting_email_sent" json:"meetingEmailSent"`
}

// CanWritePrescription is the single payment-gate predicate. It guards
// prescription upserts and meeting-link dispatch; callers must not
// re-derive this check.
func (a *Appointment) CanWritePrescription() bool {
	return a.Status.Equals(AppointmentStatusDone) && a.PaymentStatus == PaymentStatusPaid
}

// IsPending reports whether the appointment still awaits the doctor's
// decision.
func (a *Appointment) IsPending() bool {
	return a.Status.Equals(AppointmentStatusPending)
}

// CreateAppointmentRequest carries the booking payload. appointmentDate
// must be a DD/MM/YYYY string; the custom "ddmmyyyy" rule is registered
// on gin's binding engine.
type CreateAppointmentRequest struct {
	PatientID           string `json:"patientId" binding:"required"`
	DoctorID            string `json:"doctorId" binding:"required"`
	PatientName         string `json:"patientName" binding:"required"`
	PatientEmail        string `json:"patientEmail" binding:"omitempty,email"`
	DoctorName          string `json:"doctorName" binding:"required"`
	DoctorSpeciality    string `json:"doctorSpeciality" binding:"required"`
	DoctorQualification string `json:"doctorQualification"`
	DoctorDesignation   string `json:"doctorDesignation"`
	DoctorLocation      string `json:"doctorLocation"`
	DoctorAbout         string `json:"doctorAbout"`
	AppointmentDate     string `json:"appointmentDate" binding:"required,ddmmyyyy"`
	AppointmentDay      string `json:"appointmentDay" binding:"required"`
	AppointmentTime     string `json:"appointmentTime" binding:"required"`
}

// UpdateAppointmentRequest is the PATCH payload. Either a status
// transition or a payment recording, never both in one request.
type UpdateAppointmentRequest struct {
	Status        *AppointmentStatus `json:"status"`
	PaymentStatus *PaymentStatus     `json:"paymentStatus"`
	PaymentAmount *int               `json:"paymentAmount"`
}

// ScheduleMeetingRequest carries the meeting-link dispatch payload.
type ScheduleMeetingRequest struct {
	AppointmentID string `json:"appointmentId" binding:"required"`
	MeetingTime   string `json:"meetingTime" binding:"required"`
	MeetingLink   string `json:"meetingLink" binding:"required,url"`
}

// AppointmentFilters narrows listings to one party.
type AppointmentFilters struct {
	PatientID string
	DoctorID  string
}
