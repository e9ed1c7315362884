package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// Workflow event types published through the outbox.
const (
	EventAppointmentCreated   = "appointment.created"
	EventStatusUpdated        = "appointment.status_updated"
	EventPaymentRecorded      = "appointment.payment_recorded"
	EventMeetingScheduled     = "appointment.meeting_scheduled"
	EventAppointmentCancelled = "appointment.cancelled"
	EventPrescriptionUpserted = "prescription.upserted"
)

// OutboxEvent is written in the same transaction scope as the workflow
// mutation it describes and published asynchronously by the worker.
type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       string          `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}
