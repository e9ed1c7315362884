package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/treatwell/treatwell-api/internal/repository"
	"github.com/treatwell/treatwell-api/pkg/security"
)

type appointmentRepository struct {
	db *sqlx.DB
}

type prescriptionRepository struct {
	db *sqlx.DB
}

type healthDataRepository struct {
	db        *sqlx.DB
	encryptor security.Encryptor
}

type outboxRepository struct {
	db *sqlx.DB
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func NewPrescriptionRepository(db *sqlx.DB) repository.PrescriptionRepository {
	return &prescriptionRepository{db: db}
}

// NewHealthDataRepository stores metric histories as JSON blobs. When
// encryptor is non-nil the blobs are encrypted at rest.
func NewHealthDataRepository(db *sqlx.DB, encryptor security.Encryptor) repository.HealthDataRepository {
	return &healthDataRepository{db: db, encryptor: encryptor}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}
