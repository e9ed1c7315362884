package prescription

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treatwell/treatwell-api/internal/model"
	apperrors "github.com/treatwell/treatwell-api/pkg/errors"
	"github.com/treatwell/treatwell-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("prescription_service_test")

type memPrescriptionRepo struct {
	mu            sync.Mutex
	prescriptions map[uuid.UUID]*model.Prescription
}

func newMemPrescriptionRepo() *memPrescriptionRepo {
	return &memPrescriptionRepo{prescriptions: make(map[uuid.UUID]*model.Prescription)}
}

func (r *memPrescriptionRepo) Upsert(_ context.Context, p *model.Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.prescriptions[p.AppointmentID]; ok {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
	}
	cp := *p
	r.prescriptions[p.AppointmentID] = &cp
	return nil
}

func (r *memPrescriptionRepo) GetByAppointment(_ context.Context, appointmentID uuid.UUID) (*model.Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prescriptions[appointmentID]
	if !ok {
		return nil, apperrors.NotFound("prescription", nil)
	}
	cp := *p
	return &cp, nil
}

// stubAppointmentRepo serves a fixed set of appointments; the guarded
// mutations are unused by the prescription service.
type stubAppointmentRepo struct {
	apts map[uuid.UUID]*model.Appointment
}

func (r *stubAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, ok := r.apts[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return apt, nil
}

func (r *stubAppointmentRepo) Create(context.Context, *model.Appointment) error { return nil }
func (r *stubAppointmentRepo) List(context.Context, *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}
func (r *stubAppointmentRepo) UpdateStatusIfPending(context.Context, uuid.UUID, model.AppointmentStatus) (bool, error) {
	return false, nil
}
func (r *stubAppointmentRepo) RecordPaymentIfUnpaid(context.Context, uuid.UUID, int, time.Time) (bool, error) {
	return false, nil
}
func (r *stubAppointmentRepo) ScheduleMeetingIfEligible(context.Context, uuid.UUID, string, string) (bool, error) {
	return false, nil
}
func (r *stubAppointmentRepo) MarkMeetingEmailSent(context.Context, uuid.UUID) error { return nil }
func (r *stubAppointmentRepo) DeleteIfPending(context.Context, uuid.UUID) (bool, error) {
	return false, nil
}

type fakeEventService struct {
	events []string
}

func (f *fakeEventService) Emit(_ context.Context, eventType string, _ interface{}) error {
	f.events = append(f.events, eventType)
	return nil
}

func appointmentWith(status model.AppointmentStatus, payment model.PaymentStatus) *model.Appointment {
	return &model.Appointment{
		Base:             model.Base{ID: uuid.New()},
		AppointmentID:    "APT-TEST",
		PatientID:        "patient-1",
		DoctorID:         "doctor-1",
		PatientName:      "Asha Rao",
		DoctorName:       "Dr. Mehta",
		DoctorSpeciality: "Cardiology",
		Status:           status,
		PaymentStatus:    payment,
	}
}

func validRequest(appointmentID uuid.UUID) *model.UpsertPrescriptionRequest {
	return &model.UpsertPrescriptionRequest{
		AppointmentID:  appointmentID.String(),
		Diagnosis:      "Hypertension, stage 1",
		ChiefComplaint: "Recurring headaches",
		Medications: []model.Medication{
			{Name: "Amlodipine", Dosage: "5mg", Frequency: "once daily", Duration: "30 days"},
		},
		GeneralInstructions: "Reduce salt intake",
	}
}

func newTestService(apts ...*model.Appointment) (*Service, *fakeEventService) {
	aptRepo := &stubAppointmentRepo{apts: make(map[uuid.UUID]*model.Appointment)}
	for _, apt := range apts {
		aptRepo.apts[apt.ID] = apt
	}
	events := &fakeEventService{}
	return NewService(newMemPrescriptionRepo(), aptRepo, events, testMetrics), events
}

func TestUpsertRequiresDoneAndPaid(t *testing.T) {
	tests := []struct {
		name    string
		status  model.AppointmentStatus
		payment model.PaymentStatus
		wantErr apperrors.ErrorCode
	}{
		{"pending unpaid", model.AppointmentStatusPending, model.PaymentStatusUnpaid, apperrors.ErrPaymentRequired},
		{"pending paid", model.AppointmentStatusPending, model.PaymentStatusPaid, apperrors.ErrPaymentRequired},
		{"done unpaid", model.AppointmentStatusDone, model.PaymentStatusUnpaid, apperrors.ErrPaymentRequired},
		{"declined paid", model.AppointmentStatusDeclined, model.PaymentStatusPaid, apperrors.ErrPaymentRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apt := appointmentWith(tt.status, tt.payment)
			svc, _ := newTestService(apt)

			_, err := svc.Upsert(context.Background(), validRequest(apt.ID))
			assert.True(t, apperrors.IsCode(err, tt.wantErr))
		})
	}
}

func TestUpsertSnapshotsPartiesFromAppointment(t *testing.T) {
	apt := appointmentWith(model.AppointmentStatusDone, model.PaymentStatusPaid)
	svc, events := newTestService(apt)

	p, err := svc.Upsert(context.Background(), validRequest(apt.ID))
	require.NoError(t, err)

	assert.Equal(t, apt.ID, p.AppointmentID)
	assert.Equal(t, "patient-1", p.PatientID)
	assert.Equal(t, "doctor-1", p.DoctorID)
	assert.Equal(t, "Asha Rao", p.PatientName)
	assert.Equal(t, "Dr. Mehta", p.DoctorName)
	assert.Equal(t, "Cardiology", p.DoctorSpeciality)
	assert.Contains(t, events.events, model.EventPrescriptionUpserted)
}

func TestUpsertReplacesExisting(t *testing.T) {
	apt := appointmentWith(model.AppointmentStatusDone, model.PaymentStatusPaid)
	svc, _ := newTestService(apt)

	_, err := svc.Upsert(context.Background(), validRequest(apt.ID))
	require.NoError(t, err)

	updated := validRequest(apt.ID)
	updated.Diagnosis = "Hypertension, stage 2"
	updated.Medications = append(updated.Medications, model.Medication{
		Name: "Telmisartan", Dosage: "40mg", Frequency: "once daily", Duration: "30 days",
	})
	_, err = svc.Upsert(context.Background(), updated)
	require.NoError(t, err)

	p, err := svc.GetByAppointment(context.Background(), apt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hypertension, stage 2", p.Diagnosis)
	assert.Len(t, p.Medications, 2)
}

func TestUpsertContentValidation(t *testing.T) {
	apt := appointmentWith(model.AppointmentStatusDone, model.PaymentStatusPaid)
	svc, _ := newTestService(apt)

	noDiagnosis := validRequest(apt.ID)
	noDiagnosis.Diagnosis = ""
	_, err := svc.Upsert(context.Background(), noDiagnosis)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))

	noMeds := validRequest(apt.ID)
	noMeds.Medications = nil
	_, err = svc.Upsert(context.Background(), noMeds)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))

	partialMed := validRequest(apt.ID)
	partialMed.Medications = []model.Medication{{Name: "Amlodipine"}}
	_, err = svc.Upsert(context.Background(), partialMed)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))
}

func TestUpsertUnknownAppointment(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Upsert(context.Background(), validRequest(uuid.New()))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestUpsertInvalidAppointmentID(t *testing.T) {
	svc, _ := newTestService()
	req := validRequest(uuid.New())
	req.AppointmentID = "not-a-uuid"
	_, err := svc.Upsert(context.Background(), req)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))
}
