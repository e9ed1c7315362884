package appointment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treatwell/treatwell-api/internal/middleware"
	"github.com/treatwell/treatwell-api/internal/model"
	"github.com/treatwell/treatwell-api/internal/service/appointment"
	apperrors "github.com/treatwell/treatwell-api/pkg/errors"
	"github.com/treatwell/treatwell-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("appointment_handler_test")

type memRepo struct {
	mu   sync.Mutex
	apts map[uuid.UUID]*model.Appointment
}

func newMemRepo() *memRepo {
	return &memRepo{apts: make(map[uuid.UUID]*model.Appointment)}
}

func (r *memRepo) Create(_ context.Context, apt *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *apt
	r.apts[apt.ID] = &cp
	return nil
}

func (r *memRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	apt, ok := r.apts[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	cp := *apt
	return &cp, nil
}

func (r *memRepo) List(_ context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Appointment, 0, len(r.apts))
	for _, apt := range r.apts {
		if filters.PatientID != "" && apt.PatientID != filters.PatientID {
			continue
		}
		if filters.DoctorID != "" && apt.DoctorID != filters.DoctorID {
			continue
		}
		cp := *apt
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memRepo) UpdateStatusIfPending(_ context.Context, id uuid.UUID, status model.AppointmentStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	apt, ok := r.apts[id]
	if !ok || !apt.IsPending() {
		return false, nil
	}
	apt.Status = status
	return true, nil
}

func (r *memRepo) RecordPaymentIfUnpaid(_ context.Context, id uuid.UUID, amount int, paidAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	apt, ok := r.apts[id]
	if !ok || apt.PaymentStatus != model.PaymentStatusUnpaid {
		return false, nil
	}
	apt.PaymentStatus = model.PaymentStatusPaid
	apt.PaymentAmount = amount
	apt.PaymentDate = &paidAt
	return true, nil
}

func (r *memRepo) ScheduleMeetingIfEligible(_ context.Context, id uuid.UUID, meetingTime, meetingLink string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	apt, ok := r.apts[id]
	if !ok || !apt.CanWritePrescription() || apt.MeetingScheduled {
		return false, nil
	}
	apt.MeetingScheduled = true
	apt.MeetingTime = meetingTime
	apt.MeetingLink = meetingLink
	return true, nil
}

func (r *memRepo) MarkMeetingEmailSent(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if apt, ok := r.apts[id]; ok {
		apt.MeetingEmailSent = true
	}
	return nil
}

func (r *memRepo) DeleteIfPending(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	apt, ok := r.apts[id]
	if !ok || !apt.IsPending() {
		return false, nil
	}
	delete(r.apts, id)
	return true, nil
}

type noopEmail struct{}

func (noopEmail) SendMeetingLink(context.Context, *model.Appointment) error { return nil }

type noopEvents struct{}

func (noopEvents) Emit(context.Context, string, interface{}) error { return nil }

func newTestRouter(t *testing.T) (*gin.Engine, *memRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterCustomValidations())

	repo := newMemRepo()
	svc := appointment.NewService(repo, noopEmail{}, noopEvents{}, testMetrics)

	engine := gin.New()
	engine.Use(middleware.ErrorHandler())
	NewHandler(svc).RegisterRoutes(engine.Group("/api"))
	return engine, repo
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func bookingBody() map[string]interface{} {
	return map[string]interface{}{
		"patientId":        "patient-1",
		"doctorId":         "doctor-1",
		"patientName":      "Asha Rao",
		"patientEmail":     "asha@example.com",
		"doctorName":       "Dr. Mehta",
		"doctorSpeciality": "Cardiology",
		"appointmentDate":  "15/09/2026",
		"appointmentDay":   "Tuesday",
		"appointmentTime":  "10:30 AM",
	}
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func decodeAppointment(t *testing.T, w *httptest.ResponseRecorder) *model.Appointment {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Equal(t, "success", env.Status)
	var apt model.Appointment
	require.NoError(t, json.Unmarshal(env.Data, &apt))
	return &apt
}

func TestCreateAppointmentRoundTrip(t *testing.T) {
	engine, _ := newTestRouter(t)

	w := doJSON(t, engine, http.MethodPost, "/api/appointments", bookingBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	apt := decodeAppointment(t, w)
	assert.Equal(t, model.AppointmentStatusPending, apt.Status)
	assert.Equal(t, model.PaymentStatusUnpaid, apt.PaymentStatus)
	assert.Equal(t, "15/09/2026", apt.AppointmentDate)

	got := doJSON(t, engine, http.MethodGet, "/api/appointments/"+apt.ID.String(), nil)
	require.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, "15/09/2026", decodeAppointment(t, got).AppointmentDate)
}

func TestCreateAppointmentRejectsBadDate(t *testing.T) {
	engine, _ := newTestRouter(t)

	for _, date := range []string{"2026-09-15", "31/02/2026", "15/9/26", "tomorrow"} {
		body := bookingBody()
		body["appointmentDate"] = date
		w := doJSON(t, engine, http.MethodPost, "/api/appointments", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "date %q", date)
	}
}

func TestCreateAppointmentRejectsMissingFields(t *testing.T) {
	engine, _ := newTestRouter(t)

	body := bookingBody()
	delete(body, "doctorName")
	w := doJSON(t, engine, http.MethodPost, "/api/appointments", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPatchStatusTransition(t *testing.T) {
	engine, _ := newTestRouter(t)
	apt := decodeAppointment(t, doJSON(t, engine, http.MethodPost, "/api/appointments", bookingBody()))

	w := doJSON(t, engine, http.MethodPatch, "/api/appointments/"+apt.ID.String(), map[string]interface{}{
		"status": "Done",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.AppointmentStatusDone, decodeAppointment(t, w).Status)

	// terminal state, second transition conflicts
	w = doJSON(t, engine, http.MethodPatch, "/api/appointments/"+apt.ID.String(), map[string]interface{}{
		"status": "Declined",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPatchPayment(t *testing.T) {
	engine, _ := newTestRouter(t)
	apt := decodeAppointment(t, doJSON(t, engine, http.MethodPost, "/api/appointments", bookingBody()))
	path := "/api/appointments/" + apt.ID.String()

	w := doJSON(t, engine, http.MethodPatch, path, map[string]interface{}{
		"paymentStatus": "paid",
		"paymentAmount": 500,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, engine, http.MethodPatch, path, map[string]interface{}{
		"paymentStatus": "unpaid",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, engine, http.MethodPatch, path, map[string]interface{}{
		"paymentStatus": "paid",
		"paymentAmount": model.ConsultationFee,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	paid := decodeAppointment(t, w)
	assert.Equal(t, model.PaymentStatusPaid, paid.PaymentStatus)
	assert.Equal(t, model.ConsultationFee, paid.PaymentAmount)

	// double payment
	w = doJSON(t, engine, http.MethodPatch, path, map[string]interface{}{
		"paymentStatus": "paid",
		"paymentAmount": model.ConsultationFee,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPatchWithEmptyBody(t *testing.T) {
	engine, _ := newTestRouter(t)
	apt := decodeAppointment(t, doJSON(t, engine, http.MethodPost, "/api/appointments", bookingBody()))

	w := doJSON(t, engine, http.MethodPatch, "/api/appointments/"+apt.ID.String(), map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleMeetingPaymentGate(t *testing.T) {
	engine, _ := newTestRouter(t)
	apt := decodeAppointment(t, doJSON(t, engine, http.MethodPost, "/api/appointments", bookingBody()))

	meetingBody := map[string]interface{}{
		"appointmentId": apt.ID.String(),
		"meetingTime":   "11:00 AM",
		"meetingLink":   "https://meet.example.com/abc",
	}

	w := doJSON(t, engine, http.MethodPost, "/api/appointments/meeting-link", meetingBody)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	path := "/api/appointments/" + apt.ID.String()
	require.Equal(t, http.StatusOK, doJSON(t, engine, http.MethodPatch, path, map[string]interface{}{"status": "Done"}).Code)
	require.Equal(t, http.StatusOK, doJSON(t, engine, http.MethodPatch, path, map[string]interface{}{
		"paymentStatus": "paid",
		"paymentAmount": model.ConsultationFee,
	}).Code)

	w = doJSON(t, engine, http.MethodPost, "/api/appointments/meeting-link", meetingBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	scheduled := decodeAppointment(t, w)
	assert.True(t, scheduled.MeetingScheduled)
	assert.True(t, scheduled.MeetingEmailSent)

	w = doJSON(t, engine, http.MethodPost, "/api/appointments/meeting-link", meetingBody)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestScheduleMeetingRejectsBadLink(t *testing.T) {
	engine, _ := newTestRouter(t)

	w := doJSON(t, engine, http.MethodPost, "/api/appointments/meeting-link", map[string]interface{}{
		"appointmentId": uuid.New().String(),
		"meetingTime":   "11:00 AM",
		"meetingLink":   "not a url",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelAppointment(t *testing.T) {
	engine, _ := newTestRouter(t)
	apt := decodeAppointment(t, doJSON(t, engine, http.MethodPost, "/api/appointments", bookingBody()))
	path := "/api/appointments/" + apt.ID.String()

	require.Equal(t, http.StatusOK, doJSON(t, engine, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, engine, http.MethodGet, path, nil).Code)
}

func TestCancelNonPendingConflicts(t *testing.T) {
	engine, _ := newTestRouter(t)
	apt := decodeAppointment(t, doJSON(t, engine, http.MethodPost, "/api/appointments", bookingBody()))
	path := "/api/appointments/" + apt.ID.String()

	require.Equal(t, http.StatusOK, doJSON(t, engine, http.MethodPatch, path, map[string]interface{}{"status": "Done"}).Code)
	assert.Equal(t, http.StatusConflict, doJSON(t, engine, http.MethodDelete, path, nil).Code)
}

func TestGetUnknownAppointment(t *testing.T) {
	engine, _ := newTestRouter(t)
	w := doJSON(t, engine, http.MethodGet, "/api/appointments/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListAppointmentsByParty(t *testing.T) {
	engine, _ := newTestRouter(t)

	require.Equal(t, http.StatusCreated, doJSON(t, engine, http.MethodPost, "/api/appointments", bookingBody()).Code)
	other := bookingBody()
	other["patientId"] = "patient-2"
	require.Equal(t, http.StatusCreated, doJSON(t, engine, http.MethodPost, "/api/appointments", other).Code)

	w := doJSON(t, engine, http.MethodGet, "/api/appointments?patientId=patient-2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var apts []*model.Appointment
	require.NoError(t, json.Unmarshal(env.Data, &apts))
	require.Len(t, apts, 1)
	assert.Equal(t, "patient-2", apts[0].PatientID)
}

func TestInvalidUUIDInPath(t *testing.T) {
	engine, _ := newTestRouter(t)
	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
		w := doJSON(t, engine, method, "/api/appointments/not-a-uuid", map[string]interface{}{"status": "Done"})
		assert.Equal(t, http.StatusBadRequest, w.Code, fmt.Sprintf("method %s", method))
	}
}
