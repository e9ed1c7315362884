package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/treatwell/treatwell-api/internal/model"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type gomailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewGomailService(cfg SMTPConfig) Service {
	return &gomailService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *gomailService) SendMeetingLink(ctx context.Context, appointment *model.Appointment) error {
	if appointment.PatientEmail == "" {
		return fmt.Errorf("appointment %s has no patient email", appointment.AppointmentID)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", appointment.PatientEmail)
	m.SetHeader("Subject", fmt.Sprintf("Your video consultation with %s", appointment.DoctorName))
	m.SetBody("text/plain", fmt.Sprintf(
		"Dear %s,\n\nYour consultation for appointment %s is scheduled at %s.\nJoin here: %s\n\nTreatWell",
		appointment.PatientName,
		appointment.AppointmentID,
		appointment.MeetingTime,
		appointment.MeetingLink,
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send meeting email: %w", err)
	}
	return nil
}
