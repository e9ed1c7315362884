package email

import (
	"context"

	"github.com/treatwell/treatwell-api/internal/model"
)

// Service delivers patient-facing mail. Meeting notifications are a
// best-effort side channel: callers log failures and move on.
type Service interface {
	SendMeetingLink(ctx context.Context, appointment *model.Appointment) error
}
