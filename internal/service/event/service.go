package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/treatwell/treatwell-api/internal/model"
	"github.com/treatwell/treatwell-api/internal/repository"
)

// Service records workflow events in the outbox table; the worker
// publishes them asynchronously.
type Service interface {
	Emit(ctx context.Context, eventType string, payload interface{}) error
}

type service struct {
	repo repository.OutboxRepository
}

func NewService(repo repository.OutboxRepository) Service {
	return &service{repo: repo}
}

func (s *service) Emit(ctx context.Context, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return s.repo.Create(ctx, &model.OutboxEvent{
		EventType: eventType,
		Payload:   body,
	})
}
