package healthdata

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/treatwell/treatwell-api/internal/model"
	"github.com/treatwell/treatwell-api/internal/repository"
	apperrors "github.com/treatwell/treatwell-api/pkg/errors"
)

const (
	cacheTTL        = 5 * time.Minute
	cleanupInterval = 15 * time.Minute
)

// Service manages per-patient metric histories. Reads go through an
// in-process cache invalidated on every write.
type Service struct {
	repo  repository.HealthDataRepository
	cache *cache.Cache
}

func NewService(repo repository.HealthDataRepository) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(cacheTTL, cleanupInterval),
	}
}

func (s *Service) Get(ctx context.Context, patientID string) (*model.HealthData, error) {
	if cached, ok := s.cache.Get(patientID); ok {
		return cached.(*model.HealthData), nil
	}

	data, err := s.repo.Get(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get health data: %w", err)
	}

	s.cache.Set(patientID, data, cache.DefaultExpiration)
	return data, nil
}

// AddBMI appends a BMI record computed from height and weight.
func (s *Service) AddBMI(ctx context.Context, patientID string, req *model.AddBMIRequest) (*model.HealthData, error) {
	if req.HeightCm <= 0 || req.WeightKg <= 0 {
		return nil, apperrors.Validation("height and weight must be positive", nil)
	}

	data, err := s.repo.Get(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get health data: %w", err)
	}

	heightM := req.HeightCm / 100
	bmi := math.Round(req.WeightKg/(heightM*heightM)*10) / 10

	data.BMIHistory = append(data.BMIHistory, model.BMIRecord{
		RecordedAt: time.Now(),
		HeightCm:   req.HeightCm,
		WeightKg:   req.WeightKg,
		BMI:        bmi,
	})

	return s.save(ctx, data)
}

func (s *Service) AddBP(ctx context.Context, patientID string, req *model.AddBPRequest) (*model.HealthData, error) {
	if req.Systolic <= 0 || req.Diastolic <= 0 {
		return nil, apperrors.Validation("systolic and diastolic must be positive", nil)
	}

	data, err := s.repo.Get(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get health data: %w", err)
	}

	data.BPHistory = append(data.BPHistory, model.BPRecord{
		RecordedAt: time.Now(),
		Systolic:   req.Systolic,
		Diastolic:  req.Diastolic,
		Pulse:      req.Pulse,
	})

	return s.save(ctx, data)
}

func (s *Service) DeleteBMIAt(ctx context.Context, patientID string, index int) (*model.HealthData, error) {
	data, err := s.repo.Get(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get health data: %w", err)
	}

	if index < 0 || index >= len(data.BMIHistory) {
		return nil, apperrors.NotFound("bmi record", nil)
	}
	data.BMIHistory = append(data.BMIHistory[:index], data.BMIHistory[index+1:]...)

	return s.save(ctx, data)
}

func (s *Service) DeleteBPAt(ctx context.Context, patientID string, index int) (*model.HealthData, error) {
	data, err := s.repo.Get(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get health data: %w", err)
	}

	if index < 0 || index >= len(data.BPHistory) {
		return nil, apperrors.NotFound("bp record", nil)
	}
	data.BPHistory = append(data.BPHistory[:index], data.BPHistory[index+1:]...)

	return s.save(ctx, data)
}

func (s *Service) save(ctx context.Context, data *model.HealthData) (*model.HealthData, error) {
	if err := s.repo.Save(ctx, data); err != nil {
		return nil, fmt.Errorf("failed to save health data: %w", err)
	}
	s.cache.Delete(data.PatientID)
	return data, nil
}
