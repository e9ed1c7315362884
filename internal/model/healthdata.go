package model

import "time"

// HealthData holds a patient's self-tracked metric histories. Both
// lists are append-only with delete-by-index; they are independent of
// the appointment workflow.
type HealthData struct {
	PatientID  string      `json:"patientId"`
	BMIHistory []BMIRecord `json:"bmiHistory"`
	BPHistory  []BPRecord  `json:"bpHistory"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

type BMIRecord struct {
	RecordedAt time.Time `json:"recordedAt"`
	HeightCm   float64   `json:"heightCm"`
	WeightKg   float64   `json:"weightKg"`
	BMI        float64   `json:"bmi"`
}

type BPRecord struct {
	RecordedAt time.Time `json:"recordedAt"`
	Systolic   int       `json:"systolic"`
	Diastolic  int       `json:"diastolic"`
	Pulse      int       `json:"pulse,omitempty"`
}

type AddBMIRequest struct {
	HeightCm float64 `json:"heightCm" binding:"required,gt=0"`
	WeightKg float64 `json:"weightKg" binding:"required,gt=0"`
}

type AddBPRequest struct {
	Systolic  int `json:"systolic" binding:"required,gt=0"`
	Diastolic int `json:"diastolic" binding:"required,gt=0"`
	Pulse     int `json:"pulse" binding:"omitempty,gt=0"`
}
