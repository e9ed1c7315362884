package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/treatwell/treatwell-api/internal/model"
)

type healthDataRow struct {
	PatientID  string    `db:"patient_id"`
	BMIHistory []byte    `db:"bmi_history"`
	BPHistory  []byte    `db:"bp_history"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Get returns the patient's metric histories, or an empty HealthData
// when the patient has never recorded anything.
func (r *healthDataRepository) Get(ctx context.Context, patientID string) (*model.HealthData, error) {
	query := `SELECT patient_id, bmi_history, bp_history, updated_at FROM health_data WHERE patient_id = $1`

	var row healthDataRow
	err := r.db.GetContext(ctx, &row, query, patientID)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.HealthData{
			PatientID:  patientID,
			BMIHistory: []model.BMIRecord{},
			BPHistory:  []model.BPRecord{},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get health data: %w", err)
	}

	data := &model.HealthData{PatientID: row.PatientID, UpdatedAt: row.UpdatedAt}
	if err := r.decode(row.BMIHistory, &data.BMIHistory); err != nil {
		return nil, fmt.Errorf("failed to decode bmi history: %w", err)
	}
	if err := r.decode(row.BPHistory, &data.BPHistory); err != nil {
		return nil, fmt.Errorf("failed to decode bp history: %w", err)
	}
	return data, nil
}

func (r *healthDataRepository) Save(ctx context.Context, data *model.HealthData) error {
	bmi, err := r.encode(data.BMIHistory)
	if err != nil {
		return fmt.Errorf("failed to encode bmi history: %w", err)
	}
	bp, err := r.encode(data.BPHistory)
	if err != nil {
		return fmt.Errorf("failed to encode bp history: %w", err)
	}

	query := `
		INSERT INTO health_data (patient_id, bmi_history, bp_history, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (patient_id) DO UPDATE SET
			bmi_history = EXCLUDED.bmi_history,
			bp_history = EXCLUDED.bp_history,
			updated_at = EXCLUDED.updated_at
	`
	data.UpdatedAt = time.Now()

	_, err = r.db.ExecContext(ctx, query, data.PatientID, bmi, bp, data.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save health data: %w", err)
	}
	return nil
}

func (r *healthDataRepository) encode(v interface{}) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if r.encryptor != nil {
		return r.encryptor.Encrypt(payload)
	}
	return payload, nil
}

func (r *healthDataRepository) decode(payload []byte, v interface{}) error {
	if len(payload) == 0 {
		return nil
	}
	if r.encryptor != nil {
		plain, err := r.encryptor.Decrypt(payload)
		if err != nil {
			return err
		}
		payload = plain
	}
	return json.Unmarshal(payload, v)
}
