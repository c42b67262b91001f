package models

import (
	"time"

	"github.com/google/uuid"
)

// TrainingRun records one execution of model training: how many labeled rows
// went in, how the held-out fraction scored, and where the serialized model
// artifact was stored. Metrics are diagnostic only; a poorly scoring run is
// recorded, not rejected.
type TrainingRun struct {
	ID           uuid.UUID `json:"id"`
	TrainRows    int       `json:"train_rows"`
	HoldoutRows  int       `json:"holdout_rows"`
	MAE          float64   `json:"mae"`
	R2           float64   `json:"r2"`
	Rounds       int       `json:"rounds"`
	LearningRate float64   `json:"learning_rate"`
	MaxDepth     int       `json:"max_depth"`
	ModelPath    string    `json:"model_path"`
	CreatedAt    time.Time `json:"created_at"`
}
