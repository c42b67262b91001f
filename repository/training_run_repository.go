package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SandeshGitHub2077/LegalClaimGPT/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoTrainingRun is returned when no model has been trained yet.
var ErrNoTrainingRun = errors.New("no training run recorded")

// TrainingRunRepository handles database operations for training runs
type TrainingRunRepository struct {
	db *pgxpool.Pool
}

// NewTrainingRunRepository creates a new training run repository
func NewTrainingRunRepository(db *pgxpool.Pool) *TrainingRunRepository {
	return &TrainingRunRepository{db: db}
}

// Create records a completed training run
func (r *TrainingRunRepository) Create(ctx context.Context, run *models.TrainingRun) error {
	query := `
		INSERT INTO training_runs (
			id, train_rows, holdout_rows, mae, r2,
			rounds, learning_rate, max_depth, model_path
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		) RETURNING created_at`

	err := r.db.QueryRow(
		ctx, query,
		run.ID,
		run.TrainRows,
		run.HoldoutRows,
		run.MAE,
		run.R2,
		run.Rounds,
		run.LearningRate,
		run.MaxDepth,
		run.ModelPath,
	).Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create training run: %w", err)
	}
	return nil
}

// Latest returns the most recent training run, or ErrNoTrainingRun.
func (r *TrainingRunRepository) Latest(ctx context.Context) (*models.TrainingRun, error) {
	query := `
		SELECT id, train_rows, holdout_rows, mae, r2,
			rounds, learning_rate, max_depth, model_path, created_at
		FROM training_runs
		ORDER BY created_at DESC
		LIMIT 1`

	run := &models.TrainingRun{}
	err := r.db.QueryRow(ctx, query).Scan(
		&run.ID,
		&run.TrainRows,
		&run.HoldoutRows,
		&run.MAE,
		&run.R2,
		&run.Rounds,
		&run.LearningRate,
		&run.MaxDepth,
		&run.ModelPath,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoTrainingRun
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest training run: %w", err)
	}
	return run, nil
}
