package service

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SandeshGitHub2077/LegalClaimGPT/features"
	"github.com/SandeshGitHub2077/LegalClaimGPT/ml"
	"github.com/SandeshGitHub2077/LegalClaimGPT/models"
	"github.com/SandeshGitHub2077/LegalClaimGPT/similarity"
)

func trainedPredictorModel(t *testing.T) (*ml.Model, [][]float64) {
	t.Helper()
	caseStore := newMemCaseStore()
	seedLabeledCorpus(t, caseStore, 40)
	cases, err := caseStore.ListLabeled(context.Background())
	require.NoError(t, err)
	X, y := features.ExtractTraining(cases)
	model, _, err := ml.TrainEvaluate(X, y, features.Schema, ml.DefaultConfig())
	require.NoError(t, err)
	return model, X
}

func TestPredictBeforePublish(t *testing.T) {
	p := NewPredictor()

	_, err := p.Predict(&models.CaseRecord{})
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = p.Explain(&models.CaseRecord{})
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = p.Similar(context.Background(), "query", 3)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestPredictRoundedAndNonNegative(t *testing.T) {
	model, background := trainedPredictorModel(t)
	p := NewPredictor()
	p.PublishModel(model, background)

	c := &models.CaseRecord{
		Injuries:     models.InjuryList{"spinal cord injury", "fracture"},
		MedicalBills: 50000,
		LostWages:    12000,
		Age:          45,
		Gender:       models.GenderMale,
	}
	pred, err := p.Predict(c)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pred, 0.0)
	assert.Equal(t, math.Round(pred*100)/100, pred, "rounded to cents")

	// A record with no labels at all still predicts something non-negative.
	empty, err := p.Predict(&models.CaseRecord{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, empty, 0.0)
}

func TestExplainAttributionsCoverSchema(t *testing.T) {
	model, background := trainedPredictorModel(t)
	p := NewPredictor()
	p.PublishModel(model, background)

	c := &models.CaseRecord{
		Injuries:     models.InjuryList{"brain injury"},
		MedicalBills: 80000,
		Age:          30,
	}
	res, err := p.Explain(c)
	require.NoError(t, err)
	require.Len(t, res.Attributions, len(features.Schema))
	for i, attr := range res.Attributions {
		assert.Equal(t, features.Schema[i], attr.Feature)
	}

	// Attributions plus baseline reconstruct the raw model prediction.
	raw, err := model.Predict(features.Extract(c))
	require.NoError(t, err)
	sum := res.Baseline
	for _, attr := range res.Attributions {
		sum += attr.Value
	}
	assert.InDelta(t, raw, sum, 1e-6)
}

func TestSimilarUsesQueryEmbedder(t *testing.T) {
	embed := func(_ context.Context, text string) ([]float64, error) {
		return []float64{float64(len(text)), 1}, nil
	}
	res, err := similarity.Build(context.Background(), []*models.CaseRecord{
		{CaseID: 1, CaseName: "Short", FullText: "ab"},
		{CaseID: 2, CaseName: "Long", FullText: "abcdefghijklmnop"},
	}, embed)
	require.NoError(t, err)

	p := NewPredictor(WithQueryEmbedder(embed))
	p.PublishIndex(res.Index)

	hits, err := p.Similar(context.Background(), "abc", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, int64(1), hits[0].Entry.CaseID, "nearest by embedded length first")
	assert.LessOrEqual(t, hits[0].Distance, hits[1].Distance)
}
