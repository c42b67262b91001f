package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/SandeshGitHub2077/LegalClaimGPT/features"
	"github.com/SandeshGitHub2077/LegalClaimGPT/ml"
	"github.com/SandeshGitHub2077/LegalClaimGPT/models"
	"github.com/SandeshGitHub2077/LegalClaimGPT/similarity"
)

// ErrNotReady is returned when a prediction or query arrives before the
// corresponding artifact has been loaded or trained.
var ErrNotReady = errors.New("artifact not loaded")

// Predictor serves settlement predictions, attributions and similar-case
// lookups from in-memory artifacts. The model, its explanation background
// and the similarity index are each held behind an atomic pointer: readers
// run concurrently without locks, and a rebuild publishes a complete
// replacement with a single swap so no request ever observes a partial
// artifact.
type Predictor struct {
	model      atomic.Pointer[ml.Model]
	background atomic.Pointer[[][]float64]
	index      atomic.Pointer[similarity.Index]
	embedQuery similarity.EmbedFunc
}

// PredictorOption is a functional option for Predictor
type PredictorOption func(*Predictor)

// WithQueryEmbedder sets the embedding function used for similar-case queries
func WithQueryEmbedder(embed similarity.EmbedFunc) PredictorOption {
	return func(p *Predictor) {
		p.embedQuery = embed
	}
}

// NewPredictor creates a new predictor
func NewPredictor(opts ...PredictorOption) *Predictor {
	p := &Predictor{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PublishModel swaps in a freshly trained or loaded model together with the
// background matrix used for attribution baselines.
func (p *Predictor) PublishModel(m *ml.Model, background [][]float64) {
	p.background.Store(&background)
	p.model.Store(m)
}

// PublishIndex swaps in a freshly built or loaded similarity index.
func (p *Predictor) PublishIndex(ix *similarity.Index) {
	p.index.Store(ix)
}

// Predict extracts features from the case and returns the estimated
// settlement, non-negative and rounded to 2 decimal places.
func (p *Predictor) Predict(c *models.CaseRecord) (float64, error) {
	m := p.model.Load()
	if m == nil {
		return 0, fmt.Errorf("%w: settlement model", ErrNotReady)
	}
	if err := m.ValidateSchema(features.Schema); err != nil {
		return 0, err
	}
	pred, err := m.Predict(features.Extract(c))
	if err != nil {
		return 0, err
	}
	if pred < 0 {
		pred = 0
	}
	return math.Round(pred*100) / 100, nil
}

// FeatureAttribution pairs one schema field with its contribution to the
// prediction relative to the baseline.
type FeatureAttribution struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

// ExplainResult is the attribution breakdown for one case.
type ExplainResult struct {
	Baseline     float64              `json:"baseline"`
	Attributions []FeatureAttribution `json:"attributions"`
}

// Explain returns per-feature attributions for one case against the
// training-data baseline.
func (p *Predictor) Explain(c *models.CaseRecord) (*ExplainResult, error) {
	m := p.model.Load()
	bg := p.background.Load()
	if m == nil || bg == nil || len(*bg) == 0 {
		return nil, fmt.Errorf("%w: settlement model", ErrNotReady)
	}
	if err := m.ValidateSchema(features.Schema); err != nil {
		return nil, err
	}

	exp, err := m.Explain([][]float64{features.Extract(c)}, *bg)
	if err != nil {
		return nil, err
	}

	result := &ExplainResult{Baseline: exp.Baseline}
	for i, name := range exp.Schema {
		result.Attributions = append(result.Attributions, FeatureAttribution{
			Feature: name,
			Value:   exp.Values[0][i],
		})
	}
	return result, nil
}

// Similar embeds the query text and returns the k nearest indexed cases.
func (p *Predictor) Similar(ctx context.Context, text string, k int) ([]similarity.Result, error) {
	ix := p.index.Load()
	if ix == nil {
		return nil, fmt.Errorf("%w: similarity index", ErrNotReady)
	}
	if p.embedQuery == nil {
		return nil, errors.New("no query embedder configured")
	}
	vec, err := p.embedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return ix.Query(vec, k)
}
