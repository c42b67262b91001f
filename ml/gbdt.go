// Package ml implements the settlement estimator: gradient-boosted
// regression trees with an explicit named feature schema, seeded holdout
// evaluation, and exact Shapley attribution. The labeled corpus is small
// (tens to hundreds of rows), so the defaults lean toward overfitting
// resistance — shallow trees and strong shrinkage — rather than capacity.
package ml

import (
	"errors"
	"fmt"
)

// Config holds the boosting knobs.
type Config struct {
	Rounds       int     `json:"rounds"`
	LearningRate float64 `json:"learning_rate"`
	MaxDepth     int     `json:"max_depth"`
	MinLeaf      int     `json:"min_leaf"`
}

// DefaultConfig mirrors the settings the corpus was originally modeled with:
// 100 rounds, 0.1 shrinkage, depth 4.
func DefaultConfig() Config {
	return Config{Rounds: 100, LearningRate: 0.1, MaxDepth: 4, MinLeaf: 2}
}

func (c Config) validate() error {
	if c.Rounds <= 0 {
		return errors.New("ml: rounds must be positive")
	}
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return errors.New("ml: learning rate must be in (0, 1]")
	}
	if c.MaxDepth <= 0 {
		return errors.New("ml: max depth must be positive")
	}
	return nil
}

// Booster is a trained gradient-boosted ensemble. Base is the mean of the
// training targets; each tree corrects the residual error of everything
// before it, scaled by the learning rate.
type Booster struct {
	Base         float64
	LearningRate float64
	Trees        []*Node
}

// fitBooster trains the ensemble. Training is deterministic: no subsampling,
// no randomized splits.
func fitBooster(X [][]float64, y []float64, cfg Config) (*Booster, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(X) == 0 {
		return nil, errors.New("ml: no training rows")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("ml: %d feature rows but %d targets", len(X), len(y))
	}
	minLeaf := cfg.MinLeaf
	if minLeaf < 1 {
		minLeaf = 1
	}

	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}

	b := &Booster{LearningRate: cfg.LearningRate}
	var base float64
	for _, v := range y {
		base += v
	}
	b.Base = base / float64(len(y))

	current := make([]float64, len(y))
	for i := range current {
		current[i] = b.Base
	}
	residuals := make([]float64, len(y))

	for round := 0; round < cfg.Rounds; round++ {
		for i := range y {
			residuals[i] = y[i] - current[i]
		}
		tree := fitTree(X, residuals, idx, cfg.MaxDepth, minLeaf)
		b.Trees = append(b.Trees, tree)
		for i, row := range X {
			current[i] += cfg.LearningRate * tree.predict(row)
		}
	}
	return b, nil
}

// Predict returns the raw ensemble output for one feature vector.
func (b *Booster) Predict(x []float64) float64 {
	out := b.Base
	for _, tree := range b.Trees {
		out += b.LearningRate * tree.predict(x)
	}
	return out
}
