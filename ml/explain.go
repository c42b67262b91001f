package ml

import (
	"errors"
	"fmt"
	"math/bits"
)

// maxExplainFeatures bounds the coalition enumeration. Exact Shapley costs
// 2^n model-set evaluations per row; the settlement schema is 6 wide, and
// anything past 16 would need a sampling approximation instead.
const maxExplainFeatures = 16

// Explanation carries per-feature attributions for a batch of rows. For each
// row, Values sums exactly to the model's prediction minus Baseline.
type Explanation struct {
	Schema   []string
	Baseline float64
	Values   [][]float64
}

// Explain computes exact Shapley attributions for each row in X: a feature's
// marginal contribution to moving the prediction away from the background
// expectation, averaged over all feature-coalition orderings. Features not in
// a coalition are replaced by their values in the background rows and the
// model output averaged across the background, so no labels are needed at
// explain time. The computation is fully deterministic.
//
// The background set is typically the training matrix (or a sample of it);
// Baseline is the mean model output over it.
func (m *Model) Explain(X [][]float64, background [][]float64) (*Explanation, error) {
	n := len(m.Schema)
	if n > maxExplainFeatures {
		return nil, fmt.Errorf("ml: cannot enumerate coalitions over %d features", n)
	}
	if len(background) == 0 {
		return nil, errors.New("ml: explanation requires a background dataset")
	}
	for i, row := range background {
		if len(row) != n {
			return nil, fmt.Errorf("%w: background row %d has %d features", ErrSchemaMismatch, i, len(row))
		}
	}

	weights := coalitionWeights(n)

	exp := &Explanation{
		Schema: append([]string(nil), m.Schema...),
		Values: make([][]float64, len(X)),
	}

	composite := make([]float64, n)
	for rowIdx, x := range X {
		if len(x) != n {
			return nil, fmt.Errorf("%w: row %d has %d features, trained on %d", ErrSchemaMismatch, rowIdx, len(x), n)
		}

		// v[S] is the expected model output with features in S taken from x
		// and the rest from the background distribution.
		v := make([]float64, 1<<n)
		for mask := 0; mask < 1<<n; mask++ {
			var sum float64
			for _, bg := range background {
				for f := 0; f < n; f++ {
					if mask&(1<<f) != 0 {
						composite[f] = x[f]
					} else {
						composite[f] = bg[f]
					}
				}
				sum += m.Booster.Predict(composite)
			}
			v[mask] = sum / float64(len(background))
		}

		phi := make([]float64, n)
		for mask := 0; mask < 1<<n; mask++ {
			size := bits.OnesCount(uint(mask))
			for f := 0; f < n; f++ {
				if mask&(1<<f) == 0 {
					phi[f] += weights[size] * (v[mask|1<<f] - v[mask])
				}
			}
		}
		exp.Values[rowIdx] = phi
	}

	exp.Baseline = baselineOf(m, background)
	return exp, nil
}

// coalitionWeights returns the Shapley kernel |S|!(n-|S|-1)!/n! indexed by
// coalition size |S|.
func coalitionWeights(n int) []float64 {
	fact := make([]float64, n+1)
	fact[0] = 1
	for i := 1; i <= n; i++ {
		fact[i] = fact[i-1] * float64(i)
	}
	w := make([]float64, n)
	for s := 0; s < n; s++ {
		w[s] = fact[s] * fact[n-s-1] / fact[n]
	}
	return w
}

func baselineOf(m *Model, background [][]float64) float64 {
	var sum float64
	for _, bg := range background {
		sum += m.Booster.Predict(bg)
	}
	return sum / float64(len(background))
}
