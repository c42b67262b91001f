package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplainAttributionsSumToPredictionMinusBaseline(t *testing.T) {
	X, y := syntheticCorpus(80)
	m, err := Train(X, y, testSchema, DefaultConfig())
	require.NoError(t, err)

	rows := X[:5]
	exp, err := m.Explain(rows, X)
	require.NoError(t, err)
	require.Len(t, exp.Values, 5)

	for i, row := range rows {
		pred, err := m.Predict(row)
		require.NoError(t, err)

		var sum float64
		for _, phi := range exp.Values[i] {
			sum += phi
		}
		// Exact coalition enumeration satisfies efficiency up to float error.
		assert.InDelta(t, pred-exp.Baseline, sum, 1e-6, "row %d", i)
	}
}

func TestExplainIsDeterministic(t *testing.T) {
	X, y := syntheticCorpus(50)
	m, err := Train(X, y, testSchema, DefaultConfig())
	require.NoError(t, err)

	exp1, err := m.Explain(X[:3], X)
	require.NoError(t, err)
	exp2, err := m.Explain(X[:3], X)
	require.NoError(t, err)

	assert.Equal(t, exp1.Baseline, exp2.Baseline)
	assert.Equal(t, exp1.Values, exp2.Values)
}

func TestExplainDominantFeatureGetsLargestAttribution(t *testing.T) {
	X, y := syntheticCorpus(80)
	m, err := Train(X, y, testSchema, DefaultConfig())
	require.NoError(t, err)

	// A row with maximal medical bills against a mixed background: the bills
	// column (index 2) drives the synthetic target hardest.
	row := []float64{2, 1, 90000, 18000, 45, 0}
	exp, err := m.Explain([][]float64{row}, X)
	require.NoError(t, err)

	phi := exp.Values[0]
	for f := range phi {
		if f == 2 {
			continue
		}
		assert.GreaterOrEqual(t, phi[2], phi[f], "medical_bills should dominate feature %d", f)
	}
}

func TestExplainContractErrors(t *testing.T) {
	X, y := syntheticCorpus(40)
	m, err := Train(X, y, testSchema, DefaultConfig())
	require.NoError(t, err)

	_, err = m.Explain([][]float64{{1, 2, 3}}, X)
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	_, err = m.Explain(X[:1], [][]float64{{1, 2}})
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	_, err = m.Explain(X[:1], nil)
	assert.Error(t, err, "background required")
}
