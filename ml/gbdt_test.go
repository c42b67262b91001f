package ml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticCorpus generates rows from a noiseless piecewise-linear target so
// the ensemble has something learnable: settlement grows with bills, wages
// and a severity bump.
func syntheticCorpus(n int) (X [][]float64, y []float64) {
	for i := 0; i < n; i++ {
		bills := float64(i%10) * 10000
		wages := float64(i%7) * 3000
		severe := float64(i % 2)
		injuries := float64(i%4 + 1)
		age := float64(25 + i%40)
		male := float64((i / 3) % 2)

		X = append(X, []float64{injuries, severe, bills, wages, age, male})
		y = append(y, 20000+2.5*bills+1.5*wages+40000*severe)
	}
	return X, y
}

func TestFitBoosterLearnsSignal(t *testing.T) {
	X, y := syntheticCorpus(120)
	b, err := fitBooster(X, y, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, b.Trees, 100)

	// The ensemble must beat the constant-mean baseline by a wide margin.
	var mean float64
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	var modelErr, baseErr float64
	for i, row := range X {
		modelErr += math.Abs(b.Predict(row) - y[i])
		baseErr += math.Abs(mean - y[i])
	}
	assert.Less(t, modelErr, baseErr/10)
}

func TestFitBoosterIsDeterministic(t *testing.T) {
	X, y := syntheticCorpus(60)
	b1, err := fitBooster(X, y, DefaultConfig())
	require.NoError(t, err)
	b2, err := fitBooster(X, y, DefaultConfig())
	require.NoError(t, err)

	for _, row := range X {
		assert.Equal(t, b1.Predict(row), b2.Predict(row))
	}
}

func TestFitBoosterRejectsBadInput(t *testing.T) {
	_, err := fitBooster(nil, nil, DefaultConfig())
	assert.Error(t, err, "no rows")

	X, y := syntheticCorpus(10)
	_, err = fitBooster(X, y[:5], DefaultConfig())
	assert.Error(t, err, "row/target length mismatch")

	cfg := DefaultConfig()
	cfg.LearningRate = 0
	_, err = fitBooster(X, y, cfg)
	assert.Error(t, err, "invalid learning rate")
}

func TestConstantTargetPredictsConstant(t *testing.T) {
	X := [][]float64{{1, 0, 100, 0, 30, 1}, {2, 1, 200, 0, 40, 0}, {3, 0, 300, 0, 50, 1}}
	y := []float64{5000, 5000, 5000}

	b, err := fitBooster(X, y, DefaultConfig())
	require.NoError(t, err)
	for _, row := range X {
		assert.InDelta(t, 5000, b.Predict(row), 1e-6)
	}
}
