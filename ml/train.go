package ml

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// HoldoutSeed fixes the evaluation partition so runs over the same corpus
// are reproducible.
const HoldoutSeed = 42

// Evaluation reports how the model scored on the held-out fraction. The
// numbers are diagnostic: nothing gates on them, a poorly fitting model is
// still returned and can be persisted.
type Evaluation struct {
	TrainRows   int
	HoldoutRows int
	MAE         float64
	R2          float64
}

// TrainEvaluate splits the rows 80/20 with a fixed seed, fits the model on
// the training fraction, and scores it on the holdout. With too few rows for
// a holdout (fewer than five) the model is fit on everything and the metrics
// are NaN.
func TrainEvaluate(X [][]float64, y []float64, schema []string, cfg Config) (*Model, Evaluation, error) {
	n := len(X)
	holdout := n / 5

	if holdout == 0 {
		model, err := Train(X, y, schema, cfg)
		if err != nil {
			return nil, Evaluation{}, err
		}
		return model, Evaluation{TrainRows: n, MAE: math.NaN(), R2: math.NaN()}, nil
	}

	perm := rand.New(rand.NewSource(HoldoutSeed)).Perm(n)
	testIdx := perm[:holdout]
	trainIdx := perm[holdout:]

	trainX := make([][]float64, 0, len(trainIdx))
	trainY := make([]float64, 0, len(trainIdx))
	for _, i := range trainIdx {
		trainX = append(trainX, X[i])
		trainY = append(trainY, y[i])
	}

	model, err := Train(trainX, trainY, schema, cfg)
	if err != nil {
		return nil, Evaluation{}, err
	}

	estimates := make([]float64, 0, holdout)
	actuals := make([]float64, 0, holdout)
	var absErr float64
	for _, i := range testIdx {
		pred, err := model.Predict(X[i])
		if err != nil {
			return nil, Evaluation{}, err
		}
		estimates = append(estimates, pred)
		actuals = append(actuals, y[i])
		absErr += math.Abs(pred - y[i])
	}

	eval := Evaluation{
		TrainRows:   len(trainIdx),
		HoldoutRows: holdout,
		MAE:         absErr / float64(holdout),
		R2:          stat.RSquaredFrom(estimates, actuals, nil),
	}
	return model, eval, nil
}
