// Package features converts case records into the fixed numeric schema the
// settlement model is trained on. The single load-bearing property here is
// parity: training and inference must produce the same fields in the same
// order, so both paths funnel through one vector builder.
package features

import (
	"strings"

	"github.com/SandeshGitHub2077/LegalClaimGPT/models"
)

// Schema is the ordered list of feature names. The trained model stores a
// copy and validates it before every prediction.
var Schema = []string{
	"num_injuries",
	"has_severe_injury",
	"medical_bills",
	"lost_wages",
	"age",
	"is_male",
}

// severityTerms mark an injury mention as severe. Substring match,
// case-insensitive, over the joined injuries text.
var severityTerms = []string{"brain", "spinal", "burn"}

// Extract maps one case record onto the schema. Missing numerics have already
// been coerced to zero at decode time; missing gender collapses into the
// "not male" bucket, a documented loss (GenderUnknown and GenderFemale encode
// identically).
func Extract(c *models.CaseRecord) []float64 {
	severe := 0.0
	joined := strings.ToLower(strings.Join(c.Injuries, " "))
	for _, term := range severityTerms {
		if strings.Contains(joined, term) {
			severe = 1.0
			break
		}
	}

	isMale := 0.0
	if strings.EqualFold(string(c.Gender), "male") {
		isMale = 1.0
	}

	return []float64{
		float64(len(c.Injuries)),
		severe,
		float64(c.MedicalBills),
		float64(c.LostWages),
		float64(c.Age),
		isMale,
	}
}

// ExtractTraining builds the training matrix and target vector. Rows without
// a settlement amount are dropped outright — an absent label must never
// become a zero-valued ground truth.
func ExtractTraining(cases []*models.CaseRecord) (X [][]float64, y []float64) {
	for _, c := range cases {
		if !c.Labeled() {
			continue
		}
		X = append(X, Extract(c))
		y = append(y, float64(*c.SettlementAmount))
	}
	return X, y
}

// ExtractMatrix builds a feature matrix for inference. Every row is kept,
// labeled or not, in input order.
func ExtractMatrix(cases []*models.CaseRecord) [][]float64 {
	X := make([][]float64, len(cases))
	for i, c := range cases {
		X[i] = Extract(c)
	}
	return X
}
