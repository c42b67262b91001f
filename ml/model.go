package ml

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
)

// ErrSchemaMismatch is returned when a feature vector or schema does not
// match what the model was trained against. A mismatch is a contract
// violation and never silently truncated, padded, or reordered.
var ErrSchemaMismatch = errors.New("ml: feature schema does not match trained model")

// Model is the trained estimator artifact: the boosted ensemble plus the
// exact named feature schema it was trained on. The schema travels with the
// serialized model so schema drift is caught at load/predict time instead of
// surfacing as silently wrong numbers.
type Model struct {
	Schema  []string
	Config  Config
	Booster *Booster
}

// Train fits a model on the full matrix. Every row must have exactly one
// value per schema field, in schema order.
func Train(X [][]float64, y []float64, schema []string, cfg Config) (*Model, error) {
	if len(schema) == 0 {
		return nil, errors.New("ml: empty feature schema")
	}
	for i, row := range X {
		if len(row) != len(schema) {
			return nil, fmt.Errorf("%w: row %d has %d features, schema has %d", ErrSchemaMismatch, i, len(row), len(schema))
		}
	}
	booster, err := fitBooster(X, y, cfg)
	if err != nil {
		return nil, err
	}
	return &Model{Schema: append([]string(nil), schema...), Config: cfg, Booster: booster}, nil
}

// ValidateSchema checks that the caller's schema matches the trained one
// field-for-field, in order.
func (m *Model) ValidateSchema(schema []string) error {
	if len(schema) != len(m.Schema) {
		return fmt.Errorf("%w: got %d fields, trained on %d", ErrSchemaMismatch, len(schema), len(m.Schema))
	}
	for i, name := range schema {
		if name != m.Schema[i] {
			return fmt.Errorf("%w: field %d is %q, trained on %q", ErrSchemaMismatch, i, name, m.Schema[i])
		}
	}
	return nil
}

// Predict returns the point estimate for one feature vector.
func (m *Model) Predict(x []float64) (float64, error) {
	if len(x) != len(m.Schema) {
		return 0, fmt.Errorf("%w: got %d features, trained on %d", ErrSchemaMismatch, len(x), len(m.Schema))
	}
	return m.Booster.Predict(x), nil
}

// Encode serializes the model as an opaque artifact.
func (m *Model) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m); err != nil {
		return nil, fmt.Errorf("failed to encode model: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeModel loads a serialized model and sanity-checks the artifact.
func DecodeModel(data []byte) (*Model, error) {
	var m Model
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if m.Booster == nil || len(m.Schema) == 0 {
		return nil, errors.New("ml: decoded model artifact is incomplete")
	}
	return &m, nil
}
