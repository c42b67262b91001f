package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// InjuryList is an ordered list of free-text injury mentions, stored as
// JSONB.
type InjuryList []string

// Value implements driver.Valuer for JSONB.
func (l InjuryList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB.
func (l *InjuryList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		*l = nil
		return nil
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, l)
}

// Gender is the normalized plaintiff gender category.
type Gender string

const (
	GenderMale    Gender = "Male"
	GenderFemale  Gender = "Female"
	GenderUnknown Gender = "Unknown"
)

// NormalizeGender maps free-form gender text onto the known categories.
// Anything unrecognized (including empty) becomes GenderUnknown.
func NormalizeGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return GenderMale
	case "female", "f":
		return GenderFemale
	default:
		return GenderUnknown
	}
}

// Amount is a non-negative monetary value. LLM labels and scraped records
// carry amounts inconsistently as JSON numbers, numeric strings ("52000",
// "$52,000") or null; null decodes to 0. A string that is not a number is a
// decode error for the record, never a silent zero.
type Amount float64

// UnmarshalJSON implements flexible numeric decoding for Amount.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*a = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		raw = strings.TrimPrefix(raw, "$")
		raw = strings.ReplaceAll(raw, ",", "")
		if raw == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("malformed amount %q: %w", raw, err)
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("malformed amount %s: %w", s, err)
	}
	*a = Amount(f)
	return nil
}

// Years is an integer age with the same flexible decoding as Amount.
// Zero doubles as "unknown"; the ambiguity is inherited from the corpus.
type Years int

// UnmarshalJSON implements flexible numeric decoding for Years.
func (y *Years) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*y = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*y = 0
			return nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("malformed age %q: %w", raw, err)
		}
		*y = Years(n)
		return nil
	}
	// Labels occasionally come back as "45.0"; accept a float and truncate.
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("malformed age %s: %w", s, err)
	}
	*y = Years(int(f))
	return nil
}

// CaseRecord is the canonical representation of one court case as it moves
// through the pipeline: created from a raw fetched opinion, enriched in place
// by LLM labeling, then read by feature extraction and the similarity index.
type CaseRecord struct {
	CaseID       int64    `json:"case_id"`
	CaseName     string   `json:"case_name"`
	Jurisdiction string   `json:"jurisdiction"`
	DateFiled    string   `json:"date_filed"`
	SourceURL    string   `json:"source_url"`
	FullText     string   `json:"full_text"`
	Summary      string   `json:"summary,omitempty"`
	Injuries     InjuryList `json:"injuries,omitempty"`
	MedicalBills Amount   `json:"medical_bills,omitempty"`
	LostWages    Amount   `json:"lost_wages,omitempty"`
	Age          Years    `json:"age,omitempty"`
	Gender       Gender   `json:"gender,omitempty"`

	// SettlementAmount is the training target; nil means unlabeled.
	SettlementAmount *Amount `json:"settlement_amount,omitempty"`

	// PredictedSettlement is populated on output only.
	PredictedSettlement *float64 `json:"predicted_settlement,omitempty"`
}

// Labeled reports whether the record carries a settlement target and can be
// used for training.
func (c *CaseRecord) Labeled() bool {
	return c.SettlementAmount != nil
}

// CaseLabels is the mapping produced by the labeling collaborator. Any subset
// of the keys may be absent; absent numerics decode to zero values.
type CaseLabels struct {
	Injuries         InjuryList `json:"injuries"`
	MedicalBills     Amount   `json:"medical_bills"`
	LostWages        Amount   `json:"lost_wages"`
	Age              Years    `json:"age"`
	Gender           string   `json:"gender"`
	SettlementAmount *Amount  `json:"settlement_amount"`
}

// ApplyLabels merges labeling output into the record. The record is enriched
// in place, never replaced, so identity fields from scraping are preserved.
func (c *CaseRecord) ApplyLabels(l CaseLabels) {
	if len(l.Injuries) > 0 {
		c.Injuries = l.Injuries
	}
	if l.MedicalBills > 0 {
		c.MedicalBills = l.MedicalBills
	}
	if l.LostWages > 0 {
		c.LostWages = l.LostWages
	}
	if l.Age > 0 {
		c.Age = l.Age
	}
	if l.Gender != "" {
		c.Gender = NormalizeGender(l.Gender)
	}
	if l.SettlementAmount != nil {
		c.SettlementAmount = l.SettlementAmount
	}
}
