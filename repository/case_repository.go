package repository

import (
	"context"
	"fmt"

	"github.com/SandeshGitHub2077/LegalClaimGPT/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CaseRepository handles database operations for case records
type CaseRepository struct {
	db *pgxpool.Pool
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{db: db}
}

// Upsert inserts a scraped case or refreshes its scrape-time fields. Label
// fields are never touched here so a re-scrape cannot wipe earlier labeling.
func (r *CaseRepository) Upsert(ctx context.Context, c *models.CaseRecord) error {
	query := `
		INSERT INTO cases (
			case_id, case_name, jurisdiction, date_filed, source_url, full_text
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
		ON CONFLICT (case_id) DO UPDATE SET
			case_name = EXCLUDED.case_name,
			jurisdiction = EXCLUDED.jurisdiction,
			date_filed = EXCLUDED.date_filed,
			source_url = EXCLUDED.source_url,
			full_text = EXCLUDED.full_text,
			updated_at = NOW()`

	_, err := r.db.Exec(
		ctx, query,
		c.CaseID,
		c.CaseName,
		c.Jurisdiction,
		nullable(c.DateFiled),
		c.SourceURL,
		c.FullText,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert case %d: %w", c.CaseID, err)
	}
	return nil
}

// SaveLabels persists the enrichment fields of a labeled case.
func (r *CaseRepository) SaveLabels(ctx context.Context, c *models.CaseRecord) error {
	query := `
		UPDATE cases SET
			injuries = $2,
			medical_bills = $3,
			lost_wages = $4,
			age = $5,
			gender = $6,
			settlement_amount = $7,
			updated_at = NOW()
		WHERE case_id = $1`

	var settlement *float64
	if c.SettlementAmount != nil {
		v := float64(*c.SettlementAmount)
		settlement = &v
	}

	tag, err := r.db.Exec(
		ctx, query,
		c.CaseID,
		c.Injuries,
		float64(c.MedicalBills),
		float64(c.LostWages),
		int(c.Age),
		string(c.Gender),
		settlement,
	)
	if err != nil {
		return fmt.Errorf("failed to save labels for case %d: %w", c.CaseID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("case %d not found", c.CaseID)
	}
	return nil
}

// SaveSummary persists the generated summary for a case.
func (r *CaseRepository) SaveSummary(ctx context.Context, caseID int64, summary string) error {
	tag, err := r.db.Exec(ctx, `UPDATE cases SET summary = $2, updated_at = NOW() WHERE case_id = $1`, caseID, summary)
	if err != nil {
		return fmt.Errorf("failed to save summary for case %d: %w", caseID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("case %d not found", caseID)
	}
	return nil
}

const caseColumns = `
	case_id, case_name, jurisdiction, COALESCE(date_filed::text, ''), source_url,
	full_text, COALESCE(summary, ''), injuries, COALESCE(medical_bills, 0),
	COALESCE(lost_wages, 0), COALESCE(age, 0), COALESCE(gender, 'Unknown'),
	settlement_amount`

// List returns every stored case, oldest first.
func (r *CaseRepository) List(ctx context.Context) ([]*models.CaseRecord, error) {
	return r.list(ctx, `SELECT `+caseColumns+` FROM cases ORDER BY case_id`)
}

// ListLabeled returns the cases carrying a settlement amount, the only ones
// usable for training.
func (r *CaseRepository) ListLabeled(ctx context.Context) ([]*models.CaseRecord, error) {
	return r.list(ctx, `SELECT `+caseColumns+` FROM cases WHERE settlement_amount IS NOT NULL ORDER BY case_id`)
}

// ListUnlabeled returns cases that still lack a settlement amount, the
// candidates for the labeling pipeline.
func (r *CaseRepository) ListUnlabeled(ctx context.Context) ([]*models.CaseRecord, error) {
	return r.list(ctx, `SELECT `+caseColumns+` FROM cases WHERE settlement_amount IS NULL ORDER BY case_id`)
}

func (r *CaseRepository) list(ctx context.Context, query string) ([]*models.CaseRecord, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases: %w", err)
	}
	defer rows.Close()

	var cases []*models.CaseRecord
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

func scanCase(row pgx.Row) (*models.CaseRecord, error) {
	c := &models.CaseRecord{}
	var (
		bills, wages float64
		age          int
		gender       string
		settlement   *float64
	)
	err := row.Scan(
		&c.CaseID,
		&c.CaseName,
		&c.Jurisdiction,
		&c.DateFiled,
		&c.SourceURL,
		&c.FullText,
		&c.Summary,
		&c.Injuries,
		&bills,
		&wages,
		&age,
		&gender,
		&settlement,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan case: %w", err)
	}
	c.MedicalBills = models.Amount(bills)
	c.LostWages = models.Amount(wages)
	c.Age = models.Years(age)
	c.Gender = models.NormalizeGender(gender)
	if settlement != nil {
		a := models.Amount(*settlement)
		c.SettlementAmount = &a
	}
	return c, nil
}

// nullable maps an empty string onto SQL NULL for date columns.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
