package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/SandeshGitHub2077/LegalClaimGPT/models"
)

const labelPrompt = `You are a legal-medical assistant. Given the following case text, extract and generate the following details as JSON:
1. Top 1-2 injury types ("injuries": array of strings)
2. Approximate total medical bills in USD ("medical_bills": number)
3. Approximate lost wages in USD ("lost_wages": number)
4. A reasonable settlement amount in USD ("settlement_amount": number)
5. Plaintiff's age, between 20 and 70 ("age": integer)
6. Plaintiff's gender ("gender": "Male" or "Female")

Respond only with the JSON object.

CASE TEXT:
"""%s"""`

var jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*?\}`)

// Label extracts structured claim attributes from case text. The prompt sees
// at most the first 3000 characters. Any subset of the keys may come back;
// missing numerics decode to zero and a missing settlement stays nil.
func (c *Client) Label(ctx context.Context, caseText string) (models.CaseLabels, error) {
	prompt := fmt.Sprintf(labelPrompt, truncateForPrompt(caseText))

	reply, err := c.generate(ctx, prompt, 0.7)
	if err != nil {
		return models.CaseLabels{}, err
	}

	return parseLabels(reply)
}

// parseLabels recovers the label object from a model reply that may be
// wrapped in markdown fences or surrounded by prose.
func parseLabels(reply string) (models.CaseLabels, error) {
	// Models sometimes name the injuries key "injury_types"; accept both.
	var raw struct {
		models.CaseLabels
		InjuryTypes []string `json:"injury_types"`
	}

	cleaned := stripCodeFences(reply)
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		match := jsonObjectPattern.FindString(cleaned)
		if match == "" {
			return models.CaseLabels{}, fmt.Errorf("no JSON object in labeling reply: %w", err)
		}
		if err := json.Unmarshal([]byte(match), &raw); err != nil {
			return models.CaseLabels{}, fmt.Errorf("failed to parse labeling reply: %w", err)
		}
	}

	labels := raw.CaseLabels
	if len(labels.Injuries) == 0 && len(raw.InjuryTypes) > 0 {
		labels.Injuries = raw.InjuryTypes
	}
	return labels, nil
}

// stripCodeFences removes markdown code fence lines, keeping their content.
func stripCodeFences(reply string) string {
	if !strings.Contains(reply, "```") {
		return strings.TrimSpace(reply)
	}
	var kept []string
	for _, line := range strings.Split(reply, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
