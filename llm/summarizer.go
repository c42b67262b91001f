package llm

import (
	"context"
	"fmt"
)

const summaryPrompt = `You are a legal assistant. Summarize the following legal case in 3-5 sentences using simple language.
Highlight the key legal issue, type of injury, and outcome if available.

CASE:
"""%s"""`

// Summarize produces a short plain-language summary of one case.
func (c *Client) Summarize(ctx context.Context, caseText string) (string, error) {
	prompt := fmt.Sprintf(summaryPrompt, truncateForPrompt(caseText))
	return c.generate(ctx, prompt, 0.5)
}
