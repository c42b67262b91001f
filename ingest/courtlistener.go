// Package ingest fetches raw court opinions from the CourtListener REST API.
// It only maps provider records onto CaseRecord; relevance filtering belongs
// to the pipeline so the fetch layer stays a dumb collaborator.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/SandeshGitHub2077/LegalClaimGPT/models"
)

const defaultBaseURL = "https://www.courtlistener.com/api/rest/v4/opinions/"

// Client talks to the CourtListener opinions endpoint with token auth.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a client from COURTLISTENER_API_KEY.
func NewClient() (*Client, error) {
	apiKey := os.Getenv("COURTLISTENER_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("COURTLISTENER_API_KEY not set")
	}
	return &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// opinionPage is the provider's paginated response shape.
type opinionPage struct {
	Next    string    `json:"next"`
	Results []opinion `json:"results"`
}

type opinion struct {
	ID          int64  `json:"id"`
	CaseName    string `json:"caseName"`
	Court       string `json:"court"`
	DateFiled   string `json:"date_filed"`
	AbsoluteURL string `json:"absolute_url"`
	PlainText   string `json:"plain_text"`
}

// FetchOpinions pulls up to limit opinions for one court, following cursor
// pagination. Opinions without usable plain text are skipped; they can never
// be classified or labeled downstream.
func (c *Client) FetchOpinions(ctx context.Context, court string, limit int) ([]*models.CaseRecord, error) {
	pageSize := limit
	if pageSize > 100 {
		pageSize = 100
	}

	next := c.baseURL + "?" + url.Values{
		"court":     {court},
		"page_size": {strconv.Itoa(pageSize)},
	}.Encode()

	var cases []*models.CaseRecord
	for next != "" && len(cases) < limit {
		page, err := c.fetchPage(ctx, next)
		if err != nil {
			return cases, err
		}

		for _, op := range page.Results {
			if len(cases) >= limit {
				break
			}
			text := strings.TrimSpace(op.PlainText)
			if text == "" {
				log.Printf("Empty plain_text for opinion %d, skipping", op.ID)
				continue
			}
			cases = append(cases, &models.CaseRecord{
				CaseID:       op.ID,
				CaseName:     op.CaseName,
				Jurisdiction: op.Court,
				DateFiled:    op.DateFiled,
				SourceURL:    op.AbsoluteURL,
				FullText:     text,
			})
		}
		next = page.Next
	}
	return cases, nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (*opinionPage, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch opinions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("CourtListener API error: %d", resp.StatusCode)
	}

	var page opinionPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode opinions page: %w", err)
	}
	return &page, nil
}
