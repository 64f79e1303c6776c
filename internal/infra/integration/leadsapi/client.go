package leadsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/preludehq/leaddesk/internal/entity"
	"github.com/preludehq/leaddesk/internal/infra/integration/apierr"
)

// Client talks to the leads service. Every response is status-checked before
// any decode, and every lead is normalized (id/lead_id collapsed) here, at
// the boundary, so the rest of the codebase only sees canonical IDs.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:9000"
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var buf io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		buf = bytes.NewBuffer(jsonBody)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("leads api request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, apierr.FromResponse(resp)
	}
	return resp, nil
}

// List fetches one page of leads.
func (c *Client) List(ctx context.Context, page, perPage int) ([]entity.Lead, int, error) {
	path := fmt.Sprintf("/api/leads?page=%d&per_page=%d", page, perPage)
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var out listResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, 0, fmt.Errorf("decode leads page: %w", err)
	}
	for i := range out.Leads {
		out.Leads[i].Normalize()
	}
	return out.Leads, out.Total, nil
}

// ListAll is the simpler unpaged endpoint, used as a fallback when paging
// fails mid-way.
func (c *Client) ListAll(ctx context.Context) ([]entity.Lead, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/leads/all", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out listResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode leads: %w", err)
	}
	for i := range out.Leads {
		out.Leads[i].Normalize()
	}
	return out.Leads, nil
}

func (c *Client) Create(ctx context.Context, lead *entity.Lead) (*entity.Lead, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/leads", lead)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	created, err := decodeLead(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode created lead: %w", err)
	}
	return created, nil
}

// Update sends a partial update. The patch travels as-is; the server decides
// which fields it accepts.
func (c *Client) Update(ctx context.Context, id string, patch map[string]any) (*entity.Lead, error) {
	resp, err := c.do(ctx, http.MethodPut, "/api/leads/"+id, patch)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	updated, err := decodeLead(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode updated lead: %w", err)
	}
	return updated, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id, status string) error {
	resp, err := c.do(ctx, http.MethodPut, "/api/leads/"+id, updateLeadRequest{Status: status})
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/leads/"+id, nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// ExportCSV returns the raw CSV body the upstream renders.
func (c *Client) ExportCSV(ctx context.Context) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/leads/export", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *Client) SyncReplies(ctx context.Context, input SyncRepliesInput) (*SyncRepliesResult, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/leads/sync-replies", input)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out SyncRepliesResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode sync result: %w", err)
	}
	return &out, nil
}

// AISuggestion returns the cached outreach suggestion for a lead.
func (c *Client) AISuggestion(ctx context.Context, id string) (*AISuggestion, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/leads/"+id+"/ai-suggestion", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out AISuggestion
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode ai suggestion: %w", err)
	}
	return &out, nil
}

// RegenerateAISuggestion invalidates the upstream suggestion cache and
// returns a fresh one.
func (c *Client) RegenerateAISuggestion(ctx context.Context, id string) (*AISuggestion, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/leads/"+id+"/ai-suggestion/regenerate", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out AISuggestion
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode ai suggestion: %w", err)
	}
	return &out, nil
}

// decodeLead accepts both the bare lead and the {"lead": ...} envelope the
// upstream uses inconsistently.
func decodeLead(r io.Reader) (*entity.Lead, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var wrapped leadResponse
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Lead != nil {
		wrapped.Lead.Normalize()
		return wrapped.Lead, nil
	}
	var lead entity.Lead
	if err := json.Unmarshal(body, &lead); err != nil {
		return nil, err
	}
	lead.Normalize()
	return &lead, nil
}
