package crmapi

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

// Client talks to the CRM service. Records here are server-owned; we relay
// writes and decode reads, nothing is cached on this side.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8003"
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

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var buf io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		buf = bytes.NewBuffer(jsonBody)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("crm api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apierr.FromResponse(resp)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode crm response: %w", err)
	}
	return nil
}

// Meetings

func (c *Client) ListMeetings(ctx context.Context) ([]entity.Meeting, error) {
	var out []entity.Meeting
	if err := c.do(ctx, http.MethodGet, "/api/crm/meetings", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateMeeting(ctx context.Context, m *entity.Meeting) (*entity.Meeting, error) {
	var out entity.Meeting
	if err := c.do(ctx, http.MethodPost, "/api/crm/meetings", m, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetMeeting(ctx context.Context, id string) (*entity.Meeting, error) {
	var out entity.Meeting
	if err := c.do(ctx, http.MethodGet, "/api/crm/meetings/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateMeeting(ctx context.Context, id string, m *entity.Meeting) (*entity.Meeting, error) {
	var out entity.Meeting
	if err := c.do(ctx, http.MethodPut, "/api/crm/meetings/"+id, m, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteMeeting(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/crm/meetings/"+id, nil, nil)
}

// SyncAllGoogleCalendar asks the CRM to pull every connected calendar.
func (c *Client) SyncAllGoogleCalendar(ctx context.Context) (*SyncResult, error) {
	var out SyncResult
	if err := c.do(ctx, http.MethodPost, "/api/crm/sync-all-google-calendar", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Customer contacts

func (c *Client) ListContacts(ctx context.Context, customerID string) ([]entity.Contact, error) {
	var out []entity.Contact
	path := "/api/crm/customers/" + customerID + "/contacts"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateContact(ctx context.Context, customerID string, contact *entity.Contact) (*entity.Contact, error) {
	var out entity.Contact
	path := "/api/crm/customers/" + customerID + "/contacts"
	if err := c.do(ctx, http.MethodPost, path, contact, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateContact(ctx context.Context, customerID, contactID string, contact *entity.Contact) (*entity.Contact, error) {
	var out entity.Contact
	path := "/api/crm/customers/" + customerID + "/contacts/" + contactID
	if err := c.do(ctx, http.MethodPut, path, contact, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteContact(ctx context.Context, customerID, contactID string) error {
	path := "/api/crm/customers/" + customerID + "/contacts/" + contactID
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) SetPrimaryContact(ctx context.Context, customerID, contactID string) error {
	path := "/api/crm/customers/" + customerID + "/contacts/" + contactID + "/set-primary"
	return c.do(ctx, http.MethodPut, path, nil, nil)
}

// Deals and their subresources

func (c *Client) UpdateDeal(ctx context.Context, id string, deal *entity.Deal) (*entity.Deal, error) {
	var out entity.Deal
	if err := c.do(ctx, http.MethodPut, "/api/crm/deals/"+id, deal, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListDealNotes(ctx context.Context, dealID string) ([]entity.Note, error) {
	var out []entity.Note
	if err := c.do(ctx, http.MethodGet, "/api/crm/deals/"+dealID+"/notes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateDealNote(ctx context.Context, dealID string, note *entity.Note) (*entity.Note, error) {
	var out entity.Note
	if err := c.do(ctx, http.MethodPost, "/api/crm/deals/"+dealID+"/notes", note, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateNote(ctx context.Context, id string, note *entity.Note) (*entity.Note, error) {
	var out entity.Note
	if err := c.do(ctx, http.MethodPut, "/api/crm/notes/"+id, note, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListDealCallSummaries(ctx context.Context, dealID string) ([]entity.CallSummary, error) {
	var out []entity.CallSummary
	if err := c.do(ctx, http.MethodGet, "/api/crm/deals/"+dealID+"/call-summaries", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListDealMeetings(ctx context.Context, dealID string) ([]entity.Meeting, error) {
	var out []entity.Meeting
	if err := c.do(ctx, http.MethodGet, "/api/crm/deals/"+dealID+"/meetings", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListDealActivities(ctx context.Context, dealID string) ([]entity.Activity, error) {
	var out []entity.Activity
	if err := c.do(ctx, http.MethodGet, "/api/crm/deals/"+dealID+"/activities", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateDealActivity(ctx context.Context, dealID string, activity *entity.Activity) (*entity.Activity, error) {
	var out entity.Activity
	if err := c.do(ctx, http.MethodPost, "/api/crm/deals/"+dealID+"/activities", activity, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
