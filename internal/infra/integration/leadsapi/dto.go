package leadsapi

import "github.com/preludehq/leaddesk/internal/entity"

type listResponse struct {
	Leads   []entity.Lead `json:"leads"`
	Total   int           `json:"total"`
	Page    int           `json:"page"`
	PerPage int           `json:"per_page"`
}

type leadResponse struct {
	Lead *entity.Lead `json:"lead"`
}

type updateLeadRequest struct {
	Status string `json:"status,omitempty"`
}

// SyncRepliesInput triggers the upstream mailbox scan that flips lead
// statuses based on replies.
type SyncRepliesInput struct {
	AccessToken string `json:"access_token"`
	Provider    string `json:"provider"` // google or microsoft
	DaysBack    int    `json:"days_back"`
	MaxLeads    int    `json:"max_leads"`
}

// AISuggestion is the upstream-generated outreach draft for one lead.
type AISuggestion struct {
	LeadID      string `json:"lead_id,omitempty"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	GeneratedAt string `json:"generated_at,omitempty"`
}

type SyncRepliesResult struct {
	Scanned int    `json:"scanned"`
	Updated int    `json:"updated"`
	Message string `json:"message,omitempty"`
}
