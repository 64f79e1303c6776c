package entity

import (
	"errors"
	"strings"
	"time"
)

// CRM-side records are owned by the CRM service. The copies held here are
// ephemeral: decoded for rendering or relayed on write, never cached.

type Customer struct {
	ID        string    `json:"id"`
	Company   string    `json:"company"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	LeadID    string    `json:"lead_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Title     string    `json:"title,omitempty"`
	IsPrimary bool      `json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("contact name is required")
	}
	return nil
}

type Meeting struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Location    string    `json:"location,omitempty"`
	Attendees   []string  `json:"attendees,omitempty"`
	DealID      string    `json:"deal_id,omitempty"`
	CustomerID  string    `json:"customer_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (m *Meeting) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return errors.New("meeting title is required")
	}
	if m.StartTime.IsZero() {
		return errors.New("start time is required")
	}
	if !m.EndTime.IsZero() && m.EndTime.Before(m.StartTime) {
		return errors.New("end time must be after start time")
	}
	return nil
}

type Deal struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	CustomerID string    `json:"customer_id,omitempty"`
	Stage      string    `json:"stage,omitempty"`
	Amount     float64   `json:"amount,omitempty"`
	CloseDate  string    `json:"close_date,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Note struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	DealID    string    `json:"deal_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (n *Note) Validate() error {
	if strings.TrimSpace(n.Content) == "" {
		return errors.New("note content is required")
	}
	return nil
}

type Activity struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Summary   string    `json:"summary,omitempty"`
	DealID    string    `json:"deal_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CallSummary struct {
	ID        string    `json:"id"`
	Summary   string    `json:"summary"`
	Duration  int       `json:"duration_seconds,omitempty"`
	DealID    string    `json:"deal_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
