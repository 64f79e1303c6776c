package entity

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// Lead statuses. The legacy values still arrive from older scraper runs and
// must survive a round-trip, but new writes only emit the current set.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQualified = "qualified"
	StatusLost      = "lost"

	StatusHot       = "hot"
	StatusWarm      = "warm"
	StatusCold      = "cold"
	StatusConverted = "converted"
)

// Lead sources. The source decides which list a lead lives in: manual entry
// and CSV uploads go to the manual list, everything else to the workflow list.
const (
	SourceManual    = "manual"
	SourceCSVUpload = "csv_upload"
	SourceScraped   = "scraped"
	SourceAPI       = "api"
	SourceLinkedIn  = "linkedin"
)

type Personnel struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
	Email string `json:"email,omitempty"`
}

type Lead struct {
	ID string `json:"id"`

	// LeadID is the alternate spelling some upstream responses use for the
	// same key. Normalize collapses it into ID; nothing past the API
	// boundary should read it.
	LeadID string `json:"lead_id,omitempty"`

	Company        string      `json:"company"`
	Name           string      `json:"name,omitempty"`
	ContactName    string      `json:"contact_name,omitempty"`
	Email          string      `json:"email,omitempty"`
	Phone          string      `json:"phone,omitempty"`
	Website        string      `json:"website,omitempty"`
	Location       string      `json:"location,omitempty"`
	Industry       string      `json:"industry,omitempty"`
	CompanySize    string      `json:"company_size,omitempty"`
	Revenue        string      `json:"revenue,omitempty"`
	EmployeesCount int         `json:"employees_count,omitempty"`
	Status         string      `json:"status"`
	Source         string      `json:"source,omitempty"`
	Score          *int        `json:"score,omitempty"`
	Tags           []string    `json:"tags,omitempty"`
	Notes          string      `json:"notes,omitempty"`
	Personnel      []Personnel `json:"personnel,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Normalize is the single place the id/lead_id dual spelling is resolved.
// After it runs, ID is the canonical key and LeadID is empty.
func (l *Lead) Normalize() {
	if l.ID == "" && l.LeadID != "" {
		l.ID = l.LeadID
	}
	l.LeadID = ""
	if l.Name == "" && l.ContactName != "" {
		l.Name = l.ContactName
	}
	if l.Status == "" {
		l.Status = StatusNew
	}
}

// IsWorkflow reports which list the lead belongs to. It is a pure function
// of source and personnel; a lead is never in both lists.
func (l *Lead) IsWorkflow() bool {
	if len(l.Personnel) > 0 {
		return true
	}
	switch l.Source {
	case SourceScraped, SourceAPI, SourceLinkedIn:
		return true
	}
	return false
}

func (l *Lead) Validate() error {
	if strings.TrimSpace(l.Company) == "" {
		return errors.New("company name is required")
	}
	if l.Email != "" {
		if _, err := mail.ParseAddress(l.Email); err != nil {
			return errors.New("email is invalid")
		}
	}
	if l.Score != nil && (*l.Score < 0 || *l.Score > 100) {
		return errors.New("score must be between 0 and 100")
	}
	return nil
}

// LeadStats is derived from the two in-memory lists, never fetched.
type LeadStats struct {
	Total                  int     `json:"total"`
	Qualified              int     `json:"qualified"`
	Hot                    int     `json:"hot"`
	TotalPersonnel         int     `json:"total_personnel"`
	CompaniesWithPersonnel int     `json:"companies_with_personnel"`
	AvgPersonnelPerCompany float64 `json:"avg_personnel_per_company"`
}

func ComputeLeadStats(lists ...[]Lead) LeadStats {
	var s LeadStats
	for _, list := range lists {
		for _, l := range list {
			s.Total++
			switch l.Status {
			case StatusQualified:
				s.Qualified++
			case StatusHot:
				s.Hot++
			}
			if n := len(l.Personnel); n > 0 {
				s.TotalPersonnel += n
				s.CompaniesWithPersonnel++
			}
		}
	}
	if s.CompaniesWithPersonnel > 0 {
		s.AvgPersonnelPerCompany = float64(s.TotalPersonnel) / float64(s.CompaniesWithPersonnel)
	}
	return s
}
