package usecase

import (
	"context"

	"github.com/preludehq/leaddesk/internal/entity"
)

type CreateLeadInput struct {
	Company     string   `json:"company"`
	Name        string   `json:"name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Website     string   `json:"website,omitempty"`
	Location    string   `json:"location,omitempty"`
	Industry    string   `json:"industry,omitempty"`
	CompanySize string   `json:"company_size,omitempty"`
	Status      string   `json:"status,omitempty"`
	Source      string   `json:"source,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

type CreateLeadUseCase struct {
	API   LeadWriter
	Store LeadState
}

func NewCreateLeadUseCase(api LeadWriter, store LeadState) *CreateLeadUseCase {
	return &CreateLeadUseCase{API: api, Store: store}
}

// Execute validates locally before any network call; an invalid lead never
// reaches the wire. On success the created record lands in the right
// partition of the store.
func (uc *CreateLeadUseCase) Execute(ctx context.Context, input CreateLeadInput) (*entity.Lead, error) {
	lead := &entity.Lead{
		Company:     input.Company,
		Name:        input.Name,
		Email:       input.Email,
		Phone:       input.Phone,
		Website:     input.Website,
		Location:    input.Location,
		Industry:    input.Industry,
		CompanySize: input.CompanySize,
		Status:      input.Status,
		Source:      input.Source,
		Tags:        input.Tags,
		Notes:       input.Notes,
	}
	if lead.Status == "" {
		lead.Status = entity.StatusNew
	}
	if lead.Source == "" {
		lead.Source = entity.SourceManual
	}

	if err := lead.Validate(); err != nil {
		return nil, &DomainError{Code: "VALIDATION_ERROR", Message: err.Error()}
	}

	created, err := uc.API.Create(ctx, lead)
	if err != nil {
		return nil, err
	}

	uc.Store.Add(*created)
	return created, nil
}
