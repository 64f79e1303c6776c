package usecase

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/preludehq/leaddesk/internal/entity"
	"github.com/preludehq/leaddesk/internal/infra/queue"
)

type SendOutreachInput struct {
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	LeadIDs []string `json:"lead_ids"`
}

type SendOutreachOutput struct {
	BatchID string   `json:"batch_id"`
	Queued  int      `json:"queued"`
	Skipped []string `json:"skipped,omitempty"` // IDs without a usable email
}

type SendOutreachUseCase struct {
	Queue QueueProducerInterface
	Store LeadState
}

func NewSendOutreachUseCase(producer QueueProducerInterface, store LeadState) *SendOutreachUseCase {
	return &SendOutreachUseCase{Queue: producer, Store: store}
}

// Execute enqueues one message per lead and marks each queued lead contacted
// locally without touching the leads service. The worker applies the real
// status change per email over the following minutes; the list being ahead
// of the database here is deliberate, not a reconciliation bug.
func (uc *SendOutreachUseCase) Execute(ctx context.Context, input SendOutreachInput) (*SendOutreachOutput, error) {
	if strings.TrimSpace(input.Subject) == "" {
		return nil, &DomainError{Code: "VALIDATION_ERROR", Message: "subject is required"}
	}
	if strings.TrimSpace(input.Body) == "" {
		return nil, &DomainError{Code: "VALIDATION_ERROR", Message: "body is required"}
	}
	if len(input.LeadIDs) == 0 {
		return nil, &DomainError{Code: "VALIDATION_ERROR", Message: "at least one lead is required"}
	}

	// A cold store would miss every Find and silently skip the whole batch.
	// The load is best-effort: warm state survives a remote outage.
	if err := uc.Store.Load(ctx, false); err != nil {
		log.Printf("lead load before outreach failed: %v", err)
	}

	out := &SendOutreachOutput{BatchID: uuid.New().String()}

	for _, id := range input.LeadIDs {
		lead, ok := uc.Store.Find(id)
		if !ok || lead.Email == "" {
			out.Skipped = append(out.Skipped, id)
			continue
		}

		payload := queue.OutreachPayload{
			BatchID: out.BatchID,
			LeadID:  lead.ID,
			Email:   lead.Email,
			Name:    lead.Name,
			Company: lead.Company,
			Subject: input.Subject,
			Body:    input.Body,
		}
		if err := uc.Queue.PublishOutreach(ctx, payload); err != nil {
			// Leads already queued are on their way; report how far we got.
			return out, &TechnicalError{Code: "QUEUE_ERROR", Message: "failed to queue outreach: " + err.Error()}
		}

		if err := uc.Store.UpdateStatusLocal(lead.ID, entity.StatusContacted); err != nil {
			log.Printf("optimistic mark failed for lead %s: %v", lead.ID, err)
		}
		out.Queued++
	}

	if out.Queued == 0 {
		return nil, &DomainError{Code: "NO_RECIPIENTS", Message: "none of the selected leads has a usable email address"}
	}

	return out, nil
}
