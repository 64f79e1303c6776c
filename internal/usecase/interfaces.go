package usecase

import (
	"context"

	"github.com/preludehq/leaddesk/internal/entity"
	"github.com/preludehq/leaddesk/internal/infra/queue"
)

// LeadWriter creates leads on the remote leads service.
type LeadWriter interface {
	Create(ctx context.Context, lead *entity.Lead) (*entity.Lead, error)
}

// LeadState is the slice of the store the use cases touch.
type LeadState interface {
	Load(ctx context.Context, force bool) error
	Find(id string) (entity.Lead, bool)
	Add(lead entity.Lead)
	UpdateStatusLocal(id, status string) error
}

type QueueProducerInterface interface {
	PublishOutreach(ctx context.Context, payload queue.OutreachPayload) error
}
