package storage

import (
	"context"

	"feedScope/internal/model"
)

// Storage defines a sink for feed message records.
type Storage interface {
	PutMessageBatch(ctx context.Context, records []model.MessageRecord) error
}
