package audit

import (
	"context"
	"errors"

	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
)

// Sink persists or forwards a batch of access logs.
type Sink interface {
	Write(ctx context.Context, logs []models.AccessLog) error
}

// MultiSink writes every batch to each sink in order. All sinks are tried;
// their errors are joined.
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, logs []models.AccessLog) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, logs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, logs []models.AccessLog) error

func (f SinkFunc) Write(ctx context.Context, logs []models.AccessLog) error {
	return f(ctx, logs)
}
