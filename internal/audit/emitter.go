package audit

import (
	"context"
	"time"

	"github.com/ShubhamGupta2412/vaultboard/internal/logging"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/metrics"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
)

const (
	DefaultBufferSize    = 1024
	DefaultBatchSize     = 64
	DefaultFlushInterval = time.Second
	DefaultDrainTimeout  = 5 * time.Second
)

type EmitterConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	DrainTimeout  time.Duration
}

func (c EmitterConfig) withDefaults() EmitterConfig {
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = DefaultDrainTimeout
	}
	return c
}

// Emitter is a fire-and-forget audit pipeline. Emit never blocks; Run
// drains the buffer into the sink in batches.
type Emitter struct {
	cfg     EmitterConfig
	sink    Sink
	inbox   chan models.AccessLog
	log     logging.Logger
	metrics *metrics.Metrics
}

func NewEmitter(sink Sink, cfg EmitterConfig, log logging.Logger, m *metrics.Metrics) *Emitter {
	cfg = cfg.withDefaults()
	return &Emitter{
		cfg:     cfg,
		sink:    sink,
		inbox:   make(chan models.AccessLog, cfg.BufferSize),
		log:     log.With("module", "audit"),
		metrics: m,
	}
}

// Emit enqueues l. When the buffer is full the event is dropped, counted
// and false is returned.
func (e *Emitter) Emit(ctx context.Context, l models.AccessLog) bool {
	select {
	case e.inbox <- l:
		e.metrics.AddAuditEvents("enqueued", 1)
		return true
	default:
		e.metrics.AddAuditEvents("dropped", 1)
		e.log.Warn(ctx, "audit buffer full, event dropped", "entry_id", l.EntryID, "action", l.Action)
		return false
	}
}

// Pending is the number of buffered events.
func (e *Emitter) Pending() int {
	return len(e.inbox)
}

// Run processes events until ctx is cancelled, then flushes whatever is
// still buffered within DrainTimeout. It always returns nil so it can run
// in an errgroup without taking the process down.
func (e *Emitter) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]models.AccessLog, 0, e.cfg.BatchSize)

	for {
		select {
		case <-ctx.Done():
			e.drain(batch)
			return nil
		case l := <-e.inbox:
			batch = append(batch, l)
			if len(batch) >= e.cfg.BatchSize {
				e.flush(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				e.flush(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

func (e *Emitter) drain(batch []models.AccessLog) {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.DrainTimeout)
	defer cancel()

	for {
		select {
		case l := <-e.inbox:
			batch = append(batch, l)
			if len(batch) >= e.cfg.BatchSize {
				e.flush(ctx, batch)
				batch = batch[:0]
			}
		default:
			if len(batch) > 0 {
				e.flush(ctx, batch)
			}
			return
		}
	}
}

func (e *Emitter) flush(ctx context.Context, batch []models.AccessLog) {
	out := make([]models.AccessLog, len(batch))
	copy(out, batch)

	if err := e.sink.Write(ctx, out); err != nil {
		e.metrics.AddAuditEvents("failed", len(out))
		e.log.Error(ctx, "audit write failed", "events", len(out), "error", err)
		return
	}
	e.metrics.AddAuditEvents("written", len(out))
}
