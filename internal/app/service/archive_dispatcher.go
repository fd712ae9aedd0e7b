package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sifan077/Linxify/internal/app/model"
	"go.uber.org/zap"
)

// ArchiveDispatcher schedules a link for background archiving. Dispatch never
// blocks the caller on the fetch itself.
type ArchiveDispatcher interface {
	Dispatch(linkID uint, url string)
}

// ArchiveProcessor runs a single archive job.
type ArchiveProcessor interface {
	Process(ctx context.Context, job model.ArchiveJob) error
}

// JobPublisher hands archive jobs to a queue.
type JobPublisher interface {
	Publish(job model.ArchiveJob) error
}

// NewArchiveJob builds a job for linkID at url.
func NewArchiveJob(linkID uint, url string) model.ArchiveJob {
	return model.ArchiveJob{
		ID:          uuid.New().String(),
		LinkID:      linkID,
		URL:         url,
		RequestedAt: time.Now(),
	}
}

// InlineArchiveDispatcher processes jobs on a goroutine in this process.
type InlineArchiveDispatcher struct {
	processor ArchiveProcessor
	timeout   time.Duration
	logger    *zap.Logger
}

// NewInlineArchiveDispatcher creates a dispatcher giving each job timeout.
func NewInlineArchiveDispatcher(processor ArchiveProcessor, timeout time.Duration, logger *zap.Logger) *InlineArchiveDispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InlineArchiveDispatcher{processor: processor, timeout: timeout, logger: logger}
}

func (d *InlineArchiveDispatcher) Dispatch(linkID uint, url string) {
	d.run(NewArchiveJob(linkID, url))
}

func (d *InlineArchiveDispatcher) run(job model.ArchiveJob) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.processor.Process(ctx, job); err != nil {
			d.logger.Debug("inline archive job failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}()
}

// QueueArchiveDispatcher publishes jobs to the archive stream, running them
// inline when the publish fails.
type QueueArchiveDispatcher struct {
	publisher JobPublisher
	fallback  *InlineArchiveDispatcher
	logger    *zap.Logger
}

// NewQueueArchiveDispatcher creates a queue-backed dispatcher.
func NewQueueArchiveDispatcher(publisher JobPublisher, fallback *InlineArchiveDispatcher, logger *zap.Logger) *QueueArchiveDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueArchiveDispatcher{publisher: publisher, fallback: fallback, logger: logger}
}

func (d *QueueArchiveDispatcher) Dispatch(linkID uint, url string) {
	job := NewArchiveJob(linkID, url)
	if err := d.publisher.Publish(job); err != nil {
		d.logger.Warn("failed to publish archive job, running inline",
			zap.String("job_id", job.ID),
			zap.Uint("link_id", linkID),
			zap.Error(err),
		)
		d.fallback.run(job)
	}
}
