package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/Linxify/internal/app/model"
	"go.uber.org/zap"
)

// ArchiveConsumer consumes archive jobs from NATS JetStream
type ArchiveConsumer struct {
	js        nats.JetStreamContext
	logger    *zap.Logger
	processor ArchiveProcessor
	timeout   time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewArchiveConsumer creates a new archive job consumer
func NewArchiveConsumer(js nats.JetStreamContext, logger *zap.Logger, processor ArchiveProcessor, timeout time.Duration) *ArchiveConsumer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ArchiveConsumer{
		js:        js,
		logger:    logger,
		processor: processor,
		timeout:   timeout,
		stopChan:  make(chan struct{}),
	}
}

// EnsureArchiveStream creates the archive stream and durable consumer when missing.
func EnsureArchiveStream(js nats.JetStreamContext) error {
	// Create stream if not exists
	_, err := js.StreamInfo(model.ArchiveStreamName)
	if err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      model.ArchiveStreamName,
			Subjects:  []string{model.ArchiveStreamSubject},
			MaxBytes:  model.ArchiveStreamMaxBytes,
			Retention: nats.WorkQueuePolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	// Create consumer if not exists
	_, err = js.ConsumerInfo(model.ArchiveStreamName, model.ArchiveConsumerName)
	if err != nil {
		_, err = js.AddConsumer(model.ArchiveStreamName, &nats.ConsumerConfig{
			Durable:   model.ArchiveConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}
	return nil
}

// Start begins consuming archive jobs
func (c *ArchiveConsumer) Start() error {
	if err := EnsureArchiveStream(c.js); err != nil {
		return err
	}

	sub, err := c.js.PullSubscribe(model.ArchiveStreamSubject, model.ArchiveConsumerName)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	c.wg.Add(1)
	go c.consume(sub)
	return nil
}

// Stop stops fetching and waits for the in-flight batch.
func (c *ArchiveConsumer) Stop() {
	close(c.stopChan)
	c.wg.Wait()
}

func (c *ArchiveConsumer) consume(sub *nats.Subscription) {
	defer c.wg.Done()
	for {
		select {
		case <-c.stopChan:
			c.logger.Info("archive consumer stopped")
			return
		default:
		}

		msgs, err := sub.Fetch(5, nats.MaxWait(5*time.Second))
		if err != nil && !errors.Is(err, nats.ErrTimeout) {
			if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
				c.logger.Warn("archive subscription closed", zap.Error(err))
				return
			}
			c.logger.Error("failed to fetch messages", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		for _, msg := range msgs {
			c.handle(msg)
		}
	}
}

func (c *ArchiveConsumer) handle(msg *nats.Msg) {
	var job model.ArchiveJob
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		c.logger.Error("failed to unmarshal archive job", zap.Error(err))
		_ = msg.Term()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	// Failures are not retried: the link keeps its previous archive state.
	if err := c.processor.Process(ctx, job); err != nil {
		c.logger.Warn("archive job failed",
			zap.String("id", job.ID),
			zap.Uint("link_id", job.LinkID),
			zap.Error(err))
	}

	_ = msg.Ack()
}
