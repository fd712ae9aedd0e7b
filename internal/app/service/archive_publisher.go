package service

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/Linxify/internal/app/model"
)

// ArchivePublisher publishes archive jobs to NATS JetStream
type ArchivePublisher struct {
	js nats.JetStreamContext
}

// NewArchivePublisher creates a new archive job publisher
func NewArchivePublisher(js nats.JetStreamContext) *ArchivePublisher {
	return &ArchivePublisher{js: js}
}

// Publish publishes an archive job to the stream
func (p *ArchivePublisher) Publish(job model.ArchiveJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.ArchiveStreamSubject, data, nats.MsgId(job.ID))
	return err
}
