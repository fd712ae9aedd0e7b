package model

import "time"

// ArchiveJob asks the archiver to fetch URL and store its readable content on
// the link. Jobs whose URL no longer matches the link are discarded.
type ArchiveJob struct {
	ID          string    `json:"id"`
	LinkID      uint      `json:"link_id"`
	URL         string    `json:"url"`
	RequestedAt time.Time `json:"requested_at"`
}

const (
	ArchiveStreamName     = "ARCHIVE"
	ArchiveStreamSubject  = "archive.jobs"
	ArchiveConsumerName   = "archiver"
	ArchiveStreamMaxBytes = 1024 * 1024 * 64 // 64MB
)
