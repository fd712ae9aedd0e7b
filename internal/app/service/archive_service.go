package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sifan077/Linxify/internal/app/model"
	apprepository "github.com/sifan077/Linxify/internal/app/repository"
	"github.com/sifan077/Linxify/internal/app/webpage"
	"github.com/sifan077/Linxify/internal/infra/prometheus"
	"go.uber.org/zap"
)

const snapshotRemoveTimeout = 10 * time.Second

// ArticleExtractor turns a URL into reader-mode content.
type ArticleExtractor interface {
	Extract(ctx context.Context, rawURL string) (*webpage.Article, error)
}

// ArchiveService stores reader-mode content on links.
type ArchiveService struct {
	links     apprepository.LinkRepository
	extractor ArticleExtractor
	snapshots SnapshotStore
	logger    *zap.Logger
	now       func() time.Time
}

// NewArchiveService creates an archiver. snapshots may be nil.
func NewArchiveService(links apprepository.LinkRepository, extractor ArticleExtractor, snapshots SnapshotStore, logger *zap.Logger) *ArchiveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveService{
		links:     links,
		extractor: extractor,
		snapshots: snapshots,
		logger:    logger,
		now:       time.Now,
	}
}

// Process archives job.URL onto the link. Jobs for deleted links, or for
// links whose URL has changed since the job was queued, are dropped.
func (s *ArchiveService) Process(ctx context.Context, job model.ArchiveJob) error {
	log := s.logger.With(
		zap.String("job_id", job.ID),
		zap.Uint("link_id", job.LinkID),
		zap.String("url", job.URL),
	)

	link, err := s.links.Find(ctx, job.LinkID)
	if errors.Is(err, apprepository.ErrLinkNotFound) {
		prometheus.ArchiveJobs.WithLabelValues("stale").Inc()
		log.Debug("archive job dropped, link deleted")
		return nil
	}
	if err != nil {
		prometheus.ArchiveJobs.WithLabelValues("failed").Inc()
		return fmt.Errorf("load link: %w", err)
	}
	if link.URL != job.URL {
		prometheus.ArchiveJobs.WithLabelValues("stale").Inc()
		log.Debug("archive job dropped, url changed")
		return nil
	}

	article, err := s.extractor.Extract(ctx, job.URL)
	if err != nil {
		prometheus.ArchiveJobs.WithLabelValues("failed").Inc()
		log.Warn("archive extraction failed", zap.Error(err))
		return fmt.Errorf("extract article: %w", err)
	}

	snapshotKey := s.uploadSnapshot(ctx, log, job, article.Raw)

	stored, err := s.links.SetArchive(ctx, job.LinkID, job.URL, &article.Content, snapshotKey, s.now())
	if err != nil {
		prometheus.ArchiveJobs.WithLabelValues("failed").Inc()
		s.removeKey(log, snapshotKey)
		return fmt.Errorf("store archive: %w", err)
	}
	if !stored {
		prometheus.ArchiveJobs.WithLabelValues("stale").Inc()
		s.removeKey(log, snapshotKey)
		log.Debug("archive job dropped, link changed while fetching")
		return nil
	}

	if link.SnapshotKey != nil && (snapshotKey == nil || *link.SnapshotKey != *snapshotKey) {
		s.removeKey(log, link.SnapshotKey)
	}

	prometheus.ArchiveJobs.WithLabelValues("stored").Inc()
	log.Info("archived link", zap.Int("content_bytes", len(article.Content)))
	return nil
}

func (s *ArchiveService) uploadSnapshot(ctx context.Context, log *zap.Logger, job model.ArchiveJob, raw []byte) *string {
	if s.snapshots == nil || len(raw) == 0 {
		return nil
	}
	key := SnapshotKey(job)
	if err := s.snapshots.Upload(ctx, key, raw, "text/html; charset=utf-8"); err != nil {
		log.Warn("snapshot upload failed", zap.Error(err))
		return nil
	}
	return &key
}

func (s *ArchiveService) removeKey(log *zap.Logger, key *string) {
	if s.snapshots == nil || key == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), snapshotRemoveTimeout)
	defer cancel()
	if err := s.snapshots.Remove(ctx, *key); err != nil {
		log.Warn("failed to remove snapshot", zap.String("key", *key), zap.Error(err))
	}
}

// SnapshotKey is the object key a job's raw page is stored under.
func SnapshotKey(job model.ArchiveJob) string {
	return fmt.Sprintf("links/%d/%s.html", job.LinkID, job.ID)
}
