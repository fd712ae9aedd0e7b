package service

import (
	"context"
	"sync"
	"time"

	"github.com/sifan077/Linxify/internal/app/model"
	"github.com/sifan077/Linxify/internal/app/repository"
	"github.com/sifan077/Linxify/internal/app/webpage"
	"github.com/sifan077/Linxify/internal/infra/mailer"
)

type mockLinkRepository struct {
	createFn     func(ctx context.Context, link *model.Link) error
	getFn        func(ctx context.Context, userID, id uint) (*model.Link, error)
	findFn       func(ctx context.Context, id uint) (*model.Link, error)
	listFn       func(ctx context.Context, filter model.LinkFilter) ([]model.Link, int64, error)
	updateFn     func(ctx context.Context, link *model.Link, clearArchive bool) (*string, error)
	deleteFn     func(ctx context.Context, userID, id uint) (*model.Link, error)
	setArchiveFn func(ctx context.Context, id uint, url string, content, snapshotKey *string, archivedAt time.Time) (bool, error)
}

func (m *mockLinkRepository) Create(ctx context.Context, link *model.Link) error {
	if m.createFn != nil {
		return m.createFn(ctx, link)
	}
	link.ID = 1
	return nil
}

func (m *mockLinkRepository) GetByID(ctx context.Context, userID, id uint) (*model.Link, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, repository.ErrLinkNotFound
}

func (m *mockLinkRepository) Find(ctx context.Context, id uint) (*model.Link, error) {
	if m.findFn != nil {
		return m.findFn(ctx, id)
	}
	return nil, repository.ErrLinkNotFound
}

func (m *mockLinkRepository) List(ctx context.Context, filter model.LinkFilter) ([]model.Link, int64, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, 0, nil
}

func (m *mockLinkRepository) Update(ctx context.Context, link *model.Link, clearArchive bool) (*string, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, link, clearArchive)
	}
	return nil, nil
}

func (m *mockLinkRepository) Delete(ctx context.Context, userID, id uint) (*model.Link, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil, repository.ErrLinkNotFound
}

func (m *mockLinkRepository) SetArchive(ctx context.Context, id uint, url string, content, snapshotKey *string, archivedAt time.Time) (bool, error) {
	if m.setArchiveFn != nil {
		return m.setArchiveFn(ctx, id, url, content, snapshotKey, archivedAt)
	}
	return true, nil
}

type mockCategoryRepository struct {
	createFn    func(ctx context.Context, category *model.Category) error
	getFn       func(ctx context.Context, userID, id uint) (*model.Category, error)
	listFn      func(ctx context.Context, userID uint) ([]model.Category, error)
	findOwnedFn func(ctx context.Context, userID uint, ids []uint) ([]model.Category, error)
	updateFn    func(ctx context.Context, category *model.Category) error
	deleteFn    func(ctx context.Context, userID, id uint) error
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *model.Category) error {
	if m.createFn != nil {
		return m.createFn(ctx, category)
	}
	return nil
}

func (m *mockCategoryRepository) GetByID(ctx context.Context, userID, id uint) (*model.Category, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, repository.ErrCategoryNotFound
}

func (m *mockCategoryRepository) List(ctx context.Context, userID uint) ([]model.Category, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockCategoryRepository) FindOwned(ctx context.Context, userID uint, ids []uint) ([]model.Category, error) {
	if m.findOwnedFn != nil {
		return m.findOwnedFn(ctx, userID, ids)
	}
	return nil, nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *model.Category) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, category)
	}
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, userID, id uint) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

type mockHighlightRepository struct {
	createFn     func(ctx context.Context, highlight *model.Highlight) error
	getFn        func(ctx context.Context, userID, id uint) (*model.Highlight, error)
	listFn       func(ctx context.Context, userID, linkID uint) ([]model.Highlight, error)
	updateNoteFn func(ctx context.Context, userID, id uint, note *string) (*model.Highlight, error)
	deleteFn     func(ctx context.Context, userID, id uint) error
}

func (m *mockHighlightRepository) Create(ctx context.Context, highlight *model.Highlight) error {
	if m.createFn != nil {
		return m.createFn(ctx, highlight)
	}
	return nil
}

func (m *mockHighlightRepository) GetByID(ctx context.Context, userID, id uint) (*model.Highlight, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, repository.ErrHighlightNotFound
}

func (m *mockHighlightRepository) ListByLink(ctx context.Context, userID, linkID uint) ([]model.Highlight, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, linkID)
	}
	return nil, nil
}

func (m *mockHighlightRepository) UpdateNote(ctx context.Context, userID, id uint, note *string) (*model.Highlight, error) {
	if m.updateNoteFn != nil {
		return m.updateNoteFn(ctx, userID, id, note)
	}
	return nil, repository.ErrHighlightNotFound
}

func (m *mockHighlightRepository) Delete(ctx context.Context, userID, id uint) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

// memoryUsers is an in-memory UserRepository.
type memoryUsers struct {
	mu        sync.Mutex
	nextID    uint
	users     map[uint]*model.User
	lookupErr error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[uint]*model.User{}}
}

func (r *memoryUsers) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	r.nextID++
	user.ID = r.nextID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *memoryUsers) GetByID(ctx context.Context, id uint) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, repository.ErrUserNotFound
}

func (r *memoryUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *memoryUsers) GetByResetDigest(ctx context.Context, digest string, now time.Time) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ResetTokenDigest != nil && *u.ResetTokenDigest == digest &&
			u.ResetTokenExpiry != nil && u.ResetTokenExpiry.After(now) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *memoryUsers) SetResetToken(ctx context.Context, id uint, digest string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.ResetTokenDigest = &digest
	u.ResetTokenExpiry = &expiry
	return nil
}

func (r *memoryUsers) ResetPassword(ctx context.Context, id uint, digest, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.ResetTokenDigest == nil || *u.ResetTokenDigest != digest {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetTokenDigest = nil
	u.ResetTokenExpiry = nil
	return nil
}

func (r *memoryUsers) ClearExpiredResetTokens(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.ResetTokenExpiry != nil && !u.ResetTokenExpiry.After(before) {
			u.ResetTokenDigest = nil
			u.ResetTokenExpiry = nil
			n++
		}
	}
	return n, nil
}

func (r *memoryUsers) EmailsSince(ctx context.Context, since time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.users))
	for _, u := range r.users {
		if !u.CreatedAt.Before(since) {
			out = append(out, u.Email)
		}
	}
	return out, nil
}

type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []model.ArchiveJob
}

func (d *recordingDispatcher) Dispatch(linkID uint, url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, model.ArchiveJob{LinkID: linkID, URL: url})
}

type memorySnapshots struct {
	mu        sync.Mutex
	objects   map[string][]byte
	removed   []string
	uploadErr error
}

func newMemorySnapshots() *memorySnapshots {
	return &memorySnapshots{objects: map[string][]byte{}}
}

func (s *memorySnapshots) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *memorySnapshots) Download(ctx context.Context, key string) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, "", ErrSnapshotUnavailable
	}
	return data, "text/html; charset=utf-8", nil
}

func (s *memorySnapshots) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.removed = append(s.removed, key)
	return nil
}

type stubExtractor struct {
	article *webpage.Article
	err     error
	calls   int
}

func (e *stubExtractor) Extract(ctx context.Context, rawURL string) (*webpage.Article, error) {
	e.calls++
	return e.article, e.err
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}
