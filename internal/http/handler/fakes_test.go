package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/Linxify/internal/app/model"
	"github.com/sifan077/Linxify/internal/app/repository"
	"github.com/sifan077/Linxify/internal/app/service"
	"github.com/sifan077/Linxify/internal/app/webpage"
	"github.com/sifan077/Linxify/internal/http/middleware"
	infraRedis "github.com/sifan077/Linxify/internal/infra/redis"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSession = "session-user-1"

type fakeLinkService struct {
	createFn   func(ctx context.Context, userID uint, input service.CreateLinkInput) (*model.Link, error)
	getFn      func(ctx context.Context, userID, id uint) (*model.Link, error)
	listFn     func(ctx context.Context, userID uint, query service.ListLinksQuery) (*service.LinkPage, error)
	updateFn   func(ctx context.Context, userID, id uint, input service.UpdateLinkInput) (*model.Link, error)
	deleteFn   func(ctx context.Context, userID, id uint) error
	snapshotFn func(ctx context.Context, userID, id uint) ([]byte, string, error)
}

func (f *fakeLinkService) CreateLink(ctx context.Context, userID uint, input service.CreateLinkInput) (*model.Link, error) {
	return f.createFn(ctx, userID, input)
}

func (f *fakeLinkService) GetLink(ctx context.Context, userID, id uint) (*model.Link, error) {
	if f.getFn != nil {
		return f.getFn(ctx, userID, id)
	}
	return nil, repository.ErrLinkNotFound
}

func (f *fakeLinkService) ListLinks(ctx context.Context, userID uint, query service.ListLinksQuery) (*service.LinkPage, error) {
	return f.listFn(ctx, userID, query)
}

func (f *fakeLinkService) UpdateLink(ctx context.Context, userID, id uint, input service.UpdateLinkInput) (*model.Link, error) {
	return f.updateFn(ctx, userID, id, input)
}

func (f *fakeLinkService) DeleteLink(ctx context.Context, userID, id uint) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, userID, id)
	}
	return repository.ErrLinkNotFound
}

func (f *fakeLinkService) Snapshot(ctx context.Context, userID, id uint) ([]byte, string, error) {
	if f.snapshotFn != nil {
		return f.snapshotFn(ctx, userID, id)
	}
	return nil, "", service.ErrSnapshotUnavailable
}

type fakeCategoryService struct {
	categories map[uint]*model.Category
}

func (f *fakeCategoryService) CreateCategory(ctx context.Context, userID uint, description string) (*model.Category, error) {
	if strings.TrimSpace(description) == "" {
		return nil, &service.ValidationError{Message: "Category description required"}
	}
	return &model.Category{ID: 5, UserID: userID, Description: description, Slug: "slug"}, nil
}

func (f *fakeCategoryService) GetCategory(ctx context.Context, userID, id uint) (*model.Category, error) {
	if c, ok := f.categories[id]; ok && c.UserID == userID {
		return c, nil
	}
	return nil, repository.ErrCategoryNotFound
}

func (f *fakeCategoryService) ListCategories(ctx context.Context, userID uint) ([]model.Category, error) {
	out := []model.Category{}
	for _, c := range f.categories {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCategoryService) UpdateCategory(ctx context.Context, userID, id uint, description string) (*model.Category, error) {
	c, err := f.GetCategory(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	c.Description = description
	return c, nil
}

func (f *fakeCategoryService) DeleteCategory(ctx context.Context, userID, id uint) error {
	if _, err := f.GetCategory(ctx, userID, id); err != nil {
		return err
	}
	delete(f.categories, id)
	return nil
}

type fakeHighlightService struct {
	highlights []model.Highlight
	listErr    error
}

func (f *fakeHighlightService) CreateHighlight(ctx context.Context, userID uint, input service.CreateHighlightInput) (*model.Highlight, error) {
	if input.Text == "" {
		return nil, &service.ValidationError{Message: "Highlight text required"}
	}
	return &model.Highlight{ID: 1, UserID: userID, LinkID: input.LinkID, Text: input.Text, Note: input.Note}, nil
}

func (f *fakeHighlightService) GetHighlight(ctx context.Context, userID, id uint) (*model.Highlight, error) {
	for i := range f.highlights {
		if f.highlights[i].ID == id && f.highlights[i].UserID == userID {
			return &f.highlights[i], nil
		}
	}
	return nil, repository.ErrHighlightNotFound
}

func (f *fakeHighlightService) ListHighlights(ctx context.Context, userID, linkID uint) ([]model.Highlight, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []model.Highlight{}
	for _, h := range f.highlights {
		if h.UserID == userID && h.LinkID == linkID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeHighlightService) UpdateNote(ctx context.Context, userID, id uint, note *string) (*model.Highlight, error) {
	h, err := f.GetHighlight(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	h.Note = note
	return h, nil
}

func (f *fakeHighlightService) DeleteHighlight(ctx context.Context, userID, id uint) error {
	_, err := f.GetHighlight(ctx, userID, id)
	return err
}

type fakeScraper struct {
	meta *webpage.Metadata
	err  error
}

func (f *fakeScraper) Scrape(ctx context.Context, rawURL string) (*webpage.Metadata, error) {
	return f.meta, f.err
}

type fakeAuthService struct {
	users       map[string]*model.User
	resetCalls  []string
	validTokens map[string]bool
}

func (f *fakeAuthService) Register(ctx context.Context, input service.RegisterInput) (*model.User, error) {
	if input.Email == "" || input.Password == "" {
		return nil, &service.ValidationError{Message: "Email and password are required"}
	}
	if _, ok := f.users[input.Email]; ok {
		return nil, service.ErrEmailTaken
	}
	user := &model.User{ID: uint(len(f.users) + 1), Email: input.Email}
	f.users[input.Email] = user
	return user, nil
}

func (f *fakeAuthService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	if u, ok := f.users[email]; ok && password == "password1" {
		return u, nil
	}
	return nil, service.ErrInvalidCredentials
}

func (f *fakeAuthService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return &service.ValidationError{Message: "Email is required"}
	}
	f.resetCalls = append(f.resetCalls, email)
	return nil
}

func (f *fakeAuthService) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" || password == "" {
		return &service.ValidationError{Message: "Missing token or password"}
	}
	if !f.validTokens[token] {
		return service.ErrInvalidResetToken
	}
	delete(f.validTokens, token)
	return nil
}

// fakeSessions is both the middleware resolver and the handler session manager.
type fakeSessions struct {
	sessions map[string]uint
	deleted  []string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]uint{testSession: 1}}
}

func (s *fakeSessions) Get(ctx context.Context, sid string) (uint, error) {
	if id, ok := s.sessions[sid]; ok {
		return id, nil
	}
	return 0, infraRedis.ErrSessionNotFound
}

func (s *fakeSessions) Create(ctx context.Context, userID uint) (string, error) {
	sid := "new-session"
	s.sessions[sid] = userID
	return sid, nil
}

func (s *fakeSessions) Delete(ctx context.Context, sid string) error {
	delete(s.sessions, sid)
	s.deleted = append(s.deleted, sid)
	return nil
}

func (s *fakeSessions) TTL() time.Duration { return time.Hour }

type testEnv struct {
	app        *fiber.App
	links      *fakeLinkService
	categories *fakeCategoryService
	highlights *fakeHighlightService
	scraper    *fakeScraper
	auth       *fakeAuthService
	sessions   *fakeSessions
	checks     []ReadyCheck
}

func newTestEnv(t *testing.T, configure ...func(*testEnv)) *testEnv {
	t.Helper()
	env := &testEnv{
		links:      &fakeLinkService{},
		categories: &fakeCategoryService{categories: map[uint]*model.Category{}},
		highlights: &fakeHighlightService{},
		scraper:    &fakeScraper{},
		auth: &fakeAuthService{
			users:       map[string]*model.User{"ada@example.com": {ID: 1, Email: "ada@example.com"}},
			validTokens: map[string]bool{},
		},
		sessions: newFakeSessions(),
	}
	for _, fn := range configure {
		fn(env)
	}

	logger := zap.NewNop()
	pass := func(c *fiber.Ctx) error { return c.Next() }

	app := fiber.New()
	app.Use(middleware.LoadSession(env.sessions, logger))
	NewPageHandler(PageDeps{
		Logger:           logger,
		LinkService:      env.links,
		HighlightService: env.highlights,
		ReadyChecks:      env.checks,
	}).Register(app)
	NewAuthHandler(AuthDeps{
		Logger:   logger,
		Auth:     env.auth,
		Sessions: env.sessions,
	}).Register(app, pass)
	NewAPIHandler(APIDeps{
		Logger:           logger,
		LinkService:      env.links,
		CategoryService:  env.categories,
		HighlightService: env.highlights,
		Scraper:          env.scraper,
	}).Register(app, pass)

	env.app = app
	return env
}

func (e *testEnv) do(t *testing.T, method, target, body string, authed bool) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: testSession})
	}
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}
