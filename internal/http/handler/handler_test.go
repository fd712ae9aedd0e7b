package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/sifan077/Linxify/internal/app/model"
	"github.com/sifan077/Linxify/internal/app/repository"
	"github.com/sifan077/Linxify/internal/app/service"
	"github.com/sifan077/Linxify/internal/app/webpage"
	"github.com/sifan077/Linxify/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPI_RequiresSession(t *testing.T) {
	env := newTestEnv(t)
	for _, target := range []string{"/api/links", "/api/categories", "/api/highlights?linkId=1", "/api/auth/me"} {
		resp, body := env.do(t, http.MethodGet, target, "", false)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, target)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, string(body))
	}
}

func TestListLinks(t *testing.T) {
	var got service.ListLinksQuery
	env := newTestEnv(t, func(e *testEnv) {
		e.links.listFn = func(ctx context.Context, userID uint, query service.ListLinksQuery) (*service.LinkPage, error) {
			got = query
			return &service.LinkPage{
				Links:    []model.Link{{ID: 10, UserID: userID, URL: "https://example.com", Title: "Ten"}},
				Total:    18,
				Page:     query.Page,
				PageSize: query.PageSize,
			}, nil
		}
	})

	resp, body := env.do(t, http.MethodGet, "/api/links?page=2&pageSize=9&tag=go&tag=web&categoryId=3&search=gopher&sort=az", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	assert.Equal(t, 2, got.Page)
	assert.Equal(t, 9, got.PageSize)
	assert.Equal(t, []string{"go", "web"}, got.Tags)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, uint(3), *got.CategoryID)
	assert.Equal(t, "gopher", got.Search)
	assert.Equal(t, "az", got.Sort)

	page := decode[ListLinksResponse](t, body)
	assert.Equal(t, int64(18), page.Total)
	require.Len(t, page.Links, 1)
	assert.Equal(t, "Ten", page.Links[0].Title)
	assert.Equal(t, []string{}, page.Links[0].Tags)
	assert.Contains(t, string(body), `"linkTitle":"Ten"`)
}

func TestListLinks_BadCategory(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.do(t, http.MethodGet, "/api/links?categoryId=abc", "", true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateLink(t *testing.T) {
	var got service.CreateLinkInput
	env := newTestEnv(t, func(e *testEnv) {
		e.links.createFn = func(ctx context.Context, userID uint, input service.CreateLinkInput) (*model.Link, error) {
			got = input
			if input.Title == "" {
				return nil, &service.ValidationError{Message: "URL and title required"}
			}
			if len(input.CategoryIDs) > 0 && input.CategoryIDs[0] == 99 {
				return nil, service.ErrForbidden
			}
			return &model.Link{ID: 1, UserID: userID, URL: input.URL, Title: input.Title, Tags: input.Tags}, nil
		}
	})

	resp, body := env.do(t, http.MethodPost, "/api/links",
		`{"url":"https://go.dev","linkTitle":"Go","tags":["lang"],"categoryIds":[1]}`, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Equal(t, "https://go.dev", got.URL)
	assert.Equal(t, []uint{1}, got.CategoryIDs)
	link := decode[LinkResponse](t, body)
	assert.Equal(t, []string{"lang"}, link.Tags)

	resp, body = env.do(t, http.MethodPost, "/api/links", `{"url":"https://go.dev"}`, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"URL and title required"}`, string(body))

	resp, _ = env.do(t, http.MethodPost, "/api/links", `{"url":"https://go.dev","linkTitle":"Go","categoryIds":[99]}`, true)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/links", `{not json`, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetLink_NotFoundAndInvalidID(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/api/links/42", "", true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Link not found"}`, string(body))

	resp, _ = env.do(t, http.MethodGet, "/api/links/abc", "", true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateLink_PartialBody(t *testing.T) {
	var got service.UpdateLinkInput
	env := newTestEnv(t, func(e *testEnv) {
		e.links.updateFn = func(ctx context.Context, userID, id uint, input service.UpdateLinkInput) (*model.Link, error) {
			got = input
			return &model.Link{ID: id, UserID: userID, Title: *input.Title}, nil
		}
	})

	resp, _ := env.do(t, http.MethodPut, "/api/links/4", `{"linkTitle":"Renamed"}`, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, got.Title)
	assert.Equal(t, "Renamed", *got.Title)
	assert.Nil(t, got.URL)
	assert.Nil(t, got.Tags)
	assert.Nil(t, got.CategoryIDs)
}

func TestDeleteLink(t *testing.T) {
	env := newTestEnv(t, func(e *testEnv) {
		e.links.deleteFn = func(ctx context.Context, userID, id uint) error {
			if id == 1 {
				return nil
			}
			return errors.New("db exploded")
		}
	})

	resp, body := env.do(t, http.MethodDelete, "/api/links/1", "", true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true}`, string(body))

	resp, body = env.do(t, http.MethodDelete, "/api/links/2", "", true)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, string(body), "exploded")
}

func TestGetSnapshot(t *testing.T) {
	env := newTestEnv(t, func(e *testEnv) {
		e.links.snapshotFn = func(ctx context.Context, userID, id uint) ([]byte, string, error) {
			if id == 1 {
				return []byte("<html>raw</html>"), "text/html; charset=utf-8", nil
			}
			return nil, "", service.ErrSnapshotUnavailable
		}
	})

	resp, body := env.do(t, http.MethodGet, "/api/links/1/snapshot", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<html>raw</html>", string(body))
	assert.Equal(t, "sandbox", resp.Header.Get("Content-Security-Policy"))

	resp, _ = env.do(t, http.MethodGet, "/api/links/2/snapshot", "", true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t, func(e *testEnv) {
		e.categories.categories[1] = &model.Category{ID: 1, UserID: 1, Description: "Mine"}
		e.categories.categories[2] = &model.Category{ID: 2, UserID: 2, Description: "Theirs"}
	})

	resp, body := env.do(t, http.MethodPost, "/api/categories", `{"categoryDescription":"Reading"}`, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Contains(t, string(body), `"categoryDescription":"Reading"`)

	resp, _ = env.do(t, http.MethodPost, "/api/categories", `{"categoryDescription":" "}`, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/api/categories", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]CategoryResponse](t, body)
	require.Len(t, list, 1)
	assert.Equal(t, "Mine", list[0].Description)

	resp, _ = env.do(t, http.MethodGet, "/api/categories/2", "", true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPut, "/api/categories/2", `{"categoryDescription":"Stolen"}`, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, "/api/categories/1", "", true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHighlights(t *testing.T) {
	note := "**key** point"
	env := newTestEnv(t, func(e *testEnv) {
		e.highlights.highlights = []model.Highlight{
			{ID: 1, UserID: 1, LinkID: 3, Text: "quote", Note: &note},
			{ID: 2, UserID: 2, LinkID: 3, Text: "other"},
		}
	})

	resp, _ := env.do(t, http.MethodGet, "/api/highlights", "", true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := env.do(t, http.MethodGet, "/api/highlights?linkId=3", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]HighlightResponse](t, body)
	require.Len(t, list, 1)
	assert.Contains(t, list[0].NoteHTML, "<strong>key</strong>")

	resp, _ = env.do(t, http.MethodPost, "/api/highlights", `{"linkId":3,"text":""}`, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/highlights", `{"linkId":3,"text":"new"}`, true)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = env.do(t, http.MethodPut, "/api/highlights/1", `{"note":"_edited_"}`, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, decode[HighlightResponse](t, body).NoteHTML, "<em>edited</em>")

	resp, _ = env.do(t, http.MethodGet, "/api/highlights/2", "", true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, "/api/highlights/2", "", true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestScrape(t *testing.T) {
	image := "https://example.com/og.png"
	cases := []struct {
		name   string
		body   string
		meta   *webpage.Metadata
		err    error
		status int
		want   string
	}{
		{"missing url", `{}`, nil, nil, http.StatusBadRequest, `{"error":"URL required"}`},
		{"upstream status", `{"url":"https://example.com"}`, nil, &webpage.StatusError{StatusCode: 404}, http.StatusBadRequest, `{"error":"Failed to fetch URL"}`},
		{"parse failure", `{"url":"https://example.com"}`, nil, errors.New("parse html: boom"), http.StatusInternalServerError, `{"error":"Scraping failed"}`},
		{"ok", `{"url":"https://example.com"}`, &webpage.Metadata{Title: "T", Description: "D", Favicon: "https://example.com/favicon.ico", Image: &image}, nil, http.StatusOK,
			`{"title":"T","description":"D","favicon":"https://example.com/favicon.ico","image":"https://example.com/og.png"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, func(e *testEnv) {
				e.scraper.meta = tc.meta
				e.scraper.err = tc.err
			})
			resp, body := env.do(t, http.MethodPost, "/api/scrape", tc.body, true)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.JSONEq(t, tc.want, string(body))
		})
	}
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodPost, "/api/auth/register", `{"email":"bob@example.com","password":"password1"}`, false)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := env.do(t, http.MethodPost, "/api/auth/register", `{"email":"bob@example.com","password":"password1"}`, false)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"User already exists with this email"}`, string(body))

	resp, _ = env.do(t, http.MethodPost, "/api/auth/login", `{"email":"bob@example.com","password":"nope"}`, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/login", `{"email":"bob@example.com","password":"password1"}`, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookie {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.Equal(t, "new-session", session.Value)
	assert.True(t, session.HttpOnly)

	resp, body = env.do(t, http.MethodGet, "/api/auth/me", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"email":"ada@example.com"`)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/logout", "", true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{testSession}, env.sessions.deleted)
}

func TestForgotAndResetPassword(t *testing.T) {
	env := newTestEnv(t, func(e *testEnv) {
		e.auth.validTokens["good"] = true
	})

	resp, body := env.do(t, http.MethodPost, "/api/auth/forgot-password", `{"email":"whoever@example.com"}`, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"If that email exists, a reset link has been sent."}`, string(body))

	resp, _ = env.do(t, http.MethodPost, "/api/auth/forgot-password", `{}`, false)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/reset-password", `{"token":"good","password":"password2"}`, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = env.do(t, http.MethodPost, "/api/auth/reset-password", `{"token":"good","password":"password2"}`, false)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Invalid or expired token"}`, string(body))
}

func TestPages(t *testing.T) {
	content := "<p>Archived body</p>"
	env := newTestEnv(t, func(e *testEnv) {
		e.links.getFn = func(ctx context.Context, userID, id uint) (*model.Link, error) {
			if id != 7 {
				return nil, repository.ErrLinkNotFound
			}
			return &model.Link{ID: 7, UserID: userID, URL: "https://example.com", Title: "Seven", ArchivedContent: &content}, nil
		}
		e.highlights.highlights = []model.Highlight{{ID: 1, UserID: 1, LinkID: 7, Text: "Archived"}}
		e.checks = []ReadyCheck{
			{Name: "postgres", Ping: func(ctx context.Context) error { return nil }},
			{Name: "redis", Ping: func(ctx context.Context) error { return errors.New("down") }},
		}
	})

	resp, _ := env.do(t, http.MethodGet, "/add?url=https%3A%2F%2Fgo.dev%2Fdoc", "", false)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard?addUrl=https%3A%2F%2Fgo.dev%2Fdoc", resp.Header.Get("Location"))

	resp, _ = env.do(t, http.MethodGet, "/add", "", false)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	resp, _ = env.do(t, http.MethodGet, "/read/7", "", false)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/auth/login"))

	resp, body := env.do(t, http.MethodGet, "/read/7", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "<p>Archived body</p>")
	assert.Contains(t, string(body), "<mark>Archived</mark>")

	resp, _ = env.do(t, http.MethodGet, "/read/8", "", true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/ready", "", false)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.JSONEq(t, `{"status":"degraded","checks":{"postgres":"ok","redis":"unavailable"}}`, string(body))
}
