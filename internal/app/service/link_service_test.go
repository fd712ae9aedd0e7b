package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sifan077/Linxify/internal/app/model"
	"github.com/sifan077/Linxify/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestLinkService_CreateLink(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			if link.UserID != 7 {
				t.Fatalf("expected owner 7, got %d", link.UserID)
			}
			link.ID = 42
			return nil
		},
	}

	svc := NewLinkService(LinkDeps{Links: repo, Categories: &mockCategoryRepository{}, Archiver: dispatcher})
	link, err := svc.CreateLink(context.Background(), 7, CreateLinkInput{
		URL:        " https://example.com/post ",
		Title:      " Post ",
		Tags:       []string{"go", " go ", "", "web"},
		FaviconURL: strPtr("  "),
	})
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/post", link.URL)
	assert.Equal(t, "Post", link.Title)
	assert.Equal(t, []string{"go", "web"}, link.Tags)
	assert.Nil(t, link.FaviconURL)
	assert.Equal(t, []model.ArchiveJob{{LinkID: 42, URL: "https://example.com/post"}}, dispatcher.jobs)
}

func TestLinkService_CreateLink_Validation(t *testing.T) {
	svc := NewLinkService(LinkDeps{Links: &mockLinkRepository{}, Categories: &mockCategoryRepository{}})

	cases := []CreateLinkInput{
		{URL: "", Title: "x"},
		{URL: "https://example.com", Title: "  "},
		{URL: "ftp://example.com", Title: "x"},
		{URL: "/relative", Title: "x"},
	}
	for _, input := range cases {
		_, err := svc.CreateLink(context.Background(), 1, input)
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr), "input %+v: expected validation error, got %v", input, err)
	}
}

func TestLinkService_CreateLink_ForeignCategory(t *testing.T) {
	created := false
	categories := &mockCategoryRepository{
		findOwnedFn: func(ctx context.Context, userID uint, ids []uint) ([]model.Category, error) {
			return []model.Category{{ID: 1, UserID: userID}}, nil
		},
	}
	links := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			created = true
			return nil
		},
	}

	svc := NewLinkService(LinkDeps{Links: links, Categories: categories})
	_, err := svc.CreateLink(context.Background(), 1, CreateLinkInput{
		URL:         "https://example.com",
		Title:       "Example",
		CategoryIDs: []uint{1, 2, 2},
	})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.False(t, created)
}

func TestLinkService_GetLink_NotFound(t *testing.T) {
	svc := NewLinkService(LinkDeps{Links: &mockLinkRepository{}})
	_, err := svc.GetLink(context.Background(), 1, 99)
	if !errors.Is(err, repository.ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
	assert.True(t, IsNotFound(err))
}

func TestLinkService_ListLinks(t *testing.T) {
	var got model.LinkFilter
	repo := &mockLinkRepository{
		listFn: func(ctx context.Context, filter model.LinkFilter) ([]model.Link, int64, error) {
			got = filter
			return []model.Link{{ID: 1}, {ID: 2}}, 20, nil
		},
	}
	svc := NewLinkService(LinkDeps{Links: repo})

	page, err := svc.ListLinks(context.Background(), 3, ListLinksQuery{
		Page:   2,
		Search: "  golang ",
		Tags:   []string{"a", "a"},
		Sort:   "bogus",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, page.Page)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	assert.Equal(t, int64(20), page.Total)
	assert.Len(t, page.Links, 2)

	assert.Equal(t, uint(3), got.UserID)
	assert.Equal(t, DefaultPageSize, got.Limit)
	assert.Equal(t, DefaultPageSize, got.Offset)
	assert.Equal(t, "golang", got.Search)
	assert.Equal(t, []string{"a"}, got.Tags)
	assert.Equal(t, model.SortNewest, got.Sort)
}

func TestLinkService_ListLinks_ClampsPageSize(t *testing.T) {
	var got model.LinkFilter
	repo := &mockLinkRepository{
		listFn: func(ctx context.Context, filter model.LinkFilter) ([]model.Link, int64, error) {
			got = filter
			return nil, 0, nil
		},
	}
	svc := NewLinkService(LinkDeps{Links: repo})

	page, err := svc.ListLinks(context.Background(), 1, ListLinksQuery{Page: -3, PageSize: 5000, Sort: model.SortAZ})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, MaxPageSize, page.PageSize)
	assert.Equal(t, 0, got.Offset)
	assert.Equal(t, model.SortAZ, got.Sort)
}

func TestLinkService_UpdateLink(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	snapshots := newMemorySnapshots()
	oldKey := "links/5/old.html"
	snapshots.objects[oldKey] = []byte("<html>")
	content := "<p>old</p>"

	repo := &mockLinkRepository{
		getFn: func(ctx context.Context, userID, id uint) (*model.Link, error) {
			return &model.Link{
				ID:              id,
				UserID:          userID,
				URL:             "https://old.example.com",
				Title:           "Old",
				Description:     "keep me",
				ArchivedContent: &content,
				SnapshotKey:     &oldKey,
			}, nil
		},
		updateFn: func(ctx context.Context, link *model.Link, clearArchive bool) (*string, error) {
			if link.URL != "https://new.example.com" {
				t.Fatalf("expected updated URL, got %s", link.URL)
			}
			if !clearArchive {
				t.Fatalf("expected archive to be cleared on url change")
			}
			cleared := link.SnapshotKey
			link.ArchivedContent = nil
			link.SnapshotKey = nil
			return cleared, nil
		},
	}

	svc := NewLinkService(LinkDeps{Links: repo, Archiver: dispatcher, Snapshots: snapshots})
	link, err := svc.UpdateLink(context.Background(), 1, 5, UpdateLinkInput{
		URL:  strPtr("https://new.example.com"),
		Tags: &[]string{"x"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Old", link.Title)
	assert.Equal(t, "keep me", link.Description)
	assert.Equal(t, []string{"x"}, link.Tags)
	assert.Nil(t, link.ArchivedContent)
	assert.Len(t, dispatcher.jobs, 1)
	assert.Equal(t, []string{oldKey}, snapshots.removed)
}

func TestLinkService_UpdateLink_SameURLKeepsArchive(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	content := "<p>kept</p>"
	repo := &mockLinkRepository{
		getFn: func(ctx context.Context, userID, id uint) (*model.Link, error) {
			return &model.Link{ID: id, UserID: userID, URL: "https://example.com", Title: "T", ArchivedContent: &content}, nil
		},
		updateFn: func(ctx context.Context, link *model.Link, clearArchive bool) (*string, error) {
			assert.False(t, clearArchive)
			return nil, nil
		},
	}

	svc := NewLinkService(LinkDeps{Links: repo, Archiver: dispatcher})
	link, err := svc.UpdateLink(context.Background(), 1, 5, UpdateLinkInput{
		URL:   strPtr("https://example.com"),
		Title: strPtr("New title"),
	})
	require.NoError(t, err)
	assert.Equal(t, "New title", link.Title)
	assert.Equal(t, &content, link.ArchivedContent)
	assert.Empty(t, dispatcher.jobs)
}

func TestLinkService_UpdateLink_EmptyTitle(t *testing.T) {
	repo := &mockLinkRepository{
		getFn: func(ctx context.Context, userID, id uint) (*model.Link, error) {
			return &model.Link{ID: id, UserID: userID, URL: "https://example.com", Title: "T"}, nil
		},
		updateFn: func(ctx context.Context, link *model.Link, clearArchive bool) (*string, error) {
			t.Fatal("update must not run")
			return nil, nil
		},
	}
	svc := NewLinkService(LinkDeps{Links: repo})
	_, err := svc.UpdateLink(context.Background(), 1, 5, UpdateLinkInput{Title: strPtr(" ")})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestLinkService_DeleteLink_RemovesSnapshot(t *testing.T) {
	key := "links/3/job.html"
	snapshots := newMemorySnapshots()
	snapshots.objects[key] = []byte("<html>")
	repo := &mockLinkRepository{
		deleteFn: func(ctx context.Context, userID, id uint) (*model.Link, error) {
			return &model.Link{ID: id, UserID: userID, SnapshotKey: &key}, nil
		},
	}

	svc := NewLinkService(LinkDeps{Links: repo, Snapshots: snapshots})
	require.NoError(t, svc.DeleteLink(context.Background(), 1, 3))
	assert.Equal(t, []string{key}, snapshots.removed)
}

func TestLinkService_Snapshot(t *testing.T) {
	key := "links/3/job.html"
	snapshots := newMemorySnapshots()
	snapshots.objects[key] = []byte("<html>raw</html>")
	repo := &mockLinkRepository{
		getFn: func(ctx context.Context, userID, id uint) (*model.Link, error) {
			if id == 3 {
				return &model.Link{ID: 3, SnapshotKey: &key}, nil
			}
			return &model.Link{ID: id}, nil
		},
	}

	svc := NewLinkService(LinkDeps{Links: repo, Snapshots: snapshots})
	data, contentType, err := svc.Snapshot(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, "<html>raw</html>", string(data))
	assert.Contains(t, contentType, "text/html")

	_, _, err = svc.Snapshot(context.Background(), 1, 4)
	assert.ErrorIs(t, err, ErrSnapshotUnavailable)

	noStore := NewLinkService(LinkDeps{Links: repo})
	_, _, err = noStore.Snapshot(context.Background(), 1, 3)
	assert.ErrorIs(t, err, ErrSnapshotUnavailable)
}
