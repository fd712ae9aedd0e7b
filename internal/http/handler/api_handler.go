package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/Linxify/internal/app/service"
	"github.com/sifan077/Linxify/internal/app/webpage"
	"github.com/sifan077/Linxify/internal/http/middleware"
	"go.uber.org/zap"
)

// MetadataScraper fetches preview metadata for a URL.
type MetadataScraper interface {
	Scrape(ctx context.Context, rawURL string) (*webpage.Metadata, error)
}

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger           *zap.Logger
	LinkService      service.LinkService
	CategoryService  service.CategoryService
	HighlightService service.HighlightService
	Scraper          MetadataScraper
}

// APIHandler implements the bookmark management API endpoints.
type APIHandler struct {
	logger     *zap.Logger
	links      service.LinkService
	categories service.CategoryService
	highlights service.HighlightService
	scraper    MetadataScraper
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:     logger,
		links:      deps.LinkService,
		categories: deps.CategoryService,
		highlights: deps.HighlightService,
		scraper:    deps.Scraper,
	}
}

// Register wires API routes onto the provided router. Every route requires a
// session; limited additionally guards the outbound scrape endpoint.
func (h *APIHandler) Register(router fiber.Router, limited fiber.Handler) {
	api := router.Group("/api", middleware.RequireSession())
	{
		links := api.Group("/links")
		{
			links.Get("/", h.ListLinks)
			links.Post("/", h.CreateLink)
			links.Get("/:id", h.GetLink)
			links.Put("/:id", h.UpdateLink)
			links.Patch("/:id", h.UpdateLink)
			links.Delete("/:id", h.DeleteLink)
			links.Get("/:id/snapshot", h.GetSnapshot)
		}

		categories := api.Group("/categories")
		{
			categories.Get("/", h.ListCategories)
			categories.Post("/", h.CreateCategory)
			categories.Get("/:id", h.GetCategory)
			categories.Put("/:id", h.UpdateCategory)
			categories.Delete("/:id", h.DeleteCategory)
		}

		highlights := api.Group("/highlights")
		{
			highlights.Get("/", h.ListHighlights)
			highlights.Post("/", h.CreateHighlight)
			highlights.Get("/:id", h.GetHighlight)
			highlights.Put("/:id", h.UpdateHighlight)
			highlights.Delete("/:id", h.DeleteHighlight)
		}

		api.Post("/scrape", limited, h.Scrape)
	}
}
