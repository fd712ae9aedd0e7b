package handler

import (
	"context"
	"html/template"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/Linxify/internal/app/service"
	"github.com/sifan077/Linxify/internal/http/middleware"
	"github.com/sifan077/Linxify/internal/http/view"
	"go.uber.org/zap"
)

const readyTimeout = 2 * time.Second

// ReadyCheck is a named dependency probe used by /ready.
type ReadyCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// PageDeps groups dependencies required by page handlers.
type PageDeps struct {
	Logger           *zap.Logger
	LinkService      service.LinkService
	HighlightService service.HighlightService
	ReadyChecks      []ReadyCheck
}

// PageHandler serves health probes and the server-rendered pages.
type PageHandler struct {
	logger     *zap.Logger
	links      service.LinkService
	highlights service.HighlightService
	checks     []ReadyCheck
}

// NewPageHandler creates a page handler with the provided dependencies.
func NewPageHandler(deps PageDeps) *PageHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageHandler{
		logger:     logger,
		links:      deps.LinkService,
		highlights: deps.HighlightService,
		checks:     deps.ReadyChecks,
	}
}

// Register wires page routes onto the provided router.
func (h *PageHandler) Register(router fiber.Router) {
	router.Get("/", h.Health)
	router.Get("/health", h.Health)
	router.Get("/ready", h.Ready)
	router.Get("/add", h.Add)
	router.Get("/read/:id", h.Read)
}

// Health is a simple root endpoint so we know the service is running.
func (h *PageHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "Linxify",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready pings every backing service.
func (h *PageHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
	defer cancel()

	status := fiber.StatusOK
	results := make(fiber.Map, len(h.checks))
	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			h.logger.Warn("readiness check failed", zap.String("check", check.Name), zap.Error(err))
			results[check.Name] = "unavailable"
			status = fiber.StatusServiceUnavailable
			continue
		}
		results[check.Name] = "ok"
	}

	state := "ready"
	if status != fiber.StatusOK {
		state = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status": state,
		"checks": results,
	})
}

// Add handles GET /add?url= and forwards into the dashboard's add-link form.
func (h *PageHandler) Add(c *fiber.Ctx) error {
	target := "/dashboard"
	if raw := c.Query("url"); raw != "" {
		target += "?addUrl=" + url.QueryEscape(raw)
	}
	return c.Redirect(target, fiber.StatusFound)
}

// Read handles GET /read/:id and renders the archived article.
func (h *PageHandler) Read(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Redirect("/auth/login?callbackUrl="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
	}

	id, err := paramID(c, "id")
	if err != nil {
		return h.renderMessage(c, fiber.StatusNotFound, "Link not found.")
	}

	ctx := c.UserContext()
	link, err := h.links.GetLink(ctx, userID, id)
	if err != nil {
		if service.IsNotFound(err) {
			return h.renderMessage(c, fiber.StatusNotFound, "Link not found.")
		}
		h.logger.Error("failed to load link for reader", zap.Uint("link_id", id), zap.Error(err))
		return h.renderMessage(c, fiber.StatusInternalServerError, "Failed to load link.")
	}

	data := view.ReaderPageData{
		Title: link.Title,
		URL:   link.URL,
	}
	if link.ArchivedContent != nil && *link.ArchivedContent != "" {
		data.HasArchive = true
		data.Content = view.SafeHTML(*link.ArchivedContent)
	}

	highlights, err := h.highlights.ListHighlights(ctx, userID, link.ID)
	if err != nil {
		h.logger.Warn("failed to load highlights for reader", zap.Uint("link_id", link.ID), zap.Error(err))
	}
	for i := range highlights {
		rendered := toHighlightResponse(&highlights[i], h.logger)
		data.Highlights = append(data.Highlights, view.ReaderHighlight{
			Text:     rendered.Text,
			NoteHTML: template.HTML(rendered.NoteHTML),
		})
	}

	html, err := view.RenderReaderPage(data)
	if err != nil {
		h.logger.Error("failed to render reader page", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to render page",
		})
	}

	return c.
		Type("html", "utf-8").
		SendString(html)
}

func (h *PageHandler) renderMessage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).
		Type("html", "utf-8").
		SendString("<!DOCTYPE html><html><body><p style=\"text-align:center;margin-top:3rem\">" +
			template.HTMLEscapeString(message) + "</p></body></html>")
}
