package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/Linxify/internal/app/webpage"
	"github.com/sifan077/Linxify/internal/infra/prometheus"
	"go.uber.org/zap"
)

// ScrapeRequest represents the request body for a metadata scrape.
type ScrapeRequest struct {
	URL string `json:"url"`
}

// ScrapeResponse carries the metadata used to prefill the add-link form.
type ScrapeResponse struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Favicon     string  `json:"favicon"`
	Image       *string `json:"image"`
}

// Scrape handles POST /api/scrape
func (h *APIHandler) Scrape(c *fiber.Ctx) error {
	var req ScrapeRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		return jsonError(c, fiber.StatusBadRequest, "URL required")
	}

	meta, err := h.scraper.Scrape(c.UserContext(), rawURL)
	if err != nil {
		var statusErr *webpage.StatusError
		switch {
		case errors.Is(err, webpage.ErrInvalidURL):
			prometheus.ScrapeRequests.WithLabelValues("invalid").Inc()
			return jsonError(c, fiber.StatusBadRequest, "URL must be an absolute http or https URL")
		case errors.As(err, &statusErr):
			prometheus.ScrapeRequests.WithLabelValues("upstream_status").Inc()
			return jsonError(c, fiber.StatusBadRequest, "Failed to fetch URL")
		}
		prometheus.ScrapeRequests.WithLabelValues("failed").Inc()
		h.logger.Warn("scrape failed", zap.String("url", rawURL), zap.Error(err))
		return jsonError(c, fiber.StatusInternalServerError, "Scraping failed")
	}

	prometheus.ScrapeRequests.WithLabelValues("ok").Inc()
	return c.JSON(ScrapeResponse{
		Title:       meta.Title,
		Description: meta.Description,
		Favicon:     meta.Favicon,
		Image:       meta.Image,
	})
}
