package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/Linxify/internal/app/service"
)

// CreateHighlightRequest represents the request body for creating a highlight.
type CreateHighlightRequest struct {
	LinkID uint    `json:"linkId"`
	Text   string  `json:"text"`
	Note   *string `json:"note"`
}

// UpdateHighlightRequest represents the request body for editing a note.
type UpdateHighlightRequest struct {
	Note *string `json:"note"`
}

// ListHighlights handles GET /api/highlights?linkId=
func (h *APIHandler) ListHighlights(c *fiber.Ctx) error {
	linkID, err := strconv.ParseUint(c.Query("linkId"), 10, 64)
	if err != nil || linkID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "Link ID required")
	}

	highlights, err := h.highlights.ListHighlights(c.UserContext(), currentUser(c), uint(linkID))
	if err != nil {
		return respondError(c, h.logger, err, "Link not found", "Failed to fetch highlights")
	}

	resp := make([]HighlightResponse, len(highlights))
	for i := range highlights {
		resp[i] = toHighlightResponse(&highlights[i], h.logger)
	}
	return c.JSON(resp)
}

// CreateHighlight handles POST /api/highlights
func (h *APIHandler) CreateHighlight(c *fiber.Ctx) error {
	var req CreateHighlightRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	highlight, err := h.highlights.CreateHighlight(c.UserContext(), currentUser(c), service.CreateHighlightInput{
		LinkID: req.LinkID,
		Text:   req.Text,
		Note:   req.Note,
	})
	if err != nil {
		return respondError(c, h.logger, err, "Link not found", "Failed to create highlight")
	}
	return c.Status(fiber.StatusCreated).JSON(toHighlightResponse(highlight, h.logger))
}

// GetHighlight handles GET /api/highlights/:id
func (h *APIHandler) GetHighlight(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "", "")
	}

	highlight, err := h.highlights.GetHighlight(c.UserContext(), currentUser(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "Highlight not found", "Failed to fetch highlight")
	}
	return c.JSON(toHighlightResponse(highlight, h.logger))
}

// UpdateHighlight handles PUT /api/highlights/:id
func (h *APIHandler) UpdateHighlight(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "", "")
	}

	var req UpdateHighlightRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	highlight, err := h.highlights.UpdateNote(c.UserContext(), currentUser(c), id, req.Note)
	if err != nil {
		return respondError(c, h.logger, err, "Highlight not found", "Failed to update highlight")
	}
	return c.JSON(toHighlightResponse(highlight, h.logger))
}

// DeleteHighlight handles DELETE /api/highlights/:id
func (h *APIHandler) DeleteHighlight(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "", "")
	}

	if err := h.highlights.DeleteHighlight(c.UserContext(), currentUser(c), id); err != nil {
		return respondError(c, h.logger, err, "Highlight not found", "Failed to delete highlight")
	}
	return c.JSON(fiber.Map{"success": true})
}
