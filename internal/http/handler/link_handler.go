package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/Linxify/internal/app/service"
	"go.uber.org/zap"
)

// CreateLinkRequest represents the request body for creating a link.
type CreateLinkRequest struct {
	URL         string   `json:"url"`
	Title       string   `json:"linkTitle"`
	Description string   `json:"linkDescription"`
	Tags        []string `json:"tags"`
	CategoryIDs []uint   `json:"categoryIds"`
	FaviconURL  *string  `json:"faviconUrl"`
	ImageURL    *string  `json:"imageUrl"`
}

// UpdateLinkRequest represents the request body for updating a link.
// Omitted fields keep their current value.
type UpdateLinkRequest struct {
	URL         *string   `json:"url"`
	Title       *string   `json:"linkTitle"`
	Description *string   `json:"linkDescription"`
	Tags        *[]string `json:"tags"`
	CategoryIDs *[]uint   `json:"categoryIds"`
	FaviconURL  *string   `json:"faviconUrl"`
	ImageURL    *string   `json:"imageUrl"`
}

// ListLinksResponse is one page of links.
type ListLinksResponse struct {
	Links    []LinkResponse `json:"links"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// ListLinks handles GET /api/links
func (h *APIHandler) ListLinks(c *fiber.Ctx) error {
	query := service.ListLinksQuery{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("pageSize", service.DefaultPageSize),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
	}

	if raw := c.Query("categoryId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return jsonError(c, fiber.StatusBadRequest, "Invalid categoryId")
		}
		categoryID := uint(id)
		query.CategoryID = &categoryID
	}

	for _, tag := range c.Context().QueryArgs().PeekMulti("tag") {
		query.Tags = append(query.Tags, string(tag))
	}

	page, err := h.links.ListLinks(c.UserContext(), currentUser(c), query)
	if err != nil {
		return respondError(c, h.logger, err, "Link not found", "Failed to list links")
	}

	links := make([]LinkResponse, len(page.Links))
	for i := range page.Links {
		links[i] = toLinkResponse(&page.Links[i])
	}

	return c.JSON(ListLinksResponse{
		Links:    links,
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
}

// CreateLink handles POST /api/links
func (h *APIHandler) CreateLink(c *fiber.Ctx) error {
	var req CreateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	link, err := h.links.CreateLink(c.UserContext(), currentUser(c), service.CreateLinkInput{
		URL:         req.URL,
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		CategoryIDs: req.CategoryIDs,
		FaviconURL:  req.FaviconURL,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return respondError(c, h.logger, err, "Category not found", "Failed to create link")
	}

	h.logger.Debug("link created", zap.Uint("link_id", link.ID), zap.Uint("user_id", link.UserID))
	return c.Status(fiber.StatusCreated).JSON(toLinkResponse(link))
}

// GetLink handles GET /api/links/:id
func (h *APIHandler) GetLink(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "", "")
	}

	link, err := h.links.GetLink(c.UserContext(), currentUser(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "Link not found", "Failed to fetch link")
	}
	return c.JSON(toLinkResponse(link))
}

// UpdateLink handles PUT /api/links/:id
func (h *APIHandler) UpdateLink(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "", "")
	}

	var req UpdateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	link, err := h.links.UpdateLink(c.UserContext(), currentUser(c), id, service.UpdateLinkInput{
		URL:         req.URL,
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		CategoryIDs: req.CategoryIDs,
		FaviconURL:  req.FaviconURL,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return respondError(c, h.logger, err, "Link not found", "Failed to update link")
	}
	return c.JSON(toLinkResponse(link))
}

// DeleteLink handles DELETE /api/links/:id
func (h *APIHandler) DeleteLink(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "", "")
	}

	if err := h.links.DeleteLink(c.UserContext(), currentUser(c), id); err != nil {
		return respondError(c, h.logger, err, "Link not found", "Failed to delete link")
	}
	return c.JSON(fiber.Map{"success": true})
}

// GetSnapshot handles GET /api/links/:id/snapshot
func (h *APIHandler) GetSnapshot(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "", "")
	}

	data, contentType, err := h.links.Snapshot(c.UserContext(), currentUser(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "Snapshot not found", "Failed to fetch snapshot")
	}

	if contentType == "" {
		contentType = fiber.MIMETextHTMLCharsetUTF8
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentSecurityPolicy, "sandbox")
	return c.Send(data)
}
