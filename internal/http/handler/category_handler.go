package handler

import (
	"github.com/gofiber/fiber/v2"
)

// CategoryRequest represents the request body for creating or renaming a category.
type CategoryRequest struct {
	Description string `json:"categoryDescription"`
}

// ListCategories handles GET /api/categories
func (h *APIHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.categories.ListCategories(c.UserContext(), currentUser(c))
	if err != nil {
		return respondError(c, h.logger, err, "Category not found", "Failed to fetch categories")
	}

	resp := make([]CategoryResponse, len(categories))
	for i := range categories {
		resp[i] = toCategoryResponse(&categories[i])
	}
	return c.JSON(resp)
}

// CreateCategory handles POST /api/categories
func (h *APIHandler) CreateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	category, err := h.categories.CreateCategory(c.UserContext(), currentUser(c), req.Description)
	if err != nil {
		return respondError(c, h.logger, err, "Category not found", "Failed to create category")
	}
	return c.Status(fiber.StatusCreated).JSON(toCategoryResponse(category))
}

// GetCategory handles GET /api/categories/:id
func (h *APIHandler) GetCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "", "")
	}

	category, err := h.categories.GetCategory(c.UserContext(), currentUser(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "Category not found", "Failed to fetch category")
	}
	return c.JSON(toCategoryResponse(category))
}

// UpdateCategory handles PUT /api/categories/:id
func (h *APIHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "", "")
	}

	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	category, err := h.categories.UpdateCategory(c.UserContext(), currentUser(c), id, req.Description)
	if err != nil {
		return respondError(c, h.logger, err, "Category not found", "Failed to update category")
	}
	return c.JSON(toCategoryResponse(category))
}

// DeleteCategory handles DELETE /api/categories/:id
func (h *APIHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "", "")
	}

	if err := h.categories.DeleteCategory(c.UserContext(), currentUser(c), id); err != nil {
		return respondError(c, h.logger, err, "Category not found", "Failed to delete category")
	}
	return c.JSON(fiber.Map{"success": true})
}
