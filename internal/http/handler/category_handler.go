package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harvesthub/harvesthub-api/internal/http/response"
	"github.com/harvesthub/harvesthub-api/internal/observability"
	"github.com/harvesthub/harvesthub-api/internal/repository"
	"github.com/harvesthub/harvesthub-api/internal/service"
)

type CategoryHandler struct {
	categories *service.CategoryService
}

func NewCategoryHandler(categories *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.categories.ListActive(r.Context())
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "Could not load categories")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"categories": items})
}

func (h *CategoryHandler) Main(w http.ResponseWriter, r *http.Request) {
	items, err := h.categories.Main(r.Context())
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "Could not load categories")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"categories": items})
}

func (h *CategoryHandler) Subcategories(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid category id")
		return
	}
	items, err := h.categories.Subcategories(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			response.Error(w, r, http.StatusNotFound, "Category not found")
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "Could not load subcategories")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"subcategories": items})
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid category id")
		return
	}
	detail, err := h.categories.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			response.Error(w, r, http.StatusNotFound, "Category not found")
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "Could not load category")
		return
	}
	response.JSON(w, r, http.StatusOK, detail)
}

func (h *CategoryHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	detail, err := h.categories.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			response.Error(w, r, http.StatusNotFound, "Category not found")
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "Could not load category")
		return
	}
	response.JSON(w, r, http.StatusOK, detail)
}

type categoryBody struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	Image           *string `json:"image"`
	Icon            *string `json:"icon"`
	ParentID        *uint   `json:"parent_id"`
	DisplayOrder    *int    `json:"display_order"`
	IsFeatured      *bool   `json:"is_featured"`
	IsActive        *bool   `json:"is_active"`
	MetaTitle       *string `json:"meta_title"`
	MetaDescription *string `json:"meta_description"`
}

func categoryErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrCategoryNotFound):
		return http.StatusNotFound, "Category not found"
	case errors.Is(err, service.ErrCategoryInvalidName):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrCategorySlugTaken):
		return http.StatusBadRequest, "Category with this name already exists"
	case errors.Is(err, service.ErrCategoryParentMissing):
		return http.StatusBadRequest, "Parent category not found"
	case errors.Is(err, service.ErrCategorySelfParent),
		errors.Is(err, service.ErrCategoryCycle):
		return http.StatusBadRequest, "Category cannot be its own parent"
	default:
		return 0, ""
	}
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body categoryBody
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Name == nil {
		response.ValidationError(w, r, []string{"Name is required"})
		return
	}

	in := service.CreateCategoryInput{
		Name:     *body.Name,
		ParentID: body.ParentID,
	}
	if body.Description != nil {
		in.Description = *body.Description
	}
	if body.Image != nil {
		in.Image = *body.Image
	}
	if body.Icon != nil {
		in.Icon = *body.Icon
	}
	if body.DisplayOrder != nil {
		in.DisplayOrder = *body.DisplayOrder
	}
	if body.IsFeatured != nil {
		in.IsFeatured = *body.IsFeatured
	}
	if body.MetaTitle != nil {
		in.MetaTitle = *body.MetaTitle
	}
	if body.MetaDescription != nil {
		in.MetaDescription = *body.MetaDescription
	}

	created, err := h.categories.Create(r.Context(), in)
	if err != nil {
		if status, msg := categoryErrorStatus(err); status != 0 {
			response.Error(w, r, status, msg)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "Could not create category")
		return
	}
	observability.Audit(r, "category.create", "category_id", created.ID)
	response.MessageData(w, r, http.StatusCreated, "Category created successfully", map[string]any{"category": created})
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid category id")
		return
	}
	var body categoryBody
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.categories.Update(r.Context(), id, service.UpdateCategoryInput{
		Name:            body.Name,
		Description:     body.Description,
		Image:           body.Image,
		Icon:            body.Icon,
		ParentID:        body.ParentID,
		DisplayOrder:    body.DisplayOrder,
		IsFeatured:      body.IsFeatured,
		IsActive:        body.IsActive,
		MetaTitle:       body.MetaTitle,
		MetaDescription: body.MetaDescription,
	})
	if err != nil {
		if status, msg := categoryErrorStatus(err); status != 0 {
			response.Error(w, r, status, msg)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "Could not update category")
		return
	}
	response.MessageData(w, r, http.StatusOK, "Category updated successfully", map[string]any{"category": updated})
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid category id")
		return
	}
	if err := h.categories.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrCategoryNotFound):
			response.Error(w, r, http.StatusNotFound, "Category not found")
		case errors.Is(err, service.ErrCategoryHasChildren):
			response.Error(w, r, http.StatusBadRequest, "Cannot delete category with subcategories")
		case errors.Is(err, service.ErrCategoryHasProducts):
			response.Error(w, r, http.StatusBadRequest, "Cannot delete category with products")
		default:
			response.Error(w, r, http.StatusInternalServerError, "Could not delete category")
		}
		return
	}
	observability.Audit(r, "category.delete", "category_id", id)
	response.Message(w, r, http.StatusOK, "Category deleted successfully")
}

func (h *CategoryHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CategoryIDs []uint `json:"category_ids"`
	}
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(body.CategoryIDs) == 0 {
		response.ValidationError(w, r, []string{"category_ids is required"})
		return
	}
	if err := h.categories.Reorder(r.Context(), body.CategoryIDs); err != nil {
		response.Error(w, r, http.StatusInternalServerError, "Could not reorder categories")
		return
	}
	response.Message(w, r, http.StatusOK, "Categories reordered successfully")
}

func (h *CategoryHandler) Tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.categories.Tree(r.Context())
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "Could not load category tree")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"tree": tree})
}

func (h *CategoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.categories.Stats(r.Context())
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "Could not load statistics")
		return
	}
	response.JSON(w, r, http.StatusOK, stats)
}
