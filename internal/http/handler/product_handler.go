package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/harvesthub/harvesthub-api/internal/http/middleware"
	"github.com/harvesthub/harvesthub-api/internal/http/response"
	"github.com/harvesthub/harvesthub-api/internal/observability"
	"github.com/harvesthub/harvesthub-api/internal/repository"
	"github.com/harvesthub/harvesthub-api/internal/service"
)

type ProductHandler struct {
	products *service.ProductService
}

func NewProductHandler(products *service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ProductFilter{
		Search: strings.TrimSpace(q.Get("search")),
		Sort:   q.Get("sort"),
	}
	if raw := q.Get("category"); raw != "" {
		id, err := parsePathID(raw)
		if err != nil {
			response.Error(w, r, http.StatusBadRequest, "Invalid category id")
			return
		}
		filter.CategoryID = id
	}
	if raw := q.Get("min_price"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MinPrice = v
		}
	}
	if raw := q.Get("max_price"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MaxPrice = v
		}
	}

	res, err := h.products.List(r.Context(), parsePageRequest(r), filter)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "Could not load products")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"products":   res.Items,
		"pagination": pageOf(res),
	})
}

func (h *ProductHandler) Featured(w http.ResponseWriter, r *http.Request) {
	items, err := h.products.Featured(r.Context())
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "Could not load products")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"products": items})
}

func (h *ProductHandler) Trending(w http.ResponseWriter, r *http.Request) {
	items, err := h.products.Trending(r.Context())
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "Could not load products")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"products": items})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid product id")
		return
	}
	detail, err := h.products.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			response.Error(w, r, http.StatusNotFound, "Product not found")
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "Could not load product")
		return
	}
	response.JSON(w, r, http.StatusOK, detail)
}

type productBody struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	Price         *float64 `json:"price"`
	OriginalPrice *float64 `json:"original_price"`
	CategoryID    *uint    `json:"category_id"`
	Subcategory   *string  `json:"subcategory"`
	Brand         *string  `json:"brand"`
	Unit          *string  `json:"unit"`
	Stock         *int     `json:"stock"`
	ImageURL      *string  `json:"image_url"`
	IsFeatured    *bool    `json:"is_featured"`
	IsTrending    *bool    `json:"is_trending"`
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	var body productBody
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Name == nil || body.Price == nil || body.CategoryID == nil {
		response.ValidationError(w, r, []string{"Name, price and category are required"})
		return
	}

	in := service.CreateProductInput{
		Name:       *body.Name,
		Price:      *body.Price,
		CategoryID: *body.CategoryID,
	}
	if body.Description != nil {
		in.Description = *body.Description
	}
	if body.OriginalPrice != nil {
		in.OriginalPrice = *body.OriginalPrice
	}
	if body.Subcategory != nil {
		in.Subcategory = *body.Subcategory
	}
	if body.Brand != nil {
		in.Brand = *body.Brand
	}
	if body.Unit != nil {
		in.Unit = *body.Unit
	}
	if body.Stock != nil {
		in.Stock = *body.Stock
	}
	if body.ImageURL != nil {
		in.ImageURL = *body.ImageURL
	}
	if body.IsFeatured != nil {
		in.IsFeatured = *body.IsFeatured
	}
	if body.IsTrending != nil {
		in.IsTrending = *body.IsTrending
	}

	created, err := h.products.Create(r.Context(), user.ID, in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductInvalidName),
			errors.Is(err, service.ErrProductInvalidPrice),
			errors.Is(err, service.ErrProductInvalidStock):
			response.Error(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrCategoryNotFound):
			response.Error(w, r, http.StatusBadRequest, "Category not found")
		default:
			response.Error(w, r, http.StatusInternalServerError, "Could not create product")
		}
		return
	}
	observability.Audit(r, "product.create", "product_id", created.ID, "actor_id", user.ID)
	response.MessageData(w, r, http.StatusCreated, "Product created successfully", map[string]any{"product": created})
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid product id")
		return
	}
	var body productBody
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.products.Update(r.Context(), id, service.UpdateProductInput{
		Name:          body.Name,
		Description:   body.Description,
		Price:         body.Price,
		OriginalPrice: body.OriginalPrice,
		CategoryID:    body.CategoryID,
		Subcategory:   body.Subcategory,
		Brand:         body.Brand,
		Unit:          body.Unit,
		Stock:         body.Stock,
		ImageURL:      body.ImageURL,
		IsFeatured:    body.IsFeatured,
		IsTrending:    body.IsTrending,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			response.Error(w, r, http.StatusNotFound, "Product not found")
		case errors.Is(err, repository.ErrCategoryNotFound):
			response.Error(w, r, http.StatusBadRequest, "Category not found")
		case errors.Is(err, service.ErrProductInvalidName),
			errors.Is(err, service.ErrProductInvalidPrice),
			errors.Is(err, service.ErrProductInvalidStock),
			errors.Is(err, service.ErrProductNoUpdates):
			response.Error(w, r, http.StatusBadRequest, err.Error())
		default:
			response.Error(w, r, http.StatusInternalServerError, "Could not update product")
		}
		return
	}
	response.MessageData(w, r, http.StatusOK, "Product updated successfully", map[string]any{"product": updated})
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid product id")
		return
	}
	if err := h.products.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			response.Error(w, r, http.StatusNotFound, "Product not found")
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "Could not delete product")
		return
	}
	observability.Audit(r, "product.delete", "product_id", id)
	response.Message(w, r, http.StatusOK, "Product deleted successfully")
}

func (h *ProductHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.products.Stats(r.Context())
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "Could not load statistics")
		return
	}
	response.JSON(w, r, http.StatusOK, stats)
}

type reviewBody struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *ProductHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid product id")
		return
	}
	var body reviewBody
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.products.AddReview(r.Context(), user, id, service.ReviewInput{Rating: body.Rating, Comment: body.Comment})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			response.Error(w, r, http.StatusNotFound, "Product not found")
		case errors.Is(err, service.ErrReviewInvalidRating):
			response.Error(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrReviewExists):
			response.Error(w, r, http.StatusBadRequest, "You have already reviewed this product")
		default:
			response.Error(w, r, http.StatusInternalServerError, "Could not add review")
		}
		return
	}
	response.MessageData(w, r, http.StatusCreated, "Review added successfully", map[string]any{"product": product})
}

func (h *ProductHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid product id")
		return
	}
	reviewID, err := parsePathID(chi.URLParam(r, "reviewId"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid review id")
		return
	}
	var body reviewBody
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.products.UpdateReview(r.Context(), user, id, reviewID, service.ReviewInput{Rating: body.Rating, Comment: body.Comment})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReviewNotFound):
			response.Error(w, r, http.StatusNotFound, "Review not found")
		case errors.Is(err, service.ErrReviewInvalidRating):
			response.Error(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrReviewForbidden):
			response.Error(w, r, http.StatusForbidden, "Not authorized to update this review")
		default:
			response.Error(w, r, http.StatusInternalServerError, "Could not update review")
		}
		return
	}
	response.MessageData(w, r, http.StatusOK, "Review updated successfully", map[string]any{"product": product})
}

func (h *ProductHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid product id")
		return
	}
	reviewID, err := parsePathID(chi.URLParam(r, "reviewId"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid review id")
		return
	}

	if err := h.products.DeleteReview(r.Context(), user, id, reviewID); err != nil {
		switch {
		case errors.Is(err, repository.ErrReviewNotFound):
			response.Error(w, r, http.StatusNotFound, "Review not found")
		case errors.Is(err, service.ErrReviewForbidden):
			response.Error(w, r, http.StatusForbidden, "Not authorized to delete this review")
		default:
			response.Error(w, r, http.StatusInternalServerError, "Could not delete review")
		}
		return
	}
	response.Message(w, r, http.StatusOK, "Review deleted successfully")
}
