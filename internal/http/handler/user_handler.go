package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/harvesthub/harvesthub-api/internal/domain"
	"github.com/harvesthub/harvesthub-api/internal/http/middleware"
	"github.com/harvesthub/harvesthub-api/internal/http/response"
	"github.com/harvesthub/harvesthub-api/internal/observability"
	"github.com/harvesthub/harvesthub-api/internal/repository"
	"github.com/harvesthub/harvesthub-api/internal/service"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.UserFilter{
		Role:   q.Get("role"),
		Search: strings.TrimSpace(q.Get("search")),
	}
	if raw := q.Get("is_active"); raw != "" {
		active := raw == "true"
		filter.IsActive = &active
	}

	res, err := h.users.List(r.Context(), parsePageRequest(r), filter)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "Could not load users")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"users":      res.Items,
		"pagination": pageOf(res),
	})
}

// Get serves a single user. Shoppers may only read their own record;
// admins may read anyone's.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid user id")
		return
	}
	if actor.Role != domain.RoleAdmin && actor.ID != id {
		response.Error(w, r, http.StatusForbidden, "Not authorized to access this route")
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.Error(w, r, http.StatusNotFound, "User not found")
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "Could not load user")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"user": user})
}

func (h *UserHandler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid user id")
		return
	}
	var body struct {
		Role          *string `json:"role"`
		IsActive      *bool   `json:"is_active"`
		EmailVerified *bool   `json:"email_verified"`
	}
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.users.AdminUpdate(r.Context(), actor.ID, id, service.AdminUserUpdate{
		Role:          body.Role,
		IsActive:      body.IsActive,
		EmailVerified: body.EmailVerified,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			response.Error(w, r, http.StatusNotFound, "User not found")
		case errors.Is(err, service.ErrInvalidRole):
			response.Error(w, r, http.StatusBadRequest, "Invalid role")
		case errors.Is(err, service.ErrSelfDeactivate):
			response.Error(w, r, http.StatusBadRequest, "You cannot deactivate your own account")
		default:
			response.Error(w, r, http.StatusInternalServerError, "Could not update user")
		}
		return
	}
	observability.Audit(r, "user.admin_update", "target_id", id, "actor_id", actor.ID)
	response.MessageData(w, r, http.StatusOK, "User updated successfully", map[string]any{"user": updated})
}

// Deactivate is the admin "delete": the account row stays, is_active flips off.
func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid user id")
		return
	}
	if err := h.users.Deactivate(r.Context(), actor.ID, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			response.Error(w, r, http.StatusNotFound, "User not found")
		case errors.Is(err, service.ErrSelfDeactivate):
			response.Error(w, r, http.StatusBadRequest, "You cannot deactivate your own account")
		default:
			response.Error(w, r, http.StatusInternalServerError, "Could not deactivate user")
		}
		return
	}
	observability.Audit(r, "user.deactivate", "target_id", id, "actor_id", actor.ID)
	response.Message(w, r, http.StatusOK, "User deactivated successfully")
}

type addressBody struct {
	Type      string `json:"type"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Pincode   string `json:"pincode"`
	IsDefault bool   `json:"is_default"`
}

func (b addressBody) input() service.AddressInput {
	return service.AddressInput{
		Type:      b.Type,
		Street:    b.Street,
		City:      b.City,
		State:     b.State,
		Pincode:   b.Pincode,
		IsDefault: b.IsDefault,
	}
}

func addressErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrAddressNotFound):
		return http.StatusNotFound, "Address not found"
	case errors.Is(err, service.ErrAddressIncomplete):
		return http.StatusBadRequest, "Street, city, state and pincode are required"
	case errors.Is(err, service.ErrInvalidPincode):
		return http.StatusBadRequest, "Pincode must be a 6-digit number"
	case errors.Is(err, service.ErrNotOwner):
		return http.StatusForbidden, "Not authorized to modify this address"
	case errors.Is(err, service.ErrLastAddress):
		return http.StatusBadRequest, "Cannot delete the only saved address"
	default:
		return 0, ""
	}
}

func (h *UserHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	ownerID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid user id")
		return
	}
	if actor.Role != domain.RoleAdmin && actor.ID != ownerID {
		response.Error(w, r, http.StatusForbidden, "Not authorized to modify this address")
		return
	}
	var body addressBody
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.AddAddress(r.Context(), ownerID, body.input())
	if err != nil {
		if status, msg := addressErrorStatus(err); status != 0 {
			response.Error(w, r, status, msg)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "Could not add address")
		return
	}
	response.MessageData(w, r, http.StatusCreated, "Address added successfully", map[string]any{"addresses": user.Addresses})
}

func (h *UserHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	if _, err := parsePathID(chi.URLParam(r, "id")); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid user id")
		return
	}
	id, err := parsePathID(chi.URLParam(r, "addressId"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid address id")
		return
	}
	var body addressBody
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.UpdateAddress(r.Context(), actor, id, body.input())
	if err != nil {
		if status, msg := addressErrorStatus(err); status != 0 {
			response.Error(w, r, status, msg)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "Could not update address")
		return
	}
	response.MessageData(w, r, http.StatusOK, "Address updated successfully", map[string]any{"addresses": user.Addresses})
}

func (h *UserHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	if _, err := parsePathID(chi.URLParam(r, "id")); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid user id")
		return
	}
	id, err := parsePathID(chi.URLParam(r, "addressId"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid address id")
		return
	}

	user, err := h.users.DeleteAddress(r.Context(), actor, id)
	if err != nil {
		if status, msg := addressErrorStatus(err); status != 0 {
			response.Error(w, r, status, msg)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "Could not delete address")
		return
	}
	response.MessageData(w, r, http.StatusOK, "Address deleted successfully", map[string]any{"addresses": user.Addresses})
}

type cartBody struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

func cartErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		return http.StatusNotFound, "Product not found"
	case errors.Is(err, service.ErrInvalidQuantity):
		return http.StatusBadRequest, "Quantity must be at least 1"
	case errors.Is(err, service.ErrOutOfStock):
		return http.StatusBadRequest, "Insufficient stock available"
	case errors.Is(err, service.ErrCartItemNotFound):
		return http.StatusNotFound, "Item not found in cart"
	default:
		return 0, ""
	}
}

func (h *UserHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	var body cartBody
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.AddToCart(r.Context(), actor.ID, body.ProductID, body.Quantity)
	if err != nil {
		if status, msg := cartErrorStatus(err); status != 0 {
			response.Error(w, r, status, msg)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "Could not update cart")
		return
	}
	response.MessageData(w, r, http.StatusOK, "Item added to cart", map[string]any{"cart": user.Cart})
}

func (h *UserHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	productID, err := parsePathID(chi.URLParam(r, "productId"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid product id")
		return
	}
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.UpdateCartItem(r.Context(), actor.ID, productID, body.Quantity)
	if err != nil {
		if status, msg := cartErrorStatus(err); status != 0 {
			response.Error(w, r, status, msg)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "Could not update cart")
		return
	}
	response.MessageData(w, r, http.StatusOK, "Cart updated", map[string]any{"cart": user.Cart})
}

func (h *UserHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	productID, err := parsePathID(chi.URLParam(r, "productId"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid product id")
		return
	}

	user, err := h.users.RemoveCartItem(r.Context(), actor.ID, productID)
	if err != nil {
		if status, msg := cartErrorStatus(err); status != 0 {
			response.Error(w, r, status, msg)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "Could not update cart")
		return
	}
	response.MessageData(w, r, http.StatusOK, "Item removed from cart", map[string]any{"cart": user.Cart})
}

func (h *UserHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	if err := h.users.ClearCart(r.Context(), actor.ID); err != nil {
		response.Error(w, r, http.StatusInternalServerError, "Could not clear cart")
		return
	}
	response.Message(w, r, http.StatusOK, "Cart cleared")
}

func (h *UserHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	var body struct {
		ProductID uint `json:"product_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.AddToWishlist(r.Context(), actor.ID, body.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			response.Error(w, r, http.StatusNotFound, "Product not found")
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "Could not update wishlist")
		return
	}
	response.MessageData(w, r, http.StatusOK, "Item added to wishlist", map[string]any{"wishlist": user.Wishlist})
}

func (h *UserHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	productID, err := parsePathID(chi.URLParam(r, "productId"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid product id")
		return
	}

	user, err := h.users.RemoveFromWishlist(r.Context(), actor.ID, productID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "Could not update wishlist")
		return
	}
	response.MessageData(w, r, http.StatusOK, "Item removed from wishlist", map[string]any{"wishlist": user.Wishlist})
}
