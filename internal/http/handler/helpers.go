package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/harvesthub/harvesthub-api/internal/domain"
	"github.com/harvesthub/harvesthub-api/internal/repository"
)

func parsePathID(raw string) (uint, error) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(n), nil
}

// parsePageRequest reads ?page and ?limit. Out-of-range values are clamped
// by the repository layer.
func parsePageRequest(r *http.Request) repository.PageRequest {
	req := repository.PageRequest{}
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			req.Page = v
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			req.PageSize = v
		}
	}
	return req
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

type pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func pageOf[T any](res repository.PageResult[T]) pagination {
	return pagination{Page: res.Page, Limit: res.PageSize, Total: res.Total, Pages: res.TotalPages}
}

// userPayload is the account shape returned by session endpoints. It never
// carries credential or token material.
type userPayload struct {
	ID            uint       `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	Role          string     `json:"role"`
	EmailVerified bool       `json:"email_verified"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
}

func newUserPayload(u *domain.User) userPayload {
	return userPayload{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Phone:         u.Phone,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		LastLogin:     u.LastLogin,
	}
}
