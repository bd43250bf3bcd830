// Profile and back-office HTTP handlers.
//
// This file exposes:
//   - GET /profile           (aggregated account view with order tallies)
//   - PUT /profile           (partial profile update)
//   - GET /admin/dashboard   (back-office counters, admin only)
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/afritrade/go-trade-backend/internal/http/middleware"
	"github.com/afritrade/go-trade-backend/internal/services"
)

// ProfileService defines the account operations consumed by HTTP handlers.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*services.Profile, error)
	Update(ctx context.Context, userID string, in services.UpdateProfileInput) (*services.Profile, error)
}

// AdminService defines the back-office aggregates consumed by HTTP
// handlers.
type AdminService interface {
	Dashboard(ctx context.Context) (*services.DashboardStats, error)
}

// UpdateProfileRequest carries the mutable profile fields. Absent fields
// are left unchanged.
type UpdateProfileRequest struct {
	LastName  *string `json:"nom"`
	FirstName *string `json:"prenom"`
	Phone     *string `json:"telephone"`
	Country   *string `json:"pays"`
	Address   *string `json:"adresse"`
}

// GetProfile returns the caller's aggregated profile.
func (h *Handlers) GetProfile(c *gin.Context) {
	p, err := h.profileSvc.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdateProfile applies a partial profile change and returns the refreshed
// profile.
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	p, err := h.profileSvc.Update(c.Request.Context(), middleware.UserID(c), services.UpdateProfileInput{
		LastName:  req.LastName,
		FirstName: req.FirstName,
		Phone:     req.Phone,
		Country:   req.Country,
		Address:   req.Address,
	})
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// Dashboard returns the back-office counters (admin only; routing enforces
// the role).
func (h *Handlers) Dashboard(c *gin.Context) {
	stats, err := h.adminSvc.Dashboard(c.Request.Context())
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, stats)
}
