// Reservation HTTP handlers.
//
// This file exposes REST endpoints for reservation resources:
//   - POST /reservations                        (create)
//   - GET  /reservations                        (list own, paginated)
//   - GET  /reservations/:id                    (fetch, owner or admin)
//   - GET  /reservations/reference/:reference   (fetch by business reference)
//   - PUT  /reservations/:id/cancel             (owner or admin)
//   - PUT  /admin/reservations/:id/confirm      (admin)
//   - GET  /admin/reservations/pending          (admin queue, oldest first)
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/afritrade/go-trade-backend/internal/domain"
	"github.com/afritrade/go-trade-backend/internal/http/middleware"
	"github.com/afritrade/go-trade-backend/internal/services"
)

// ReservationService defines the reservation operations consumed by HTTP
// handlers. Implementations must be safe for concurrent use and honor the
// provided context.
type ReservationService interface {
	Create(ctx context.Context, in services.CreateReservationInput) (*domain.Reservation, error)
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	GetByReference(ctx context.Context, reference string) (*domain.Reservation, error)
	ListForUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Reservation, int64, error)
	ListPending(ctx context.Context, page, pageSize int) ([]domain.Reservation, int64, error)
	Confirm(ctx context.Context, id string) (*domain.Reservation, error)
	Cancel(ctx context.Context, id string) (*domain.Reservation, error)
}

// CreateReservationRequest is the JSON payload for creating a reservation.
type CreateReservationRequest struct {
	ProductID string  `json:"produit_id" binding:"required"`
	Quantity  int     `json:"quantite"`
	UnitPrice float64 `json:"prix_unitaire"`
	Notes     string  `json:"notes"`
}

// ListReservationsResponse wraps a page of reservations.
type ListReservationsResponse struct {
	Reservations []domain.Reservation `json:"reservations"`
	Pagination   Pagination           `json:"pagination"`
}

// CreateReservation creates a reservation owned by the caller.
func (h *Handlers) CreateReservation(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	res, err := h.resSvc.Create(c.Request.Context(), services.CreateReservationInput{
		UserID:    middleware.UserID(c),
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		Notes:     req.Notes,
	})
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, res)
}

// ListReservations returns a page of the caller's reservations.
func (h *Handlers) ListReservations(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.resSvc.ListForUser(c.Request.Context(), middleware.UserID(c), page, pageSize)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, ListReservationsResponse{
		Reservations: items,
		Pagination:   newPagination(page, pageSize, total),
	})
}

// GetReservation fetches one reservation; only the owner or an admin may
// see it.
func (h *Handlers) GetReservation(c *gin.Context) {
	res, err := h.resSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		failFromService(c, err)
		return
	}
	if res == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "reservation not found")
		return
	}
	if !canAccess(c, res.UserID) {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not your reservation")
		return
	}
	ok(c, http.StatusOK, res)
}

// GetReservationByReference fetches one reservation by its RES- reference.
func (h *Handlers) GetReservationByReference(c *gin.Context) {
	res, err := h.resSvc.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		failFromService(c, err)
		return
	}
	if res == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "reservation not found")
		return
	}
	if !canAccess(c, res.UserID) {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not your reservation")
		return
	}
	ok(c, http.StatusOK, res)
}

// CancelReservation cancels a pending reservation. The owner may cancel
// their own; admins may cancel any.
func (h *Handlers) CancelReservation(c *gin.Context) {
	id := c.Param("id")

	cur, err := h.resSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		failFromService(c, err)
		return
	}
	if cur == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "reservation not found")
		return
	}
	if !canAccess(c, cur.UserID) {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not your reservation")
		return
	}

	res, err := h.resSvc.Cancel(c.Request.Context(), id)
	if err != nil {
		failFromService(c, err)
		return
	}
	middleware.CountTransition("reservation", string(domain.ReservationCancelled))
	ok(c, http.StatusOK, res)
}

// ConfirmReservation confirms a pending reservation (admin only; routing
// enforces the role).
func (h *Handlers) ConfirmReservation(c *gin.Context) {
	res, err := h.resSvc.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		failFromService(c, err)
		return
	}
	middleware.CountTransition("reservation", string(domain.ReservationConfirmed))
	ok(c, http.StatusOK, res)
}

// ListPendingReservations returns the back-office confirmation queue,
// oldest first so nothing waits forever.
func (h *Handlers) ListPendingReservations(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.resSvc.ListPending(c.Request.Context(), page, pageSize)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, ListReservationsResponse{
		Reservations: items,
		Pagination:   newPagination(page, pageSize, total),
	})
}
