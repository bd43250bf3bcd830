// Transport HTTP handlers.
//
// This file exposes REST endpoints for transport resources:
//   - POST /transports/estimation            (standalone two-mode quote)
//   - POST /transports                       (create request)
//   - GET  /transports                       (list own, paginated)
//   - GET  /transports/:id                   (fetch with timeline + documents)
//   - PUT  /transports/:id/cancel            (owner or admin)
//   - PUT  /admin/transports/:id/status      (admin progression)
//   - POST /admin/transports/:id/documents   (admin document attach)
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/afritrade/go-trade-backend/internal/domain"
	"github.com/afritrade/go-trade-backend/internal/http/middleware"
	"github.com/afritrade/go-trade-backend/internal/pricing"
	"github.com/afritrade/go-trade-backend/internal/services"
)

// TransportService defines the transport operations consumed by HTTP
// handlers.
type TransportService interface {
	Quote(ctx context.Context, in services.QuoteTransportInput) (pricing.TransportQuote, error)
	Create(ctx context.Context, in services.CreateTransportInput) (*domain.Transport, error)
	GetByID(ctx context.Context, id string) (*domain.Transport, error)
	ListForUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Transport, int64, error)
	UpdateStatus(ctx context.Context, id string, newStatus domain.TransportStatus, note string) (*domain.Transport, error)
	Cancel(ctx context.Context, id string, note string) (*domain.Transport, error)
	AddDocument(ctx context.Context, transportID, name, docType, url string) (*domain.TransportDocument, error)
}

// QuoteTransportRequest is the JSON payload for a standalone estimate.
type QuoteTransportRequest struct {
	Origin      string  `json:"pays_depart"`
	Destination string  `json:"pays_destination"`
	GoodsType   string  `json:"type_marchandise"`
	Weight      float64 `json:"poids"`
	Volume      float64 `json:"volume"`
}

// CreateTransportRequest extends the estimate payload with the chosen mode.
type CreateTransportRequest struct {
	QuoteTransportRequest
	Mode        string `json:"mode_transport"`
	Description string `json:"description"`
}

// UpdateTransportStatusRequest carries the admin progression payload. Note
// is optional free text appended to the timeline.
type UpdateTransportStatusRequest struct {
	Status string `json:"statut" binding:"required"`
	Note   string `json:"note"`
}

// AddTransportDocumentRequest attaches one document to a transport.
type AddTransportDocumentRequest struct {
	Name string `json:"nom"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// ListTransportsResponse wraps a page of transports.
type ListTransportsResponse struct {
	Transports []domain.Transport `json:"transports"`
	Pagination Pagination         `json:"pagination"`
}

// QuoteTransport computes the two-mode estimate without persisting anything.
func (h *Handlers) QuoteTransport(c *gin.Context) {
	var req QuoteTransportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	quote, err := h.transSvc.Quote(c.Request.Context(), services.QuoteTransportInput{
		Origin:      req.Origin,
		Destination: req.Destination,
		GoodsType:   req.GoodsType,
		Weight:      req.Weight,
		Volume:      req.Volume,
	})
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, quote)
}

// CreateTransport creates a transport request owned by the caller, freezing
// the price for the chosen mode.
func (h *Handlers) CreateTransport(c *gin.Context) {
	var req CreateTransportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	t, err := h.transSvc.Create(c.Request.Context(), services.CreateTransportInput{
		UserID:      middleware.UserID(c),
		Origin:      req.Origin,
		Destination: req.Destination,
		GoodsType:   req.GoodsType,
		Weight:      req.Weight,
		Volume:      req.Volume,
		Mode:        domain.TransportMode(req.Mode),
		Description: req.Description,
	})
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, t)
}

// ListTransports returns a page of the caller's transports.
func (h *Handlers) ListTransports(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.transSvc.ListForUser(c.Request.Context(), middleware.UserID(c), page, pageSize)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, ListTransportsResponse{
		Transports: items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetTransport fetches one transport with its timeline and documents; only
// the owner or an admin may see it.
func (h *Handlers) GetTransport(c *gin.Context) {
	t, err := h.transSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		failFromService(c, err)
		return
	}
	if t == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "transport not found")
		return
	}
	if !canAccess(c, t.UserID) {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not your transport")
		return
	}
	ok(c, http.StatusOK, t)
}

// CancelTransport cancels a transport that has not shipped yet.
func (h *Handlers) CancelTransport(c *gin.Context) {
	id := c.Param("id")

	cur, err := h.transSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		failFromService(c, err)
		return
	}
	if cur == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "transport not found")
		return
	}
	if !canAccess(c, cur.UserID) {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not your transport")
		return
	}

	var req UpdateTransportStatusRequest
	_ = c.ShouldBindJSON(&req) // note is optional, body may be empty

	t, err := h.transSvc.Cancel(c.Request.Context(), id, req.Note)
	if err != nil {
		failFromService(c, err)
		return
	}
	middleware.CountTransition("transport", string(domain.TransportCancelled))
	ok(c, http.StatusOK, t)
}

// UpdateTransportStatus progresses a transport through its lifecycle
// (admin only; routing enforces the role).
func (h *Handlers) UpdateTransportStatus(c *gin.Context) {
	var req UpdateTransportStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "statut required")
		return
	}

	t, err := h.transSvc.UpdateStatus(c.Request.Context(), c.Param("id"), domain.TransportStatus(req.Status), req.Note)
	if err != nil {
		failFromService(c, err)
		return
	}
	middleware.CountTransition("transport", req.Status)
	ok(c, http.StatusOK, t)
}

// AddTransportDocument attaches a document (invoice, bill of lading) to a
// transport (admin only; routing enforces the role).
func (h *Handlers) AddTransportDocument(c *gin.Context) {
	var req AddTransportDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	doc, err := h.transSvc.AddDocument(c.Request.Context(), c.Param("id"), req.Name, req.Type, req.URL)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, doc)
}
