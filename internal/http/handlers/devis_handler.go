// Devis HTTP handlers.
//
// This file exposes REST endpoints for quote requests and the accompaniment
// catalogue:
//   - POST /devis                        (create; anonymous allowed)
//   - GET  /devis                        (list own, paginated)
//   - GET  /devis/:id                    (fetch, owner or admin)
//   - GET  /accompagnement/formules      (public catalogue)
//   - POST /accompagnement               (request a formula)
//   - GET  /accompagnement               (list own accompaniment requests)
//   - GET  /admin/devis                  (filtered back-office listing)
//   - PUT  /admin/devis/:id/reponse      (answer a pending devis)
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/afritrade/go-trade-backend/internal/domain"
	"github.com/afritrade/go-trade-backend/internal/http/middleware"
	"github.com/afritrade/go-trade-backend/internal/services"
)

// DevisService defines the quote request operations consumed by HTTP
// handlers.
type DevisService interface {
	Create(ctx context.Context, in services.CreateDevisInput) (*domain.Devis, error)
	GetByID(ctx context.Context, id string) (*domain.Devis, error)
	ListForUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Devis, int64, error)
	ListAccompagnementForUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Devis, int64, error)
	ListAll(ctx context.Context, f services.DevisListFilter, page, pageSize int) ([]domain.Devis, int64, error)
	Respond(ctx context.Context, id string, in services.RespondDevisInput) (*domain.Devis, error)
	Formulas() []services.AccompagnementFormula
	RequestAccompagnement(ctx context.Context, userID, formulaID, projectDetails string) (*domain.Devis, error)
}

// CreateDevisRequest is the JSON payload for a quote request.
type CreateDevisRequest struct {
	ServiceType string `json:"type_service"`
	Name        string `json:"nom"`
	Email       string `json:"email"`
	Phone       string `json:"telephone"`
	Country     string `json:"pays"`
	Details     string `json:"details"`
}

// RespondDevisRequest is the admin answer payload.
type RespondDevisRequest struct {
	Response string  `json:"reponse"`
	Amount   float64 `json:"montant"`
	Currency string  `json:"devise"`
	Delay    string  `json:"delai"`
}

// RequestAccompagnementRequest selects a formula for a consulting request.
type RequestAccompagnementRequest struct {
	FormulaID      string `json:"formule_id"`
	ProjectDetails string `json:"description_projet"`
}

// ListDevisResponse wraps a page of devis.
type ListDevisResponse struct {
	Devis      []domain.Devis `json:"devis"`
	Pagination Pagination     `json:"pagination"`
}

// CreateDevis creates a quote request. An authenticated caller's id is
// attached; anonymous requests are accepted with contact details only.
func (h *Handlers) CreateDevis(c *gin.Context) {
	var req CreateDevisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	d, err := h.devisSvc.Create(c.Request.Context(), services.CreateDevisInput{
		UserID:      middleware.UserID(c),
		ServiceType: domain.DevisType(req.ServiceType),
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Country:     req.Country,
		Details:     req.Details,
	})
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, d)
}

// ListDevis returns a page of the caller's devis.
func (h *Handlers) ListDevis(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.devisSvc.ListForUser(c.Request.Context(), middleware.UserID(c), page, pageSize)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, ListDevisResponse{
		Devis:      items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetDevis fetches one devis. Anonymous devis (no owner) are only visible
// to admins.
func (h *Handlers) GetDevis(c *gin.Context) {
	d, err := h.devisSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		failFromService(c, err)
		return
	}
	if d == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "devis not found")
		return
	}
	owner := ""
	if d.UserID != nil {
		owner = *d.UserID
	}
	if !canAccess(c, owner) {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not your devis")
		return
	}
	ok(c, http.StatusOK, d)
}

// ListAllDevis returns the filtered back-office listing (admin only;
// routing enforces the role). Supported filters: statut, type_service.
func (h *Handlers) ListAllDevis(c *gin.Context) {
	page, pageSize := clampPagination(c)
	f := services.DevisListFilter{
		Status:      domain.DevisStatus(c.Query("statut")),
		ServiceType: domain.DevisType(c.Query("type_service")),
	}
	items, total, err := h.devisSvc.ListAll(c.Request.Context(), f, page, pageSize)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, ListDevisResponse{
		Devis:      items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// RespondDevis answers a pending devis (admin only; routing enforces the
// role). Answering twice yields 409.
func (h *Handlers) RespondDevis(c *gin.Context) {
	var req RespondDevisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	d, err := h.devisSvc.Respond(c.Request.Context(), c.Param("id"), services.RespondDevisInput{
		Response: req.Response,
		Amount:   req.Amount,
		Currency: req.Currency,
		Delay:    req.Delay,
	})
	if err != nil {
		failFromService(c, err)
		return
	}
	middleware.CountTransition("devis", string(domain.DevisAnswered))
	ok(c, http.StatusOK, d)
}

// ListFormulas returns the static accompaniment catalogue.
func (h *Handlers) ListFormulas(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"formules": h.devisSvc.Formulas()})
}

// RequestAccompagnement creates an accompaniment request for the caller.
func (h *Handlers) RequestAccompagnement(c *gin.Context) {
	var req RequestAccompagnementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	d, err := h.devisSvc.RequestAccompagnement(c.Request.Context(), middleware.UserID(c), req.FormulaID, req.ProjectDetails)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, d)
}

// ListAccompagnement returns a page of the caller's accompaniment requests.
func (h *Handlers) ListAccompagnement(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.devisSvc.ListAccompagnementForUser(c.Request.Context(), middleware.UserID(c), page, pageSize)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, ListDevisResponse{
		Devis:      items,
		Pagination: newPagination(page, pageSize, total),
	})
}
