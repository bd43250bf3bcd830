// Handler wiring shared by every resource file in this package.
//
// Handlers are transport-thin: they validate input, resolve the caller via
// the auth middleware, call application services, and translate results
// into HTTP responses. Ownership checks happen here, once, by comparing the
// verified user id with the record owner; admins bypass them.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/afritrade/go-trade-backend/internal/http/middleware"
	"github.com/afritrade/go-trade-backend/internal/utils"
)

// Handlers groups the HTTP endpoints for reservations, transports, devis,
// messaging, profiles, and the back-office. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	resSvc     ReservationService
	transSvc   TransportService
	devisSvc   DevisService
	msgSvc     MessageService
	profileSvc ProfileService
	adminSvc   AdminService
}

// New constructs a Handlers instance bound to the given services.
func New(
	resSvc ReservationService,
	transSvc TransportService,
	devisSvc DevisService,
	msgSvc MessageService,
	profileSvc ProfileService,
	adminSvc AdminService,
) *Handlers {
	return &Handlers{
		resSvc:     resSvc,
		transSvc:   transSvc,
		devisSvc:   devisSvc,
		msgSvc:     msgSvc,
		profileSvc: profileSvc,
		adminSvc:   adminSvc,
	}
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// newPagination derives the metadata block from a page fetch.
func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// canAccess reports whether the caller owns the record or is an admin.
func canAccess(c *gin.Context, ownerID string) bool {
	if middleware.IdentityFrom(c).IsAdmin() {
		return true
	}
	return ownerID != "" && ownerID == middleware.UserID(c)
}
