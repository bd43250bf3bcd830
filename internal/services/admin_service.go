// Package services – AdminService
//
// This file implements the back-office dashboard aggregation: recent
// reservation volume, transports currently in motion, unanswered devis,
// client headcount, and the estimated revenue for the current month.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/afritrade/go-trade-backend/internal/domain"
	"github.com/afritrade/go-trade-backend/internal/pricing"
	"github.com/afritrade/go-trade-backend/internal/repo"
)

// DashboardStats is the back-office landing page aggregate.
type DashboardStats struct {
	RecentReservations int64   `json:"reservations_recentes"`
	ActiveTransports   int64   `json:"transports_actifs"`
	PendingDevis       int64   `json:"devis_en_attente"`
	Clients            int64   `json:"nb_clients"`
	MonthRevenue       float64 `json:"revenu_mois"`
	Currency           string  `json:"devise"`
}

// recentWindow is how far back "recent" reservations reach.
const recentWindow = 7 * 24 * time.Hour

// AdminService provides back-office aggregates.
type AdminService struct {
	DB *gorm.DB

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewAdminService constructs an AdminService.
func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{DB: db, Now: time.Now}
}

// Dashboard assembles the dashboard counters. Every figure is computed at
// call time from the live tables.
func (s *AdminService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	now := s.Now().UTC()

	recent, err := repo.CountReservationsSince(ctx, s.DB, now.Add(-recentWindow))
	if err != nil {
		return nil, wrapStorage("count recent reservations", err)
	}

	active, err := repo.CountTransportsInStatuses(ctx, s.DB, []domain.TransportStatus{
		domain.TransportPending,
		domain.TransportGoodsReceived,
		domain.TransportInTransit,
	})
	if err != nil {
		return nil, wrapStorage("count active transports", err)
	}

	pending, err := repo.CountDevisByStatus(ctx, s.DB, domain.DevisPending)
	if err != nil {
		return nil, wrapStorage("count pending devis", err)
	}

	clients, err := repo.CountUsersByRole(ctx, s.DB, "client")
	if err != nil {
		return nil, wrapStorage("count clients", err)
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	revenue, err := repo.SumTransportEstimatesBetween(ctx, s.DB, monthStart, now)
	if err != nil {
		return nil, wrapStorage("sum month revenue", err)
	}

	return &DashboardStats{
		RecentReservations: recent,
		ActiveTransports:   active,
		PendingDevis:       pending,
		Clients:            clients,
		MonthRevenue:       pricing.Round2(revenue),
		Currency:           pricing.Currency,
	}, nil
}
