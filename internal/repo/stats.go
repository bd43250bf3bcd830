// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate queries behind the user
// profile stats and the back-office dashboard. Each function is a single
// cheap COUNT; composition happens in the service layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/afritrade/go-trade-backend/internal/domain"
)

// UserCounts carries the per-user order tallies shown on the profile page.
type UserCounts struct {
	Reservations int64
	Transports   int64
	Devis        int64
}

// CountUserOrders returns the user's reservation, transport, and devis
// totals. Counts are as of call time; there is no caching.
func CountUserOrders(ctx context.Context, db *gorm.DB, userID string) (UserCounts, error) {
	var c UserCounts
	if err := db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("user_id = ?", userID).
		Count(&c.Reservations).Error; err != nil {
		return c, err
	}
	if err := db.WithContext(ctx).
		Model(&domain.Transport{}).
		Where("user_id = ?", userID).
		Count(&c.Transports).Error; err != nil {
		return c, err
	}
	if err := db.WithContext(ctx).
		Model(&domain.Devis{}).
		Where("user_id = ?", userID).
		Count(&c.Devis).Error; err != nil {
		return c, err
	}
	return c, nil
}

// CountReservationsSince counts reservations created at or after cutoff.
func CountReservationsSince(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("created_at >= ?", cutoff).
		Count(&total).Error
	return total, err
}

// CountDevisByStatus counts devis in the given status across all users.
func CountDevisByStatus(ctx context.Context, db *gorm.DB, status domain.DevisStatus) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Devis{}).
		Where("statut = ?", status).
		Count(&total).Error
	return total, err
}
