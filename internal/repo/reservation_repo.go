// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for reservations.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a record is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.) the
//     raw gorm error is propagated; the service layer wraps it.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/afritrade/go-trade-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist. It aliases
// gorm.ErrRecordNotFound for consistency across the service layer.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateReservation inserts a fully populated reservation row. The caller
// has already validated inputs, computed the total, and generated the
// reference; this function only persists.
func CreateReservation(ctx context.Context, db *gorm.DB, r *domain.Reservation) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(r).Error
}

// GetReservation fetches a reservation by ID with its user and product
// eagerly joined for display. Returns ErrNotFound when absent.
func GetReservation(ctx context.Context, db *gorm.DB, id string) (*domain.Reservation, error) {
	var r domain.Reservation
	err := db.WithContext(ctx).
		Preload("User").
		Preload("Product").
		Where("id = ?", id).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetReservationByReference fetches a reservation by its business reference
// (numero_reservation). Returns ErrNotFound when absent.
func GetReservationByReference(ctx context.Context, db *gorm.DB, reference string) (*domain.Reservation, error) {
	var r domain.Reservation
	err := db.WithContext(ctx).
		Where("numero_reservation = ?", reference).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReservationsPage returns a page of a user's reservations ordered by
// creation time descending, products preloaded for list rendering.
func ListReservationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountReservations returns the total number of reservations owned by userID.
func CountReservations(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListPendingReservationsPage returns en_attente reservations across all
// users, oldest first, for the back-office queue.
func ListPendingReservationsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := db.WithContext(ctx).
		Preload("User").
		Preload("Product").
		Where("statut = ?", domain.ReservationPending).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountPendingReservations returns the total size of the en_attente queue.
func CountPendingReservations(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("statut = ?", domain.ReservationPending).
		Count(&total).Error
	return total, err
}

// TransitionReservation applies a status change as a single conditional
// UPDATE guarded by the expected current status. extra carries the
// transition side effects (timestamp columns). It returns the number of
// rows affected: 0 means the record was missing or its status had already
// moved on, and the caller decides which.
func TransitionReservation(ctx context.Context, db *gorm.DB, id string, from, to domain.ReservationStatus, extra map[string]any) (int64, error) {
	updates := map[string]any{"statut": to, "updated_at": time.Now().UTC()}
	for k, v := range extra {
		updates[k] = v
	}
	res := db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("id = ? AND statut = ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}
