// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for devis (quote
// requests), including the admin response path.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/afritrade/go-trade-backend/internal/domain"
)

// DevisFilter narrows the back-office devis listing. Zero values mean "any".
type DevisFilter struct {
	Status      domain.DevisStatus
	ServiceType domain.DevisType
}

// CreateDevis inserts a fully populated devis row.
func CreateDevis(ctx context.Context, db *gorm.DB, d *domain.Devis) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(d).Error
}

// GetDevis fetches a devis by ID. Returns ErrNotFound when absent.
func GetDevis(ctx context.Context, db *gorm.DB, id string) (*domain.Devis, error) {
	var d domain.Devis
	err := db.WithContext(ctx).
		Preload("User").
		Where("id = ?", id).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDevisPage returns a page of a user's devis, newest first. serviceType
// optionally narrows to one service (used for accompaniment listings).
func ListDevisPage(ctx context.Context, db *gorm.DB, userID string, serviceType domain.DevisType, offset, limit int) ([]domain.Devis, error) {
	q := db.WithContext(ctx).Where("user_id = ?", userID)
	if serviceType != "" {
		q = q.Where("type_service = ?", serviceType)
	}
	var out []domain.Devis
	err := q.Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountDevis returns the number of devis owned by userID, optionally
// narrowed to one service type.
func CountDevis(ctx context.Context, db *gorm.DB, userID string, serviceType domain.DevisType) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.Devis{}).Where("user_id = ?", userID)
	if serviceType != "" {
		q = q.Where("type_service = ?", serviceType)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListAllDevisPage returns a filtered page over every user's devis for the
// back office, newest first.
func ListAllDevisPage(ctx context.Context, db *gorm.DB, f DevisFilter, offset, limit int) ([]domain.Devis, error) {
	q := db.WithContext(ctx).Model(&domain.Devis{})
	if f.Status != "" {
		q = q.Where("statut = ?", f.Status)
	}
	if f.ServiceType != "" {
		q = q.Where("type_service = ?", f.ServiceType)
	}
	var out []domain.Devis
	err := q.Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountAllDevis counts devis matching the back-office filter.
func CountAllDevis(ctx context.Context, db *gorm.DB, f DevisFilter) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.Devis{})
	if f.Status != "" {
		q = q.Where("statut = ?", f.Status)
	}
	if f.ServiceType != "" {
		q = q.Where("type_service = ?", f.ServiceType)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// RespondDevis applies the en_attente -> repondu transition together with
// the response payload as one conditional UPDATE. RowsAffected 0 means the
// devis was missing or already answered.
func RespondDevis(ctx context.Context, db *gorm.DB, id string, response string, amount float64, currency, delay string) (int64, error) {
	now := time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Devis{}).
		Where("id = ? AND statut = ?", id, domain.DevisPending).
		Updates(map[string]any{
			"statut":       domain.DevisAnswered,
			"reponse":      response,
			"montant":      amount,
			"devise":       currency,
			"delai":        delay,
			"date_reponse": now,
			"updated_at":   now,
		})
	return res.RowsAffected, res.Error
}
