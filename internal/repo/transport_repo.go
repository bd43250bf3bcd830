// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for transports,
// their timeline events, and their documents.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/afritrade/go-trade-backend/internal/domain"
)

// CreateTransport inserts a fully populated transport row.
func CreateTransport(ctx context.Context, db *gorm.DB, t *domain.Transport) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(t).Error
}

// GetTransport fetches a transport by ID with its timeline (oldest first)
// and documents eagerly joined. Returns ErrNotFound when absent.
func GetTransport(ctx context.Context, db *gorm.DB, id string) (*domain.Transport, error) {
	var t domain.Transport
	err := db.WithContext(ctx).
		Preload("Timeline", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC, id ASC")
		}).
		Preload("Documents").
		Preload("User").
		Where("id = ?", id).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTransportsPage returns a page of a user's transports ordered by
// creation time descending.
func ListTransportsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Transport, error) {
	var out []domain.Transport
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountTransports returns the total number of transports owned by userID.
func CountTransports(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Transport{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// TransitionTransport applies a status change as a single conditional UPDATE
// guarded by the expected current status. RowsAffected 0 means the record
// was missing or a concurrent transition won.
func TransitionTransport(ctx context.Context, db *gorm.DB, id string, from, to domain.TransportStatus) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Transport{}).
		Where("id = ? AND statut = ?", id, from).
		Updates(map[string]any{"statut": to, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// AppendTransportEvent adds one timeline entry. The timeline is append-only;
// there is deliberately no update or delete counterpart.
func AppendTransportEvent(ctx context.Context, db *gorm.DB, transportID, stage, description string) (*domain.TransportEvent, error) {
	ev := &domain.TransportEvent{
		ID:          uuid.NewString(),
		TransportID: transportID,
		Stage:       stage,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(ev).Error; err != nil {
		return nil, err
	}
	return ev, nil
}

// AddTransportDocument attaches a document record to a transport.
func AddTransportDocument(ctx context.Context, db *gorm.DB, transportID string, doc *domain.TransportDocument) error {
	doc.ID = uuid.NewString()
	doc.TransportID = transportID
	doc.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(doc).Error
}

// CountTransportsInStatuses counts transports whose status is one of the
// given set. Used by the dashboard's "in progress" figure.
func CountTransportsInStatuses(ctx context.Context, db *gorm.DB, statuses []domain.TransportStatus) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Transport{}).
		Where("statut IN ?", statuses).
		Count(&total).Error
	return total, err
}

// SumTransportEstimatesBetween sums prix_estime over transports created in
// [fromTime, toTime). SQLite's SUM returns NULL over an empty set, so the
// scan goes through a nullable holder.
func SumTransportEstimatesBetween(ctx context.Context, db *gorm.DB, fromTime, toTime time.Time) (float64, error) {
	var row struct {
		Total *float64
	}
	err := db.WithContext(ctx).
		Model(&domain.Transport{}).
		Select("SUM(prix_estime) AS total").
		Where("created_at >= ? AND created_at < ?", fromTime, toTime).
		Scan(&row).Error
	if err != nil || row.Total == nil {
		return 0, err
	}
	return *row.Total, nil
}
