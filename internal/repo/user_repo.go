// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for users and
// products (the catalogue snapshot reservations point at).
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/afritrade/go-trade-backend/internal/domain"
)

// GetUser fetches a user by ID. Returns ErrNotFound when absent.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUserProfile applies a partial profile update. Only the whitelisted
// profile columns can change through this path; identity and role cannot.
func UpdateUserProfile(ctx context.Context, db *gorm.DB, id string, fields map[string]any) (int64, error) {
	allowed := map[string]struct{}{
		"nom": {}, "prenom": {}, "telephone": {}, "pays": {}, "adresse": {},
	}
	updates := map[string]any{"updated_at": time.Now().UTC()}
	for k, v := range fields {
		if _, ok := allowed[k]; ok {
			updates[k] = v
		}
	}
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// CountUsersByRole counts accounts with the given role ("client" for the
// dashboard's client figure).
func CountUsersByRole(ctx context.Context, db *gorm.DB, role string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("role = ?", role).
		Count(&total).Error
	return total, err
}

// GetProduct fetches a product by ID. Returns ErrNotFound when absent.
func GetProduct(ctx context.Context, db *gorm.DB, id string) (*domain.Product, error) {
	var p domain.Product
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
