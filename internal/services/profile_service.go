// Package services – ProfileService
//
// This file implements the ProfileService, which aggregates the account
// view: the user's identity fields, their order tallies across
// reservations, transports, and devis, and the partial profile update.
package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/afritrade/go-trade-backend/internal/domain"
	"github.com/afritrade/go-trade-backend/internal/repo"
)

// Profile is the aggregated account view returned to the profile page.
type Profile struct {
	User         *domain.User `json:"utilisateur"`
	Reservations int64        `json:"nb_reservations"`
	Transports   int64        `json:"nb_transports"`
	Devis        int64        `json:"nb_devis"`
	RegisteredAt time.Time    `json:"date_inscription"`
	LastLoginAt  *time.Time   `json:"date_derniere_connexion,omitempty"`
}

// UpdateProfileInput carries the mutable profile fields. Nil pointers mean
// "leave unchanged"; identity (email) and role are not updatable here.
type UpdateProfileInput struct {
	LastName  *string
	FirstName *string
	Phone     *string
	Country   *string
	Address   *string
}

// ProfileService provides the aggregated account view and profile updates.
type ProfileService struct {
	DB *gorm.DB
}

// NewProfileService constructs a ProfileService.
func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{DB: db}
}

// Get returns the user's profile with order tallies. Fails with
// NotFoundError when the account does not exist.
func (s *ProfileService) Get(ctx context.Context, userID string) (*Profile, error) {
	u, err := repo.GetUser(ctx, s.DB, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Kind: "user", ID: userID}
	}
	if err != nil {
		return nil, wrapStorage("get user", err)
	}

	counts, err := repo.CountUserOrders(ctx, s.DB, userID)
	if err != nil {
		return nil, wrapStorage("count user orders", err)
	}

	return &Profile{
		User:         u,
		Reservations: counts.Reservations,
		Transports:   counts.Transports,
		Devis:        counts.Devis,
		RegisteredAt: u.RegisteredAt,
		LastLoginAt:  u.LastLoginAt,
	}, nil
}

// Update applies a partial profile change and returns the refreshed
// profile. Provided fields may not be blank; absent fields are untouched.
func (s *ProfileService) Update(ctx context.Context, userID string, in UpdateProfileInput) (*Profile, error) {
	fields := map[string]any{}
	var blank []string
	set := func(col string, v *string) {
		if v == nil {
			return
		}
		trimmed := strings.TrimSpace(*v)
		if trimmed == "" {
			blank = append(blank, col)
			return
		}
		fields[col] = trimmed
	}
	set("nom", in.LastName)
	set("prenom", in.FirstName)
	set("telephone", in.Phone)
	set("pays", in.Country)
	set("adresse", in.Address)

	if len(blank) > 0 {
		sort.Strings(blank)
		return nil, &ValidationError{Fields: blank}
	}
	if len(fields) == 0 {
		return s.Get(ctx, userID)
	}

	n, err := repo.UpdateUserProfile(ctx, s.DB, userID, fields)
	if err != nil {
		return nil, wrapStorage("update user profile", err)
	}
	if n == 0 {
		return nil, &NotFoundError{Kind: "user", ID: userID}
	}
	return s.Get(ctx, userID)
}
