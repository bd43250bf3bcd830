// Package services – ReservationService
//
// This file implements the ReservationService, which owns the reservation
// lifecycle: creation (validate -> price -> reference -> persist), paginated
// ownership-scoped listing, and the en_attente -> confirmee/annulee
// transitions. The service exposes the owning user id on every read so the
// calling layer can enforce ownership against the authenticated identity; it
// does not reject based on identity itself, which keeps it usable from
// back-office contexts.
package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/afritrade/go-trade-backend/internal/domain"
	"github.com/afritrade/go-trade-backend/internal/pricing"
	"github.com/afritrade/go-trade-backend/internal/refs"
)

// ReservationRepo defines the repository contract required by
// ReservationService. Implementations are responsible for persistence only.
type ReservationRepo interface {
	// CreateReservation inserts a fully populated reservation row.
	CreateReservation(ctx context.Context, db *gorm.DB, r *domain.Reservation) error

	// GetReservation fetches a reservation with user and product joined.
	GetReservation(ctx context.Context, db *gorm.DB, id string) (*domain.Reservation, error)

	// GetReservationByReference fetches by business reference.
	GetReservationByReference(ctx context.Context, db *gorm.DB, reference string) (*domain.Reservation, error)

	// ListReservationsPage returns a page of a user's reservations.
	ListReservationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Reservation, error)

	// CountReservations returns the user's total for pagination.
	CountReservations(ctx context.Context, db *gorm.DB, userID string) (int64, error)

	// ListPendingReservationsPage returns the back-office en_attente queue.
	ListPendingReservationsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Reservation, error)

	// CountPendingReservations sizes the en_attente queue.
	CountPendingReservations(ctx context.Context, db *gorm.DB) (int64, error)

	// TransitionReservation applies a guarded conditional status update.
	TransitionReservation(ctx context.Context, db *gorm.DB, id string, from, to domain.ReservationStatus, extra map[string]any) (int64, error)
}

// CreateReservationInput is the payload for creating a reservation. The unit
// price is the product price snapshot taken by the caller at display time;
// the service freezes it into the record.
type CreateReservationInput struct {
	UserID    string
	ProductID string
	Quantity  int
	UnitPrice float64
	Notes     string
}

// ReservationService provides reservation lifecycle operations.
type ReservationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the reservation repository used by this service.
	Repo ReservationRepo
}

// NewReservationService constructs a ReservationService.
func NewReservationService(db *gorm.DB, r ReservationRepo) *ReservationService {
	return &ReservationService{DB: db, Repo: r}
}

// Create validates the input, computes the frozen total, generates the
// RES- reference, and persists the reservation in en_attente status.
//
// Validation reports every offending field at once: missing ids, a quantity
// below 1, or a negative unit price all land in the same ValidationError.
func (s *ReservationService) Create(ctx context.Context, in CreateReservationInput) (*domain.Reservation, error) {
	verr := requireFields(map[string]string{
		"user_id":    in.UserID,
		"produit_id": in.ProductID,
	})
	if in.Quantity < 1 {
		if verr == nil {
			verr = &ValidationError{}
		}
		verr.Fields = append(verr.Fields, "quantite")
	}
	if in.UnitPrice < 0 {
		if verr == nil {
			verr = &ValidationError{}
		}
		verr.Fields = append(verr.Fields, "prix_unitaire")
	}
	if verr != nil {
		sort.Strings(verr.Fields)
		return nil, verr
	}

	r := &domain.Reservation{
		Reference:  refs.New(refs.PrefixReservation),
		UserID:     in.UserID,
		ProductID:  in.ProductID,
		Quantity:   in.Quantity,
		UnitPrice:  pricing.Round2(in.UnitPrice),
		TotalPrice: pricing.ReservationTotal(in.Quantity, in.UnitPrice),
		Notes:      in.Notes,
		Status:     domain.ReservationPending,
	}
	if err := s.Repo.CreateReservation(ctx, s.DB, r); err != nil {
		return nil, wrapStorage("create reservation", err)
	}
	return r, nil
}

// GetByID returns the reservation with its product and user joined, or
// (nil, nil) when the id does not exist — absence on a point read is not an
// error, it is the caller's 404.
func (s *ReservationService) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	r, err := s.Repo.GetReservation(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStorage("get reservation", err)
	}
	return r, nil
}

// GetByReference returns the reservation carrying the given business
// reference, or (nil, nil) when absent.
func (s *ReservationService) GetByReference(ctx context.Context, reference string) (*domain.Reservation, error) {
	r, err := s.Repo.GetReservationByReference(ctx, s.DB, reference)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStorage("get reservation by reference", err)
	}
	return r, nil
}

// ListForUser returns a page of the user's reservations, newest first, with
// the total count. Page and pageSize get the usual defaults when invalid.
func (s *ReservationService) ListForUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Reservation, int64, error) {
	offset, limit := pageOffset(page, pageSize)

	total, err := s.Repo.CountReservations(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, wrapStorage("count reservations", err)
	}
	if total == 0 {
		return []domain.Reservation{}, 0, nil
	}
	items, err := s.Repo.ListReservationsPage(ctx, s.DB, userID, offset, limit)
	if err != nil {
		return nil, 0, wrapStorage("list reservations", err)
	}
	return items, total, nil
}

// ListPending returns the back-office queue of en_attente reservations,
// oldest first.
func (s *ReservationService) ListPending(ctx context.Context, page, pageSize int) ([]domain.Reservation, int64, error) {
	offset, limit := pageOffset(page, pageSize)

	total, err := s.Repo.CountPendingReservations(ctx, s.DB)
	if err != nil {
		return nil, 0, wrapStorage("count pending reservations", err)
	}
	if total == 0 {
		return []domain.Reservation{}, 0, nil
	}
	items, err := s.Repo.ListPendingReservationsPage(ctx, s.DB, offset, limit)
	if err != nil {
		return nil, 0, wrapStorage("list pending reservations", err)
	}
	return items, total, nil
}

// UpdateStatus moves the reservation to newStatus. Every caller goes through
// the declared transition table — there is no administrative bypass setter.
// The change is applied as one conditional UPDATE so a concurrent transition
// on the same record cannot double-apply: the loser re-reads and gets an
// InvalidTransitionError naming the state it actually lost to.
func (s *ReservationService) UpdateStatus(ctx context.Context, id string, newStatus domain.ReservationStatus) (*domain.Reservation, error) {
	cur, err := s.Repo.GetReservation(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Kind: "reservation", ID: id}
	}
	if err != nil {
		return nil, wrapStorage("get reservation", err)
	}

	if !domain.ReservationLifecycle.CanTransition(string(cur.Status), string(newStatus)) {
		return nil, &InvalidTransitionError{Kind: "reservation", From: string(cur.Status), To: string(newStatus)}
	}

	extra := map[string]any{}
	now := time.Now().UTC()
	switch newStatus {
	case domain.ReservationConfirmed:
		extra["date_confirmation"] = now
	case domain.ReservationCancelled:
		extra["date_annulation"] = now
	}

	n, err := s.Repo.TransitionReservation(ctx, s.DB, id, cur.Status, newStatus, extra)
	if err != nil {
		return nil, wrapStorage("transition reservation", err)
	}
	if n == 0 {
		// Lost a race: the status moved between read and update.
		fresh, ferr := s.Repo.GetReservation(ctx, s.DB, id)
		if ferr != nil {
			return nil, &NotFoundError{Kind: "reservation", ID: id}
		}
		return nil, &InvalidTransitionError{Kind: "reservation", From: string(fresh.Status), To: string(newStatus)}
	}

	updated, err := s.Repo.GetReservation(ctx, s.DB, id)
	if err != nil {
		return nil, wrapStorage("get reservation", err)
	}
	return updated, nil
}

// Confirm is the convenience wrapper for the en_attente -> confirmee
// transition.
func (s *ReservationService) Confirm(ctx context.Context, id string) (*domain.Reservation, error) {
	return s.UpdateStatus(ctx, id, domain.ReservationConfirmed)
}

// Cancel is the convenience wrapper for the en_attente -> annulee
// transition.
func (s *ReservationService) Cancel(ctx context.Context, id string) (*domain.Reservation, error) {
	return s.UpdateStatus(ctx, id, domain.ReservationCancelled)
}

// pageOffset applies the shared pagination defaults: pages start at 1,
// pageSize falls back to 20 and is capped by the handler layer. The offset
// mapping is offset = (page-1)*pageSize.
func pageOffset(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return (page - 1) * pageSize, pageSize
}
