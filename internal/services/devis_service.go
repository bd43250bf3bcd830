// Package services – DevisService
//
// This file implements the DevisService, which owns price quote requests:
// creation (optionally anonymous), ownership-scoped and back-office
// listings, the single en_attente -> repondu transition carrying the admin
// response, and the accompaniment flavor with its fixed formula catalogue.
package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/afritrade/go-trade-backend/internal/domain"
	"github.com/afritrade/go-trade-backend/internal/pricing"
	"github.com/afritrade/go-trade-backend/internal/refs"
)

// DevisRepo defines the repository contract required by DevisService.
type DevisRepo interface {
	CreateDevis(ctx context.Context, db *gorm.DB, d *domain.Devis) error
	GetDevis(ctx context.Context, db *gorm.DB, id string) (*domain.Devis, error)
	ListDevisPage(ctx context.Context, db *gorm.DB, userID string, serviceType domain.DevisType, offset, limit int) ([]domain.Devis, error)
	CountDevis(ctx context.Context, db *gorm.DB, userID string, serviceType domain.DevisType) (int64, error)
	ListAllDevisPage(ctx context.Context, db *gorm.DB, f DevisListFilter, offset, limit int) ([]domain.Devis, error)
	CountAllDevis(ctx context.Context, db *gorm.DB, f DevisListFilter) (int64, error)
	RespondDevis(ctx context.Context, db *gorm.DB, id string, response string, amount float64, currency, delay string) (int64, error)
}

// DevisListFilter narrows the back-office listing; zero values mean "any".
type DevisListFilter struct {
	Status      domain.DevisStatus
	ServiceType domain.DevisType
}

// CreateDevisInput is the payload for a quote request. UserID is empty for
// anonymous quotes.
type CreateDevisInput struct {
	UserID      string
	ServiceType domain.DevisType
	Name        string
	Email       string
	Phone       string
	Country     string
	Details     string
}

// RespondDevisInput is the admin response payload applied by the
// en_attente -> repondu transition.
type RespondDevisInput struct {
	Response string
	Amount   float64
	Currency string
	Delay    string
}

// AccompagnementFormula is one entry of the fixed consulting catalogue.
type AccompagnementFormula struct {
	ID       string   `json:"id"`
	Name     string   `json:"nom"`
	Details  string   `json:"description"`
	Services []string `json:"services_inclus"`
	Price    float64  `json:"prix"`
	Currency string   `json:"devise"`
}

// DevisService provides quote request operations.
type DevisService struct {
	DB   *gorm.DB
	Repo DevisRepo
}

// NewDevisService constructs a DevisService.
func NewDevisService(db *gorm.DB, r DevisRepo) *DevisService {
	return &DevisService{DB: db, Repo: r}
}

// Create validates the request, generates the DEVIS- reference, and
// persists the devis in en_attente status. UserID is optional; everything
// else is required and missing fields are reported together.
func (s *DevisService) Create(ctx context.Context, in CreateDevisInput) (*domain.Devis, error) {
	verr := requireFields(map[string]string{
		"nom":       in.Name,
		"email":     in.Email,
		"telephone": in.Phone,
		"pays":      in.Country,
		"details":   in.Details,
	})
	if !domain.ValidDevisType(in.ServiceType) {
		if verr == nil {
			verr = &ValidationError{}
		}
		verr.Fields = append(verr.Fields, "type_service")
	}
	if verr != nil {
		sort.Strings(verr.Fields)
		return nil, verr
	}

	d := &domain.Devis{
		Reference:   refs.New(refs.PrefixDevis),
		ServiceType: in.ServiceType,
		Name:        in.Name,
		Email:       in.Email,
		Phone:       in.Phone,
		Country:     in.Country,
		Details:     in.Details,
		Status:      domain.DevisPending,
	}
	if uid := strings.TrimSpace(in.UserID); uid != "" {
		d.UserID = &uid
	}
	if err := s.Repo.CreateDevis(ctx, s.DB, d); err != nil {
		return nil, wrapStorage("create devis", err)
	}
	return d, nil
}

// GetByID returns the devis, or (nil, nil) when the id does not exist.
func (s *DevisService) GetByID(ctx context.Context, id string) (*domain.Devis, error) {
	d, err := s.Repo.GetDevis(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStorage("get devis", err)
	}
	return d, nil
}

// ListForUser returns a page of the user's devis, newest first.
func (s *DevisService) ListForUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Devis, int64, error) {
	return s.listForUser(ctx, userID, "", page, pageSize)
}

// ListAccompagnementForUser returns only the user's accompaniment requests.
func (s *DevisService) ListAccompagnementForUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Devis, int64, error) {
	return s.listForUser(ctx, userID, domain.DevisAccompagnement, page, pageSize)
}

func (s *DevisService) listForUser(ctx context.Context, userID string, serviceType domain.DevisType, page, pageSize int) ([]domain.Devis, int64, error) {
	offset, limit := pageOffset(page, pageSize)

	total, err := s.Repo.CountDevis(ctx, s.DB, userID, serviceType)
	if err != nil {
		return nil, 0, wrapStorage("count devis", err)
	}
	if total == 0 {
		return []domain.Devis{}, 0, nil
	}
	items, err := s.Repo.ListDevisPage(ctx, s.DB, userID, serviceType, offset, limit)
	if err != nil {
		return nil, 0, wrapStorage("list devis", err)
	}
	return items, total, nil
}

// ListAll returns the filtered back-office listing across every user.
func (s *DevisService) ListAll(ctx context.Context, f DevisListFilter, page, pageSize int) ([]domain.Devis, int64, error) {
	offset, limit := pageOffset(page, pageSize)

	total, err := s.Repo.CountAllDevis(ctx, s.DB, f)
	if err != nil {
		return nil, 0, wrapStorage("count all devis", err)
	}
	if total == 0 {
		return []domain.Devis{}, 0, nil
	}
	items, err := s.Repo.ListAllDevisPage(ctx, s.DB, f, offset, limit)
	if err != nil {
		return nil, 0, wrapStorage("list all devis", err)
	}
	return items, total, nil
}

// Respond applies the admin response and the en_attente -> repondu
// transition atomically. Responding twice, or to a missing id, fails with
// InvalidTransitionError or NotFoundError respectively.
func (s *DevisService) Respond(ctx context.Context, id string, in RespondDevisInput) (*domain.Devis, error) {
	verr := requireFields(map[string]string{
		"reponse": in.Response,
		"devise":  in.Currency,
		"delai":   in.Delay,
	})
	if in.Amount < 0 {
		if verr == nil {
			verr = &ValidationError{}
		}
		verr.Fields = append(verr.Fields, "montant")
	}
	if verr != nil {
		sort.Strings(verr.Fields)
		return nil, verr
	}

	n, err := s.Repo.RespondDevis(ctx, s.DB, id, in.Response, pricing.Round2(in.Amount), in.Currency, in.Delay)
	if err != nil {
		return nil, wrapStorage("respond devis", err)
	}
	if n == 0 {
		cur, gerr := s.Repo.GetDevis(ctx, s.DB, id)
		if gerr != nil {
			return nil, &NotFoundError{Kind: "devis", ID: id}
		}
		return nil, &InvalidTransitionError{Kind: "devis", From: string(cur.Status), To: string(domain.DevisAnswered)}
	}

	updated, err := s.Repo.GetDevis(ctx, s.DB, id)
	if err != nil {
		return nil, wrapStorage("get devis", err)
	}
	return updated, nil
}

// Formulas returns the fixed accompaniment catalogue shown before a request
// is made. The catalogue is static by design; prices here are indicative
// and the actual engagement is quoted through the devis response flow.
func (s *DevisService) Formulas() []AccompagnementFormula {
	return []AccompagnementFormula{
		{
			ID:      "form-1",
			Name:    "Basic",
			Details: "Formule de base pour les débutants",
			Services: []string{
				"Consultation initiale",
				"Aide à la sélection de produits",
				"Support par email",
			},
			Price:    500,
			Currency: "USD",
		},
		{
			ID:      "form-2",
			Name:    "Standard",
			Details: "Formule intermédiaire pour les entreprises",
			Services: []string{
				"Consultation initiale",
				"Aide à la sélection de produits",
				"Assistance transport",
				"Support par téléphone",
				"Suivi mensuel",
			},
			Price:    1500,
			Currency: "USD",
		},
		{
			ID:      "form-3",
			Name:    "Premium",
			Details: "Formule complète avec support dédié",
			Services: []string{
				"Consultation initiale",
				"Aide à la sélection de produits",
				"Assistance transport complète",
				"Support 24/7",
				"Manager dédié",
				"Suivi hebdomadaire",
				"Assistance douanière",
			},
			Price:    5000,
			Currency: "USD",
		},
	}
}

// RequestAccompagnement creates an accompaniment devis for the chosen
// formula. The request gets an ACCOM- reference and rides the same repondu
// lifecycle as every other devis.
func (s *DevisService) RequestAccompagnement(ctx context.Context, userID, formulaID, projectDetails string) (*domain.Devis, error) {
	verr := requireFields(map[string]string{
		"user_id":            userID,
		"formule_id":         formulaID,
		"description_projet": projectDetails,
	})
	if verr != nil {
		return nil, verr
	}

	var formula *AccompagnementFormula
	for _, f := range s.Formulas() {
		if f.ID == formulaID {
			formula = &f
			break
		}
	}
	if formula == nil {
		return nil, ErrUnknownFormula
	}

	d := &domain.Devis{
		Reference:   refs.New(refs.PrefixAccompagnement),
		UserID:      &userID,
		ServiceType: domain.DevisAccompagnement,
		Details:     formula.Name + ": " + projectDetails,
		Status:      domain.DevisPending,
	}
	if err := s.Repo.CreateDevis(ctx, s.DB, d); err != nil {
		return nil, wrapStorage("create accompagnement devis", err)
	}
	return d, nil
}
