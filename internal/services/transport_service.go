// Package services – TransportService
//
// This file implements the TransportService, which owns international
// freight requests: quoting (deterministic two-mode estimate), creation
// (validate -> quote -> reference -> persist with the chosen mode's price
// frozen), the four-state lifecycle with its append-only timeline, and
// document attachments.
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

// TransportRepo defines the repository contract required by
// TransportService.
type TransportRepo interface {
	CreateTransport(ctx context.Context, db *gorm.DB, t *domain.Transport) error
	GetTransport(ctx context.Context, db *gorm.DB, id string) (*domain.Transport, error)
	ListTransportsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Transport, error)
	CountTransports(ctx context.Context, db *gorm.DB, userID string) (int64, error)
	TransitionTransport(ctx context.Context, db *gorm.DB, id string, from, to domain.TransportStatus) (int64, error)
	AppendTransportEvent(ctx context.Context, db *gorm.DB, transportID, stage, description string) (*domain.TransportEvent, error)
	AddTransportDocument(ctx context.Context, db *gorm.DB, transportID string, doc *domain.TransportDocument) error
}

// QuoteTransportInput is the payload for a standalone cost estimate.
type QuoteTransportInput struct {
	Origin      string
	Destination string
	GoodsType   string
	Weight      float64
	Volume      float64
}

// CreateTransportInput extends the quote input with the owner, the chosen
// mode, and an optional free-text description.
type CreateTransportInput struct {
	UserID      string
	Origin      string
	Destination string
	GoodsType   string
	Weight      float64
	Volume      float64
	Mode        domain.TransportMode
	Description string
}

// TransportService provides transport lifecycle operations.
type TransportService struct {
	DB   *gorm.DB
	Repo TransportRepo
}

// NewTransportService constructs a TransportService.
func NewTransportService(db *gorm.DB, r TransportRepo) *TransportService {
	return &TransportService{DB: db, Repo: r}
}

// Quote validates the shipment fields and returns the deterministic
// two-mode estimate. Zero weight or volume prices at 0 by design; negative
// values are rejected.
func (s *TransportService) Quote(_ context.Context, in QuoteTransportInput) (pricing.TransportQuote, error) {
	if verr := validateShipment(in.Origin, in.Destination, in.GoodsType, in.Weight, in.Volume); verr != nil {
		return pricing.TransportQuote{}, verr
	}
	return pricing.QuoteTransport(in.Weight, in.Volume), nil
}

// Create validates the request, prices it for the chosen mode, generates the
// TRANS- reference, and persists the transport in en_attente status. The
// estimated price is frozen here; changing mode afterwards is not supported.
func (s *TransportService) Create(ctx context.Context, in CreateTransportInput) (*domain.Transport, error) {
	verr := validateShipment(in.Origin, in.Destination, in.GoodsType, in.Weight, in.Volume)
	if strings.TrimSpace(in.UserID) == "" {
		if verr == nil {
			verr = &ValidationError{}
		}
		verr.Fields = append(verr.Fields, "user_id")
	}
	if !domain.ValidTransportMode(in.Mode) {
		if verr == nil {
			verr = &ValidationError{}
		}
		verr.Fields = append(verr.Fields, "mode_transport")
	}
	if verr != nil {
		sort.Strings(verr.Fields)
		return nil, verr
	}

	quote := pricing.QuoteTransport(in.Weight, in.Volume)

	t := &domain.Transport{
		Reference:      refs.New(refs.PrefixTransport),
		UserID:         in.UserID,
		Origin:         in.Origin,
		Destination:    in.Destination,
		GoodsType:      in.GoodsType,
		Weight:         in.Weight,
		Volume:         in.Volume,
		Mode:           in.Mode,
		Description:    in.Description,
		EstimatedPrice: quote.PriceForMode(string(in.Mode)),
		Status:         domain.TransportPending,
	}
	if err := s.Repo.CreateTransport(ctx, s.DB, t); err != nil {
		return nil, wrapStorage("create transport", err)
	}
	return t, nil
}

// GetByID returns the transport with its timeline and documents joined, or
// (nil, nil) when the id does not exist.
func (s *TransportService) GetByID(ctx context.Context, id string) (*domain.Transport, error) {
	t, err := s.Repo.GetTransport(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStorage("get transport", err)
	}
	return t, nil
}

// ListForUser returns a page of the user's transports, newest first, with
// the total count.
func (s *TransportService) ListForUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Transport, int64, error) {
	offset, limit := pageOffset(page, pageSize)

	total, err := s.Repo.CountTransports(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, wrapStorage("count transports", err)
	}
	if total == 0 {
		return []domain.Transport{}, 0, nil
	}
	items, err := s.Repo.ListTransportsPage(ctx, s.DB, userID, offset, limit)
	if err != nil {
		return nil, 0, wrapStorage("list transports", err)
	}
	return items, total, nil
}

// UpdateStatus moves the transport to newStatus through the declared
// transition table, applied as one conditional UPDATE. When note is
// non-empty a timeline event is appended with the new stage and that
// narrative; an empty note records no event, matching the original flow.
func (s *TransportService) UpdateStatus(ctx context.Context, id string, newStatus domain.TransportStatus, note string) (*domain.Transport, error) {
	cur, err := s.Repo.GetTransport(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Kind: "transport", ID: id}
	}
	if err != nil {
		return nil, wrapStorage("get transport", err)
	}

	if !domain.TransportLifecycle.CanTransition(string(cur.Status), string(newStatus)) {
		return nil, &InvalidTransitionError{Kind: "transport", From: string(cur.Status), To: string(newStatus)}
	}

	n, err := s.Repo.TransitionTransport(ctx, s.DB, id, cur.Status, newStatus)
	if err != nil {
		return nil, wrapStorage("transition transport", err)
	}
	if n == 0 {
		fresh, ferr := s.Repo.GetTransport(ctx, s.DB, id)
		if ferr != nil {
			return nil, &NotFoundError{Kind: "transport", ID: id}
		}
		return nil, &InvalidTransitionError{Kind: "transport", From: string(fresh.Status), To: string(newStatus)}
	}

	if strings.TrimSpace(note) != "" {
		if _, err := s.Repo.AppendTransportEvent(ctx, s.DB, id, string(newStatus), note); err != nil {
			return nil, wrapStorage("append transport event", err)
		}
	}

	updated, err := s.Repo.GetTransport(ctx, s.DB, id)
	if err != nil {
		return nil, wrapStorage("get transport", err)
	}
	return updated, nil
}

// Cancel is the convenience wrapper moving a non-terminal transport to
// annulee.
func (s *TransportService) Cancel(ctx context.Context, id string, note string) (*domain.Transport, error) {
	return s.UpdateStatus(ctx, id, domain.TransportCancelled, note)
}

// AddDocument validates and attaches a document (nom/type/url) to the
// transport.
func (s *TransportService) AddDocument(ctx context.Context, transportID, name, docType, url string) (*domain.TransportDocument, error) {
	verr := requireFields(map[string]string{
		"nom":  name,
		"type": docType,
		"url":  url,
	})
	if verr != nil {
		return nil, verr
	}
	if _, err := s.Repo.GetTransport(ctx, s.DB, transportID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Kind: "transport", ID: transportID}
		}
		return nil, wrapStorage("get transport", err)
	}
	doc := &domain.TransportDocument{Name: name, Type: docType, URL: url}
	if err := s.Repo.AddTransportDocument(ctx, s.DB, transportID, doc); err != nil {
		return nil, wrapStorage("add transport document", err)
	}
	return doc, nil
}

// validateShipment reports every missing or out-of-range shipment field.
func validateShipment(origin, destination, goodsType string, weight, volume float64) *ValidationError {
	verr := requireFields(map[string]string{
		"pays_depart":      origin,
		"pays_destination": destination,
		"type_marchandise": goodsType,
	})
	if weight < 0 {
		if verr == nil {
			verr = &ValidationError{}
		}
		verr.Fields = append(verr.Fields, "poids")
	}
	if volume < 0 {
		if verr == nil {
			verr = &ValidationError{}
		}
		verr.Fields = append(verr.Fields, "volume")
	}
	if verr != nil {
		sort.Strings(verr.Fields)
	}
	return verr
}
