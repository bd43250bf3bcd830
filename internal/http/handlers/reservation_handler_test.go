package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/afritrade/go-trade-backend/internal/auth"
	"github.com/afritrade/go-trade-backend/internal/domain"
	"github.com/afritrade/go-trade-backend/internal/http/middleware"
	"github.com/afritrade/go-trade-backend/internal/pricing"
	"github.com/afritrade/go-trade-backend/internal/services"
)

// ---------- stub services ----------
//
// Function-field stubs: a nil field means "return zero values", so each test
// only fills in what it exercises.

type stubResSvc struct {
	create      func(context.Context, services.CreateReservationInput) (*domain.Reservation, error)
	getByID     func(context.Context, string) (*domain.Reservation, error)
	getByRef    func(context.Context, string) (*domain.Reservation, error)
	listForUser func(context.Context, string, int, int) ([]domain.Reservation, int64, error)
	listPending func(context.Context, int, int) ([]domain.Reservation, int64, error)
	confirm     func(context.Context, string) (*domain.Reservation, error)
	cancel      func(context.Context, string) (*domain.Reservation, error)
}

func (s stubResSvc) Create(ctx context.Context, in services.CreateReservationInput) (*domain.Reservation, error) {
	if s.create != nil {
		return s.create(ctx, in)
	}
	return &domain.Reservation{ID: "r1", UserID: in.UserID}, nil
}

func (s stubResSvc) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	if s.getByID != nil {
		return s.getByID(ctx, id)
	}
	return nil, nil
}

func (s stubResSvc) GetByReference(ctx context.Context, ref string) (*domain.Reservation, error) {
	if s.getByRef != nil {
		return s.getByRef(ctx, ref)
	}
	return nil, nil
}

func (s stubResSvc) ListForUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Reservation, int64, error) {
	if s.listForUser != nil {
		return s.listForUser(ctx, userID, page, pageSize)
	}
	return nil, 0, nil
}

func (s stubResSvc) ListPending(ctx context.Context, page, pageSize int) ([]domain.Reservation, int64, error) {
	if s.listPending != nil {
		return s.listPending(ctx, page, pageSize)
	}
	return nil, 0, nil
}

func (s stubResSvc) Confirm(ctx context.Context, id string) (*domain.Reservation, error) {
	if s.confirm != nil {
		return s.confirm(ctx, id)
	}
	return &domain.Reservation{ID: id, Status: domain.ReservationConfirmed}, nil
}

func (s stubResSvc) Cancel(ctx context.Context, id string) (*domain.Reservation, error) {
	if s.cancel != nil {
		return s.cancel(ctx, id)
	}
	return &domain.Reservation{ID: id, Status: domain.ReservationCancelled}, nil
}

type stubTransSvc struct{}

func (stubTransSvc) Quote(context.Context, services.QuoteTransportInput) (pricing.TransportQuote, error) {
	return pricing.TransportQuote{}, nil
}
func (stubTransSvc) Create(context.Context, services.CreateTransportInput) (*domain.Transport, error) {
	return nil, nil
}
func (stubTransSvc) GetByID(context.Context, string) (*domain.Transport, error) { return nil, nil }
func (stubTransSvc) ListForUser(context.Context, string, int, int) ([]domain.Transport, int64, error) {
	return nil, 0, nil
}
func (stubTransSvc) UpdateStatus(context.Context, string, domain.TransportStatus, string) (*domain.Transport, error) {
	return nil, nil
}
func (stubTransSvc) Cancel(context.Context, string, string) (*domain.Transport, error) {
	return nil, nil
}
func (stubTransSvc) AddDocument(context.Context, string, string, string, string) (*domain.TransportDocument, error) {
	return nil, nil
}

type stubDevisSvc struct {
	create    func(context.Context, services.CreateDevisInput) (*domain.Devis, error)
	get       func(context.Context, string) (*domain.Devis, error)
	respond   func(context.Context, string, services.RespondDevisInput) (*domain.Devis, error)
	reqAccomp func(context.Context, string, string, string) (*domain.Devis, error)
	formulas  func() []services.AccompagnementFormula
}

func (s stubDevisSvc) Create(ctx context.Context, in services.CreateDevisInput) (*domain.Devis, error) {
	if s.create != nil {
		return s.create(ctx, in)
	}
	return &domain.Devis{ID: "d1"}, nil
}

func (s stubDevisSvc) GetByID(ctx context.Context, id string) (*domain.Devis, error) {
	if s.get != nil {
		return s.get(ctx, id)
	}
	return nil, nil
}

func (stubDevisSvc) ListForUser(context.Context, string, int, int) ([]domain.Devis, int64, error) {
	return nil, 0, nil
}
func (stubDevisSvc) ListAccompagnementForUser(context.Context, string, int, int) ([]domain.Devis, int64, error) {
	return nil, 0, nil
}
func (stubDevisSvc) ListAll(context.Context, services.DevisListFilter, int, int) ([]domain.Devis, int64, error) {
	return nil, 0, nil
}
func (s stubDevisSvc) Respond(ctx context.Context, id string, in services.RespondDevisInput) (*domain.Devis, error) {
	if s.respond != nil {
		return s.respond(ctx, id, in)
	}
	return nil, nil
}

func (s stubDevisSvc) Formulas() []services.AccompagnementFormula {
	if s.formulas != nil {
		return s.formulas()
	}
	return nil
}

func (s stubDevisSvc) RequestAccompagnement(ctx context.Context, userID, formulaID, projectDetails string) (*domain.Devis, error) {
	if s.reqAccomp != nil {
		return s.reqAccomp(ctx, userID, formulaID, projectDetails)
	}
	return nil, nil
}

type stubMsgSvc struct{}

func (stubMsgSvc) Send(context.Context, string, string, string) (*domain.Message, *domain.Conversation, error) {
	return nil, nil, nil
}
func (stubMsgSvc) Reply(context.Context, string, string, string) (*domain.Message, error) {
	return nil, nil
}
func (stubMsgSvc) ListForUser(context.Context, string, int, int) ([]domain.Conversation, int64, error) {
	return nil, 0, nil
}
func (stubMsgSvc) Thread(context.Context, string) (*domain.Conversation, error) { return nil, nil }
func (stubMsgSvc) MarkRead(context.Context, string) error                       { return nil }
func (stubMsgSvc) MarkThreadRead(context.Context, string, string) error         { return nil }
func (stubMsgSvc) UnreadCount(context.Context, string) (int64, error)           { return 0, nil }

type stubProfileSvc struct{}

func (stubProfileSvc) Get(context.Context, string) (*services.Profile, error) { return nil, nil }
func (stubProfileSvc) Update(context.Context, string, services.UpdateProfileInput) (*services.Profile, error) {
	return nil, nil
}

type stubAdminSvc struct{}

func (stubAdminSvc) Dashboard(context.Context) (*services.DashboardStats, error) { return nil, nil }

// ---------- wiring helpers ----------

func newTestHandlers(res ReservationService) *Handlers {
	if res == nil {
		res = stubResSvc{}
	}
	return New(res, stubTransSvc{}, stubDevisSvc{}, stubMsgSvc{}, stubProfileSvc{}, stubAdminSvc{})
}

// testVerifier maps fixed tokens to the identities used across these tests.
var testVerifier = auth.StaticVerifier{
	"tok-u1":    {UserID: "u1", Role: auth.RoleClient},
	"tok-u2":    {UserID: "u2", Role: auth.RoleClient},
	"tok-admin": {UserID: "a1", Role: auth.RoleAdmin},
}

func authedRouter(setup func(r *gin.Engine)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Authenticate(testVerifier))
	setup(r)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ---------- tests ----------

func TestCreateReservation(t *testing.T) {
	var captured services.CreateReservationInput
	svc := stubResSvc{
		create: func(_ context.Context, in services.CreateReservationInput) (*domain.Reservation, error) {
			captured = in
			return &domain.Reservation{ID: "r1", UserID: in.UserID, Status: domain.ReservationPending}, nil
		},
	}
	r := authedRouter(func(r *gin.Engine) {
		r.POST("/reservations", newTestHandlers(svc).CreateReservation)
	})

	// Missing token -> 401 before the handler runs.
	if w := doJSON(t, r, http.MethodPost, "/reservations", "", `{}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token -> %d", w.Code)
	}

	// Bad JSON -> 400.
	if w := doJSON(t, r, http.MethodPost, "/reservations", "tok-u1", "{bad"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json -> %d", w.Code)
	}

	// Success -> 201, owner taken from the verified identity.
	w := doJSON(t, r, http.MethodPost, "/reservations", "tok-u1",
		`{"produit_id":"p1","quantite":2,"prix_unitaire":10.5,"notes":"n"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create -> %d body=%s", w.Code, w.Body.String())
	}
	if captured.UserID != "u1" || captured.ProductID != "p1" || captured.Quantity != 2 {
		t.Fatalf("captured input = %+v", captured)
	}

	// Service validation error -> 400 validation_failed.
	svcErr := stubResSvc{
		create: func(context.Context, services.CreateReservationInput) (*domain.Reservation, error) {
			return nil, &services.ValidationError{Fields: []string{"quantite"}}
		},
	}
	r2 := authedRouter(func(r *gin.Engine) {
		r2h := newTestHandlers(svcErr)
		r.POST("/reservations", r2h.CreateReservation)
	})
	w = doJSON(t, r2, http.MethodPost, "/reservations", "tok-u1", `{"produit_id":"p1"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("validation -> %d", w.Code)
	}
	var envelope ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("json: %v", err)
	}
	if envelope.Code != ErrCodeValidation {
		t.Fatalf("code = %q", envelope.Code)
	}
}

func TestGetReservation_Ownership(t *testing.T) {
	owned := &domain.Reservation{ID: "r1", UserID: "u1"}
	svc := stubResSvc{
		getByID: func(_ context.Context, id string) (*domain.Reservation, error) {
			if id == "r1" {
				return owned, nil
			}
			return nil, nil
		},
	}
	r := authedRouter(func(r *gin.Engine) {
		r.GET("/reservations/:id", newTestHandlers(svc).GetReservation)
	})

	// Owner sees it.
	if w := doJSON(t, r, http.MethodGet, "/reservations/r1", "tok-u1", ""); w.Code != http.StatusOK {
		t.Fatalf("owner -> %d", w.Code)
	}
	// Another client is refused.
	if w := doJSON(t, r, http.MethodGet, "/reservations/r1", "tok-u2", ""); w.Code != http.StatusForbidden {
		t.Fatalf("other user -> %d", w.Code)
	}
	// Admin bypasses ownership.
	if w := doJSON(t, r, http.MethodGet, "/reservations/r1", "tok-admin", ""); w.Code != http.StatusOK {
		t.Fatalf("admin -> %d", w.Code)
	}
	// Absent id -> 404.
	if w := doJSON(t, r, http.MethodGet, "/reservations/missing", "tok-u1", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing -> %d", w.Code)
	}
}

func TestCancelReservation_ConflictOnTerminalState(t *testing.T) {
	svc := stubResSvc{
		getByID: func(context.Context, string) (*domain.Reservation, error) {
			return &domain.Reservation{ID: "r1", UserID: "u1", Status: domain.ReservationConfirmed}, nil
		},
		cancel: func(context.Context, string) (*domain.Reservation, error) {
			return nil, &services.InvalidTransitionError{Kind: "reservation", From: "confirmee", To: "annulee"}
		},
	}
	r := authedRouter(func(r *gin.Engine) {
		r.PUT("/reservations/:id/cancel", newTestHandlers(svc).CancelReservation)
	})

	w := doJSON(t, r, http.MethodPut, "/reservations/r1/cancel", "tok-u1", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("conflict -> %d body=%s", w.Code, w.Body.String())
	}
	var envelope ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("json: %v", err)
	}
	if envelope.Code != ErrCodeInvalidTransition {
		t.Fatalf("code = %q", envelope.Code)
	}
}

func TestListReservations_PaginationEnvelope(t *testing.T) {
	svc := stubResSvc{
		listForUser: func(_ context.Context, userID string, page, pageSize int) ([]domain.Reservation, int64, error) {
			if userID != "u1" || page != 2 || pageSize != 10 {
				t.Fatalf("args = %q/%d/%d", userID, page, pageSize)
			}
			return []domain.Reservation{{ID: "r1"}}, 25, nil
		},
	}
	r := authedRouter(func(r *gin.Engine) {
		r.GET("/reservations", newTestHandlers(svc).ListReservations)
	})

	w := doJSON(t, r, http.MethodGet, "/reservations?page=2&page_size=10", "tok-u1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list -> %d", w.Code)
	}
	var out ListReservationsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	p := out.Pagination
	if p.Page != 2 || p.PageSize != 10 || p.Total != 25 || p.TotalPages != 3 || !p.HasNext {
		t.Fatalf("pagination = %+v", p)
	}
}

func TestClampPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=-5&page_size=9999", nil)
	page, pageSize := clampPagination(c)
	if page != 1 || pageSize != 100 {
		t.Fatalf("bounds: page=%d pageSize=%d", page, pageSize)
	}

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=&page_size=0", nil)
	page, pageSize = clampPagination(c)
	if page != 1 || pageSize != 1 {
		t.Fatalf("defaults: page=%d pageSize=%d", page, pageSize)
	}
}

func TestFailFromService_InternalError(t *testing.T) {
	svc := stubResSvc{
		getByID: func(context.Context, string) (*domain.Reservation, error) {
			return nil, errors.New("boom")
		},
	}
	r := authedRouter(func(r *gin.Engine) {
		r.GET("/reservations/:id", newTestHandlers(svc).GetReservation)
	})

	w := doJSON(t, r, http.MethodGet, "/reservations/r1", "tok-u1", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("internal -> %d", w.Code)
	}
	var envelope ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("json: %v", err)
	}
	if envelope.Code != ErrCodeInternal {
		t.Fatalf("code = %q", envelope.Code)
	}
}
