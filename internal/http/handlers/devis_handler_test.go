package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/afritrade/go-trade-backend/internal/domain"
	"github.com/afritrade/go-trade-backend/internal/http/middleware"
	"github.com/afritrade/go-trade-backend/internal/services"
)

func newDevisHandlers(d DevisService) *Handlers {
	return New(stubResSvc{}, stubTransSvc{}, d, stubMsgSvc{}, stubProfileSvc{}, stubAdminSvc{})
}

// CreateDevis accepts anonymous traffic: it is mounted behind
// AuthenticateOptional, so a missing token still reaches the handler with an
// empty user id.
func TestCreateDevis_AnonymousAndAuthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var captured services.CreateDevisInput
	svc := stubDevisSvc{
		create: func(_ context.Context, in services.CreateDevisInput) (*domain.Devis, error) {
			captured = in
			return &domain.Devis{ID: "d1"}, nil
		},
	}
	r := gin.New()
	r.Use(middleware.AuthenticateOptional(testVerifier))
	r.POST("/devis", newDevisHandlers(svc).CreateDevis)

	body := `{"type_service":"transport","nom":"Diallo","email":"a@b.cm","telephone":"+237 6","pays":"Cameroun","details":"conteneur 20 pieds"}`

	w := doJSON(t, r, http.MethodPost, "/devis", "", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("anonymous -> %d body=%s", w.Code, w.Body.String())
	}
	if captured.UserID != "" {
		t.Fatalf("anonymous user id = %q", captured.UserID)
	}
	if captured.ServiceType != domain.DevisTransport || captured.Name != "Diallo" {
		t.Fatalf("captured = %+v", captured)
	}

	w = doJSON(t, r, http.MethodPost, "/devis", "tok-u1", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("authenticated -> %d", w.Code)
	}
	if captured.UserID != "u1" {
		t.Fatalf("authenticated user id = %q", captured.UserID)
	}

	if w = doJSON(t, r, http.MethodPost, "/devis", "", "{bad"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json -> %d", w.Code)
	}
}

func TestGetDevis_AnonymousRecordIsAdminOnly(t *testing.T) {
	owner := "u1"
	svc := stubDevisSvc{
		get: func(_ context.Context, id string) (*domain.Devis, error) {
			switch id {
			case "d-owned":
				return &domain.Devis{ID: id, UserID: &owner}, nil
			case "d-anon":
				return &domain.Devis{ID: id}, nil
			}
			return nil, nil
		},
	}
	r := authedRouter(func(r *gin.Engine) {
		r.GET("/devis/:id", newDevisHandlers(svc).GetDevis)
	})

	if w := doJSON(t, r, http.MethodGet, "/devis/d-owned", "tok-u1", ""); w.Code != http.StatusOK {
		t.Fatalf("owner -> %d", w.Code)
	}
	// A devis with no owner is visible to admins only.
	if w := doJSON(t, r, http.MethodGet, "/devis/d-anon", "tok-u1", ""); w.Code != http.StatusForbidden {
		t.Fatalf("client on anonymous devis -> %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/devis/d-anon", "tok-admin", ""); w.Code != http.StatusOK {
		t.Fatalf("admin on anonymous devis -> %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/devis/missing", "tok-u1", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing -> %d", w.Code)
	}
}

func TestRespondDevis_ConflictWhenAlreadyAnswered(t *testing.T) {
	svc := stubDevisSvc{
		respond: func(_ context.Context, id string, in services.RespondDevisInput) (*domain.Devis, error) {
			if id == "d1" && in.Amount == 1200.50 {
				return &domain.Devis{ID: id, Status: domain.DevisAnswered}, nil
			}
			return nil, &services.InvalidTransitionError{Kind: "devis", From: "repondu", To: "repondu"}
		},
	}
	r := authedRouter(func(r *gin.Engine) {
		r.PUT("/admin/devis/:id/reponse", newDevisHandlers(svc).RespondDevis)
	})

	body := `{"reponse":"Voici notre offre","montant":1200.50,"devise":"USD","delai":"2 semaines"}`
	if w := doJSON(t, r, http.MethodPut, "/admin/devis/d1/reponse", "tok-admin", body); w.Code != http.StatusOK {
		t.Fatalf("respond -> %d body=%s", w.Code, w.Body.String())
	}

	w := doJSON(t, r, http.MethodPut, "/admin/devis/d2/reponse", "tok-admin", body)
	if w.Code != http.StatusConflict {
		t.Fatalf("second answer -> %d", w.Code)
	}
	var envelope ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("json: %v", err)
	}
	if envelope.Code != ErrCodeInvalidTransition {
		t.Fatalf("code = %q", envelope.Code)
	}
}

// The catalogue endpoint is public and wraps the formulas under "formules".
func TestListFormulas(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := stubDevisSvc{
		formulas: func() []services.AccompagnementFormula {
			return []services.AccompagnementFormula{{ID: "form-1", Name: "Starter"}}
		},
	}
	r := gin.New()
	r.GET("/accompagnement/formules", newDevisHandlers(svc).ListFormulas)

	w := doJSON(t, r, http.MethodGet, "/accompagnement/formules", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("formulas -> %d", w.Code)
	}
	var out struct {
		Formules []services.AccompagnementFormula `json:"formules"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(out.Formules) != 1 || out.Formules[0].ID != "form-1" {
		t.Fatalf("formules = %+v", out.Formules)
	}
}

func TestRequestAccompagnement(t *testing.T) {
	var gotUser, gotFormula, gotDetails string
	svc := stubDevisSvc{
		reqAccomp: func(_ context.Context, userID, formulaID, details string) (*domain.Devis, error) {
			gotUser, gotFormula, gotDetails = userID, formulaID, details
			if formulaID == "form-9" {
				return nil, services.ErrUnknownFormula
			}
			return &domain.Devis{ID: "d1"}, nil
		},
	}
	r := authedRouter(func(r *gin.Engine) {
		r.POST("/accompagnement", newDevisHandlers(svc).RequestAccompagnement)
	})

	w := doJSON(t, r, http.MethodPost, "/accompagnement", "tok-u1",
		`{"formule_id":"form-2","description_projet":"export de cacao"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("request -> %d body=%s", w.Code, w.Body.String())
	}
	if gotUser != "u1" || gotFormula != "form-2" || gotDetails != "export de cacao" {
		t.Fatalf("args = %q/%q/%q", gotUser, gotFormula, gotDetails)
	}

	// Unknown formula maps to a 400 bad_request, not a validation error.
	w = doJSON(t, r, http.MethodPost, "/accompagnement", "tok-u1",
		`{"formule_id":"form-9","description_projet":"x"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown formula -> %d", w.Code)
	}
	var envelope ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("json: %v", err)
	}
	if envelope.Code != ErrCodeBadRequest {
		t.Fatalf("code = %q", envelope.Code)
	}
}
