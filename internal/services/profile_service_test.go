package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/afritrade/go-trade-backend/internal/domain"
)

func newProfileTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:profilesvc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(
		&domain.User{}, &domain.Reservation{}, &domain.Transport{}, &domain.Devis{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedProfileUser(t *testing.T, db *gorm.DB, id string) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:           id,
		LastName:     "Diallo",
		FirstName:    "Awa",
		Email:        id + "@example.cm",
		Phone:        "+237600000000",
		Country:      "Cameroun",
		PasswordHash: "x",
		Role:         "client",
		RegisteredAt: time.Now().UTC().Add(-24 * time.Hour),
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestProfileGet_AggregatesCounts(t *testing.T) {
	db := newProfileTestDB(t)
	u := seedProfileUser(t, db, "u1")

	for i := 0; i < 2; i++ {
		r := &domain.Reservation{
			ID:        uuid.NewString(),
			Reference: fmt.Sprintf("RES-%d", i),
			UserID:    u.ID,
			ProductID: "p1",
			Quantity:  1,
			Status:    domain.ReservationPending,
		}
		if err := db.Create(r).Error; err != nil {
			t.Fatalf("seed reservation: %v", err)
		}
	}
	tr := &domain.Transport{
		ID:          uuid.NewString(),
		Reference:   "TRANS-1",
		UserID:      u.ID,
		Origin:      "Chine",
		Destination: "Cameroun",
		GoodsType:   "textile",
		Mode:        domain.ModeMaritime,
		Status:      domain.TransportPending,
	}
	if err := db.Create(tr).Error; err != nil {
		t.Fatalf("seed transport: %v", err)
	}

	s := NewProfileService(db)
	p, err := s.Get(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Reservations != 2 || p.Transports != 1 || p.Devis != 0 {
		t.Fatalf("counts = %d/%d/%d, want 2/1/0", p.Reservations, p.Transports, p.Devis)
	}
	if p.User == nil || p.User.ID != u.ID {
		t.Fatalf("user not attached: %+v", p.User)
	}
	if p.RegisteredAt.IsZero() {
		t.Fatalf("registration date missing")
	}
}

func TestProfileGet_Missing(t *testing.T) {
	db := newProfileTestDB(t)
	s := NewProfileService(db)

	_, err := s.Get(context.Background(), "missing")
	var nfe *NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func strptr(v string) *string { return &v }

func TestProfileUpdate_Partial(t *testing.T) {
	db := newProfileTestDB(t)
	u := seedProfileUser(t, db, "u1")

	s := NewProfileService(db)
	p, err := s.Update(context.Background(), u.ID, UpdateProfileInput{
		Phone:   strptr("+237699999999"),
		Country: strptr("Sénégal"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if p.User.Phone != "+237699999999" || p.User.Country != "Sénégal" {
		t.Fatalf("update lost: %+v", p.User)
	}
	// Untouched fields survive.
	if p.User.LastName != "Diallo" || p.User.FirstName != "Awa" {
		t.Fatalf("absent fields must stay: %+v", p.User)
	}
}

func TestProfileUpdate_BlankProvidedFields(t *testing.T) {
	db := newProfileTestDB(t)
	u := seedProfileUser(t, db, "u1")
	s := NewProfileService(db)

	_, err := s.Update(context.Background(), u.ID, UpdateProfileInput{
		LastName: strptr("   "),
		Phone:    strptr(""),
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := []string{"nom", "telephone"}
	if !reflect.DeepEqual(verr.Fields, want) {
		t.Fatalf("fields = %v, want %v", verr.Fields, want)
	}
}

func TestProfileUpdate_EmptyInputIsGet(t *testing.T) {
	db := newProfileTestDB(t)
	u := seedProfileUser(t, db, "u1")
	s := NewProfileService(db)

	p, err := s.Update(context.Background(), u.ID, UpdateProfileInput{})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if p.User.LastName != "Diallo" {
		t.Fatalf("profile = %+v", p.User)
	}
}

func TestProfileUpdate_MissingUser(t *testing.T) {
	db := newProfileTestDB(t)
	s := NewProfileService(db)

	_, err := s.Update(context.Background(), "missing", UpdateProfileInput{
		Phone: strptr("+237600000001"),
	})
	var nfe *NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
