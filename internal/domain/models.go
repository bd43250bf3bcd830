// Package domain defines the persistence models for the trading platform:
// users, products, reservations, transport requests, quote requests (devis),
// and the support messaging entities. These types are mapped with GORM and
// form the core data layer of the application.
//
// Column and JSON names keep the French identifiers of the historical schema
// (numero_reservation, prix_unitaire, sujet, ...) so that persisted data and
// every UI or report built on it keep round-tripping unchanged.
package domain

import (
	"time"
)

// User represents a registered account. Users own reservations, transports
// and devis, and take part in support conversations as initiator or assignee.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - LastName / FirstName: legal name (nom / prenom).
//   - Email: unique login identifier.
//   - Role: "client" or "admin"; ownership checks only bypass for "admin".
//   - RegisteredAt / LastLoginAt: lifecycle timestamps surfaced in profile stats.
type User struct {
	ID           string     `json:"id"            gorm:"type:char(36);primaryKey"`
	LastName     string     `json:"nom"           gorm:"column:nom;type:varchar(100);not null"`
	FirstName    string     `json:"prenom"        gorm:"column:prenom;type:varchar(100);not null"`
	Email        string     `json:"email"         gorm:"type:varchar(255);not null;uniqueIndex"`
	Phone        string     `json:"telephone"     gorm:"column:telephone;type:varchar(32)"`
	Country      string     `json:"pays"          gorm:"column:pays;type:varchar(64)"`
	Address      string     `json:"adresse"       gorm:"column:adresse;type:varchar(255)"`
	PasswordHash string     `json:"-"             gorm:"column:mot_de_passe_hash;type:varchar(255);not null"`
	Role         string     `json:"role"          gorm:"type:varchar(16);not null;default:'client';check:role IN ('client','admin')"`
	RegisteredAt time.Time  `json:"date_inscription" gorm:"column:date_inscription"`
	LastLoginAt  *time.Time `json:"date_derniere_connexion,omitempty" gorm:"column:date_derniere_connexion"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Product is the catalogue entry a reservation points at. Reservations copy
// the unit price at creation time, so later product price changes never
// rewrite past totals.
type Product struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	Name        string    `json:"nom"          gorm:"column:nom;type:varchar(255);not null"`
	Price       float64   `json:"prix"         gorm:"column:prix;not null"`
	Currency    string    `json:"devise"       gorm:"column:devise;type:char(3);not null;default:'USD'"`
	Origin      string    `json:"pays_origine" gorm:"column:pays_origine;type:varchar(64)"`
	MinQuantity int       `json:"quantite_minimum" gorm:"column:quantite_minimum;not null;default:1"`
	Available   bool      `json:"disponible"   gorm:"column:disponible;not null;default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "produits" }

// Reservation is a product order placed by a user.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - Reference: human-readable number (RES-<ms>-<8 base36>), unique.
//   - UserID: owner; every read exposes it so callers can enforce ownership.
//   - Quantity / UnitPrice / TotalPrice: TotalPrice is computed once at
//     creation (quantity x unit price, 2 decimals) and never recomputed.
//   - Status: lifecycle state, see ReservationStatus.
//   - ConfirmedAt / CancelledAt: set by the matching transition only.
type Reservation struct {
	ID          string            `json:"id"                 gorm:"type:char(36);primaryKey"`
	Reference   string            `json:"numero_reservation" gorm:"column:numero_reservation;type:varchar(32);not null;uniqueIndex"`
	UserID      string            `json:"user_id"            gorm:"type:char(36);not null;index:idx_user_reservations"`
	ProductID   string            `json:"produit_id"         gorm:"column:produit_id;type:char(36);not null;index"`
	Quantity    int               `json:"quantite"           gorm:"column:quantite;not null"`
	UnitPrice   float64           `json:"prix_unitaire"      gorm:"column:prix_unitaire;not null"`
	TotalPrice  float64           `json:"prix_total"         gorm:"column:prix_total;not null"`
	Notes       string            `json:"notes,omitempty"    gorm:"type:text"`
	Status      ReservationStatus `json:"statut"             gorm:"column:statut;type:varchar(24);not null;default:'en_attente'"`
	ConfirmedAt *time.Time        `json:"date_confirmation,omitempty" gorm:"column:date_confirmation"`
	CancelledAt *time.Time        `json:"date_annulation,omitempty"   gorm:"column:date_annulation"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`

	// Eagerly joined for detail views; never written through.
	User    *User    `json:"user,omitempty"    gorm:"foreignKey:UserID;references:ID"`
	Product *Product `json:"produit,omitempty" gorm:"foreignKey:ProductID;references:ID"`
}

// TableName returns the database table name for Reservation.
func (Reservation) TableName() string { return "reservations" }

// Transport is an international freight request.
//
// EstimatedPrice is frozen at creation from the pricing calculator for the
// chosen mode; changing mode afterwards is not supported. Timeline is an
// append-only log of customer-facing status events.
type Transport struct {
	ID             string          `json:"id"               gorm:"type:char(36);primaryKey"`
	Reference      string          `json:"numero_transport" gorm:"column:numero_transport;type:varchar(32);not null;uniqueIndex"`
	UserID         string          `json:"user_id"          gorm:"type:char(36);not null;index:idx_user_transports"`
	Origin         string          `json:"pays_depart"      gorm:"column:pays_depart;type:varchar(64);not null"`
	Destination    string          `json:"pays_destination" gorm:"column:pays_destination;type:varchar(64);not null"`
	GoodsType      string          `json:"type_marchandise" gorm:"column:type_marchandise;type:varchar(128);not null"`
	Weight         float64         `json:"poids"            gorm:"column:poids;not null"`
	Volume         float64         `json:"volume"           gorm:"not null"`
	Mode           TransportMode   `json:"mode_transport"   gorm:"column:mode_transport;type:varchar(16);not null;check:mode_transport IN ('maritime','aerien')"`
	Description    string          `json:"description,omitempty" gorm:"type:text"`
	EstimatedPrice float64         `json:"prix_estime"      gorm:"column:prix_estime;not null"`
	Status         TransportStatus `json:"statut"           gorm:"column:statut;type:varchar(24);not null;default:'en_attente'"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Timeline  []TransportEvent    `json:"timeline,omitempty"  gorm:"foreignKey:TransportID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Documents []TransportDocument `json:"documents,omitempty" gorm:"foreignKey:TransportID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	User      *User               `json:"user,omitempty"      gorm:"foreignKey:UserID;references:ID"`
}

// TableName returns the database table name for Transport.
func (Transport) TableName() string { return "transports" }

// TransportEvent is one entry of a transport timeline: the stage label, a
// free-text narrative, and when it happened. Rows are only ever appended.
type TransportEvent struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	TransportID string    `json:"transport_id" gorm:"type:char(36);not null;index:idx_transport_events,priority:1"`
	Stage       string    `json:"etape"        gorm:"column:etape;type:varchar(32);not null"`
	Description string    `json:"description"  gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"   gorm:"index:idx_transport_events,priority:2"`
}

// TableName returns the database table name for TransportEvent.
func (TransportEvent) TableName() string { return "transport_timeline" }

// TransportDocument is a customer-visible file attached to a transport
// (invoice, packing list, bill of lading, ...).
type TransportDocument struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	TransportID string    `json:"transport_id" gorm:"type:char(36);not null;index"`
	Name        string    `json:"nom"          gorm:"column:nom;type:varchar(255);not null"`
	Type        string    `json:"type"         gorm:"type:varchar(64)"`
	URL         string    `json:"url"          gorm:"type:varchar(512);not null"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for TransportDocument.
func (TransportDocument) TableName() string { return "transport_documents" }

// Devis is a price quote request. Anonymous quotes are allowed, so UserID is
// optional. The admin response fields (Response, Amount, Currency, Delay,
// RespondedAt) are set together by the en_attente -> repondu transition and
// are nil until then.
type Devis struct {
	ID          string      `json:"id"           gorm:"type:char(36);primaryKey"`
	Reference   string      `json:"numero_devis" gorm:"column:numero_devis;type:varchar(32);not null;uniqueIndex"`
	UserID      *string     `json:"user_id,omitempty" gorm:"type:char(36);index:idx_user_devis"`
	ServiceType DevisType   `json:"type_service" gorm:"column:type_service;type:varchar(24);not null;check:type_service IN ('achat','transport','accompagnement')"`
	Name        string      `json:"nom"          gorm:"column:nom;type:varchar(100)"`
	Email       string      `json:"email"        gorm:"type:varchar(255)"`
	Phone       string      `json:"telephone"    gorm:"column:telephone;type:varchar(32)"`
	Country     string      `json:"pays"         gorm:"column:pays;type:varchar(64)"`
	Details     string      `json:"details"      gorm:"type:text"`
	Status      DevisStatus `json:"statut"       gorm:"column:statut;type:varchar(24);not null;default:'en_attente'"`
	Response    *string     `json:"reponse,omitempty" gorm:"column:reponse;type:text"`
	Amount      *float64    `json:"montant,omitempty" gorm:"column:montant"`
	Currency    *string     `json:"devise,omitempty"  gorm:"column:devise;type:char(3)"`
	Delay       *string     `json:"delai,omitempty"   gorm:"column:delai;type:varchar(64)"`
	RespondedAt *time.Time  `json:"date_reponse,omitempty" gorm:"column:date_reponse"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID"`
}

// TableName returns the database table name for Devis.
func (Devis) TableName() string { return "devis" }

// Conversation is a support thread between a user and the back office,
// scoped to one subject. The (user_id, sujet) unique index is what makes
// find-or-create safe under concurrent calls.
//
// Fields:
//   - UserID: thread initiator.
//   - AssignedTo: optional support agent id.
//   - Subject: normalized topic; one thread per (user, subject).
//   - LastActivity: bumped on every message append.
type Conversation struct {
	ID           string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID       string    `json:"user_id"    gorm:"type:char(36);not null;uniqueIndex:ux_conversation_user_subject,priority:1;index"`
	AssignedTo   *string   `json:"assigne_a,omitempty" gorm:"column:assigne_a;type:char(36);index"`
	Subject      string    `json:"sujet"      gorm:"column:sujet;type:varchar(255);not null;uniqueIndex:ux_conversation_user_subject,priority:2"`
	Status       string    `json:"statut"     gorm:"column:statut;type:varchar(16);not null;default:'ouvert'"`
	LastActivity time.Time `json:"derniere_activite" gorm:"column:derniere_activite"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Messages []Message `json:"messages,omitempty" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// Message is a single utterance within a conversation. Messages are
// append-only; only the read flag is ever updated after creation.
type Message struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	ConversationID string    `json:"conversation_id" gorm:"type:char(36);not null;index:idx_conversation_msgs,priority:1"`
	SenderID       string    `json:"expediteur_id"   gorm:"column:expediteur_id;type:char(36);not null;index"`
	Content        string    `json:"contenu"         gorm:"column:contenu;type:text;not null"`
	Read           bool      `json:"lu"              gorm:"column:lu;not null;default:false"`
	CreatedAt      time.Time `json:"created_at"      gorm:"index:idx_conversation_msgs,priority:2"`

	Sender *User `json:"expediteur,omitempty" gorm:"foreignKey:SenderID;references:ID"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }
