// Status lifecycles for reservations, transports, and devis.
//
// Each entity kind declares its initial state, its set of valid states, and
// the set of valid (from, to) transitions. Anything outside the declared set
// is rejected; there is no clamping and no silent no-op. The shared contract
// is the Lifecycle interface below, so callers can treat the three kinds
// uniformly while each keeps its own transition table.
//
// State diagrams:
//
//	Reservation:  en_attente ──> confirmee
//	                   └───────> annulee
//
//	Transport:    en_attente ──> marchandise_recue ──> en_transit ──> livree
//	                   └──────────────┴───────────────────┘
//	                              (annulee from any non-terminal state)
//
//	Devis:        en_attente ──> repondu
package domain

// ReservationStatus is the lifecycle state of a Reservation.
type ReservationStatus string

// Reservation lifecycle states. en_attente is initial; confirmee and annulee
// are terminal.
const (
	ReservationPending   ReservationStatus = "en_attente"
	ReservationConfirmed ReservationStatus = "confirmee"
	ReservationCancelled ReservationStatus = "annulee"
)

// TransportStatus is the lifecycle state of a Transport.
type TransportStatus string

// Transport lifecycle states. en_attente is initial; livree and annulee are
// terminal.
const (
	TransportPending       TransportStatus = "en_attente"
	TransportGoodsReceived TransportStatus = "marchandise_recue"
	TransportInTransit     TransportStatus = "en_transit"
	TransportDelivered     TransportStatus = "livree"
	TransportCancelled     TransportStatus = "annulee"
)

// DevisStatus is the lifecycle state of a Devis.
type DevisStatus string

// Devis lifecycle states. en_attente is initial; repondu is terminal.
const (
	DevisPending  DevisStatus = "en_attente"
	DevisAnswered DevisStatus = "repondu"
)

// TransportMode selects the freight mode used to price a transport.
type TransportMode string

const (
	ModeMaritime TransportMode = "maritime"
	ModeAir      TransportMode = "aerien"
)

// DevisType is the service a quote request is about.
type DevisType string

const (
	DevisAchat          DevisType = "achat"
	DevisTransport      DevisType = "transport"
	DevisAccompagnement DevisType = "accompagnement"
)

// Conversation statuses. Threads start ouvert and may be closed by support.
const (
	ConversationOpen   = "ouvert"
	ConversationClosed = "ferme"
)

// Lifecycle is the shared status-transition contract. Each entity kind
// supplies its own transition table; the services apply transitions through
// this interface and reject anything it does not allow.
type Lifecycle interface {
	// Kind names the entity for error reporting ("reservation", ...).
	Kind() string
	// Initial is the state assigned at creation.
	Initial() string
	// Valid reports whether s is a declared state of this lifecycle.
	Valid(s string) bool
	// CanTransition reports whether from -> to is a declared transition.
	CanTransition(from, to string) bool
}

// table is a generic transition-table lifecycle. The zero value is not
// usable; construct via the package-level lifecycle variables.
type table struct {
	kind        string
	initial     string
	transitions map[string][]string
}

func (t table) Kind() string    { return t.kind }
func (t table) Initial() string { return t.initial }

func (t table) Valid(s string) bool {
	if s == t.initial {
		return true
	}
	if _, ok := t.transitions[s]; ok {
		return true
	}
	for _, tos := range t.transitions {
		for _, to := range tos {
			if to == s {
				return true
			}
		}
	}
	return false
}

func (t table) CanTransition(from, to string) bool {
	for _, allowed := range t.transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ReservationLifecycle declares the reservation transition table. Terminal
// states have no outgoing entries.
var ReservationLifecycle Lifecycle = table{
	kind:    "reservation",
	initial: string(ReservationPending),
	transitions: map[string][]string{
		string(ReservationPending): {
			string(ReservationConfirmed),
			string(ReservationCancelled),
		},
	},
}

// TransportLifecycle declares the transport transition table. annulee is
// reachable from every non-terminal state.
var TransportLifecycle Lifecycle = table{
	kind:    "transport",
	initial: string(TransportPending),
	transitions: map[string][]string{
		string(TransportPending): {
			string(TransportGoodsReceived),
			string(TransportCancelled),
		},
		string(TransportGoodsReceived): {
			string(TransportInTransit),
			string(TransportCancelled),
		},
		string(TransportInTransit): {
			string(TransportDelivered),
			string(TransportCancelled),
		},
	},
}

// DevisLifecycle declares the devis transition table: a single transition to
// its terminal repondu state.
var DevisLifecycle Lifecycle = table{
	kind:    "devis",
	initial: string(DevisPending),
	transitions: map[string][]string{
		string(DevisPending): {string(DevisAnswered)},
	},
}

// ValidTransportMode reports whether m is one of the supported freight modes.
func ValidTransportMode(m TransportMode) bool {
	return m == ModeMaritime || m == ModeAir
}

// ValidDevisType reports whether t is one of the supported quote services.
func ValidDevisType(t DevisType) bool {
	switch t {
	case DevisAchat, DevisTransport, DevisAccompagnement:
		return true
	}
	return false
}
