// Package pricing implements the deterministic cost calculators used when
// reservations and transports are created. Prices are computed exactly once,
// at creation time, and persisted; nothing in this package is ever re-run
// against a stored record.
package pricing

import (
	"math"
)

// Transport pricing constants. The formula is intentionally simple: a fixed
// base per mode scaled by weight (per 100 kg) and volume (per 1000 L / m3).
const (
	baseMaritime = 500.0
	baseAir      = 1500.0

	// Delivery estimates are fixed bands, not carrier quotes.
	etaMaritime = "15-30 jours"
	etaAir      = "3-5 jours"

)

// Currency is the single denomination every amount in this package (and
// every persisted price) is expressed in.
const Currency = "USD"

// TransportQuote is the two-mode estimate returned to the customer before
// they commit to a transport request.
type TransportQuote struct {
	MaritimePrice float64 `json:"prix_maritime"`
	AirPrice      float64 `json:"prix_aerien"`
	MaritimeETA   string  `json:"delai_maritime"`
	AirETA        string  `json:"delai_aerien"`
	Currency      string  `json:"devise"`
}

// QuoteTransport computes both maritime and air estimates for a shipment.
//
//	price = base * (weight/100) * (volume/1000), rounded to 2 decimals
//
// A weight or volume of 0 yields a price of 0; that is accepted
// input-dependent behavior, not an error. Negative inputs are the caller's
// responsibility to reject before calling (see services.TransportService).
func QuoteTransport(weight, volume float64) TransportQuote {
	weightFactor := weight / 100
	volumeFactor := volume / 1000
	return TransportQuote{
		MaritimePrice: Round2(baseMaritime * weightFactor * volumeFactor),
		AirPrice:      Round2(baseAir * weightFactor * volumeFactor),
		MaritimeETA:   etaMaritime,
		AirETA:        etaAir,
		Currency:      Currency,
	}
}

// PriceForMode selects the estimate matching the chosen freight mode.
// mode must be "maritime" or "aerien"; anything else returns the maritime
// price, the cheaper of the two, and is rejected upstream anyway.
func (q TransportQuote) PriceForMode(mode string) float64 {
	if mode == "aerien" {
		return q.AirPrice
	}
	return q.MaritimePrice
}

// ReservationTotal computes quantity x unitPrice rounded to 2 decimals.
// The caller validates quantity >= 1 and unitPrice >= 0 first; this function
// is pure arithmetic.
func ReservationTotal(quantity int, unitPrice float64) float64 {
	return Round2(float64(quantity) * unitPrice)
}

// Round2 rounds to 2 decimal places, half away from zero. Monetary amounts
// in this codebase are stored as float64 with exactly this rounding applied
// at the single point where they are computed.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
