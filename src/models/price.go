package models

import "strings"

// -----------------------------------------------------------------------------
// Stream State Machine
// -----------------------------------------------------------------------------

// StreamState tracks a price subscription's lifecycle. At most one
// subscription per consumer context may sit in Starting or Live.
type StreamState int

const (
	StreamStopped StreamState = iota
	StreamStarting
	StreamLive
	StreamStopping
)

// -----------------------------------------------------------------------------

func (s StreamState) String() string {
	switch s {
	case StreamStarting:
		return "STARTING"
	case StreamLive:
		return "LIVE"
	case StreamStopping:
		return "STOPPING"
	default:
		return "STOPPED"
	}
}

// -----------------------------------------------------------------------------
// Price Records
// -----------------------------------------------------------------------------

// PriceUnavailable is the display marker used when no valid price is known.
const PriceUnavailable = "unavailable"

// PriceTopic derives the stream key correlating a subscription with its
// inbound update events. Emitter and subscriber must agree on it exactly or
// updates are silently dropped.
func PriceTopic(symbol string) string {
	return "price-update-" + strings.ToLower(symbol)
}

// MPriceTick is one accepted price update for a symbol.
type MPriceTick struct {
	Symbol    string `json:"symbol"`
	Price     string `json:"price"`
	Timestamp int64  `json:"timestamp"`
}

// -----------------------------------------------------------------------------

// MAssetQuote is the render snapshot of the focused asset. Price holds
// PriceUnavailable when the initial fetch failed and no update arrived since.
type MAssetQuote struct {
	Symbol     string       `json:"symbol"`
	State      StreamState  `json:"state"`
	Price      string       `json:"price"`
	LastUpdate int64        `json:"last_update"`
	IconURL    string       `json:"icon_url,omitempty"`
	History    []MPriceTick `json:"history,omitempty"`
}
