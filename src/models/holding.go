package models

// -----------------------------------------------------------------------------

// MHolding is a read-only balance snapshot for one coin, fetched per view-load.
// Quantities stay as decimal strings the way the exchange returns them.
type MHolding struct {
	Coin    string `json:"coin"`
	Free    string `json:"free"`
	Locked  string `json:"locked"`
	IconURL string `json:"icon_url,omitempty"`
}

// -----------------------------------------------------------------------------

// MIconEntry holds the theme variants for one coin icon, keyed by uppercase
// symbol. Which variant is shown is decided at render time, not here.
type MIconEntry struct {
	Coin       string `json:"coin"`
	LightURL   string `json:"lightUrl,omitempty"`
	DarkURL    string `json:"darkUrl,omitempty"`
	GenericURL string `json:"iconUrl,omitempty"`
}
