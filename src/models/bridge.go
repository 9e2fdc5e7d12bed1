package models

// -----------------------------------------------------------------------------
// UI bridge wire types
// -----------------------------------------------------------------------------

// MFocusCommand is the message a connected view sends over the websocket to
// switch the focused asset.
type MFocusCommand struct {
	Action string `json:"action"`
	Symbol string `json:"symbol"`
}

// -----------------------------------------------------------------------------

// MBridgeMessage is the envelope for everything pushed to a view.
type MBridgeMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// -----------------------------------------------------------------------------

// MLoginRequest carries the login form.
type MLoginRequest struct {
	Nickname string `json:"nickname" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// MRegisterRequest carries the registration form.
type MRegisterRequest struct {
	Nickname  string `json:"nickname" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// MThemeRequest switches the UI theme.
type MThemeRequest struct {
	Mode string `json:"mode" binding:"required"`
}
