package models

// -----------------------------------------------------------------------------
// Session State Machine
// -----------------------------------------------------------------------------

// SessionState tracks where the session manager is in its lifecycle.
type SessionState int

const (
	SessionUnknown SessionState = iota
	SessionValidating
	SessionAuthenticated
	SessionAnonymous
)

// -----------------------------------------------------------------------------

func (s SessionState) String() string {
	switch s {
	case SessionValidating:
		return "VALIDATING"
	case SessionAuthenticated:
		return "AUTHENTICATED"
	case SessionAnonymous:
		return "ANONYMOUS"
	default:
		return "UNKNOWN"
	}
}

// -----------------------------------------------------------------------------
// Session Records
// -----------------------------------------------------------------------------

// MSession is the in-memory record of the authenticated identity and its token.
// At most one exists process-wide, owned by the session manager.
type MSession struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	Token    string `json:"-"`
}

// -----------------------------------------------------------------------------

// MSessionSnapshot is the immutable view handed to consumers. Reads always go
// through a snapshot obtained at use time, never a live reference.
type MSessionSnapshot struct {
	State   SessionState `json:"state"`
	Session *MSession    `json:"session,omitempty"`
	Loading bool         `json:"loading"`
}

// -----------------------------------------------------------------------------

// Authenticated reports whether the snapshot carries a live session.
func (s MSessionSnapshot) Authenticated() bool {
	return s.State == SessionAuthenticated && s.Session != nil
}

// -----------------------------------------------------------------------------
// Identity / Claims (auth gateway boundary)
// -----------------------------------------------------------------------------

// MIdentity is the identity record returned by the auth gateway.
type MIdentity struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	UserID   string `json:"user_id"`
}

// MClaims are the verified claims extracted from a credential token.
type MClaims struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
}
