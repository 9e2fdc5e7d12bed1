package interfaces

import "coin-control/src/models"

// -----------------------------------------------------------------------------
// ISessionReader is the read side of the session manager. Components that
// merely gate on authentication depend on this, never on the manager itself.
// -----------------------------------------------------------------------------

type ISessionReader interface {

	// Snapshot returns an immutable view of the current session state.
	Snapshot() models.MSessionSnapshot
}
