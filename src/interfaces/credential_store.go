package interfaces

// -----------------------------------------------------------------------------
// ICredentialStore persists one opaque session token across restarts.
// -----------------------------------------------------------------------------

type ICredentialStore interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the backing storage.
	Initialize() error

	// -----------------------------------------------------------------------------

	// Read returns the stored token, or the empty string when none exists.
	Read() (string, error)

	// -----------------------------------------------------------------------------

	// Write stores the token, replacing any previous one.
	Write(token string) error

	// -----------------------------------------------------------------------------

	// Clear removes the stored token. Clearing an empty store is a no-op.
	Clear() error

	// -----------------------------------------------------------------------------

	// Close releases the backing storage.
	Close() error
}
