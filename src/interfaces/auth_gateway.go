package interfaces

import (
	"context"

	"coin-control/src/models"
)

// -----------------------------------------------------------------------------
// IAuthGateway defines the authentication contract the client core requires
// from its backend.
// -----------------------------------------------------------------------------

type IAuthGateway interface {

	// -----------------------------------------------------------------------------

	// ValidateToken verifies a stored credential and returns its claims.
	// Fails with InvalidCredentialError when expired or malformed.
	ValidateToken(token string) (*models.MClaims, error)

	// -----------------------------------------------------------------------------

	// GetIdentityByID resolves the identity record behind a user id.
	GetIdentityByID(ctx context.Context, userID string) (*models.MIdentity, error)

	// -----------------------------------------------------------------------------

	// Login authenticates nickname/password and issues a fresh token.
	// Fails with AuthenticationFailedError on bad credentials.
	Login(ctx context.Context, nickname, password string) (*models.MIdentity, string, error)

	// -----------------------------------------------------------------------------

	// CreateIdentityWithCredential creates identity and credential atomically:
	// both rows exist afterwards or neither does.
	CreateIdentityWithCredential(ctx context.Context, nickname, password, firstName, lastName string) (*models.MIdentity, error)
}
