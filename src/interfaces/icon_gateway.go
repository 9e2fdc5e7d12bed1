package interfaces

import (
	"context"

	"coin-control/src/models"
)

// -----------------------------------------------------------------------------
// IIconGateway defines the contract for coin icon resolution and caching.
// -----------------------------------------------------------------------------

type IIconGateway interface {

	// -----------------------------------------------------------------------------

	// ResolveIconURLs resolves display icon URLs for a set of symbols in one
	// batched call.
	ResolveIconURLs(ctx context.Context, symbols []string) ([]models.MIconEntry, error)

	// -----------------------------------------------------------------------------

	// WarmIconCache populates the local disk cache for the symbols.
	// Best-effort: the caller never waits on it and never sees its errors.
	WarmIconCache(symbols []string) error
}
