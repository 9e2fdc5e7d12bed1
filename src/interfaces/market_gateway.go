package interfaces

import (
	"context"

	"coin-control/src/models"
)

// -----------------------------------------------------------------------------
// IMarketGateway defines the exchange contract for balances and prices.
// -----------------------------------------------------------------------------

type IMarketGateway interface {

	// -----------------------------------------------------------------------------

	// FetchHoldings returns the user's balances in exchange order, unfiltered.
	FetchHoldings(ctx context.Context, userID string) ([]models.MHolding, error)

	// -----------------------------------------------------------------------------

	// GetCurrentPrice returns the last traded price as a decimal string.
	GetCurrentPrice(ctx context.Context, symbol string) (string, error)

	// -----------------------------------------------------------------------------

	// StartPriceStream opens a push stream for the symbol. Updates arrive on
	// the event bus under the symbol's stream key.
	StartPriceStream(symbol string) error

	// -----------------------------------------------------------------------------

	// StopPriceStream tears down the stream for the symbol. Idempotent.
	StopPriceStream(symbol string) error
}
