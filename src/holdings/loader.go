package holdings

import (
	"context"

	"coin-control/src/helpers"
	"coin-control/src/icons"
	"coin-control/src/interfaces"
	"coin-control/src/logger"
	"coin-control/src/models"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Loader
//
// Thin consumer over the market gateway and the icon warmer: fetches the
// user's balances, keeps the coins actually held and annotates them with
// display icons. Icon trouble never fails a holdings load.
// -----------------------------------------------------------------------------

type Loader struct {
	Market  interfaces.IMarketGateway
	Warmer  *icons.Warmer
	Session interfaces.ISessionReader
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewLoader(market interfaces.IMarketGateway, warmer *icons.Warmer, session interfaces.ISessionReader, log *logger.Logger) *Loader {
	return &Loader{
		Market:  market,
		Warmer:  warmer,
		Session: session,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

// Load fetches the user's holdings, filtered to free+locked > 0 with the
// exchange's ordering preserved. Icons for the distinct symbol set are
// resolved in one batch and the disk cache warm is fired without waiting.
func (l *Loader) Load(ctx context.Context, userID string) ([]models.MHolding, error) {
	snap := l.Session.Snapshot()
	if snap.Loading {
		return nil, helpers.NewBackendUnavailable("session still validating", nil)
	}
	if !snap.Authenticated() {
		return nil, helpers.NewAuthenticationFailed("not authenticated", nil)
	}

	raw, err := l.Market.FetchHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}

	held := make([]models.MHolding, 0, len(raw))
	symbols := make([]string, 0, len(raw))
	for _, h := range raw {
		if !hasBalance(h) {
			continue
		}
		held = append(held, h)
		symbols = append(symbols, h.Coin)
	}

	if len(held) == 0 {
		return held, nil
	}

	// Annotate with icons; a resolution failure just renders without them.
	resolved, err := l.Warmer.ResolveIcons(ctx, symbols)
	if err != nil {
		l.Logger.Warning("Icon resolution failed, rendering holdings without icons: %v", err)
	} else {
		for i := range held {
			if entry, ok := resolved[held[i].Coin]; ok {
				held[i].IconURL = l.Warmer.PickURL(entry)
			}
		}
	}

	l.Warmer.Warm(symbols)

	return held, nil
}

// -----------------------------------------------------------------------------

// hasBalance reports whether free+locked is positive. Unparsable quantities
// count as zero.
func hasBalance(h models.MHolding) bool {
	total := decimal.Zero
	if free, err := decimal.NewFromString(h.Free); err == nil {
		total = total.Add(free)
	}
	if locked, err := decimal.NewFromString(h.Locked); err == nil {
		total = total.Add(locked)
	}
	return total.IsPositive()
}
