package payment

import (
	"context"
	"math/big"

	"github.com/trigg3rX/triggerx-registry/internal/registry/interfaces"
	"github.com/trigg3rX/triggerx-registry/pkg/logging"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

// Feeds reads the gas and credit prices used for payment estimates, falling back to
// the configured prices when a feed fails, answers non-positive, or is older than
// StalenessHeights.
type Feeds struct {
	gas    interfaces.PriceFeed
	link   interfaces.PriceFeed
	logger logging.Logger
}

func NewFeeds(gas, link interfaces.PriceFeed, logger logging.Logger) *Feeds {
	return &Feeds{gas: gas, link: link, logger: logger}
}

// Prices returns (fastGasWei, linkNative) at height.
func (f *Feeds) Prices(ctx context.Context, cfg types.OnchainConfig, height uint64) (*big.Int, *big.Int) {
	gas := f.read(ctx, "gas", f.gas, cfg.StalenessHeights, height, cfg.FallbackGasPrice)
	link := f.read(ctx, "link_native", f.link, cfg.StalenessHeights, height, cfg.FallbackLinkNative)
	return gas, link
}

func (f *Feeds) read(ctx context.Context, name string, feed interfaces.PriceFeed, staleness, height uint64, fallback *big.Int) *big.Int {
	if feed == nil {
		return types.CloneInt(fallback)
	}
	answer, updatedAt, err := feed.LatestRound(ctx)
	switch {
	case err != nil:
		f.logger.Warn("Price feed failed, using fallback", "feed", name, "error", err)
	case answer == nil || answer.Sign() <= 0:
		f.logger.Warn("Price feed answer not positive, using fallback", "feed", name)
	case staleness > 0 && height > updatedAt && height-updatedAt > staleness:
		f.logger.Debug("Price feed stale, using fallback", "feed", name, "updated_at", updatedAt, "height", height)
	default:
		return new(big.Int).Set(answer)
	}
	return types.CloneInt(fallback)
}
