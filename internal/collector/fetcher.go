package collector

import (
	"context"

	"FlipSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchMapping(ctx context.Context) ([]model.ItemMeta, error)
	FetchLatest(ctx context.Context) ([]model.PriceSample, error)
	FetchVolumes(ctx context.Context) ([]model.VolumeSample, error)
	FetchTimeseries(ctx context.Context, itemID int, step string) ([]model.PriceSample, error)
	Name() string
}
