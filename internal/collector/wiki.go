package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"FlipSentinel/internal/model"
)

// DefaultWikiBaseURL is the public real-time prices API.
const DefaultWikiBaseURL = "https://prices.runescape.wiki/api/v1/osrs"

// WikiFetcher implements Fetcher against the prices wiki REST API.
type WikiFetcher struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
	Limiter   *rate.Limiter
}

// NewWikiFetcher creates a fetcher with optional proxy support. The API asks
// for a descriptive User-Agent; requests are throttled to ratePerSec.
func NewWikiFetcher(baseURL, userAgent, proxyURL string, ratePerSec float64) *WikiFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		} else {
			log.Printf("[WARN] ignoring bad proxy url %q: %v", proxyURL, err)
		}
	}
	if baseURL == "" {
		baseURL = DefaultWikiBaseURL
	}
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	return &WikiFetcher{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Limiter: rate.NewLimiter(limit, 1),
	}
}

func (f *WikiFetcher) Name() string { return "wiki" }

type wikiMapping struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Limit int64  `json:"limit"`
}

type wikiLatest struct {
	High     *int64 `json:"high"`
	HighTime *int64 `json:"highTime"`
	Low      *int64 `json:"low"`
	LowTime  *int64 `json:"lowTime"`
}

type wikiAggregate struct {
	AvgHighPrice    *int64 `json:"avgHighPrice"`
	HighPriceVolume int64  `json:"highPriceVolume"`
	AvgLowPrice     *int64 `json:"avgLowPrice"`
	LowPriceVolume  int64  `json:"lowPriceVolume"`
}

type wikiPoint struct {
	Timestamp int64 `json:"timestamp"`
	wikiAggregate
}

func (f *WikiFetcher) FetchMapping(ctx context.Context) ([]model.ItemMeta, error) {
	var raw []wikiMapping
	if err := f.getJSON(ctx, "/mapping", &raw); err != nil {
		return nil, fmt.Errorf("fetch mapping: %w", err)
	}
	items := make([]model.ItemMeta, 0, len(raw))
	for _, m := range raw {
		items = append(items, model.ItemMeta{
			ItemID: m.ID,
			Name:   m.Name,
			Limit:  model.PositionLimitFromRaw(m.Limit),
		})
	}
	return items, nil
}

func (f *WikiFetcher) FetchLatest(ctx context.Context) ([]model.PriceSample, error) {
	var resp struct {
		Data map[string]wikiLatest `json:"data"`
	}
	if err := f.getJSON(ctx, "/latest", &resp); err != nil {
		return nil, fmt.Errorf("fetch latest: %w", err)
	}
	samples := make([]model.PriceSample, 0, len(resp.Data))
	for key, l := range resp.Data {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		ts := latestTime(l.HighTime, l.LowTime)
		if ts == 0 {
			continue
		}
		samples = append(samples, model.PriceSample{
			ItemID:    id,
			Timestamp: time.Unix(ts, 0).UTC(),
			High:      l.High,
			Low:       l.Low,
		})
	}
	return samples, nil
}

// FetchVolumes sums both sides of the 24h aggregate into one trade count.
func (f *WikiFetcher) FetchVolumes(ctx context.Context) ([]model.VolumeSample, error) {
	var resp struct {
		Data map[string]wikiAggregate `json:"data"`
	}
	if err := f.getJSON(ctx, "/24h", &resp); err != nil {
		return nil, fmt.Errorf("fetch volumes: %w", err)
	}
	vols := make([]model.VolumeSample, 0, len(resp.Data))
	for key, a := range resp.Data {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		vols = append(vols, model.VolumeSample{ItemID: id, TradeCount24h: a.HighPriceVolume + a.LowPriceVolume})
	}
	return vols, nil
}

func (f *WikiFetcher) FetchTimeseries(ctx context.Context, itemID int, step string) ([]model.PriceSample, error) {
	var resp struct {
		Data []wikiPoint `json:"data"`
	}
	q := url.Values{}
	q.Set("timestep", step)
	q.Set("id", strconv.Itoa(itemID))
	if err := f.getJSON(ctx, "/timeseries?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("fetch timeseries %d: %w", itemID, err)
	}
	samples := make([]model.PriceSample, 0, len(resp.Data))
	for _, p := range resp.Data {
		if p.AvgHighPrice == nil && p.AvgLowPrice == nil {
			continue
		}
		samples = append(samples, model.PriceSample{
			ItemID:    itemID,
			Timestamp: time.Unix(p.Timestamp, 0).UTC(),
			High:      p.AvgHighPrice,
			Low:       p.AvgLowPrice,
		})
	}
	return samples, nil
}

func (f *WikiFetcher) getJSON(ctx context.Context, path string, out any) error {
	if err := f.Limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+path, nil)
	if err != nil {
		return err
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func latestTime(a, b *int64) int64 {
	var ts int64
	if a != nil {
		ts = *a
	}
	if b != nil && *b > ts {
		ts = *b
	}
	return ts
}
