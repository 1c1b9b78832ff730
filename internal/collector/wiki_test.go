package collector

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wikiServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/mapping", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "flip-sentinel-test", r.Header.Get("User-Agent"))
		w.Write([]byte(`[
			{"id":561,"name":"Nature rune","limit":18000,"members":false},
			{"id":453,"name":"Coal"}
		]`))
	})
	mux.HandleFunc("/latest", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{
			"561":{"high":190,"highTime":1700000100,"low":175,"lowTime":1700000050},
			"453":{"high":180,"highTime":1700000000,"low":null,"lowTime":null},
			"bogus":{"high":1,"highTime":1},
			"777":{"high":null,"highTime":null,"low":null,"lowTime":null}
		}}`))
	})
	mux.HandleFunc("/24h", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{
			"561":{"avgHighPrice":191,"highPriceVolume":350000,"avgLowPrice":176,"lowPriceVolume":250000}
		},"timestamp":1700000000}`))
	})
	mux.HandleFunc("/timeseries", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5m", r.URL.Query().Get("timestep"))
		if r.URL.Query().Get("id") != "561" {
			http.Error(w, "unknown item", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"data":[
			{"timestamp":1700000000,"avgHighPrice":190,"avgLowPrice":175,"highPriceVolume":10,"lowPriceVolume":12},
			{"timestamp":1700000300,"avgHighPrice":null,"avgLowPrice":174,"highPriceVolume":0,"lowPriceVolume":3},
			{"timestamp":1700000600,"avgHighPrice":null,"avgLowPrice":null,"highPriceVolume":0,"lowPriceVolume":0}
		],"itemId":561}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestWikiFetcher_Endpoints(t *testing.T) {
	srv := wikiServer(t)
	f := NewWikiFetcher(srv.URL, "flip-sentinel-test", "", 0)
	ctx := context.Background()

	items, err := f.FetchMapping(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(18_000), items[0].Limit.Cap())
	assert.True(t, items[1].Limit.IsUnlimited(), "missing limit means unlimited")

	latest, err := f.FetchLatest(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	sort.Slice(latest, func(i, j int) bool { return latest[i].ItemID < latest[j].ItemID })
	assert.Equal(t, 453, latest[0].ItemID)
	assert.Nil(t, latest[0].Low)
	assert.Equal(t, int64(1700000100), latest[1].Timestamp.Unix())

	vols, err := f.FetchVolumes(ctx)
	require.NoError(t, err)
	require.Len(t, vols, 1)
	assert.Equal(t, int64(600_000), vols[0].TradeCount24h)

	series, err := f.FetchTimeseries(ctx, 561, "5m")
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Nil(t, series[1].High)
	assert.Equal(t, int64(174), *series[1].Low)

	_, err = f.FetchTimeseries(ctx, 1, "5m")
	assert.ErrorContains(t, err, "status 400")
}

func TestWikiFetcher_Defaults(t *testing.T) {
	f := NewWikiFetcher("", "", "http://127.0.0.1:3128", 2)
	assert.Equal(t, DefaultWikiBaseURL, f.BaseURL)
	assert.Equal(t, "wiki", f.Name())
	assert.InDelta(t, 2.0, float64(f.Limiter.Limit()), 1e-9)
}

func TestWikiFetcher_BadProxyIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	f := NewWikiFetcher("", "ua", "http://[::1", 0)
	assert.Contains(t, buf.String(), "[WARN] ignoring bad proxy url")
	assert.Nil(t, f.Client.Transport.(*http.Transport).Proxy)
}
