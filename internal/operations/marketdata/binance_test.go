package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const klineBody = `[[1514764800000,"100.0","110.0","90.0","105.0","1234.5",` +
	`1514851199999,"129600.0",42,"600.0","63000.0","0"]]`

func newKlineBackend(t *testing.T, failures int32) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= failures {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(klineBody))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestDailyCandlesRetriesTransientFailures(t *testing.T) {
	srv, calls := newKlineBackend(t, 2)
	source := NewBinanceSource("", "")
	source.client.BaseURL = srv.URL

	candles, err := source.DailyCandles(context.Background(),
		"BTCUSDT", time.UnixMilli(1514764800000), time.UnixMilli(1514851200000))
	require.NoError(t, err)

	assert.Equal(t, int32(3), atomic.LoadInt32(calls), "two failures then success")
	require.Len(t, candles, 1)
	assert.Equal(t, int64(1514764800000), candles[0].T)
	assert.Equal(t, 105.0, candles[0].Close)
	assert.Equal(t, 1234.5, candles[0].Volume)
}

func TestDailyCandlesGivesUpAfterMaxRetries(t *testing.T) {
	srv, calls := newKlineBackend(t, 100)
	source := NewBinanceSource("", "")
	source.client.BaseURL = srv.URL

	_, err := source.DailyCandles(context.Background(),
		"BTCUSDT", time.UnixMilli(1514764800000), time.UnixMilli(1514851200000))
	require.Error(t, err)
	assert.Equal(t, int32(4), atomic.LoadInt32(calls), "initial call plus three retries")
}
