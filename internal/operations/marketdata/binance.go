package marketdata

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"golang.org/x/time/rate"
)

// BinanceSource fetches daily klines from Binance futures.
type BinanceSource struct {
	client      *futures.Client
	rateLimiter *rate.Limiter
}

func NewBinanceSource(apiKey, secretKey string) *BinanceSource {
	httpClient := &http.Client{
		Timeout: time.Second * 10,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	futuresClient := futures.NewClient(apiKey, secretKey)
	futuresClient.HTTPClient = httpClient

	return &BinanceSource{
		client:      futuresClient,
		rateLimiter: rate.NewLimiter(rate.Limit(10), 20),
	}
}

// DailyCandles fetches 1d klines for the range, oldest first. Transient
// failures are retried with exponential backoff before the range is given
// up on.
func (s *BinanceSource) DailyCandles(ctx context.Context, ticker string, from, to time.Time) ([]Candle, error) {
	klines, err := s.fetchKlines(ctx, ticker, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch klines for %s: %w", ticker, err)
	}

	candles := make([]Candle, 0, len(klines))
	for _, k := range klines {
		candles = append(candles, Candle{
			T:      k.OpenTime,
			Open:   parseFloat(k.Open),
			High:   parseFloat(k.High),
			Low:    parseFloat(k.Low),
			Close:  parseFloat(k.Close),
			Volume: parseFloat(k.Volume),
		})
	}
	return candles, nil
}

func (s *BinanceSource) fetchKlines(ctx context.Context, ticker string, from, to time.Time) ([]*futures.Kline, error) {
	maxRetries := 3
	backoff := 100 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := s.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		klines, err := s.client.NewKlinesService().
			Symbol(ticker).
			Interval("1d").
			StartTime(from.UnixMilli()).
			EndTime(to.UnixMilli()).
			Limit(1500).
			Do(ctx)
		if err == nil {
			return klines, nil
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}

		waitTime := time.Duration(math.Pow(2, float64(attempt))) * backoff
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(waitTime):
		}
	}
	return nil, lastErr
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
