package twelvedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/Alias1177/zonescan/internal/config"
	httpClient "github.com/Alias1177/zonescan/internal/platform/http"
	"github.com/Alias1177/zonescan/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultBaseURL = "https://api.twelvedata.com"

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrAPI              = errors.New("twelve data api error")
)

// Client is the TwelveData API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
	now        func() time.Time
}

// ClientOptions holds options for creating a new TwelveData client
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
}

// timeSeriesResponse represents the API response from Twelve Data
type timeSeriesResponse struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	} `json:"meta"`
	Values []struct {
		Datetime string `json:"datetime"`
		Open     string `json:"open"`
		High     string `json:"high"`
		Low      string `json:"low"`
		Close    string `json:"close"`
		Volume   string `json:"volume,omitempty"`
	} `json:"values"`
	Status  string `json:"status"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// NewClient creates a new TwelveData API client
func NewClient(options ClientOptions) *Client {
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		apiKey:  options.APIKey,
		baseURL: baseURL,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:         options.RequestTimeout,
			RequestsPerSec:  options.RequestsPerSec,
			MaxRetryTimeout: options.MaxRetryTimeout,
		}),
		logger: log.With().Str("component", "twelvedata_client").Logger(),
		now:    time.Now,
	}
}

// Candles fetches up to lookback candles for a timeframe key, oldest first
func (c *Client) Candles(ctx context.Context, symbol, timeframe string, lookback int) ([]models.Candle, error) {
	interval, ok := models.FeedInterval(timeframe)
	if !ok {
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownTimeframe, timeframe)
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("outputsize", strconv.Itoa(lookback))
	q.Set("timezone", "UTC")
	q.Set("apikey", c.apiKey)
	endpoint := c.baseURL + "/time_series?" + q.Encode()

	c.logger.Debug().Str("symbol", symbol).Str("interval", interval).Int("lookback", lookback).Msg("Fetching candles")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var data timeSeriesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if data.Status == "error" {
		c.logger.Error().Int("code", data.Code).Str("message", data.Message).Msg("Twelve Data API error")
		return nil, fmt.Errorf("%w: %d %s", ErrAPI, data.Code, data.Message)
	}
	if len(data.Values) == 0 {
		return nil, fmt.Errorf("%w: no candles for %s %s", ErrInsufficientData, symbol, timeframe)
	}

	candles := make([]models.Candle, 0, len(data.Values))
	for _, v := range data.Values {
		candle, err := parseValue(v.Datetime, v.Open, v.High, v.Low, v.Close, v.Volume)
		if err != nil {
			return nil, fmt.Errorf("parsing candle %s: %w", v.Datetime, err)
		}
		candles = append(candles, candle)
	}

	// Sort candles by time (oldest first for proper calculations)
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})

	c.logger.Debug().Int("count", len(candles)).Msg("Fetched candles")
	return candles, nil
}

// LastClosed returns the high/low of the most recently closed candle
func (c *Client) LastClosed(ctx context.Context, symbol, timeframe string) (models.HTFLevel, error) {
	length, ok := models.TimeframeDuration(timeframe)
	if !ok {
		return models.HTFLevel{}, fmt.Errorf("%w: %q", config.ErrUnknownTimeframe, timeframe)
	}

	candles, err := c.Candles(ctx, symbol, timeframe, 2)
	if err != nil {
		return models.HTFLevel{}, err
	}

	now := c.now()
	for i := len(candles) - 1; i >= 0; i-- {
		if !candles[i].Time.Add(length).After(now) {
			return models.HTFLevel{
				Timeframe: timeframe,
				High:      candles[i].High,
				Low:       candles[i].Low,
				Time:      candles[i].Time,
			}, nil
		}
	}
	return models.HTFLevel{}, fmt.Errorf("%w: no closed %s candle for %s", ErrInsufficientData, timeframe, symbol)
}

var datetimeLayouts = []string{"2006-01-02 15:04:05", "2006-01-02"}

func parseValue(datetime, open, high, low, closePrice, volume string) (models.Candle, error) {
	var (
		ts  time.Time
		err error
	)
	for _, layout := range datetimeLayouts {
		ts, err = time.ParseInLocation(layout, datetime, time.UTC)
		if err == nil {
			break
		}
	}
	if err != nil {
		return models.Candle{}, err
	}

	prices := make([]float64, 4)
	for i, raw := range []string{open, high, low, closePrice} {
		prices[i], err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.Candle{}, err
		}
	}

	var vol int64
	if volume != "" {
		vol, _ = strconv.ParseInt(volume, 10, 64)
	}

	return models.Candle{
		Time:   ts,
		Open:   prices[0],
		High:   prices[1],
		Low:    prices[2],
		Close:  prices[3],
		Volume: vol,
	}, nil
}
