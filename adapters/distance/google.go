package distance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	cerrors "move-cost/internal/errors"
)

// DefaultGoogleBaseURL is the Distance Matrix endpoint
const DefaultGoogleBaseURL = "https://maps.googleapis.com/maps/api/distancematrix/json"

// GoogleConfig configures the Distance Matrix resolver
type GoogleConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration

	// Breaker trips after this many consecutive transport failures
	FailureThreshold uint32

	// OpenTimeout is how long the breaker stays open
	OpenTimeout time.Duration
}

// GoogleResolver asks the Distance Matrix API for driving distance
type GoogleResolver struct {
	cfg     GoogleConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewGoogleResolver creates a Distance Matrix resolver.
// Callers only wire it in when an API key is configured.
func NewGoogleResolver(cfg GoogleConfig, client *http.Client, logger *zap.Logger) *GoogleResolver {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGoogleBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	settings := gobreaker.Settings{
		Name:        "google-distance-matrix",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// unroutable addresses do not count against the breaker
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrUnresolved)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &GoogleResolver{
		cfg:     cfg,
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

// Name implements Resolver
func (g *GoogleResolver) Name() string { return string(SourceGoogleMaps) }

// State exposes the breaker state
func (g *GoogleResolver) State() gobreaker.State { return g.breaker.State() }

type matrixResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Rows         []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance *struct {
				Value float64 `json:"value"`
				Text  string  `json:"text"`
			} `json:"distance"`
		} `json:"elements"`
	} `json:"rows"`
}

// Resolve implements Resolver
func (g *GoogleResolver) Resolve(ctx context.Context, origin, destination string) (Result, error) {
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.fetch(ctx, origin, destination)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return Result{}, cerrors.Distance("distance matrix unavailable: circuit breaker open", err)
	case err != nil:
		return Result{}, err
	}
	return Result{Miles: out.(float64), Source: SourceGoogleMaps}, nil
}

func (g *GoogleResolver) fetch(ctx context.Context, origin, destination string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	q := url.Values{}
	q.Set("origins", origin)
	q.Set("destinations", destination)
	q.Set("units", "imperial")
	q.Set("key", g.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, cerrors.Distance("failed to build distance matrix request", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, cerrors.Distance("distance matrix request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, cerrors.Distance(fmt.Sprintf("distance matrix returned HTTP %d", resp.StatusCode), nil)
	}

	var body matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, cerrors.Distance("failed to decode distance matrix response", err)
	}

	if body.Status != "OK" {
		g.logger.Warn("distance matrix error", zap.String("status", body.Status), zap.String("message", body.ErrorMessage))
		return 0, fmt.Errorf("distance matrix status %s: %w", body.Status, ErrUnresolved)
	}
	if len(body.Rows) == 0 || len(body.Rows[0].Elements) == 0 {
		return 0, fmt.Errorf("distance matrix returned no elements: %w", ErrUnresolved)
	}

	element := body.Rows[0].Elements[0]
	if element.Status != "OK" {
		g.logger.Warn("distance matrix route error", zap.String("status", element.Status))
		return 0, fmt.Errorf("distance matrix route status %s: %w", element.Status, ErrUnresolved)
	}
	if element.Distance == nil {
		return 0, fmt.Errorf("distance matrix element has no distance: %w", ErrUnresolved)
	}

	return round2(element.Distance.Value * MilesPerMeter), nil
}
