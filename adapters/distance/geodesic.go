package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	cerrors "move-cost/internal/errors"
)

// DefaultNominatimURL is the OpenStreetMap geocoding endpoint
const DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"

// DefaultUserAgent identifies this service to the geocoder
const DefaultUserAgent = "household-goods-calculator"

// earthRadiusKm is the IUGG mean earth radius
const earthRadiusKm = 6371.0088

// Point is a latitude/longitude pair in degrees
type Point struct {
	Lat float64
	Lon float64
}

// Haversine returns the great-circle distance between a and b in kilometers
func Haversine(a, b Point) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	lat1, lat2 := toRad(a.Lat), toRad(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// GeodesicConfig configures the great-circle resolver
type GeodesicConfig struct {
	NominatimURL string
	UserAgent    string
	Timeout      time.Duration
}

// GeodesicResolver geocodes both ends and measures the straight line between them
type GeodesicResolver struct {
	cfg    GeodesicConfig
	client *http.Client
	logger *zap.Logger
}

// NewGeodesicResolver creates a great-circle resolver
func NewGeodesicResolver(cfg GeodesicConfig, client *http.Client, logger *zap.Logger) *GeodesicResolver {
	if cfg.NominatimURL == "" {
		cfg.NominatimURL = DefaultNominatimURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeodesicResolver{cfg: cfg, client: client, logger: logger}
}

// Name implements Resolver
func (g *GeodesicResolver) Name() string { return string(SourceGeodesic) }

// Resolve implements Resolver
func (g *GeodesicResolver) Resolve(ctx context.Context, origin, destination string) (Result, error) {
	from, err := g.Geocode(ctx, origin)
	if err != nil {
		return Result{}, err
	}
	to, err := g.Geocode(ctx, destination)
	if err != nil {
		return Result{}, err
	}

	miles := round2(Haversine(from, to) * MilesPerKilometer)
	return Result{Miles: miles, Source: SourceGeodesic}, nil
}

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode converts a location string to coordinates
func (g *GeodesicResolver) Geocode(ctx context.Context, location string) (Point, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	q := url.Values{}
	q.Set("q", location)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.NominatimURL+"?"+q.Encode(), nil)
	if err != nil {
		return Point{}, cerrors.Distance("failed to build geocoding request", err)
	}
	req.Header.Set("User-Agent", g.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Point{}, cerrors.Distance("geocoding request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Point{}, cerrors.Distance(fmt.Sprintf("geocoder returned HTTP %d", resp.StatusCode), nil)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return Point{}, cerrors.Distance("failed to decode geocoding response", err)
	}
	if len(places) == 0 {
		g.logger.Info("location not found", zap.String("location", location))
		return Point{}, fmt.Errorf("no geocoding result for %q: %w", location, ErrUnresolved)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return Point{}, cerrors.Distance("geocoder returned invalid latitude", err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return Point{}, cerrors.Distance("geocoder returned invalid longitude", err)
	}
	return Point{Lat: lat, Lon: lon}, nil
}
