// Package travel geocodes addresses and estimates point-to-point drive
// times through the Google Maps APIs, degrading to a deterministic
// great-circle formula whenever the backend is unavailable. Degradation is
// not an error: callers read the Source field to judge estimate quality.
package travel

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"github.com/rgoodwin/fieldsync/pkg/model"
)

const (
	// SourceGoogle marks estimates served by the Distance Matrix API.
	SourceGoogle = "google"
	// SourceFallback marks estimates derived from pure geometry.
	SourceFallback = "fallback"
)

// Estimate is a drive distance/duration between two points.
type Estimate struct {
	DistanceKm  float64 `json:"distanceKm"`
	DurationMin float64 `json:"durationMin"`
	Source      string  `json:"source"`
}

// mapsAPI is the slice of the maps client the estimator uses. Satisfied by
// *maps.Client; faked in tests.
type mapsAPI interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
	DistanceMatrix(ctx context.Context, r *maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, error)
}

// Estimator resolves addresses and drive-time estimates.
type Estimator struct {
	api   mapsAPI
	cache *GeocodeCache
	log   *zap.SugaredLogger
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithGeocodeCache reuses previously resolved addresses.
func WithGeocodeCache(cache *GeocodeCache) Option {
	return func(e *Estimator) { e.cache = cache }
}

// WithLogger sets the estimator logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(e *Estimator) { e.log = log }
}

// NewEstimator builds an estimator for the given API key. A missing key is
// a configuration error and fails here; the fallback path never needs the
// backend, but the online path is a hard precondition.
func NewEstimator(apiKey string, opts ...Option) (*Estimator, error) {
	if apiKey == "" {
		return nil, errors.New("travel: maps api key must be configured")
	}
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrap(err, "travel: creating maps client")
	}

	e := &Estimator{api: c, log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Geocode resolves a free-text address to a point. Ambiguous or failed
// resolution yields nil, never an error.
func (e *Estimator) Geocode(ctx context.Context, address string) *model.GeoPoint {
	if address == "" {
		return nil
	}
	if e.cache != nil {
		if p, ok := e.cache.Get(address); ok {
			return &p
		}
	}

	results, err := e.api.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		e.log.Debugw("geocoding failed", "address", address, "err", err)
		return nil
	}
	if len(results) == 0 {
		e.log.Debugw("geocoding returned no results", "address", address)
		return nil
	}

	loc := results[0].Geometry.Location
	p := model.GeoPoint{Lat: loc.Lat, Lng: loc.Lng}
	if e.cache != nil {
		e.cache.Set(address, p)
		if err := e.cache.Save(); err != nil {
			e.log.Warnw("could not save geocode cache", "err", err)
		}
	}
	return &p
}

// Estimate returns the drive distance/duration from origin to destination,
// falling back to geometry when the backend fails.
func (e *Estimator) Estimate(ctx context.Context, origin, destination model.GeoPoint) Estimate {
	return e.EstimateBatch(ctx, origin, []model.GeoPoint{destination})[0]
}

// EstimateBatch estimates many destinations in one backend round trip. A
// failed batch degrades every element to fallback independently rather than
// surfacing an error.
func (e *Estimator) EstimateBatch(ctx context.Context, origin model.GeoPoint, destinations []model.GeoPoint) []Estimate {
	out := make([]Estimate, len(destinations))
	if len(destinations) == 0 {
		return out
	}

	dests := make([]string, len(destinations))
	for i, d := range destinations {
		dests[i] = latLng(d)
	}
	resp, err := e.api.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      []string{latLng(origin)},
		Destinations: dests,
		Mode:         maps.TravelModeDriving,
		Units:        maps.UnitsMetric,
	})
	if err != nil || len(resp.Rows) == 0 || len(resp.Rows[0].Elements) != len(destinations) {
		if err != nil {
			e.log.Warnw("distance matrix unavailable, using fallback estimates", "err", err)
		}
		for i, d := range destinations {
			out[i] = fallbackEstimate(origin, d)
		}
		return out
	}

	for i, el := range resp.Rows[0].Elements {
		if el.Status != "OK" || (el.Distance.Meters == 0 && el.Duration == 0) {
			out[i] = fallbackEstimate(origin, destinations[i])
			continue
		}
		out[i] = Estimate{
			DistanceKm:  float64(el.Distance.Meters) / 1000,
			DurationMin: el.Duration.Minutes(),
			Source:      SourceGoogle,
		}
	}
	return out
}

func latLng(p model.GeoPoint) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lng)
}
