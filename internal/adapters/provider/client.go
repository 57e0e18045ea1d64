package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/transtime/routeplanner/internal/core/domain"
	"github.com/transtime/routeplanner/internal/pkg/geospatial"
)

// Client talks to the external map provider's geocoding and routing APIs.
// It implements ports.Geocoder and ports.RouteBuilder.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *slog.Logger
}

// New creates a provider client.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		log:     slog.Default().With("component", "provider"),
	}
}

type geocodeResponse struct {
	Results []struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"results"`
}

// Geocode resolves a free-text address to its best-match coordinate.
func (c *Client) Geocode(ctx context.Context, address string) (domain.Coordinate, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("limit", "1")

	var resp geocodeResponse
	status, err := c.getJSON(ctx, "/geocode", q, &resp)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: %v", domain.ErrProvider, err)
	}
	switch {
	case status == http.StatusNotFound:
		return domain.Coordinate{}, fmt.Errorf("%w: %q", domain.ErrGeocodeNotFound, address)
	case status != http.StatusOK:
		return domain.Coordinate{}, fmt.Errorf("%w: geocode status %d", domain.ErrProvider, status)
	}
	if len(resp.Results) == 0 {
		return domain.Coordinate{}, fmt.Errorf("%w: %q", domain.ErrGeocodeNotFound, address)
	}
	coord := domain.Coordinate{Lon: resp.Results[0].Lon, Lat: resp.Results[0].Lat}
	if !coord.Valid() {
		return domain.Coordinate{}, fmt.Errorf("%w: geocode returned invalid coordinate", domain.ErrProvider)
	}
	return coord, nil
}

type routeResponse struct {
	Routes []struct {
		Distance          float64       `json:"distance"`
		Duration          float64       `json:"duration"`
		DurationInTraffic float64       `json:"duration_in_traffic"`
		Bounds            [][]float64   `json:"bounds,omitempty"`
		Geometry          [][][]float64 `json:"geometry"`
	} `json:"routes"`
}

// BuildRoute requests ranked alternatives through the ordered waypoints.
// The first provider alternative starts active.
func (c *Client) BuildRoute(ctx context.Context, points []domain.Coordinate, opts domain.RouteOptions) (*domain.RouteResult, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: at least two waypoints required", domain.ErrInvalidInput)
	}

	q := url.Values{}
	q.Set("mode", string(opts.Mode))
	q.Set("alternatives", strconv.Itoa(opts.Alternatives))
	q.Set("waypoints", waypointsParam(points))
	if opts.WeightKg > 0 {
		q.Set("weight", formatFloat(opts.WeightKg))
	}
	if opts.HeightM > 0 {
		q.Set("height", formatFloat(opts.HeightM))
	}
	if opts.WidthM > 0 {
		q.Set("width", formatFloat(opts.WidthM))
	}
	if opts.LengthM > 0 {
		q.Set("length", formatFloat(opts.LengthM))
	}

	var resp routeResponse
	status, err := c.getJSON(ctx, "/route", q, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProvider, err)
	}
	switch {
	case status == http.StatusUnprocessableEntity:
		return nil, domain.ErrNoRoute
	case status != http.StatusOK:
		return nil, fmt.Errorf("%w: route status %d", domain.ErrProvider, status)
	}
	if len(resp.Routes) == 0 {
		return nil, domain.ErrNoRoute
	}

	result := &domain.RouteResult{}
	for i, r := range resp.Routes {
		alt := domain.RouteAlternative{
			Index:                i,
			DistanceMeters:       r.Distance,
			DurationSec:          r.Duration,
			DurationInTrafficSec: r.DurationInTraffic,
		}
		if box, ok := geospatial.NormalizeBBox(r.Bounds); ok {
			alt.Bounds = &box
		}
		for _, line := range r.Geometry {
			path := domain.Path{}
			for _, pair := range line {
				pt := append([]float64(nil), pair...)
				if !geospatial.NormalizePair(pt) {
					continue
				}
				path.Coordinates = append(path.Coordinates, domain.Coordinate{Lon: pt[0], Lat: pt[1]})
			}
			if len(path.Coordinates) > 0 {
				alt.Paths = append(alt.Paths, path)
			}
		}
		if alt.DistanceMeters == 0 {
			for _, p := range alt.Paths {
				alt.DistanceMeters += geospatial.PathLength(p.Coordinates)
			}
		}
		result.Alternatives = append(result.Alternatives, alt)
	}
	result.ActiveIndex = result.Alternatives[0].Index
	return result, nil
}

// getJSON issues a GET and decodes the body when the status is 2xx. It
// returns the status code either way so callers can map provider errors.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) (int, error) {
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s response: %w", path, err)
	}
	return resp.StatusCode, nil
}

func waypointsParam(points []domain.Coordinate) string {
	s := ""
	for i, p := range points {
		if i > 0 {
			s += "|"
		}
		s += formatFloat(p.Lon) + "," + formatFloat(p.Lat)
	}
	return s
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
