package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/georef-cli/internal/geodesy"
	"github.com/sells-group/georef-cli/internal/resilience"
)

// DefaultGoogleURL is the Google Geocoding JSON endpoint.
const DefaultGoogleURL = "https://maps.googleapis.com/maps/api/geocode/json"

type googleLatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type googleBounds struct {
	Northeast googleLatLng `json:"northeast"`
	Southwest googleLatLng `json:"southwest"`
}

// googleGeocodeResponse is the JSON response from the Google Geocoding API.
type googleGeocodeResponse struct {
	Results      []googleResult `json:"results"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
}

type googleResult struct {
	Geometry struct {
		Location     googleLatLng  `json:"location"`
		LocationType string        `json:"location_type"`
		Bounds       *googleBounds `json:"bounds"`
	} `json:"geometry"`
	FormattedAddress string `json:"formatted_address"`
}

// ParseGoogleResponse reads a raw Google Geocoding response and returns its
// first result. ZERO_RESULTS yields ErrNoMatch; quota and server-side statuses
// are transient.
func ParseGoogleResponse(data []byte) (*Result, error) {
	var resp googleGeocodeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, eris.Wrap(err, "geocode: google parse response")
	}

	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, ErrNoMatch
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
		return nil, resilience.NewTransientError(
			eris.Errorf("geocode: google status %s", resp.Status), http.StatusTooManyRequests)
	default:
		return nil, eris.Errorf("geocode: google status %s: %s", resp.Status, resp.ErrorMessage)
	}
	if len(resp.Results) == 0 {
		return nil, ErrNoMatch
	}

	first := resp.Results[0]
	loc := first.Geometry.Location
	center, err := geodesy.NewPoint(loc.Lng, loc.Lat)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google location")
	}

	r := &Result{
		Name:      first.FormattedAddress,
		Center:    center,
		Precision: strings.ToUpper(first.Geometry.LocationType),
		Source:    "google",
	}
	if b := first.Geometry.Bounds; b != nil {
		r.Bounds = &geodesy.Bounds{
			NE: geodesy.Point{Lng: geodesy.NormalizeLng(b.Northeast.Lng), Lat: b.Northeast.Lat},
			SW: geodesy.Point{Lng: geodesy.NormalizeLng(b.Southwest.Lng), Lat: b.Southwest.Lat},
		}
	}
	return r, nil
}

// GoogleProvider geocodes through the Google Geocoding API.
type GoogleProvider struct {
	key        string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
}

// GoogleOption configures a GoogleProvider.
type GoogleOption func(*GoogleProvider)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) GoogleOption {
	return func(g *GoogleProvider) { g.httpClient = c }
}

// WithBaseURL points the provider at another endpoint.
func WithBaseURL(u string) GoogleOption {
	return func(g *GoogleProvider) {
		if u != "" {
			g.baseURL = u
		}
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64) GoogleOption {
	return func(g *GoogleProvider) {
		if rps > 0 {
			g.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) GoogleOption {
	return func(g *GoogleProvider) { g.retry = cfg }
}

// NewGoogleProvider creates a provider using the given API key.
func NewGoogleProvider(key string, opts ...GoogleOption) *GoogleProvider {
	g := &GoogleProvider{
		key:        key,
		baseURL:    DefaultGoogleURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(10), 1),
		retry:      resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(g)
	}
	if g.retry.OnRetry == nil {
		g.retry.OnRetry = resilience.RetryLogger("google", "geocode")
	}
	return g
}

// Name implements Provider.
func (g *GoogleProvider) Name() string { return "google" }

// Lookup implements Provider.
func (g *GoogleProvider) Lookup(ctx context.Context, query string) (*Result, error) {
	if err := checkQuery(query); err != nil {
		return nil, err
	}
	if g.key == "" {
		return nil, eris.New("geocode: google api key not configured")
	}
	return resilience.Do(ctx, g.retry, func(ctx context.Context) (*Result, error) {
		return g.lookupOnce(ctx, query)
	})
}

func (g *GoogleProvider) lookupOnce(ctx context.Context, query string) (*Result, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: google rate limit")
	}

	params := url.Values{
		"address": {strings.TrimSpace(query)},
		"key":     {g.key},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google build request")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("geocode: google returned status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google read body")
	}

	r, err := ParseGoogleResponse(body)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("google geocode",
		zap.String("query", query),
		zap.String("precision", r.Precision),
		zap.Bool("bounded", r.Bounds != nil),
	)
	return r, nil
}
