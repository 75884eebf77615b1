package geocode

import (
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

func newTestLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

// googleTestClient sends requests for DefaultGoogleURL to the test server at
// srvURL, keeping the query string.
func googleTestClient(srvURL string) *http.Client {
	return &http.Client{Transport: googleRedirect{target: srvURL}}
}

type googleRedirect struct {
	target string
}

func (g googleRedirect) RoundTrip(req *http.Request) (*http.Response, error) {
	if !strings.HasPrefix(req.URL.String(), DefaultGoogleURL) {
		return http.DefaultTransport.RoundTrip(req)
	}
	u, err := url.Parse(g.target)
	if err != nil {
		return nil, err
	}
	u.RawQuery = req.URL.RawQuery
	out := req.Clone(req.Context())
	out.URL = u
	out.Host = u.Host
	return http.DefaultTransport.RoundTrip(out)
}
